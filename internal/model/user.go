package model

import (
	"strings"
	"time"
)

type UserRole string

const (
	Student    UserRole = "student"
	Professor  UserRole = "professor"
	Admin      UserRole = "admin"
	SuperAdmin UserRole = "superadmin"
)

const DefaultAvatarURI = "/uploads/avatars/default.png"

func (r UserRole) Valid() bool {
	switch r {
	case Student, Professor, Admin, SuperAdmin:
		return true
	}
	return false
}

// swagger:model User
type User struct {
	UUIDBase
	Email     string     `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Username  string     `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Password  string     `gorm:"size:100;not null" json:"-"`
	FirstName string     `gorm:"size:100" json:"first_name"`
	LastName  string     `gorm:"size:100" json:"last_name"`
	Role      UserRole   `gorm:"size:20;not null;default:'student'" json:"role"`
	AvatarURI string     `gorm:"size:255" json:"avatar_uri"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func (User) TableName() string {
	return "user_account"
}

// DisplayName falls back from the full name to username and email.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

func (u *User) Avatar() string {
	if u.AvatarURI == "" {
		return DefaultAvatarURI
	}
	return u.AvatarURI
}

// SplitFullName puts the first token in first name and the rest in last name.
func SplitFullName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
