package model

import "time"

// swagger:model Enrollment
type Enrollment struct {
	UUIDBase
	UserID     string    `gorm:"type:varchar(36);uniqueIndex:uq_enrollment_user_course;not null" json:"user_id"`
	CourseID   string    `gorm:"type:varchar(36);uniqueIndex:uq_enrollment_user_course;index;not null" json:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

func (Enrollment) TableName() string {
	return "enrollment"
}

// ProgressMeta is the free-form blob the client stores next to the
// course progress. The "items" key maps content ids to ItemMeta.
type ProgressMeta map[string]interface{}

type ItemMeta struct {
	ProgressPercent float64 `json:"progress_percent"`
	Status          string  `json:"status,omitempty"`
	LastSec         float64 `json:"last_sec,omitempty"`
}

// swagger:model CourseProgress
type CourseProgress struct {
	UUIDBase
	UserID       string       `gorm:"type:varchar(36);uniqueIndex:uq_progress_user_course;not null" json:"user_id"`
	CourseID     string       `gorm:"type:varchar(36);uniqueIndex:uq_progress_user_course;index;not null" json:"course_id"`
	Progress     float64      `gorm:"not null;default:0" json:"progress"`
	LastVideoSec float64      `gorm:"not null;default:0" json:"last_video_sec"`
	Meta         ProgressMeta `gorm:"type:text;serializer:json" json:"meta"`
}

func (CourseProgress) TableName() string {
	return "course_progress"
}

// swagger:model CourseRating
type CourseRating struct {
	UUIDBase
	UserID   string `gorm:"type:varchar(36);uniqueIndex:uq_rating_user_course;not null" json:"user_id"`
	CourseID string `gorm:"type:varchar(36);uniqueIndex:uq_rating_user_course;index;not null" json:"course_id"`
	Rating   int    `gorm:"not null" json:"rating"`
	Comment  string `gorm:"type:text" json:"comment"`
}

func (CourseRating) TableName() string {
	return "course_rating"
}
