package service

import (
	"errors"
	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/repository"
	"guidesphere_backend/internal/util"
	"strings"

	"gorm.io/gorm"
)

// UserService 处理用户相关的业务逻辑
type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{
		UserRepo: userRepo,
	}
}

func (s *UserService) GetByID(id string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

func (s *UserService) UpdateAvatar(userID, uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return util.ErrAvatarRequired
	}
	n, err := s.UserRepo.UpdateAvatar(userID, uri)
	if err != nil {
		return err
	}
	if n == 0 {
		return util.ErrUserNotFound
	}
	return nil
}

// List 非 superadmin 只能看到自己
func (s *UserService) List(claims *util.Claims, q string, page, pageSize int) ([]model.User, int64, int, error) {
	if !claims.IsSuperAdmin() {
		user, err := s.GetByID(claims.UserID())
		if err != nil {
			return nil, 0, 1, err
		}
		return []model.User{*user}, 1, 1, nil
	}

	users, total, err := s.UserRepo.Search(q, page, pageSize)
	if err != nil {
		return nil, 0, page, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, total, page, nil
}

// UpdateUserInput 只更新非 nil 字段
type UpdateUserInput struct {
	Email       *string `json:"email"`
	Username    *string `json:"username"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Role        *string `json:"role"`
	NewPassword *string `json:"new_password"`
}

func (s *UserService) Update(claims *util.Claims, id string, in UpdateUserInput) (int64, error) {
	if !claims.IsSuperAdmin() && claims.UserID() != id {
		return 0, util.ErrPermissionDenied
	}

	fields := map[string]interface{}{}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if !util.ValidEmail(email) {
			return 0, util.ErrInvalidEmail
		}
		fields["email"] = email
	}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if !util.ValidUsername(username) {
			return 0, util.ErrInvalidUsername
		}
		fields["username"] = username
	}
	if in.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.Role != nil {
		if !claims.IsSuperAdmin() {
			return 0, util.ErrPermissionDenied
		}
		role := model.UserRole(strings.TrimSpace(*in.Role))
		if !role.Valid() {
			return 0, util.ErrInvalidRole
		}
		fields["role"] = role
	}
	if in.NewPassword != nil {
		if !validPassword(*in.NewPassword) {
			return 0, util.ErrPasswordLength
		}
		hashed, err := hashPassword(*in.NewPassword)
		if err != nil {
			return 0, err
		}
		fields["password"] = hashed
	}

	if len(fields) == 0 {
		return 0, nil
	}
	return s.UserRepo.UpdateFields(id, fields)
}

func (s *UserService) Delete(claims *util.Claims, id string) (int64, error) {
	if !claims.IsSuperAdmin() {
		return 0, util.ErrPermissionDenied
	}
	if claims.UserID() == id {
		return 0, util.ErrCannotDeleteSelf
	}
	return s.UserRepo.Delete(id)
}
