package service

import (
	"errors"
	"guidesphere_backend/internal/config"
	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/repository"
	"guidesphere_backend/internal/util"
	"guidesphere_backend/pkg/logger"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLen = 4
	maxPasswordLen = 64
)

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

// RegisterInput 兼容前端旧字段 nombre_completo
type RegisterInput struct {
	NombreCompleto string `json:"nombre_completo"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	Password       string `json:"password"`
}

func (in *RegisterInput) normalize() {
	if strings.TrimSpace(in.FullName) == "" {
		in.FullName = in.NombreCompleto
	}
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
}

func validPassword(p string) bool {
	n := utf8.RuneCountInString(p)
	return n >= minPasswordLen && n <= maxPasswordLen
}

func hashPassword(p string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *AuthService) Register(in RegisterInput) (*model.User, error) {
	in.normalize()
	if in.FullName == "" || in.Email == "" || in.Username == "" || in.Password == "" {
		return nil, util.ErrMissingFields
	}
	if !util.ValidEmail(in.Email) {
		return nil, util.ErrInvalidEmail
	}
	if !util.ValidUsername(in.Username) {
		return nil, util.ErrInvalidUsername
	}
	if !validPassword(in.Password) {
		return nil, util.ErrPasswordLength
	}

	exists, err := s.UserRepo.ExistsEmailOrUsername(in.Email, in.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrEmailRegistered
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	first, last := model.SplitFullName(in.FullName)
	user := &model.User{
		Email:     in.Email,
		Username:  in.Username,
		Password:  hashed,
		FirstName: first,
		LastName:  last,
		Role:      model.Student,
		AvatarURI: model.DefaultAvatarURI,
		IsActive:  true,
	}
	if err := s.UserRepo.Create(user); err != nil {
		// 并发注册时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrEmailRegistered
		}
		return nil, err
	}
	return user, nil
}

type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"-"`
}

func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, util.ErrMissingFields
	}

	user, err := s.UserRepo.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, util.ErrAccountDisabled
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}

	if err := s.UserRepo.TouchLastLogin(user.ID); err != nil {
		logger.Log.Warn("update last login failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	return &LoginResult{Token: token, User: user}, nil
}
