package repository

import (
	"guidesphere_backend/internal/model"
	"strings"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("id = ?", id).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", strings.ToLower(email)).First(&user).Error
	return &user, err
}

// ExistsEmailOrUsername 注册前的唯一性检查
func (r *UserRepository) ExistsEmailOrUsername(email, username string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) UpdateFields(id string, fields map[string]interface{}) (int64, error) {
	res := r.DB.Model(&model.User{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *UserRepository) UpdateAvatar(id, uri string) (int64, error) {
	res := r.DB.Model(&model.User{}).Where("id = ?", id).Update("avatar_uri", uri)
	return res.RowsAffected, res.Error
}

func (r *UserRepository) TouchLastLogin(id string) error {
	return r.DB.Model(&model.User{}).Where("id = ?", id).Update("last_login", time.Now()).Error
}

// Search 按邮箱、用户名、姓名模糊查询，按创建时间倒序
func (r *UserRepository) Search(q string, page, pageSize int) ([]model.User, int64, error) {
	query := r.DB.Model(&model.User{})
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error
	return users, total, err
}

func (r *UserRepository) Delete(id string) (int64, error) {
	res := r.DB.Where("id = ?", id).Delete(&model.User{})
	return res.RowsAffected, res.Error
}

func (r *UserRepository) CountByRole(role model.UserRole) (int64, error) {
	var count int64
	query := r.DB.Model(&model.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	err := query.Count(&count).Error
	return count, err
}
