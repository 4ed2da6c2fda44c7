package repository

import (
	"errors"
	"guidesphere_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// Enroll 重复报名不报错
func (r *ProgressRepository) Enroll(userID, courseID string) error {
	enrollment := &model.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now(),
	}
	return r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(enrollment).Error
}

func (r *ProgressRepository) IsEnrolled(userID, courseID string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

func (r *ProgressRepository) CountEnrollments() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Enrollment{}).Count(&count).Error
	return count, err
}

// Find 没有记录时返回 nil, nil
func (r *ProgressRepository) Find(userID, courseID string) (*model.CourseProgress, error) {
	var progress model.CourseProgress
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// Upsert 按 (user_id, course_id) 写入进度
func (r *ProgressRepository) Upsert(progress *model.CourseProgress) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"progress", "last_video_sec", "meta", "updated_at"}),
	}).Create(progress).Error
}
