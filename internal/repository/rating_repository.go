package repository

import (
	"errors"
	"guidesphere_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository struct {
	DB *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{DB: db}
}

type RatingAggregate struct {
	Avg   float64
	Count int64
}

func (r *RatingRepository) Upsert(rating *model.CourseRating) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
	}).Create(rating).Error
}

func (r *RatingRepository) Aggregate(courseID string) (RatingAggregate, error) {
	var agg RatingAggregate
	err := r.DB.Model(&model.CourseRating{}).
		Select("COALESCE(AVG(rating * 1.0), 0) AS avg, COUNT(*) AS count").
		Where("course_id = ?", courseID).
		Scan(&agg).Error
	return agg, err
}

func (r *RatingRepository) FindByUser(userID, courseID string) (*model.CourseRating, error) {
	var rating model.CourseRating
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}
