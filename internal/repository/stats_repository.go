package repository

import (
	"gorm.io/gorm"
)

type StatsRepository struct {
	DB *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{DB: db}
}

type TopCourse struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Enrollments  int64   `json:"enrollments"`
	RatingAvg    float64 `json:"rating_avg"`
	RatingsCount int64   `json:"ratings_count"`
}

const topCourseColumns = `c.id, c.title,
	(SELECT COUNT(*) FROM enrollment e WHERE e.course_id = c.id) AS enrollments,
	COALESCE((SELECT AVG(r.rating * 1.0) FROM course_rating r WHERE r.course_id = c.id), 0) AS rating_avg,
	(SELECT COUNT(*) FROM course_rating r WHERE r.course_id = c.id) AS ratings_count`

func (r *StatsRepository) TopByEnrollments(limit int) ([]TopCourse, error) {
	var rows []TopCourse
	err := r.DB.Table("course AS c").
		Select(topCourseColumns).
		Order("enrollments DESC, c.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// TopByRating 只统计至少有一条评分的课程
func (r *StatsRepository) TopByRating(limit int) ([]TopCourse, error) {
	var rows []TopCourse
	err := r.DB.Table("course AS c").
		Select(topCourseColumns).
		Where("EXISTS (SELECT 1 FROM course_rating r WHERE r.course_id = c.id)").
		Order("rating_avg DESC, ratings_count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
