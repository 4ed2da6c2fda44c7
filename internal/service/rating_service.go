package service

import (
	"context"
	"encoding/json"
	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/repository"
	"guidesphere_backend/internal/util"
	"guidesphere_backend/pkg/logger"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const ratingSummaryTTL = 5 * time.Minute

type RatingService struct {
	RatingRepo *repository.RatingRepository
	CourseRepo *repository.CourseRepository
	Redis      *redis.Client
}

func NewRatingService(ratingRepo *repository.RatingRepository, courseRepo *repository.CourseRepository, rdb *redis.Client) *RatingService {
	return &RatingService{
		RatingRepo: ratingRepo,
		CourseRepo: courseRepo,
		Redis:      rdb,
	}
}

type RatingInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type RatingSummary struct {
	CourseID     string  `json:"course_id"`
	AvgRating    float64 `json:"avg_rating"`
	RatingsCount int64   `json:"ratings_count"`
	UserRating   *int    `json:"user_rating,omitempty"`
	UserComment  *string `json:"user_comment,omitempty"`
}

func ratingCacheKey(courseID string) string {
	return "rating_summary:" + courseID
}

// Rate 写入或覆盖当前用户对课程的评分
func (s *RatingService) Rate(ctx context.Context, userID, courseID string, in RatingInput) (*model.CourseRating, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, util.ErrInvalidRating
	}
	ok, err := s.CourseRepo.Exists(courseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrCourseNotFound
	}

	rating := &model.CourseRating{
		UserID:   userID,
		CourseID: courseID,
		Rating:   in.Rating,
		Comment:  strings.TrimSpace(in.Comment),
	}
	if err := s.RatingRepo.Upsert(rating); err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if err := s.Redis.Del(ctx, ratingCacheKey(courseID)).Err(); err != nil {
			logger.Log.Warn("invalidate rating cache failed", zap.String("course_id", courseID), zap.Error(err))
		}
	}
	return rating, nil
}

// Summary 课程评分汇总先查缓存；用户自己的评分每次实时读取
func (s *RatingService) Summary(ctx context.Context, userID, courseID string) (*RatingSummary, error) {
	summary, err := s.courseSummary(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if userID != "" {
		mine, err := s.RatingRepo.FindByUser(userID, courseID)
		if err != nil {
			return nil, err
		}
		if mine != nil {
			summary.UserRating = &mine.Rating
			summary.UserComment = &mine.Comment
		}
	}
	return summary, nil
}

func (s *RatingService) courseSummary(ctx context.Context, courseID string) (*RatingSummary, error) {
	key := ratingCacheKey(courseID)
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, key).Bytes(); err == nil {
			var summary RatingSummary
			if json.Unmarshal(cached, &summary) == nil {
				return &summary, nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("read rating cache failed", zap.String("course_id", courseID), zap.Error(err))
		}
	}

	agg, err := s.RatingRepo.Aggregate(courseID)
	if err != nil {
		return nil, err
	}
	summary := &RatingSummary{
		CourseID:     courseID,
		AvgRating:    util.Round2(agg.Avg),
		RatingsCount: agg.Count,
	}

	if s.Redis != nil {
		if data, err := json.Marshal(summary); err == nil {
			s.Redis.Set(ctx, key, data, ratingSummaryTTL)
		}
	}
	return summary, nil
}
