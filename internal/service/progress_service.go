package service

import (
	"errors"
	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/repository"
	"guidesphere_backend/internal/util"

	"gorm.io/gorm"
)

type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
	CourseRepo   *repository.CourseRepository
	QuizRepo     *repository.QuizRepository
}

func NewProgressService(progressRepo *repository.ProgressRepository, courseRepo *repository.CourseRepository, quizRepo *repository.QuizRepository) *ProgressService {
	return &ProgressService{
		ProgressRepo: progressRepo,
		CourseRepo:   courseRepo,
		QuizRepo:     quizRepo,
	}
}

// SaveProgressInput Progress 缺省时由 meta.items 推导
type SaveProgressInput struct {
	Progress     *float64           `json:"progress"`
	LastVideoSec float64            `json:"last_video_sec"`
	Meta         model.ProgressMeta `json:"meta"`
}

func (s *ProgressService) Get(userID, courseID string) (*model.CourseProgress, error) {
	p, err := s.ProgressRepo.Find(userID, courseID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return &model.CourseProgress{UserID: userID, CourseID: courseID, Meta: model.ProgressMeta{}}, nil
	}
	if p.Meta == nil {
		p.Meta = model.ProgressMeta{}
	}
	return p, nil
}

func (s *ProgressService) Save(userID, courseID string, in SaveProgressInput) (*model.CourseProgress, error) {
	if in.Meta == nil {
		in.Meta = model.ProgressMeta{}
	}

	var percent float64
	if in.Progress != nil {
		percent = *in.Progress
	} else if metaItems := ItemsFromMeta(in.Meta); len(metaItems) > 0 {
		items, err := s.CourseRepo.FindItems(courseID)
		if err != nil {
			return nil, err
		}
		percent = Aggregate(itemProgress(items, metaItems)).OverallPercent
	}

	p := &model.CourseProgress{
		UserID:       userID,
		CourseID:     courseID,
		Progress:     util.Clamp(percent, 0, 100),
		LastVideoSec: util.Clamp(in.LastVideoSec, 0, 1<<31),
		Meta:         in.Meta,
	}
	if err := s.ProgressRepo.Upsert(p); err != nil {
		return nil, err
	}
	return p, nil
}

func itemProgress(items []model.ContentItem, meta map[string]model.ItemMeta) []ItemProgress {
	out := make([]ItemProgress, 0, len(items))
	for _, it := range items {
		out = append(out, ItemProgress{
			ItemID:          it.ID,
			ItemType:        string(it.Type),
			Title:           it.Title,
			ProgressPercent: meta[it.ID].ProgressPercent,
		})
	}
	return out
}

type EvaluationResult struct {
	CourseID  string              `json:"course_id"`
	Options   []EvaluationOption  `json:"options"`
	Aggregate EvaluationAggregate `json:"aggregate"`
}

// EvaluationOptions items 为空时从课程内容和已存进度构建
func (s *ProgressService) EvaluationOptions(userID, courseID string, items []ItemProgress) (*EvaluationResult, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	if items == nil {
		contentItems, err := s.CourseRepo.FindItems(courseID)
		if err != nil {
			return nil, err
		}
		progress, err := s.Get(userID, courseID)
		if err != nil {
			return nil, err
		}
		items = itemProgress(contentItems, ItemsFromMeta(progress.Meta))
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ItemID)
	}
	attempts, err := s.QuizRepo.LatestAttempts(userID, ids)
	if err != nil {
		return nil, err
	}

	last := make(map[string]AttemptView, len(attempts))
	for contentID, a := range attempts {
		status := StatusFailed
		if a.Passed {
			status = StatusApproved
		}
		last[contentID] = AttemptView{AttemptID: a.ID, Status: status, ScorePercent: a.ScorePercent}
	}

	options, agg := EvaluateOptions(items, last)
	return &EvaluationResult{CourseID: course.ID, Options: options, Aggregate: agg}, nil
}
