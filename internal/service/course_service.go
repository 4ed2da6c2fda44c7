package service

import (
	"context"
	"encoding/json"
	"errors"
	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/repository"
	"guidesphere_backend/internal/util"
	"guidesphere_backend/pkg/monitoring"
	"strings"

	"gorm.io/gorm"
)

const defaultPassingScore = 70

// ContentInput 资源可以是 URI 字符串，也可以是 {uri, title, thumbnail_uri}
// thumbnail_uri 取自 /upload 返回的视频封面，文档忽略该字段
type ContentInput struct {
	URI          string `json:"uri"`
	Title        string `json:"title,omitempty"`
	ThumbnailURI string `json:"thumbnail_uri,omitempty"`
}

func (c *ContentInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.URI = s
		return nil
	}
	type plain ContentInput
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = ContentInput(p)
	return nil
}

type CourseInput struct {
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	PassingScore *int           `json:"passing_score"`
	Documents    []ContentInput `json:"documents"`
	Videos       []ContentInput `json:"videos"`
}

// MediaProber 返回已上传视频的时长
type MediaProber interface {
	DurationOf(ctx context.Context, uri string) int
}

type CourseService struct {
	CourseRepo   *repository.CourseRepository
	ProgressRepo *repository.ProgressRepository
	Media        MediaProber
}

func NewCourseService(courseRepo *repository.CourseRepository, progressRepo *repository.ProgressRepository, media MediaProber) *CourseService {
	return &CourseService{
		CourseRepo:   courseRepo,
		ProgressRepo: progressRepo,
		Media:        media,
	}
}

// InferTitle 显式标题优先，其次取 URI 最后一段
func InferTitle(explicit, uri, fallback string) string {
	if t := strings.TrimSpace(explicit); t != "" {
		return t
	}
	if seg := util.LastSegment(uri); seg != "" {
		return seg
	}
	return fallback
}

// EstimatedDuration 按资源数量粗略估计学习时长
func EstimatedDuration(resources int) string {
	switch {
	case resources <= 0:
		return "No content"
	case resources <= 3:
		return "Short (~1 h)"
	case resources <= 7:
		return "Medium (~3 h)"
	default:
		return "Long (~6 h+)"
	}
}

// buildItems 先文档后视频，位置从 1 开始；没有 URI 的条目被跳过
func (s *CourseService) buildItems(ctx context.Context, userID string, in CourseInput) []model.ContentItem {
	items := make([]model.ContentItem, 0, len(in.Documents)+len(in.Videos))
	pos := 0

	for _, d := range in.Documents {
		uri := strings.TrimSpace(d.URI)
		if uri == "" {
			continue
		}
		pos++
		items = append(items, model.ContentItem{
			Type:      model.ContentDocument,
			Title:     InferTitle(d.Title, uri, "Document"),
			Position:  pos,
			CreatedBy: userID,
			Document:  &model.DocumentAsset{Source: "upload", URI: uri},
		})
	}

	for _, v := range in.Videos {
		uri := strings.TrimSpace(v.URI)
		if uri == "" {
			continue
		}
		pos++
		duration := 0
		if s.Media != nil {
			duration = s.Media.DurationOf(ctx, uri)
		}
		items = append(items, model.ContentItem{
			Type:        model.ContentVideo,
			Title:       InferTitle(v.Title, uri, "Video"),
			Position:    pos,
			DurationSec: duration,
			CreatedBy:   userID,
			Media: &model.MediaAsset{
				Source:       "upload",
				URI:          uri,
				DurationSec:  duration,
				ThumbnailURI: strings.TrimSpace(v.ThumbnailURI),
			},
		})
	}
	return items
}

func passingScore(p *int) int {
	if p == nil || *p <= 0 || *p > 100 {
		return defaultPassingScore
	}
	return *p
}

func (s *CourseService) Create(ctx context.Context, claims *util.Claims, in CourseInput) (*model.Course, []model.ContentItem, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, nil, util.ErrTitleRequired
	}

	course := &model.Course{
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		PassingScore: passingScore(in.PassingScore),
		CreatedBy:    claims.UserID(),
	}
	items := s.buildItems(ctx, claims.UserID(), in)

	if err := s.CourseRepo.CreateWithContent(course, items); err != nil {
		return nil, nil, err
	}
	monitoring.CoursesCreated.Inc()
	return course, items, nil
}

// loadOwned 读取课程并校验所有者（superadmin 除外）
func (s *CourseService) loadOwned(claims *util.Claims, id string) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	if course.CreatedBy != claims.UserID() && !claims.IsSuperAdmin() {
		return nil, util.ErrPermissionDenied
	}
	return course, nil
}

func (s *CourseService) Update(ctx context.Context, claims *util.Claims, id string, in CourseInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return util.ErrTitleRequired
	}

	course, err := s.loadOwned(claims, id)
	if err != nil {
		return err
	}

	course.Title = title
	course.Description = strings.TrimSpace(in.Description)
	course.PassingScore = passingScore(in.PassingScore)

	return s.CourseRepo.ReplaceContent(course, s.buildItems(ctx, course.CreatedBy, in))
}

func (s *CourseService) SetPublished(claims *util.Claims, id string, publish bool) (int64, error) {
	return s.CourseRepo.SetPublished(id, claims.UserID(), claims.IsSuperAdmin(), publish)
}

func (s *CourseService) Delete(claims *util.Claims, id string) (int64, error) {
	if _, err := s.loadOwned(claims, id); err != nil {
		return 0, err
	}
	return s.CourseRepo.Delete(id)
}

// List scope 为 all 时只允许 superadmin
func (s *CourseService) List(claims *util.Claims, scope, q string, page, pageSize int) ([]model.CourseListItem, int64, error) {
	switch scope {
	case "mine", "public", "enrolled":
	case "all":
		if !claims.IsSuperAdmin() {
			return nil, 0, util.ErrInvalidScope
		}
	default:
		return nil, 0, util.ErrInvalidScope
	}

	rows, total, err := s.CourseRepo.List(repository.CourseFilter{
		Scope:    scope,
		UserID:   claims.UserID(),
		Query:    q,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, err
	}

	for i := range rows {
		rows[i].RatingAvg = util.Round2(rows[i].RatingAvg)
		rows[i].EstimatedDuration = EstimatedDuration(rows[i].ResourcesCount)
	}
	if rows == nil {
		rows = []model.CourseListItem{}
	}
	return rows, total, nil
}

func (s *CourseService) Search(q string) ([]model.Course, error) {
	if strings.TrimSpace(q) == "" {
		return []model.Course{}, nil
	}
	return s.CourseRepo.Search(q, util.MaxSearchResult)
}

func (s *CourseService) Enroll(claims *util.Claims, courseID string) error {
	ok, err := s.CourseRepo.Exists(courseID)
	if err != nil {
		return err
	}
	if !ok {
		return util.ErrCourseNotFound
	}
	if err := s.ProgressRepo.Enroll(claims.UserID(), courseID); err != nil {
		return err
	}
	monitoring.Enrollments.Inc()
	return nil
}

// OverviewItem 课程概览中的单个资源
type OverviewItem struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	Position        int     `json:"position"`
	URI             string  `json:"uri"`
	Filename        string  `json:"filename"`
	ProgressPercent float64 `json:"progress_percent"`
	Status          string  `json:"status"`
	DurationSec     int     `json:"duration_sec,omitempty"`
	LastSec         float64 `json:"last_sec,omitempty"`
	ThumbnailURI    string  `json:"thumbnail_uri,omitempty"`
}

type CourseOverview struct {
	Course                *model.Course      `json:"course"`
	Documents             []OverviewItem     `json:"documents"`
	Videos                []OverviewItem     `json:"videos"`
	CourseStatus          string             `json:"course_status"`
	CourseProgressPercent float64            `json:"course_progress_percent"`
	LastVideoSec          float64            `json:"last_video_sec"`
	Meta                  model.ProgressMeta `json:"meta"`
}

// Overview 合并课程内容与调用者的进度
func (s *CourseService) Overview(claims *util.Claims, courseID string) (*CourseOverview, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := s.CourseRepo.FindItems(courseID)
	if err != nil {
		return nil, err
	}

	progress, err := s.ProgressRepo.Find(claims.UserID(), courseID)
	if err != nil {
		return nil, err
	}

	out := &CourseOverview{
		Course:       course,
		Documents:    []OverviewItem{},
		Videos:       []OverviewItem{},
		CourseStatus: StatusNotStarted,
		Meta:         model.ProgressMeta{},
	}
	if progress != nil {
		out.CourseProgressPercent = progress.Progress
		out.LastVideoSec = progress.LastVideoSec
		out.CourseStatus = CourseStatus(progress.Progress)
		if progress.Meta != nil {
			out.Meta = progress.Meta
		}
	}

	itemMeta := ItemsFromMeta(out.Meta)
	for _, it := range items {
		uri := it.URI()
		view := OverviewItem{
			ID:          it.ID,
			Title:       it.Title,
			Description: it.Description,
			Position:    it.Position,
			URI:         uri,
			Filename:    util.LastSegment(uri),
			Status:      StatusPending,
		}
		if m, ok := itemMeta[it.ID]; ok {
			view.ProgressPercent = m.ProgressPercent
			view.LastSec = m.LastSec
			if m.Status != "" {
				view.Status = m.Status
			}
		}

		switch it.Type {
		case model.ContentVideo:
			view.DurationSec = it.DurationSec
			if it.Media != nil {
				view.ThumbnailURI = it.Media.ThumbnailURI
			}
			out.Videos = append(out.Videos, view)
		default:
			out.Documents = append(out.Documents, view)
		}
	}

	return out, nil
}
