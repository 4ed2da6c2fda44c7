package service

import (
	"context"
	"errors"
	"fmt"
	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/repository"
	"guidesphere_backend/internal/util"
	"guidesphere_backend/pkg/logger"
	"guidesphere_backend/pkg/monitoring"
	"guidesphere_backend/pkg/tracing"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultQuestionCount = 5
	minQuestionCount     = 3
	maxQuestionCount     = 10

	minDocumentTextLen   = 50
	minTranscriptTextLen = 80
)

type ExamService struct {
	QuizRepo      *repository.QuizRepository
	CourseRepo    *repository.CourseRepository
	Generator     QuestionGenerator
	Documents     *DocumentReader
	Transcripts   *TranscriptReader
	PassThreshold float64
}

func NewExamService(quizRepo *repository.QuizRepository, courseRepo *repository.CourseRepository, generator QuestionGenerator, documents *DocumentReader, transcripts *TranscriptReader, passThreshold float64) *ExamService {
	return &ExamService{
		QuizRepo:      quizRepo,
		CourseRepo:    courseRepo,
		Generator:     generator,
		Documents:     documents,
		Transcripts:   transcripts,
		PassThreshold: passThreshold,
	}
}

func (s *ExamService) loadItem(contentID string) (*model.ContentItem, *model.Course, error) {
	item, err := s.CourseRepo.FindItem(contentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, util.ErrContentNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	course, err := s.CourseRepo.FindByID(item.CourseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return item, course, nil
}

// canAuthor 课程所有者和非学生角色可以生成测验
func canAuthor(claims *util.Claims, course *model.Course) bool {
	return course.CreatedBy == claims.UserID() || claims.Role == model.Professor || claims.IsStaff()
}

func validCount(count int) error {
	if count < minQuestionCount || count > maxQuestionCount {
		return util.ErrInvalidCount
	}
	return nil
}

// FromDocument 读取文档正文生成测验，并替换该内容已有的测验
func (s *ExamService) FromDocument(ctx context.Context, claims *util.Claims, docID, contentID string, count int) (*model.Quiz, error) {
	if err := validCount(count); err != nil {
		return nil, err
	}
	item, course, err := s.loadItem(contentID)
	if err != nil {
		return nil, err
	}
	if !canAuthor(claims, course) {
		return nil, util.ErrPermissionDenied
	}
	if item.Document == nil || item.Document.URI == "" {
		return nil, util.ErrDocumentNotFound
	}

	text, err := s.Documents.Text(ctx, docID, item.Document.URI)
	if err != nil {
		return nil, err
	}
	if len([]rune(strings.TrimSpace(text))) < minDocumentTextLen {
		return nil, util.ErrTextTooShort
	}

	return s.generate(ctx, item, fmt.Sprintf("Auto-quiz document %s", docID), text, count)
}

// FromVideo 使用视频转写文本生成测验
func (s *ExamService) FromVideo(ctx context.Context, claims *util.Claims, contentID string, count int) (*model.Quiz, error) {
	if err := validCount(count); err != nil {
		return nil, err
	}
	item, course, err := s.loadItem(contentID)
	if err != nil {
		return nil, err
	}
	if item.Type != model.ContentVideo {
		return nil, util.ErrNotVideo
	}
	if !canAuthor(claims, course) {
		return nil, util.ErrPermissionDenied
	}
	if item.Media == nil || item.Media.URI == "" {
		return nil, util.ErrVideoNotFound
	}

	text, err := s.Transcripts.Text(contentID, item.Media.URI)
	if err != nil {
		return nil, err
	}
	if len([]rune(strings.TrimSpace(text))) < minTranscriptTextLen {
		return nil, util.ErrTextTooShort
	}

	return s.generate(ctx, item, fmt.Sprintf("Auto-quiz video %s", contentID), text, count)
}

func (s *ExamService) generate(ctx context.Context, item *model.ContentItem, title, text string, count int) (*model.Quiz, error) {
	ctx, span := tracing.StartSpan(ctx, "exam.generate",
		attribute.String("content.id", item.ID),
		attribute.Int("quiz.count", count),
		attribute.Int("text.length", len(text)),
	)
	gen, err := s.Generator.Generate(ctx, text, count)
	if err == nil {
		span.SetAttributes(attribute.String("quiz.source", gen.Source))
	}
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	if len(gen.Questions) == 0 {
		return nil, util.ErrTextTooShort
	}

	quiz := &model.Quiz{
		ContentID:   item.ID,
		Title:       title,
		Fingerprint: gen.Fingerprint,
		Source:      gen.Source,
	}
	for i, q := range gen.Questions {
		question := model.QuizQuestion{Prompt: q.Prompt, Position: i + 1}
		for j, o := range q.Options {
			question.Options = append(question.Options, model.QuizOption{
				Label:     o.Text,
				IsCorrect: o.IsCorrect,
				Position:  j + 1,
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	if err := s.QuizRepo.Replace(quiz); err != nil {
		return nil, err
	}

	monitoring.QuizzesGenerated.WithLabelValues(gen.Source).Inc()
	logger.Log.Info("quiz generated",
		zap.String("content_id", item.ID),
		zap.String("source", gen.Source),
		zap.Int("questions", len(quiz.Questions)),
	)
	return quiz, nil
}

type OptionView struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

type QuestionView struct {
	ID      string       `json:"id"`
	Prompt  string       `json:"prompt"`
	Options []OptionView `json:"options"`
}

type ExamView struct {
	QuizID    string         `json:"quiz_id"`
	Questions []QuestionView `json:"questions"`
}

func (s *ExamService) findQuiz(contentID string) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByContent(contentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	return quiz, err
}

// ByContent 学生看不到正确答案，课程所有者和管理员可以
func (s *ExamService) ByContent(claims *util.Claims, contentID string) (*ExamView, error) {
	quiz, err := s.findQuiz(contentID)
	if err != nil {
		return nil, err
	}

	reveal := claims.IsStaff()
	if !reveal {
		if _, course, err := s.loadItem(contentID); err == nil {
			reveal = course.CreatedBy == claims.UserID()
		}
	}

	view := &ExamView{QuizID: quiz.ID, Questions: make([]QuestionView, 0, len(quiz.Questions))}
	for _, q := range quiz.Questions {
		qv := QuestionView{ID: q.ID, Prompt: q.Prompt, Options: make([]OptionView, 0, len(q.Options))}
		for _, o := range q.Options {
			ov := OptionView{ID: o.ID, Text: o.Label}
			if reveal {
				correct := o.IsCorrect
				ov.IsCorrect = &correct
			}
			qv.Options = append(qv.Options, ov)
		}
		view.Questions = append(view.Questions, qv)
	}
	return view, nil
}

type SubmitInput struct {
	ContentID string            `json:"content_id" binding:"required"`
	Answers   map[string]string `json:"answers"`
}

type SubmitOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionResult struct {
	QuestionID       string         `json:"question_id"`
	Prompt           string         `json:"prompt"`
	SelectedOptionID *string        `json:"selected_option_id"`
	CorrectOptionID  *string        `json:"correct_option_id"`
	IsCorrect        bool           `json:"is_correct"`
	Options          []SubmitOption `json:"options"`
}

type SubmitResult struct {
	TotalQuestions    int              `json:"total_questions"`
	CorrectCount      int              `json:"correct_count"`
	ScorePercent      float64          `json:"score_percent"`
	Details           []QuestionResult `json:"details"`
	Passed            bool             `json:"passed"`
	AttemptID         string           `json:"attempt_id"`
	CertificateIssued bool             `json:"certificate_issued"`
}

// ScoreQuiz 按所选选项判分，不落库
func ScoreQuiz(quiz *model.Quiz, answers map[string]string) ([]QuestionResult, int) {
	details := make([]QuestionResult, 0, len(quiz.Questions))
	correctCount := 0

	for _, q := range quiz.Questions {
		res := QuestionResult{QuestionID: q.ID, Prompt: q.Prompt, Options: make([]SubmitOption, 0, len(q.Options))}
		if sel, ok := answers[q.ID]; ok && sel != "" {
			selected := sel
			res.SelectedOptionID = &selected
		}
		for _, o := range q.Options {
			res.Options = append(res.Options, SubmitOption{ID: o.ID, Text: o.Label, IsCorrect: o.IsCorrect})
			if o.IsCorrect && res.CorrectOptionID == nil {
				id := o.ID
				res.CorrectOptionID = &id
			}
		}
		res.IsCorrect = res.SelectedOptionID != nil && res.CorrectOptionID != nil && *res.SelectedOptionID == *res.CorrectOptionID
		if res.IsCorrect {
			correctCount++
		}
		details = append(details, res)
	}
	return details, correctCount
}

// ScorePercent 正确率，保留两位小数
func ScorePercent(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return util.Round2(float64(correct) / float64(total) * 100)
}

// Submit 判分并在一个事务中保存作答；通过时为所属课程颁发证书
func (s *ExamService) Submit(claims *util.Claims, in SubmitInput) (*SubmitResult, error) {
	quiz, err := s.findQuiz(in.ContentID)
	if err != nil {
		return nil, err
	}

	details, correct := ScoreQuiz(quiz, in.Answers)
	score := ScorePercent(correct, len(quiz.Questions))
	passed := score >= s.PassThreshold

	attempt := &model.ExamAttempt{
		UserID:       claims.UserID(),
		QuizID:       quiz.ID,
		ContentID:    in.ContentID,
		ScorePercent: score,
		Passed:       passed,
	}
	for _, d := range details {
		answer := model.ExamAnswer{QuestionID: d.QuestionID, IsCorrect: d.IsCorrect}
		if d.SelectedOptionID != nil {
			answer.OptionID = *d.SelectedOptionID
		}
		attempt.Answers = append(attempt.Answers, answer)
	}

	var certificate *model.CourseCertificate
	if passed {
		if item, err := s.CourseRepo.FindItem(in.ContentID); err == nil {
			certificate = &model.CourseCertificate{
				UserID:       claims.UserID(),
				CourseID:     item.CourseID,
				ScorePercent: score,
				IssuedAt:     time.Now(),
			}
		} else {
			logger.Log.Warn("content of passed exam not found, no certificate", zap.String("content_id", in.ContentID), zap.Error(err))
		}
	}

	issued, err := s.QuizRepo.SaveAttempt(attempt, certificate)
	if err != nil {
		return nil, err
	}

	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	monitoring.ExamSubmissions.WithLabelValues(outcome).Inc()

	return &SubmitResult{
		TotalQuestions:    len(quiz.Questions),
		CorrectCount:      correct,
		ScorePercent:      score,
		Details:           details,
		Passed:            passed,
		AttemptID:         attempt.ID,
		CertificateIssued: issued,
	}, nil
}

type CertificateItem struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"course_id"`
	CourseTitle  string    `json:"course_title"`
	ScorePercent float64   `json:"score_percent"`
	IssuedAt     time.Time `json:"issued_at"`
}

// Certificates 当前用户的证书，最新的在前
func (s *ExamService) Certificates(userID string) ([]CertificateItem, error) {
	certs, titles, err := s.QuizRepo.CertificatesByUser(userID)
	if err != nil {
		return nil, err
	}
	out := make([]CertificateItem, 0, len(certs))
	for _, c := range certs {
		out = append(out, CertificateItem{
			ID:           c.ID,
			CourseID:     c.CourseID,
			CourseTitle:  titles[c.CourseID],
			ScorePercent: c.ScorePercent,
			IssuedAt:     c.IssuedAt,
		})
	}
	return out, nil
}
