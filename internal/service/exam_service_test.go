package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type examFixture struct {
	repos       testRepos
	courses     *CourseService
	exams       *ExamService
	progress    *ProgressService
	docsDir     string
	transcripts string
	course      *model.Course
	docItem     model.ContentItem
	videoItem   model.ContentItem
}

var (
	professor = claimsFor("prof-1", model.Professor)
	student   = claimsFor("student-1", model.Student)
	admin     = claimsFor("admin-1", model.Admin)
)

func newExamFixture(t *testing.T) *examFixture {
	t.Helper()
	db := newTestDB(t)
	f := &examFixture{
		repos:       newTestRepos(db),
		docsDir:     t.TempDir(),
		transcripts: t.TempDir(),
	}
	f.courses = NewCourseService(f.repos.course, f.repos.progress, nil)
	f.exams = NewExamService(
		f.repos.quiz,
		f.repos.course,
		&LocalGenerator{Now: fixedClock},
		NewDocumentReader(nil, f.docsDir),
		&TranscriptReader{Dir: f.transcripts},
		60,
	)
	f.progress = NewProgressService(f.repos.progress, f.repos.course, f.repos.quiz)

	course, items, err := f.courses.Create(context.Background(), professor, CourseInput{
		Title:     "Docker basics",
		Documents: []ContentInput{{URI: "/uploads/docs/intro.txt"}},
		Videos:    []ContentInput{{URI: "/uploads/videos/lesson.mp4", Title: "Lesson 1"}},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	f.course, f.docItem, f.videoItem = course, items[0], items[1]

	require.NoError(t, os.WriteFile(filepath.Join(f.docsDir, "intro.txt"), []byte(sampleText), 0644))
	return f
}

// answerAll 返回全部答对的答案
func answerAll(t *testing.T, f *examFixture, contentID string) map[string]string {
	t.Helper()
	quiz, err := f.repos.quiz.FindByContent(contentID)
	require.NoError(t, err)
	answers := map[string]string{}
	for _, q := range quiz.Questions {
		for _, o := range q.Options {
			if o.IsCorrect {
				answers[q.ID] = o.ID
			}
		}
	}
	return answers
}

func TestExamFromDocument(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	quiz, err := f.exams.FromDocument(ctx, professor, "intro", f.docItem.ID, 4)
	require.NoError(t, err)
	assert.Len(t, quiz.Questions, 4)
	assert.Equal(t, "local", quiz.Source)
	assert.Equal(t, f.docItem.ID, quiz.ContentID)

	_, err = f.exams.FromDocument(ctx, professor, "intro", f.docItem.ID, 2)
	assert.ErrorIs(t, err, util.ErrInvalidCount)
	_, err = f.exams.FromDocument(ctx, professor, "intro", f.docItem.ID, 11)
	assert.ErrorIs(t, err, util.ErrInvalidCount)

	_, err = f.exams.FromDocument(ctx, student, "intro", f.docItem.ID, 4)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = f.exams.FromDocument(ctx, professor, "intro", "missing", 4)
	assert.ErrorIs(t, err, util.ErrContentNotFound)

	// 重新生成会替换旧测验
	again, err := f.exams.FromDocument(ctx, admin, "intro", f.docItem.ID, 3)
	require.NoError(t, err)
	stored, err := f.repos.quiz.FindByContent(f.docItem.ID)
	require.NoError(t, err)
	assert.Equal(t, again.ID, stored.ID)
	assert.Len(t, stored.Questions, 3)
}

func TestExamFromDocumentTooShort(t *testing.T) {
	f := newExamFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.docsDir, "intro.txt"), []byte("too short"), 0644))

	_, err := f.exams.FromDocument(context.Background(), professor, "intro", f.docItem.ID, 5)
	assert.ErrorIs(t, err, util.ErrTextTooShort)
}

func TestExamFromVideo(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	_, err := f.exams.FromVideo(ctx, professor, f.docItem.ID, 5)
	assert.ErrorIs(t, err, util.ErrNotVideo)

	_, err = f.exams.FromVideo(ctx, professor, f.videoItem.ID, 5)
	assert.ErrorIs(t, err, util.ErrTranscriptMissing)

	require.NoError(t, os.WriteFile(filepath.Join(f.transcripts, "lesson.txt"), []byte(sampleText), 0644))
	quiz, err := f.exams.FromVideo(ctx, professor, f.videoItem.ID, 5)
	require.NoError(t, err)
	assert.Len(t, quiz.Questions, 5)
}

func TestExamByContentHidesAnswers(t *testing.T) {
	f := newExamFixture(t)
	_, err := f.exams.FromDocument(context.Background(), professor, "intro", f.docItem.ID, 3)
	require.NoError(t, err)

	view, err := f.exams.ByContent(student, f.docItem.ID)
	require.NoError(t, err)
	require.Len(t, view.Questions, 3)
	for _, q := range view.Questions {
		for _, o := range q.Options {
			assert.Nil(t, o.IsCorrect)
		}
	}

	owner, err := f.exams.ByContent(professor, f.docItem.ID)
	require.NoError(t, err)
	assert.NotNil(t, owner.Questions[0].Options[0].IsCorrect)

	_, err = f.exams.ByContent(student, f.videoItem.ID)
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
}

func TestExamSubmitIssuesCertificateOnce(t *testing.T) {
	f := newExamFixture(t)
	_, err := f.exams.FromDocument(context.Background(), professor, "intro", f.docItem.ID, 4)
	require.NoError(t, err)

	failed, err := f.exams.Submit(student, SubmitInput{ContentID: f.docItem.ID})
	require.NoError(t, err)
	assert.Equal(t, 4, failed.TotalQuestions)
	assert.Equal(t, 0, failed.CorrectCount)
	assert.Equal(t, float64(0), failed.ScorePercent)
	assert.False(t, failed.Passed)
	assert.False(t, failed.CertificateIssued)
	for _, d := range failed.Details {
		assert.Nil(t, d.SelectedOptionID)
		assert.NotNil(t, d.CorrectOptionID)
	}

	answers := answerAll(t, f, f.docItem.ID)
	passed, err := f.exams.Submit(student, SubmitInput{ContentID: f.docItem.ID, Answers: answers})
	require.NoError(t, err)
	assert.Equal(t, float64(100), passed.ScorePercent)
	assert.True(t, passed.Passed)
	assert.True(t, passed.CertificateIssued)
	assert.NotEmpty(t, passed.AttemptID)

	repeat, err := f.exams.Submit(student, SubmitInput{ContentID: f.docItem.ID, Answers: answers})
	require.NoError(t, err)
	assert.True(t, repeat.Passed)
	assert.False(t, repeat.CertificateIssued)

	certs, err := f.exams.Certificates(student.UserID())
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, f.course.ID, certs[0].CourseID)
	assert.Equal(t, "Docker basics", certs[0].CourseTitle)
	assert.Equal(t, float64(100), certs[0].ScorePercent)

	_, err = f.exams.Submit(student, SubmitInput{ContentID: "nope"})
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
}

func TestEvaluationOptionsUsesLatestAttempt(t *testing.T) {
	f := newExamFixture(t)
	_, err := f.exams.FromDocument(context.Background(), professor, "intro", f.docItem.ID, 3)
	require.NoError(t, err)

	_, err = f.progress.Save(student.UserID(), f.course.ID, SaveProgressInput{Meta: model.ProgressMeta{
		"items": map[string]interface{}{
			f.docItem.ID: map[string]interface{}{"progress_percent": float64(100)},
		},
	}})
	require.NoError(t, err)

	_, err = f.exams.Submit(student, SubmitInput{ContentID: f.docItem.ID, Answers: answerAll(t, f, f.docItem.ID)})
	require.NoError(t, err)

	res, err := f.progress.EvaluationOptions(student.UserID(), f.course.ID, nil)
	require.NoError(t, err)
	require.Len(t, res.Options, 2)
	assert.True(t, res.Options[0].Eligible)
	require.NotNil(t, res.Options[0].LastAttempt)
	assert.Equal(t, StatusApproved, res.Options[0].LastAttempt.Status)
	assert.False(t, res.Options[1].Eligible)
	assert.Equal(t, 1, res.Aggregate.ItemsApproved)
	assert.Equal(t, StatusInProgress, res.Aggregate.OverallStatus)

	_, err = f.progress.EvaluationOptions(student.UserID(), "missing", nil)
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestScorePercent(t *testing.T) {
	assert.Equal(t, float64(0), ScorePercent(0, 0))
	assert.Equal(t, 33.33, ScorePercent(1, 3))
	assert.Equal(t, float64(100), ScorePercent(4, 4))
}
