package service

import (
	"context"
	"encoding/json"
	"testing"

	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProber map[string]int

func (p fakeProber) DurationOf(_ context.Context, uri string) int {
	return p[uri]
}

func TestContentInputUnmarshal(t *testing.T) {
	var in CourseInput
	err := json.Unmarshal([]byte(`{"title":"T","documents":["/a/b.pdf",{"uri":"/c.pdf","title":"Guide"}]}`), &in)
	require.NoError(t, err)
	require.Len(t, in.Documents, 2)
	assert.Equal(t, "/a/b.pdf", in.Documents[0].URI)
	assert.Equal(t, "Guide", in.Documents[1].Title)

	err = json.Unmarshal([]byte(`{"title":"T","videos":[{"uri":"/v.mp4","thumbnail_uri":"/t.jpg"}]}`), &in)
	require.NoError(t, err)
	require.Len(t, in.Videos, 1)
	assert.Equal(t, "/t.jpg", in.Videos[0].ThumbnailURI)
}

func TestInferTitleAndDuration(t *testing.T) {
	assert.Equal(t, "Intro", InferTitle(" Intro ", "/x/y.pdf", "Document"))
	assert.Equal(t, "y.pdf", InferTitle("", "/x/y.pdf?sig=1", "Document"))
	assert.Equal(t, "Video", InferTitle("", "", "Video"))

	assert.Equal(t, "No content", EstimatedDuration(0))
	assert.Equal(t, "Short (~1 h)", EstimatedDuration(3))
	assert.Equal(t, "Medium (~3 h)", EstimatedDuration(7))
	assert.Equal(t, "Long (~6 h+)", EstimatedDuration(8))
}

func TestCourseCreateAndUpdate(t *testing.T) {
	repos := newTestRepos(newTestDB(t))
	svc := NewCourseService(repos.course, repos.progress, fakeProber{"/v/one.mp4": 95})
	ctx := context.Background()

	_, _, err := svc.Create(ctx, professor, CourseInput{Title: "  "})
	assert.ErrorIs(t, err, util.ErrTitleRequired)

	course, items, err := svc.Create(ctx, professor, CourseInput{
		Title:     "Go",
		Documents: []ContentInput{{URI: "/d/a.pdf"}, {URI: " "}},
		Videos:    []ContentInput{{URI: "/v/one.mp4"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 70, course.PassingScore)
	assert.Equal(t, professor.UserID(), course.CreatedBy)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Position)
	assert.Equal(t, "a.pdf", items[0].Title)
	assert.Equal(t, model.ContentVideo, items[1].Type)
	assert.Equal(t, 2, items[1].Position)
	assert.Equal(t, 95, items[1].DurationSec)

	other := claimsFor("prof-2", model.Professor)
	err = svc.Update(ctx, other, course.ID, CourseInput{Title: "Hijack"})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	score := 80
	err = svc.Update(ctx, professor, course.ID, CourseInput{
		Title:        "Go advanced",
		PassingScore: &score,
		Videos:       []ContentInput{{URI: "/v/two.mp4", Title: "Two"}},
	})
	require.NoError(t, err)

	stored, err := repos.course.FindByID(course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go advanced", stored.Title)
	assert.Equal(t, 80, stored.PassingScore)

	storedItems, err := repos.course.FindItems(course.ID)
	require.NoError(t, err)
	require.Len(t, storedItems, 1)
	assert.Equal(t, "Two", storedItems[0].Title)
	assert.Equal(t, "/v/two.mp4", storedItems[0].URI())

	err = svc.Update(ctx, professor, "missing", CourseInput{Title: "x"})
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestCoursePublishListAndDelete(t *testing.T) {
	repos := newTestRepos(newTestDB(t))
	svc := NewCourseService(repos.course, repos.progress, nil)
	ctx := context.Background()

	published, _, err := svc.Create(ctx, professor, CourseInput{Title: "Kubernetes", Description: "Cluster basics"})
	require.NoError(t, err)
	draft, _, err := svc.Create(ctx, professor, CourseInput{Title: "Draft"})
	require.NoError(t, err)

	n, err := svc.SetPublished(student, published.ID, true)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = svc.SetPublished(professor, published.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, total, err := svc.List(student, "public", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Kubernetes", rows[0].Title)
	assert.Equal(t, "No content", rows[0].EstimatedDuration)

	_, total, err = svc.List(professor, "mine", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, _, err = svc.List(professor, "all", "", 1, 10)
	assert.ErrorIs(t, err, util.ErrInvalidScope)
	_, _, err = svc.List(professor, "weird", "", 1, 10)
	assert.ErrorIs(t, err, util.ErrInvalidScope)

	require.NoError(t, svc.Enroll(student, published.ID))
	require.NoError(t, svc.Enroll(student, published.ID))
	assert.ErrorIs(t, svc.Enroll(student, "missing"), util.ErrCourseNotFound)

	rows, total, err = svc.List(student, "enrolled", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, published.ID, rows[0].ID)

	found, err := svc.Search("cluster")
	require.NoError(t, err)
	require.Len(t, found, 1)
	empty, err := svc.Search("  ")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = svc.Delete(student, draft.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
	n, err = svc.Delete(claimsFor("root", model.SuperAdmin), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = svc.Delete(professor, draft.ID)
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestCourseOverviewMergesProgress(t *testing.T) {
	repos := newTestRepos(newTestDB(t))
	courses := NewCourseService(repos.course, repos.progress, nil)
	progress := NewProgressService(repos.progress, repos.course, repos.quiz)
	ctx := context.Background()

	course, items, err := courses.Create(ctx, professor, CourseInput{
		Title:     "Overview",
		Documents: []ContentInput{{URI: "/d/a.pdf"}},
		Videos:    []ContentInput{{URI: "/v/b.mp4", ThumbnailURI: "/uploads/thumbnails/b.jpg"}},
	})
	require.NoError(t, err)

	empty, err := courses.Overview(student, course.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNotStarted, empty.CourseStatus)
	require.Len(t, empty.Documents, 1)
	assert.Equal(t, StatusPending, empty.Documents[0].Status)
	assert.Equal(t, "a.pdf", empty.Documents[0].Filename)

	saved, err := progress.Save(student.UserID(), course.ID, SaveProgressInput{
		LastVideoSec: 42,
		Meta: model.ProgressMeta{"items": map[string]interface{}{
			items[0].ID: map[string]interface{}{"progress_percent": float64(100), "status": "completed"},
			items[1].ID: map[string]interface{}{"progress_percent": float64(50), "last_sec": float64(42)},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, float64(75), saved.Progress)

	view, err := courses.Overview(student, course.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, view.CourseStatus)
	assert.Equal(t, float64(75), view.CourseProgressPercent)
	assert.Equal(t, float64(42), view.LastVideoSec)
	assert.Equal(t, "completed", view.Documents[0].Status)
	require.Len(t, view.Videos, 1)
	assert.Equal(t, float64(50), view.Videos[0].ProgressPercent)
	assert.Equal(t, float64(42), view.Videos[0].LastSec)
	assert.Equal(t, "/uploads/thumbnails/b.jpg", view.Videos[0].ThumbnailURI)

	explicit := 150.0
	saved, err = progress.Save(student.UserID(), course.ID, SaveProgressInput{Progress: &explicit})
	require.NoError(t, err)
	assert.Equal(t, float64(100), saved.Progress)

	_, err = courses.Overview(student, "missing")
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}
