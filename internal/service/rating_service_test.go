package service

import (
	"context"
	"testing"

	"guidesphere_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingUpsertAndSummary(t *testing.T) {
	repos := newTestRepos(newTestDB(t))
	courses := NewCourseService(repos.course, repos.progress, nil)
	ratings := NewRatingService(repos.rating, repos.course, nil)
	ctx := context.Background()

	course, _, err := courses.Create(ctx, professor, CourseInput{Title: "Rated"})
	require.NoError(t, err)

	_, err = ratings.Rate(ctx, student.UserID(), course.ID, RatingInput{Rating: 0})
	assert.ErrorIs(t, err, util.ErrInvalidRating)
	_, err = ratings.Rate(ctx, student.UserID(), course.ID, RatingInput{Rating: 6})
	assert.ErrorIs(t, err, util.ErrInvalidRating)
	_, err = ratings.Rate(ctx, student.UserID(), "missing", RatingInput{Rating: 3})
	assert.ErrorIs(t, err, util.ErrCourseNotFound)

	_, err = ratings.Rate(ctx, student.UserID(), course.ID, RatingInput{Rating: 2, Comment: "meh"})
	require.NoError(t, err)
	_, err = ratings.Rate(ctx, student.UserID(), course.ID, RatingInput{Rating: 5, Comment: " great "})
	require.NoError(t, err)
	_, err = ratings.Rate(ctx, "student-2", course.ID, RatingInput{Rating: 4})
	require.NoError(t, err)

	summary, err := ratings.Summary(ctx, student.UserID(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.RatingsCount)
	assert.Equal(t, 4.5, summary.AvgRating)
	require.NotNil(t, summary.UserRating)
	assert.Equal(t, 5, *summary.UserRating)
	assert.Equal(t, "great", *summary.UserComment)

	anon, err := ratings.Summary(ctx, "student-3", course.ID)
	require.NoError(t, err)
	assert.Nil(t, anon.UserRating)

	empty, err := ratings.Summary(ctx, "", "no-ratings")
	require.NoError(t, err)
	assert.Zero(t, empty.RatingsCount)
	assert.Zero(t, empty.AvgRating)
}

func TestStatsOverview(t *testing.T) {
	repos := newTestRepos(newTestDB(t))
	courses := NewCourseService(repos.course, repos.progress, nil)
	ratings := NewRatingService(repos.rating, repos.course, nil)
	stats := NewStatsService(repos.user, repos.course, repos.progress, repos.quiz, repos.stats)
	ctx := context.Background()

	popular, _, err := courses.Create(ctx, professor, CourseInput{Title: "Popular"})
	require.NoError(t, err)
	quiet, _, err := courses.Create(ctx, professor, CourseInput{Title: "Quiet"})
	require.NoError(t, err)

	require.NoError(t, courses.Enroll(student, popular.ID))
	require.NoError(t, courses.Enroll(claimsFor("student-2", student.Role), popular.ID))
	require.NoError(t, courses.Enroll(student, quiet.ID))

	_, err = ratings.Rate(ctx, student.UserID(), quiet.ID, RatingInput{Rating: 5})
	require.NoError(t, err)
	_, err = ratings.Rate(ctx, student.UserID(), popular.ID, RatingInput{Rating: 3})
	require.NoError(t, err)

	overview, err := stats.Overview()
	require.NoError(t, err)
	assert.Equal(t, int64(2), overview.Totals.Courses)
	assert.Equal(t, int64(3), overview.Totals.Enrollments)
	assert.Zero(t, overview.Totals.Certificates)

	require.Len(t, overview.TopCoursesByEnroll, 2)
	assert.Equal(t, "Popular", overview.TopCoursesByEnroll[0].Title)
	assert.Equal(t, int64(2), overview.TopCoursesByEnroll[0].Enrollments)

	require.Len(t, overview.TopCoursesByRating, 2)
	assert.Equal(t, "Quiet", overview.TopCoursesByRating[0].Title)
	assert.Equal(t, float64(5), overview.TopCoursesByRating[0].RatingAvg)
}
