package service

import (
	"testing"

	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/repository"
	"guidesphere_backend/internal/util"
	"guidesphere_backend/pkg/database"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func claimsFor(id string, role model.UserRole) *util.Claims {
	return &util.Claims{Role: role, RegisteredClaims: jwt.RegisteredClaims{Subject: id}}
}

type testRepos struct {
	user     *repository.UserRepository
	course   *repository.CourseRepository
	progress *repository.ProgressRepository
	rating   *repository.RatingRepository
	quiz     *repository.QuizRepository
	stats    *repository.StatsRepository
}

func newTestRepos(db *gorm.DB) testRepos {
	return testRepos{
		user:     repository.NewUserRepository(db),
		course:   repository.NewCourseRepository(db),
		progress: repository.NewProgressRepository(db),
		rating:   repository.NewRatingRepository(db),
		quiz:     repository.NewQuizRepository(db),
		stats:    repository.NewStatsRepository(db),
	}
}
