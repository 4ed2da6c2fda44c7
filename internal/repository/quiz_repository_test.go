package repository

import (
	"sync"
	"testing"
	"time"

	"guidesphere_backend/internal/model"
	"guidesphere_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAttemptIssuesCertificateOnce(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	repo := NewQuizRepository(db)

	passing := func() (*model.ExamAttempt, *model.CourseCertificate) {
		attempt := &model.ExamAttempt{UserID: "u1", QuizID: "q1", ContentID: "c1", ScorePercent: 80, Passed: true}
		cert := &model.CourseCertificate{UserID: "u1", CourseID: "course-1", ScorePercent: 80, IssuedAt: time.Now()}
		return attempt, cert
	}

	attempt, cert := passing()
	issued, err := repo.SaveAttempt(attempt, cert)
	require.NoError(t, err)
	assert.True(t, issued)

	const n = 5
	var wg sync.WaitGroup
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			issued, err := repo.SaveAttempt(passing())
			assert.NoError(t, err)
			results <- issued
		}()
	}
	wg.Wait()
	close(results)
	for issued := range results {
		assert.False(t, issued)
	}

	attempts, err := repo.CountAttempts()
	require.NoError(t, err)
	assert.Equal(t, int64(n+1), attempts)
	certs, err := repo.CountCertificates()
	require.NoError(t, err)
	assert.Equal(t, int64(1), certs)
}
