package service

import (
	"testing"

	"guidesphere_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name      string
		items     []ItemProgress
		overall   float64
		completed int
		status    string
	}{
		{"empty", nil, 0, 0, StatusNotStarted},
		{"all zero", []ItemProgress{{ProgressPercent: 0}, {ProgressPercent: 0}}, 0, 0, StatusNotStarted},
		{"partial", []ItemProgress{{ProgressPercent: 100}, {ProgressPercent: 50}, {ProgressPercent: 0}}, 50, 1, StatusInProgress},
		{"clamped", []ItemProgress{{ProgressPercent: 150}, {ProgressPercent: -20}}, 50, 1, StatusInProgress},
		{"done", []ItemProgress{{ProgressPercent: 100}, {ProgressPercent: 100}}, 100, 2, StatusCompleted},
		{"rounded", []ItemProgress{{ProgressPercent: 100}, {ProgressPercent: 100}, {ProgressPercent: 0}}, 66.67, 2, StatusInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Aggregate(tt.items)
			assert.Equal(t, tt.overall, s.OverallPercent)
			assert.Equal(t, tt.completed, s.CompletedItems)
			assert.Equal(t, len(tt.items), s.TotalItems)
			assert.Equal(t, tt.status, s.Status)
		})
	}
}

func TestCourseStatus(t *testing.T) {
	assert.Equal(t, StatusNotStarted, CourseStatus(0))
	assert.Equal(t, StatusNotStarted, CourseStatus(-1))
	assert.Equal(t, StatusInProgress, CourseStatus(0.5))
	assert.Equal(t, StatusCompleted, CourseStatus(100))
}

func TestItemsFromMeta(t *testing.T) {
	meta := model.ProgressMeta{
		"items": map[string]interface{}{
			"doc-1":   map[string]interface{}{"progress_percent": float64(100), "status": "completed"},
			"video-1": map[string]interface{}{"progress_percent": float64(130), "last_sec": float64(42)},
			"broken":  "nope",
		},
		"other": true,
	}

	items := ItemsFromMeta(meta)
	require.Len(t, items, 2)
	assert.Equal(t, float64(100), items["doc-1"].ProgressPercent)
	assert.Equal(t, "completed", items["doc-1"].Status)
	assert.Equal(t, float64(100), items["video-1"].ProgressPercent)
	assert.Equal(t, float64(42), items["video-1"].LastSec)

	assert.Empty(t, ItemsFromMeta(nil))
}

func TestEvaluateOptions(t *testing.T) {
	items := []ItemProgress{
		{ItemID: "a", ProgressPercent: 100},
		{ItemID: "b", ProgressPercent: 100},
		{ItemID: "c", ProgressPercent: 40},
	}

	t.Run("nothing attempted", func(t *testing.T) {
		opts, agg := EvaluateOptions(items, nil)
		require.Len(t, opts, 3)
		assert.True(t, opts[0].Eligible)
		assert.False(t, opts[2].Eligible)
		assert.Equal(t, 2, agg.TotalItemsEligible)
		assert.Equal(t, 1, agg.ItemsInProgress)
		assert.Equal(t, StatusInProgress, agg.OverallStatus)
		assert.Nil(t, agg.OverallScorePercent)
	})

	t.Run("all approved", func(t *testing.T) {
		attempts := map[string]AttemptView{
			"a": {Status: StatusApproved, ScorePercent: 80},
			"b": {Status: StatusApproved, ScorePercent: 100},
			"c": {Status: StatusApproved, ScorePercent: 60},
		}
		_, agg := EvaluateOptions(items, attempts)
		assert.Equal(t, StatusApproved, agg.OverallStatus)
		require.NotNil(t, agg.OverallScorePercent)
		assert.Equal(t, float64(80), *agg.OverallScorePercent)
	})

	t.Run("failed with nothing pending", func(t *testing.T) {
		attempts := map[string]AttemptView{
			"a": {Status: StatusApproved, ScorePercent: 80},
			"b": {Status: StatusFailed, ScorePercent: 20},
			"c": {Status: StatusApproved, ScorePercent: 60},
		}
		opts, agg := EvaluateOptions(items, attempts)
		assert.Equal(t, StatusFailed, agg.OverallStatus)
		assert.Equal(t, 1, agg.ItemsFailed)
		require.NotNil(t, opts[1].LastAttempt)
		assert.Equal(t, StatusFailed, opts[1].LastAttempt.Status)
	})

	t.Run("empty list stays in progress", func(t *testing.T) {
		_, agg := EvaluateOptions(nil, nil)
		assert.Equal(t, StatusInProgress, agg.OverallStatus)
	})
}
