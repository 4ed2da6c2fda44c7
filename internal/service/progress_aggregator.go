package service

import (
	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/util"
)

const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusPending    = "pending"

	StatusApproved = "approved"
	StatusFailed   = "failed"
)

// ItemProgress 单个资源的完成度
type ItemProgress struct {
	ItemID          string  `json:"item_id"`
	ItemType        string  `json:"item_type"`
	Title           string  `json:"title"`
	ProgressPercent float64 `json:"progress_percent"`
}

type ProgressSummary struct {
	OverallPercent float64 `json:"overall_percent"`
	CompletedItems int     `json:"completed_items"`
	TotalItems     int     `json:"total_items"`
	Status         string  `json:"status"`
}

// CourseStatus 由整体进度推导课程状态
func CourseStatus(percent float64) string {
	switch {
	case percent >= 100:
		return StatusCompleted
	case percent <= 0:
		return StatusNotStarted
	default:
		return StatusInProgress
	}
}

// Aggregate 合并各资源进度为课程进度：截断到 [0,100] 后取平均
func Aggregate(items []ItemProgress) ProgressSummary {
	summary := ProgressSummary{TotalItems: len(items), Status: StatusNotStarted}
	if len(items) == 0 {
		return summary
	}

	var sum float64
	for _, it := range items {
		p := util.Clamp(it.ProgressPercent, 0, 100)
		sum += p
		if p >= 100 {
			summary.CompletedItems++
		}
	}

	summary.OverallPercent = util.Round2(sum / float64(len(items)))
	summary.Status = CourseStatus(summary.OverallPercent)
	return summary
}

// ItemsFromMeta 读取 meta.items 中记录的资源进度
func ItemsFromMeta(meta model.ProgressMeta) map[string]model.ItemMeta {
	out := make(map[string]model.ItemMeta)
	raw, ok := meta["items"].(map[string]interface{})
	if !ok {
		return out
	}

	for id, v := range raw {
		entry, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		item := model.ItemMeta{
			ProgressPercent: util.Clamp(toFloat(entry["progress_percent"]), 0, 100),
			LastSec:         toFloat(entry["last_sec"]),
		}
		if s, ok := entry["status"].(string); ok {
			item.Status = s
		}
		out[id] = item
	}
	return out
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// EvaluationOption 某个资源的考试资格
type EvaluationOption struct {
	ItemProgress
	Eligible    bool         `json:"eligible"`
	LastAttempt *AttemptView `json:"last_attempt,omitempty"`
}

type AttemptView struct {
	AttemptID    string  `json:"attempt_id"`
	Status       string  `json:"status"`
	ScorePercent float64 `json:"score_percent"`
}

type EvaluationAggregate struct {
	TotalItemsCompleted int      `json:"total_items_completed"`
	TotalItemsEligible  int      `json:"total_items_eligible"`
	ItemsApproved       int      `json:"items_approved"`
	ItemsFailed         int      `json:"items_failed"`
	ItemsInProgress     int      `json:"items_in_progress"`
	OverallStatus       string   `json:"overall_status"`
	OverallScorePercent *float64 `json:"overall_score_percent,omitempty"`
}

// EvaluateOptions 计算每个资源能否参加考试以及整体评估状态
func EvaluateOptions(items []ItemProgress, lastAttempts map[string]AttemptView) ([]EvaluationOption, EvaluationAggregate) {
	options := make([]EvaluationOption, 0, len(items))
	agg := EvaluationAggregate{OverallStatus: StatusInProgress}

	var scoreSum float64
	scored := 0
	pending := 0

	for _, it := range items {
		it.ProgressPercent = util.Clamp(it.ProgressPercent, 0, 100)
		opt := EvaluationOption{ItemProgress: it, Eligible: it.ProgressPercent >= 100}

		if opt.Eligible {
			agg.TotalItemsCompleted++
			agg.TotalItemsEligible++
		} else {
			agg.ItemsInProgress++
		}

		if a, ok := lastAttempts[it.ItemID]; ok {
			attempt := a
			opt.LastAttempt = &attempt
			scoreSum += a.ScorePercent
			scored++
			if a.Status == StatusApproved {
				agg.ItemsApproved++
			} else {
				agg.ItemsFailed++
			}
		} else {
			pending++
		}

		options = append(options, opt)
	}

	switch {
	case len(items) > 0 && agg.ItemsApproved == len(items):
		agg.OverallStatus = StatusApproved
	case agg.ItemsFailed > 0 && pending == 0:
		agg.OverallStatus = StatusFailed
	}

	if scored > 0 {
		avg := util.Round2(scoreSum / float64(scored))
		agg.OverallScorePercent = &avg
	}

	return options, agg
}
