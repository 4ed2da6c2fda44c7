package controller

import (
	"guidesphere_backend/internal/service"
	"guidesphere_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StatsController struct {
	StatsService *service.StatsService
}

func NewStatsController(statsService *service.StatsService) *StatsController {
	return &StatsController{StatsService: statsService}
}

// Overview godoc
// @Summary 平台统计概览
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "需要 admin 或 superadmin"
// @Router /admin/stats/overview [get]
func (c *StatsController) Overview(ctx *gin.Context) {
	overview, err := c.StatsService.Overview()
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"totals":                     overview.Totals,
		"top_courses_by_enrollments": overview.TopCoursesByEnroll,
		"top_courses_by_rating":      overview.TopCoursesByRating,
	})
}
