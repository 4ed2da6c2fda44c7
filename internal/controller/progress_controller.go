package controller

import (
	"guidesphere_backend/internal/service"
	"guidesphere_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// GetMine godoc
// @Summary 获取我的课程进度
// @Tags 进度
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response "成功，没有记录时返回 0"
// @Router /courses/{id}/progress/me [get]
func (c *ProgressController) GetMine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	p, err := c.ProgressService.Get(claims.UserID(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"progress":       p.Progress,
		"last_video_sec": p.LastVideoSec,
		"meta":           p.Meta,
	})
}

// SaveMine godoc
// @Summary 保存我的课程进度
// @Description progress 缺省时根据 meta.items 中各资源的进度计算
// @Tags 进度
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Param   body body service.SaveProgressInput true "进度"
// @Success 200 {object} util.Response "成功"
// @Router /courses/{id}/progress/me [put]
func (c *ProgressController) SaveMine(ctx *gin.Context) {
	var req service.SaveProgressInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	p, err := c.ProgressService.Save(claims.UserID(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"saved": true, "progress": p.Progress})
}

// EvaluationOptions godoc
// @Summary 考试资格
// @Description GET 根据已存进度计算；POST 使用请求体中的资源进度
// @Tags 进度
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Param   body body []service.ItemProgress false "资源进度"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /courses/{id}/evaluation-options [get]
// @Router /courses/{id}/evaluation-options [post]
func (c *ProgressController) EvaluationOptions(ctx *gin.Context) {
	var items []service.ItemProgress
	if ctx.Request.Method == "POST" {
		if err := ctx.ShouldBindJSON(&items); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
		if items == nil {
			items = []service.ItemProgress{}
		}
	}

	claims := util.GetUserFromContext(ctx)
	res, err := c.ProgressService.EvaluationOptions(claims.UserID(), ctx.Param("id"), items)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"course_id": res.CourseID,
		"options":   res.Options,
		"aggregate": res.Aggregate,
	})
}
