package controller

import (
	"guidesphere_backend/internal/service"
	"guidesphere_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// Search godoc
// @Summary 搜索课程
// @Description 按标题和描述模糊匹配，最多返回 50 条
// @Tags 课程
// @Produce  json
// @Param   q query string false "关键词"
// @Success 200 {object} util.Response "成功"
// @Router /courses/search [get]
func (c *CourseController) Search(ctx *gin.Context) {
	results, err := c.CourseService.Search(ctx.Query("q"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"results": results})
}

// List godoc
// @Summary 课程列表
// @Description scope 可选 all（仅 superadmin）、mine、public、enrolled
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   scope query string false "范围" default(public)
// @Param   q query string false "关键词"
// @Param   page query int false "页码" default(1)
// @Param   pageSize query int false "每页条数" default(20)
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "无效的 scope"
// @Router /courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	page, pageSize := util.ParsePage(ctx.Query("page"), ctx.Query("pageSize"))
	scope := ctx.DefaultQuery("scope", "public")

	courses, total, err := c.CourseService.List(util.GetUserFromContext(ctx), scope, ctx.Query("q"), page, pageSize)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"courses":  courses,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// Create godoc
// @Summary 创建课程
// @Description 文档和视频可以是 URI 字符串或 {uri, title}
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CourseInput true "课程信息"
// @Success 201 {object} util.Response "创建成功"
// @Failure 400 {object} util.Response "缺少标题"
// @Router /courses [post]
func (c *CourseController) Create(ctx *gin.Context) {
	var req service.CourseInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, items, err := c.CourseService.Create(ctx.Request.Context(), util.GetUserFromContext(ctx), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"course": course, "items": items})
}

// Update godoc
// @Summary 更新课程并替换全部内容
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Param   body body service.CourseInput true "课程信息"
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "不是课程所有者"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /courses/{id} [put]
func (c *CourseController) Update(ctx *gin.Context) {
	var req service.CourseInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	id := ctx.Param("id")
	if err := c.CourseService.Update(ctx.Request.Context(), util.GetUserFromContext(ctx), id, req); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

type PublishRequest struct {
	Publish bool `json:"publish"`
}

// Publish godoc
// @Summary 发布或下架课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Param   body body PublishRequest true "是否发布"
// @Success 200 {object} util.Response "成功，updated 为受影响行数"
// @Router /courses/{id}/publish [patch]
func (c *CourseController) Publish(ctx *gin.Context) {
	var req PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	updated, err := c.CourseService.SetPublished(util.GetUserFromContext(ctx), ctx.Param("id"), req.Publish)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"updated": updated})
}

// Delete godoc
// @Summary 删除课程及其全部内容
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "不是课程所有者"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /courses/{id} [delete]
func (c *CourseController) Delete(ctx *gin.Context) {
	deleted, err := c.CourseService.Delete(util.GetUserFromContext(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": deleted})
}

// Overview godoc
// @Summary 课程概览
// @Description 课程内容合并当前用户的学习进度
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /courses/{id}/overview [get]
func (c *CourseController) Overview(ctx *gin.Context) {
	ov, err := c.CourseService.Overview(util.GetUserFromContext(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"course":                  ov.Course,
		"documents":               ov.Documents,
		"videos":                  ov.Videos,
		"course_status":           ov.CourseStatus,
		"course_progress_percent": ov.CourseProgressPercent,
		"last_video_sec":          ov.LastVideoSec,
		"meta":                    ov.Meta,
	})
}

// Enroll godoc
// @Summary 报名课程
// @Description 重复报名不会报错
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /courses/{id}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	if err := c.CourseService.Enroll(util.GetUserFromContext(ctx), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
