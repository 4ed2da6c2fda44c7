package controller

import (
	"guidesphere_backend/internal/service"
	"guidesphere_backend/internal/util"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	ExamService *service.ExamService
	FixedExam   *service.FixedExam
}

func NewExamController(examService *service.ExamService, fixedExam *service.FixedExam) *ExamController {
	return &ExamController{ExamService: examService, FixedExam: fixedExam}
}

func questionCount(ctx *gin.Context) int {
	raw := ctx.Query("count")
	if raw == "" {
		return service.DefaultQuestionCount
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

// FromDocument godoc
// @Summary 由文档生成测验
// @Description 读取文档正文出题并替换该内容已有的测验
// @Tags 考试
// @Produce  json
// @Security ApiKeyAuth
// @Param   docId path string true "文档ID"
// @Param   contentId query string true "内容ID"
// @Param   count query int false "题目数量 3-10" default(5)
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "内容或文档不存在"
// @Failure 422 {object} util.Response "文档文本不足或无法读取"
// @Router /exam/from-document/{docId} [post]
func (c *ExamController) FromDocument(ctx *gin.Context) {
	contentID := ctx.Query("contentId")
	if contentID == "" {
		util.BadRequest(ctx, "contentId is required")
		return
	}

	quiz, err := c.ExamService.FromDocument(ctx.Request.Context(), util.GetUserFromContext(ctx), ctx.Param("docId"), contentID, questionCount(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"quiz_id": quiz.ID})
}

// FromVideo godoc
// @Summary 由视频转写生成测验
// @Tags 考试
// @Produce  json
// @Security ApiKeyAuth
// @Param   contentId path string true "内容ID"
// @Param   count query int false "题目数量 3-10" default(5)
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "内容不存在或不是视频"
// @Failure 422 {object} util.Response "没有足够的转写文本"
// @Router /exam/from-video/{contentId} [post]
func (c *ExamController) FromVideo(ctx *gin.Context) {
	quiz, err := c.ExamService.FromVideo(ctx.Request.Context(), util.GetUserFromContext(ctx), ctx.Param("contentId"), questionCount(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"quiz_id": quiz.ID})
}

// ByContent godoc
// @Summary 获取内容的测验
// @Description 只有课程所有者和管理员能看到正确答案
// @Tags 考试
// @Produce  json
// @Security ApiKeyAuth
// @Param   contentId path string true "内容ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "没有测验"
// @Router /exam/by-content/{contentId} [get]
func (c *ExamController) ByContent(ctx *gin.Context) {
	view, err := c.ExamService.ByContent(util.GetUserFromContext(ctx), ctx.Param("contentId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"quiz_id": view.QuizID, "questions": view.Questions})
}

// Submit godoc
// @Summary 提交测验
// @Description 通过后为所属课程颁发证书（每人每课一次）
// @Tags 考试
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.SubmitInput true "答案 {question_id: option_id}"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "没有测验"
// @Router /exam/submit [post]
func (c *ExamController) Submit(ctx *gin.Context) {
	var req service.SubmitInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.ExamService.Submit(util.GetUserFromContext(ctx), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"total_questions":    res.TotalQuestions,
		"correct_count":      res.CorrectCount,
		"score_percent":      res.ScorePercent,
		"details":            res.Details,
		"passed":             res.Passed,
		"attempt_id":         res.AttemptID,
		"certificate_issued": res.CertificateIssued,
	})
}

// GenerateFixed godoc
// @Summary 获取固定试卷
// @Tags 考试
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} service.FixedExamView "成功"
// @Router /exams/generate-fixed [post]
func (c *ExamController) GenerateFixed(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.FixedExam.Build())
}

type SubmitFixedRequest struct {
	AttemptID string            `json:"attempt_id" binding:"required"`
	Answers   map[string]string `json:"answers"`
}

// SubmitFixed godoc
// @Summary 提交固定试卷
// @Tags 考试
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body SubmitFixedRequest true "答案 {\"1\":\"A\"}"
// @Success 200 {object} service.FixedExamResult "成功"
// @Router /exams/submit-fixed [post]
func (c *ExamController) SubmitFixed(ctx *gin.Context) {
	var req SubmitFixedRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	ctx.JSON(http.StatusOK, c.FixedExam.Grade(req.Answers))
}

// Certificates godoc
// @Summary 我的证书
// @Tags 证书
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "成功"
// @Router /certificates/me [get]
func (c *ExamController) Certificates(ctx *gin.Context) {
	items, err := c.ExamService.Certificates(util.GetUserFromContext(ctx).UserID())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": items})
}
