package controller

import (
	"guidesphere_backend/internal/service"
	"guidesphere_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type RatingController struct {
	RatingService *service.RatingService
}

func NewRatingController(ratingService *service.RatingService) *RatingController {
	return &RatingController{RatingService: ratingService}
}

// Rate godoc
// @Summary 给课程评分
// @Description 同一用户重复评分会覆盖之前的评分
// @Tags 评分
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path string true "课程ID"
// @Param   body body service.RatingInput true "评分 1-5"
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "评分超出范围"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /course-rating/{courseId} [post]
func (c *RatingController) Rate(ctx *gin.Context) {
	var req service.RatingInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, util.ErrInvalidRating.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	rating, err := c.RatingService.Rate(ctx.Request.Context(), claims.UserID(), ctx.Param("courseId"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"rating": rating.Rating, "comment": rating.Comment})
}

// Summary godoc
// @Summary 课程评分汇总
// @Tags 评分
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path string true "课程ID"
// @Success 200 {object} service.RatingSummary "成功"
// @Router /course-rating/{courseId}/summary [get]
func (c *RatingController) Summary(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	summary, err := c.RatingService.Summary(ctx.Request.Context(), claims.UserID(), ctx.Param("courseId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, summary)
}
