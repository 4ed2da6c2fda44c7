package controller

import (
	"fmt"
	"guidesphere_backend/internal/service"
	"guidesphere_backend/internal/util"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type UploadController struct {
	UploadService *service.UploadService
	MaxUploadMB   int64
}

func NewUploadController(uploadService *service.UploadService, maxUploadMB int64) *UploadController {
	return &UploadController{UploadService: uploadService, MaxUploadMB: maxUploadMB}
}

// Upload godoc
// @Summary 上传文件
// @Description type 为 doc、video、avatar，其他值保存到根目录；视频会探测时长并生成缩略图
// @Tags 上传
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "文件"
// @Param   type formData string false "文件类别"
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "文件缺失或类型不允许"
// @Router /upload [post]
func (c *UploadController) Upload(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	if c.MaxUploadMB > 0 && file.Size > c.MaxUploadMB<<20 {
		util.Error(ctx, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d MB", c.MaxUploadMB))
		return
	}

	claims := util.GetUserFromContext(ctx)
	uploaded, err := c.UploadService.Upload(ctx.Request.Context(), claims.UserID(), file, ctx.PostForm("type"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"file": uploaded})
}

// UploadChunk godoc
// @Summary 分片上传视频
// @Description 最后一个分片到达后自动合并并上传
// @Tags 上传
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "分片数据"
// @Param   chunkNumber formData int true "分片序号，从 1 开始"
// @Param   totalChunks formData int true "分片总数"
// @Param   identifier formData string true "上传标识"
// @Param   filename formData string true "原始文件名"
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "分片参数错误"
// @Router /upload/video/chunk [post]
func (c *UploadController) UploadChunk(ctx *gin.Context) {
	chunk, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	chunkNumber, _ := strconv.Atoi(ctx.PostForm("chunkNumber"))
	totalChunks, _ := strconv.Atoi(ctx.PostForm("totalChunks"))

	progress, file, err := c.UploadService.UploadVideoChunk(ctx.Request.Context(), service.ChunkRequest{
		Chunk:       chunk,
		ChunkNumber: chunkNumber,
		TotalChunks: totalChunks,
		Identifier:  ctx.PostForm("identifier"),
		Filename:    ctx.PostForm("filename"),
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	resp := gin.H{"progress": progress, "complete": file != nil}
	if file != nil {
		resp["file"] = file
	}
	util.Success(ctx, resp)
}

// UploadProgress godoc
// @Summary 查询分片上传进度
// @Tags 上传
// @Produce  json
// @Security ApiKeyAuth
// @Param   identifier path string true "上传标识"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "没有该上传"
// @Router /upload/video/progress/{identifier} [get]
func (c *UploadController) UploadProgress(ctx *gin.Context) {
	progress, err := c.UploadService.GetUploadProgress(ctx.Request.Context(), ctx.Param("identifier"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"progress": progress})
}
