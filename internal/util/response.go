package util

import (
	"guidesphere_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一错误响应结构
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

func body(data gin.H) gin.H {
	out := gin.H{"ok": true}
	for k, v := range data {
		out[k] = v
	}
	return out
}

func Success(c *gin.Context, data gin.H) {
	c.JSON(http.StatusOK, body(data))
}

func Created(c *gin.Context, data gin.H) {
	c.JSON(http.StatusCreated, body(data))
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		OK:    false,
		Error: message,
	})
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

func Unprocessable(c *gin.Context, message string) {
	Error(c, http.StatusUnprocessableEntity, message)
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	_ = c.Error(err)
	InternalServerError(c)
}
