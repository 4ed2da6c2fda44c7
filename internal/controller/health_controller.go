package controller

import (
	"context"
	"guidesphere_backend/internal/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	DB *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{DB: db}
}

// Ping godoc
// @Summary 存活检查
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /ping [get]
func (c *HealthController) Ping(ctx *gin.Context) {
	util.Success(ctx, nil)
}

// HealthCheck godoc
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DBCheck godoc
// @Summary 数据库连通性检查
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /health/db [get]
func (c *HealthController) DBCheck(ctx *gin.Context) {
	sqlDB, err := c.DB.DB()
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
		defer cancel()
		err = sqlDB.PingContext(pingCtx)
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"db": "down", "error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"db": "ok"})
}
