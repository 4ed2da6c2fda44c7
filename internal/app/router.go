package app

import (
	"guidesphere_backend/docs"
	"guidesphere_backend/internal/config"
	"guidesphere_backend/internal/middleware"
	"guidesphere_backend/internal/model"
	"guidesphere_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要登录的路由
	authGroup := router.Group("/")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerUserRoutes(authGroup, c)
		a.registerCourseRoutes(authGroup, c)
		a.registerExamRoutes(authGroup, c)
		a.registerAdminRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	router.GET("/ping", c.health.Ping)
	router.GET("/health", c.health.HealthCheck)
	router.GET("/health/db", c.health.DBCheck)

	auth := router.Group("/auth")
	{
		auth.POST("/register", c.auth.Register)
		auth.POST("/login", c.auth.Login)
	}

	router.GET("/courses/search", c.course.Search)
}

func (a *App) registerUserRoutes(r *gin.RouterGroup, c *controllers) {
	r.GET("/users/me", c.user.Me)
	r.PUT("/users/me/avatar", c.user.UpdateAvatar)

	r.POST("/upload", c.upload.Upload)
	r.POST("/upload/video/chunk", c.upload.UploadChunk)
	r.GET("/upload/video/progress/:identifier", c.upload.UploadProgress)

	r.GET("/certificates/me", c.exam.Certificates)
}

func (a *App) registerCourseRoutes(r *gin.RouterGroup, c *controllers) {
	courses := r.Group("/courses")
	{
		courses.GET("", c.course.List)
		courses.POST("", middleware.RoleMiddleware(model.Professor, model.Admin), c.course.Create)
		courses.PUT("/:id", c.course.Update)
		courses.DELETE("/:id", c.course.Delete)
		courses.PATCH("/:id/publish", c.course.Publish)
		courses.GET("/:id/overview", c.course.Overview)
		courses.POST("/:id/enroll", c.course.Enroll)

		courses.GET("/:id/progress/me", c.progress.GetMine)
		courses.PUT("/:id/progress/me", c.progress.SaveMine)
		courses.GET("/:id/evaluation-options", c.progress.EvaluationOptions)
		courses.POST("/:id/evaluation-options", c.progress.EvaluationOptions)
	}

	rating := r.Group("/course-rating")
	{
		rating.POST("/:courseId", c.rating.Rate)
		rating.GET("/:courseId/summary", c.rating.Summary)
	}
}

func (a *App) registerExamRoutes(r *gin.RouterGroup, c *controllers) {
	exam := r.Group("/exam")
	{
		exam.POST("/from-document/:docId", c.exam.FromDocument)
		exam.POST("/from-video/:contentId", c.exam.FromVideo)
		exam.GET("/by-content/:contentId", c.exam.ByContent)
		exam.POST("/submit", c.exam.Submit)
	}

	fixed := r.Group("/exams")
	{
		fixed.POST("/generate-fixed", c.exam.GenerateFixed)
		fixed.POST("/submit-fixed", c.exam.SubmitFixed)
	}
}

func (a *App) registerAdminRoutes(r *gin.RouterGroup, c *controllers) {
	admin := r.Group("/admin")
	{
		// 列表和更新对所有登录用户开放，服务层限制只能看到或修改自己
		admin.GET("/users", c.user.ListUsers)
		admin.PUT("/users/:id", c.user.UpdateUser)
		admin.DELETE("/users/:id", c.user.DeleteUser)

		admin.GET("/stats/overview", middleware.RoleMiddleware(model.Admin), c.stats.Overview)
	}
}
