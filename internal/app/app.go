package app

import (
	"context"
	"guidesphere_backend/internal/config"
	"guidesphere_backend/internal/controller"
	"guidesphere_backend/internal/repository"
	"guidesphere_backend/internal/service"
	"guidesphere_backend/internal/util"
	"guidesphere_backend/pkg/configwatcher"
	"guidesphere_backend/pkg/database"
	"guidesphere_backend/pkg/logger"
	"guidesphere_backend/pkg/monitoring"
	"guidesphere_backend/pkg/security"
	"guidesphere_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 未完成的分片上传保留时间
const staleUploadAge = 24 * time.Hour

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Origins         *security.Origins
	services        *services
	tracer          *sdktrace.TracerProvider
	stop            context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	course   *repository.CourseRepository
	progress *repository.ProgressRepository
	rating   *repository.RatingRepository
	quiz     *repository.QuizRepository
	stats    *repository.StatsRepository
}

type services struct {
	auth     *service.AuthService
	user     *service.UserService
	storage  *service.StorageService
	upload   *service.UploadService
	course   *service.CourseService
	progress *service.ProgressService
	exam     *service.ExamService
	rating   *service.RatingService
	stats    *service.StatsService
}

type controllers struct {
	auth     *controller.AuthController
	user     *controller.UserController
	upload   *controller.UploadController
	course   *controller.CourseController
	progress *controller.ProgressController
	exam     *controller.ExamController
	rating   *controller.RatingController
	stats    *controller.StatsController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		course:   repository.NewCourseRepository(db),
		progress: repository.NewProgressRepository(db),
		rating:   repository.NewRatingRepository(db),
		quiz:     repository.NewQuizRepository(db),
		stats:    repository.NewStatsRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.upload = service.NewUploadService(s.storage, repos.user, service.NewUploadTracker(rdb), cfg)
	s.course = service.NewCourseService(repos.course, repos.progress, s.upload)
	s.progress = service.NewProgressService(repos.progress, repos.course, repos.quiz)
	s.exam = service.NewExamService(
		repos.quiz,
		repos.course,
		service.NewQuestionGenerator(cfg.AI),
		service.NewDocumentReader(s.storage, cfg.Exams.DocsDir),
		&service.TranscriptReader{Dir: cfg.Exams.TranscriptsDir},
		cfg.Exams.PassThreshold,
	)
	s.rating = service.NewRatingService(repos.rating, repos.course, rdb)
	s.stats = service.NewStatsService(repos.user, repos.course, repos.progress, repos.quiz, repos.stats)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		user:     controller.NewUserController(s.user),
		upload:   controller.NewUploadController(s.upload, a.Config.Storage.MaxUploadMB),
		course:   controller.NewCourseController(s.course),
		progress: controller.NewProgressController(s.progress),
		exam:     controller.NewExamController(s.exam, service.MustLoadDefaultFixedExam()),
		rating:   controller.NewRatingController(s.rating),
		stats:    controller.NewStatsController(s.stats),
		health:   controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(logger.GinLogger())
	router.Use(security.CORS(a.Origins))
	router.Use(security.Secure())

	if cfg.RateLimit.MaxRequests > 0 && cfg.RateLimit.WindowMinutes > 0 {
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))
	}

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(ctx context.Context, s *services) {
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.upload.CleanupTemp(staleUploadAge)
				if err != nil {
					logger.Log.Error("cleanup stale uploads failed", zap.Error(err))
				} else if removed > 0 {
					logger.Log.Info("removed stale chunked uploads", zap.Int("count", removed))
				}
			}
		}
	}()
}

// New 用已经打开的数据库和 Redis 组装应用；rdb 可以为 nil
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		Origins: security.NewOrigins(cfg.CORS.AllowedOrigins),
	}
	app.RegisterConfigCallback(func(c *config.Config) {
		app.Origins.Set(c.CORS.AllowedOrigins)
	})

	if err := util.RegisterValidators(); err != nil {
		logger.Log.Warn("register validators failed", zap.Error(err))
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, rdb)
	ctrls := app.initControllers(app.services, db)

	// 监控初始化
	monitoring.Init()

	router := gin.New()
	app.Router = router
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, ctrls, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, cfg.ForceMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if err := database.SeedSuperAdmin(db, cfg.Bootstrap.Email, cfg.Bootstrap.Username, cfg.Bootstrap.Password); err != nil {
		logger.Log.Error("Failed to seed superadmin", zap.Error(err))
	}

	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := New(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(&cfg.Tracing)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	ctx, cancel := context.WithCancel(context.Background())
	app.stop = cancel
	app.startBackgroundTasks(ctx, app.services)

	if _, err := os.Stat(cfg.FilePath); err == nil {
		if err := configwatcher.WatchConfig(ctx, cfg.FilePath, app.applyConfig); err != nil {
			logger.Log.Warn("Config watcher disabled", zap.Error(err))
		}
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	if a.stop != nil {
		a.stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
