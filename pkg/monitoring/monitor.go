package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 业务指标
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guidesphere_uploads_total",
			Help: "Stored uploads by kind",
		},
		[]string{"type"},
	)

	CoursesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guidesphere_courses_created_total",
		Help: "Courses created",
	})

	Enrollments = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guidesphere_enrollments_total",
		Help: "Enrollment requests accepted",
	})

	QuizzesGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guidesphere_quizzes_generated_total",
			Help: "Generated quizzes by source",
		},
		[]string{"source"},
	)

	ExamSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guidesphere_exam_submissions_total",
			Help: "Exam submissions by outcome",
		},
		[]string{"outcome"},
	)
)

var registerOnce sync.Once

// Init 注册所有指标；重复调用无副作用
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			UploadsTotal,
			CoursesCreated,
			Enrollments,
			QuizzesGenerated,
			ExamSubmissions,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
