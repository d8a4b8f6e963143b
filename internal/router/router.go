package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-feedback-api/internal/handler"
	"github.com/noah-isme/teacher-feedback-api/internal/middleware"
	"github.com/noah-isme/teacher-feedback-api/internal/models"
	"github.com/noah-isme/teacher-feedback-api/internal/service"
	"github.com/noah-isme/teacher-feedback-api/pkg/config"
	"github.com/noah-isme/teacher-feedback-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/teacher-feedback-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/teacher-feedback-api/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Auth      *handler.AuthHandler
	Teacher   *handler.TeacherHandler
	Feedback  *handler.FeedbackHandler
	Dashboard *handler.DashboardHandler
	Metrics   *handler.MetricsHandler
}

// Dependencies are the shared pieces middleware needs.
type Dependencies struct {
	Config    *config.Config
	Logger    *zap.Logger
	Tokens    middleware.TokenValidator
	Metrics   *service.MetricsService
	Audit     service.AuditRecorder
	RateLimit redis.UniversalClient
}

// New builds the gin engine with every route of the API.
func New(deps Dependencies, h Handlers) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var limiter redis.UniversalClient
	if cfg.RateLimit.Enabled {
		limiter = deps.RateLimit
	}
	authLimit := middleware.RateLimit(limiter, middleware.RateLimitRule{Name: "auth", Max: cfg.RateLimit.AuthMax, Window: cfg.RateLimit.Window}, deps.Metrics, deps.Logger)
	feedbackLimit := middleware.RateLimit(limiter, middleware.RateLimitRule{Name: "feedback", Max: cfg.RateLimit.FeedbackMax, Window: cfg.RateLimit.Window}, deps.Metrics, deps.Logger)

	api := r.Group(apiPrefix(cfg.APIPrefix))

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authLimit, h.Auth.Signup)
		auth.POST("/login", authLimit, h.Auth.Login)
		auth.POST("/refresh", middleware.Audit(deps.Audit, models.AuditActionTokenRefresh, "auth"), h.Auth.Refresh)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens))

	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/auth/me", h.Auth.Me)
	secured.POST("/auth/change-password", h.Auth.ChangePassword)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	studentOnly := middleware.RequireRoles(models.RoleStudent)
	teacherOnly := middleware.RequireRoles(models.RoleTeacher)

	teachers := secured.Group("/teachers")
	{
		teachers.GET("", h.Teacher.List)
		teachers.GET("/departments", h.Teacher.Departments)
		teachers.GET("/export", adminOnly, h.Teacher.Export)
		teachers.GET("/:id", h.Teacher.Get)
		teachers.POST("", adminOnly, h.Teacher.Create)
		teachers.DELETE("/:id", adminOnly, h.Teacher.Delete)
	}

	feedback := secured.Group("/feedback")
	{
		feedback.POST("", studentOnly, feedbackLimit, h.Feedback.Submit)
		feedback.GET("/my-submissions", studentOnly, h.Feedback.MySubmissions)
		feedback.GET("/received", teacherOnly, h.Feedback.Received)
		feedback.GET("/received/summary", teacherOnly, h.Feedback.Summary)
		feedback.GET("/received/export", teacherOnly, h.Feedback.Export)
	}

	dashboard := secured.Group("/dashboard")
	{
		dashboard.GET("/student", studentOnly, h.Dashboard.Student)
		dashboard.GET("/admin", adminOnly, h.Dashboard.Admin)
	}

	return r
}

func apiPrefix(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "/" {
		return "/"
	}
	return "/" + strings.Trim(raw, "/")
}
