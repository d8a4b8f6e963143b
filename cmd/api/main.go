package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/teacher-feedback-api/api/swagger"
	"github.com/noah-isme/teacher-feedback-api/internal/handler"
	"github.com/noah-isme/teacher-feedback-api/internal/repository"
	"github.com/noah-isme/teacher-feedback-api/internal/router"
	"github.com/noah-isme/teacher-feedback-api/internal/service"
	"github.com/noah-isme/teacher-feedback-api/pkg/cache"
	"github.com/noah-isme/teacher-feedback-api/pkg/config"
	"github.com/noah-isme/teacher-feedback-api/pkg/database"
	"github.com/noah-isme/teacher-feedback-api/pkg/logger"
)

// @title Teacher Feedback API
// @version 1.0.0
// @description Students rate teachers, teachers review feedback, admins manage the roster.
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		version, err := database.Migrate(db)
		if err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
		logr.Info("database schema ready", zap.Uint("version", version))
	}

	// A nil interface keeps the cache and rate limiter switched off.
	var redisClient redis.UniversalClient
	client, err := cache.NewRedis(ctx, cfg.Redis)
	switch {
	case err == nil:
		redisClient = client
		defer client.Close() //nolint:errcheck
	case errors.Is(err, cache.ErrDisabled):
		logr.Info("redis disabled; caching and rate limiting are off")
	default:
		logr.Warn("redis unavailable; caching and rate limiting are off", zap.Error(err))
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TeacherTTL, logr, cfg.Cache.Enabled && cacheRepo.Enabled())
	exportSvc := service.NewExportService(nil)

	auditSvc := service.NewAuditService(userRepo, metrics, logr, service.AuditConfig{
		Workers:    cfg.Audit.Workers,
		MaxRetries: cfg.Audit.MaxRetries,
	})
	auditSvc.Start(ctx)

	authSvc := service.NewAuthService(userRepo, auditSvc, cacheSvc, metrics, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		Departments:        cfg.Feedback.Departments,
	})
	teacherSvc := service.NewTeacherService(teacherRepo, cacheSvc, exportSvc, auditSvc, validate, logr, service.TeacherConfig{
		Departments: cfg.Feedback.Departments,
		CacheTTL:    cfg.Cache.TeacherTTL,
	})
	feedbackSvc := service.NewFeedbackService(feedbackRepo, teacherRepo, cacheSvc, exportSvc, auditSvc, metrics, validate, logr, service.FeedbackConfig{
		CommentMaxLength: cfg.Feedback.CommentMaxLength,
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Roster:   teacherSvc,
		Feedback: feedbackRepo,
		Cache:    cacheSvc,
		Logger:   logr,
		Config:   service.DashboardServiceConfig{CacheTTL: cfg.Cache.TeacherTTL},
	})

	engine := router.New(router.Dependencies{
		Config:    cfg,
		Logger:    logr,
		Tokens:    authSvc,
		Metrics:   metrics,
		Audit:     auditSvc,
		RateLimit: redisClient,
	}, router.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Teacher:   handler.NewTeacherHandler(teacherSvc),
		Feedback:  handler.NewFeedbackHandler(feedbackSvc),
		Dashboard: handler.NewDashboardHandler(dashboardSvc),
		Metrics:   handler.NewMetricsHandler(metrics, db),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := auditSvc.Stop(shutdownCtx); err != nil {
		logr.Warn("audit queue not drained", zap.Error(err))
	}
	logr.Info("server stopped")
}
