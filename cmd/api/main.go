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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/qr-attendance-api/api/swagger"
	"github.com/noah-isme/qr-attendance-api/internal/handler"
	"github.com/noah-isme/qr-attendance-api/internal/repository"
	"github.com/noah-isme/qr-attendance-api/internal/service"
	"github.com/noah-isme/qr-attendance-api/pkg/cache"
	"github.com/noah-isme/qr-attendance-api/pkg/codegen"
	"github.com/noah-isme/qr-attendance-api/pkg/config"
	"github.com/noah-isme/qr-attendance-api/pkg/database"
	"github.com/noah-isme/qr-attendance-api/pkg/logger"
	"github.com/noah-isme/qr-attendance-api/pkg/middleware/ratelimit"
	"github.com/noah-isme/qr-attendance-api/pkg/qr"
)

// @title QR Attendance API
// @version 1.0.0
// @description Weekly classroom attendance through short-lived QR session codes.
// @BasePath /api/v1
// @schemes http https
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.Migrate(db.DB, logr); err != nil {
			logr.Fatal("run migrations", zap.Error(err))
		}
	}

	redisClient := connectCache(ctx, cfg.Redis, logr)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()

	lectureRepo := repository.NewLectureRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Matrix.CacheTTL, logr, cfg.Matrix.CacheEnabled && cacheRepo.Enabled())
	matrixSvc := service.NewMatrixService(lectureRepo, enrollmentRepo, attendanceRepo, cacheSvc, cfg.Matrix.CacheTTL, logr)
	sessionSvc := service.NewSessionService(sessionRepo, lectureRepo, codegen.New(cfg.Sessions.CodeLength), metrics, logr, service.SessionConfig{
		Validity:     cfg.Sessions.Validity,
		CodeAttempts: cfg.Sessions.CodeAttempts,
	})
	attendanceSvc := service.NewAttendanceService(sessionSvc, studentRepo, enrollmentRepo, attendanceRepo, matrixSvc, validate, metrics, logr)
	rosterSvc := service.NewRosterService(enrollmentRepo, matrixSvc, validate, metrics, logr)
	lectureSvc := service.NewLectureService(lectureRepo, matrixSvc, logr)
	exportSvc := service.NewExportService(matrixSvc, logr)
	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiration,
	})

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if cacheRepo.Enabled() {
		checks["redis"] = cacheRepo.Ping
	}

	router := newRouter(routerDeps{
		cfg:        cfg,
		logger:     logr,
		metrics:    metrics,
		auth:       authSvc,
		sessions:   handler.NewSessionHandler(rosterSvc, sessionSvc, qr.NewEncoder(studentBaseURL(cfg), cfg.QR.Size), cfg.Roster.MaxUploadBytes),
		attendance: handler.NewAttendanceHandler(attendanceSvc),
		lectures: handler.NewLectureHandler(handler.LectureHandlerDeps{
			Lectures:  lectureSvc,
			Roster:    rosterSvc,
			Matrix:    matrixSvc,
			Sessions:  sessionSvc,
			Exports:   exportSvc,
			MaxUpload: cfg.Roster.MaxUploadBytes,
		}),
		health:  handler.NewMetricsHandler(metrics, checks),
		limiter: ratelimit.New(cfg.Attendance.RateLimitPerMin, cfg.Attendance.RateLimitPerMin/2),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "instructor_auth", cfg.JWT.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// connectCache returns nil when Redis is disabled or unreachable; matrices are then built per request.
func connectCache(ctx context.Context, cfg config.RedisConfig, logr *zap.Logger) *redis.Client {
	client, err := cache.NewRedis(ctx, cfg)
	if err != nil {
		logr.Warn("redis unavailable, matrix cache disabled", zap.Error(err))
		return nil
	}
	return client
}
