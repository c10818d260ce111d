package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/handler"
	"github.com/noah-isme/qr-attendance-api/internal/middleware"
	"github.com/noah-isme/qr-attendance-api/internal/service"
	"github.com/noah-isme/qr-attendance-api/pkg/config"
	"github.com/noah-isme/qr-attendance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/qr-attendance-api/pkg/middleware/cors"
	"github.com/noah-isme/qr-attendance-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/qr-attendance-api/pkg/middleware/requestid"
)

type routerDeps struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *service.MetricsService
	auth       *service.AuthService
	sessions   *handler.SessionHandler
	attendance *handler.AttendanceHandler
	lectures   *handler.LectureHandler
	health     *handler.MetricsHandler
	limiter    *ratelimit.Limiter
}

// studentBaseURL is the public prefix QR links are built on. The student routes live under the API prefix.
func studentBaseURL(cfg *config.Config) string {
	return strings.TrimRight(cfg.BaseURL, "/") + cfg.APIPrefix
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	// Client IPs key the attendance rate limit, so forwarded headers count only from known proxies.
	if err := r.SetTrustedProxies(d.cfg.TrustedProxies); err != nil {
		d.logger.Warn("invalid TRUSTED_PROXIES, trusting none", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.logger))
	r.Use(corsmiddleware.New(d.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.metrics))

	r.GET("/health", d.health.Health)
	r.GET("/ready", d.health.Ready)
	r.GET("/metrics", d.health.Prometheus)

	if d.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(d.cfg.APIPrefix)

	// Student routes stay public. The QR link points here.
	api.GET("/attend", d.attendance.Form)
	api.POST("/attend", d.limiter.Middleware(), d.attendance.Submit)

	instructor := api.Group("")
	if d.cfg.JWT.Enabled {
		instructor.Use(middleware.JWT(d.auth))
	}
	instructor.POST("/sessions", d.sessions.Create)
	instructor.GET("/sessions/:code/qr", d.sessions.QRCode)
	instructor.GET("/lectures", d.lectures.List)
	instructor.GET("/lectures/export", d.lectures.Export)
	instructor.POST("/lectures/roster", d.lectures.ImportRoster)
	instructor.DELETE("/lectures/:id", d.lectures.Delete)
	instructor.GET("/lectures/:id/matrix", d.lectures.Matrix)
	instructor.GET("/lectures/:id/sessions", d.lectures.Sessions)
	instructor.GET("/metrics/summary", d.health.Snapshot)

	return r
}
