package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/schoolscan/attendance-api/api/swagger"
	"github.com/schoolscan/attendance-api/internal/handler"
	"github.com/schoolscan/attendance-api/internal/middleware"
	"github.com/schoolscan/attendance-api/internal/repository"
	"github.com/schoolscan/attendance-api/internal/service"
	"github.com/schoolscan/attendance-api/pkg/cache"
	"github.com/schoolscan/attendance-api/pkg/config"
	"github.com/schoolscan/attendance-api/pkg/database"
	"github.com/schoolscan/attendance-api/pkg/logger"
	corsmiddleware "github.com/schoolscan/attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/schoolscan/attendance-api/pkg/middleware/requestid"
	"github.com/schoolscan/attendance-api/pkg/storage"
)

// @title School Attendance API
// @version 1.0.0
// @description QR-based student attendance recording and rosters
// @BasePath /
// @schemes http

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
	sugar := logr.Sugar()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			sugar.Warnw("redis unavailable, roster caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	defer cacheRepo.Close() //nolint:errcheck

	avatars, err := storage.NewAvatarStore(cfg.Avatars.StorageDir, cfg.Avatars.BaseURL)
	if err != nil {
		sugar.Fatalw("failed to init avatar storage", "error", err)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	studentRepo := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	rosterSvc := service.NewRosterService(attendanceRepo, cacheRepo, cfg.Roster.CacheTTL, logr)
	scanSvc := service.NewScanService(studentRepo, attendanceRepo, avatars, rosterSvc, metricsSvc, logr)
	studentSvc := service.NewStudentService(studentRepo, attendanceRepo, avatars, validate, logr)
	adminSvc := service.NewAdminService(adminRepo, validate, logr)
	authSvc := service.NewAuthService(adminRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
	})

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authSvc.EnsureDefaultAdmin(seedCtx, "admin@gmail.com", "1234"); err != nil {
		sugar.Warnw("failed to seed default admin", "error", err)
	}
	cancel()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	scanHandler := handler.NewScanHandler(scanSvc, nil)
	rosterHandler := handler.NewRosterHandler(rosterSvc, nil)
	studentHandler := handler.NewStudentHandler(studentSvc)
	adminHandler := handler.NewAdminHandler(adminSvc)
	authHandler := handler.NewAuthHandler(authSvc)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.Static(cfg.Avatars.BaseURL, avatars.Dir())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	// The scan endpoint stays open: the kiosk has no session.
	api.POST("/scan", scanHandler.Scan)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	protected.GET("/attendance", rosterHandler.List)
	protected.GET("/attendance/export", rosterHandler.Export)
	protected.GET("/students", studentHandler.List)
	protected.GET("/students/:id", studentHandler.Get)
	protected.POST("/students", studentHandler.Create)
	protected.PUT("/students/:id", studentHandler.Update)
	protected.DELETE("/students/:id", studentHandler.Delete)
	protected.GET("/admins", adminHandler.List)
	protected.POST("/admins", adminHandler.Create)
	protected.PUT("/admins/:id", adminHandler.Update)
	protected.DELETE("/admins/:id", adminHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	sugar.Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		sugar.Fatalw("server failed", "error", err)
	}
}
