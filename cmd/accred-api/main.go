package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/vietqa/accred-api/api/swagger"
	"github.com/vietqa/accred-api/internal/handler"
	"github.com/vietqa/accred-api/internal/middleware"
	"github.com/vietqa/accred-api/internal/repository"
	"github.com/vietqa/accred-api/internal/service"
	"github.com/vietqa/accred-api/pkg/cache"
	"github.com/vietqa/accred-api/pkg/config"
	"github.com/vietqa/accred-api/pkg/database"
	"github.com/vietqa/accred-api/pkg/logger"
	"github.com/vietqa/accred-api/pkg/middleware/cors"
	"github.com/vietqa/accred-api/pkg/middleware/requestid"
	"github.com/vietqa/accred-api/pkg/response"
	"github.com/vietqa/accred-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, permission cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer func() { _ = redisClient.Close() }()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	yearRepo := repository.NewAcademicYearRepository(db)
	structureRepo := repository.NewStructureRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	reportRepo := repository.NewReportRepository(db)
	evidenceRepo := repository.NewEvidenceRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditSvc := service.NewAuditService(auditRepo, log, service.AuditServiceConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
	})
	auditSvc.Start(ctx)
	defer auditSvc.Stop()

	authSvc := service.NewAuthService(cfg.JWT.Secret)
	yearSvc := service.NewAcademicYearService(yearRepo, log)
	permissionSvc := service.NewPermissionService(taskRepo, structureRepo, redisClient, log, service.PermissionServiceConfig{
		CacheTTL: cfg.Permissions.CacheTTL,
	})
	fileStore, err := storage.NewLocalStorage(cfg.Storage.Dir)
	if err != nil {
		log.Fatal("failed to prepare evidence storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	taskSvc := service.NewTaskService(taskRepo, structureRepo, permissionSvc, auditSvc, nil, log)
	reportSvc := service.NewReportService(reportRepo, structureRepo, taskRepo, permissionSvc, auditSvc, nil, log)
	evidenceSvc := service.NewEvidenceService(evidenceRepo, structureRepo, permissionSvc, fileStore, signer, auditSvc, nil, log)
	exportSvc := service.NewExportService(taskSvc, reportSvc, log)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(cors.New(cfg.CORS.AllowedOrigins))

	metrics := middleware.NewMetricsCollector()
	r.Use(metrics.Middleware())
	r.GET("/metrics", metrics.Handler())

	r.GET("/health", func(c *gin.Context) {
		response.OK(c, "ok", nil)
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "database unreachable"})
			return
		}
		response.OK(c, "ready", nil)
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r, handler.RouterDeps{
		Auth:        authSvc,
		Years:       yearSvc,
		Tasks:       handler.NewTaskHandler(taskSvc),
		Reports:     handler.NewReportHandler(reportSvc),
		Evidence:    handler.NewEvidenceHandler(evidenceSvc),
		Permissions: handler.NewPermissionHandler(permissionSvc),
		Exports:     handler.NewExportHandler(exportSvc),
		YearHandler: handler.NewAcademicYearHandler(yearSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
