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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/smart-timetable/api/swagger"
	"github.com/noah-isme/smart-timetable/internal/handler"
	internalmiddleware "github.com/noah-isme/smart-timetable/internal/middleware"
	"github.com/noah-isme/smart-timetable/internal/repository"
	"github.com/noah-isme/smart-timetable/internal/service"
	"github.com/noah-isme/smart-timetable/pkg/cache"
	"github.com/noah-isme/smart-timetable/pkg/config"
	"github.com/noah-isme/smart-timetable/pkg/database"
	"github.com/noah-isme/smart-timetable/pkg/logger"
	corsmiddleware "github.com/noah-isme/smart-timetable/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/smart-timetable/pkg/middleware/requestid"
	"github.com/noah-isme/smart-timetable/pkg/storage"
)

const exportCleanupInterval = time.Hour

// @title Smart Timetable API
// @version 1.0.0
// @description Timetable generation and classroom allocation
// @BasePath /api/v1
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	redisCache := repository.NewCacheRepository(redisClient, logger.Component(logr, "cache"))
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = redisCache
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, 10*time.Minute, logger.Component(logr, "cache"), redisClient != nil)

	batchRepo := repository.NewBatchRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)

	timing := service.TimingFromConfig(cfg.Timing)
	schedulerLog := logger.Component(logr, "scheduler")
	evaluator := service.NewTimetableEvaluator(service.NewCandidateScheduler(schedulerLog), cfg.Scheduler.Workers, schedulerLog)

	timetableSvc := service.NewTimetableService(
		batchRepo,
		subjectRepo,
		facultyRepo,
		classroomRepo,
		timetableRepo,
		db,
		evaluator,
		cacheSvc,
		metricsSvc,
		validate,
		logger.Component(logr, "timetable"),
		service.TimetableServiceConfig{
			Timing:            timing,
			Candidates:        cfg.Scheduler.Candidates,
			Limits:            service.LimitsFromConfig(cfg.Scheduler),
			GenerationTimeout: cfg.Scheduler.GenerationTimeout,
			ProposalTTL:       cfg.Scheduler.ProposalTTL,
			CacheProposals:    cfg.Scheduler.CacheProposals,
		},
	)

	jobSvc := service.NewGenerationJobService(timetableSvc, metricsSvc, validate, logger.Component(logr, "jobs"), service.GenerationJobConfig{
		Workers:    cfg.Queue.Workers,
		MaxRetries: cfg.Queue.MaxRetries,
		RetryDelay: cfg.Queue.RetryDelay,
	})
	jobSvc.Start(ctx)
	defer jobSvc.Stop()

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("export storage unavailable", zap.Error(err))
	}
	exportSvc := service.NewExportService(
		timetableRepo,
		batchRepo,
		subjectRepo,
		facultyRepo,
		classroomRepo,
		exportStore,
		service.ExportConfig{Timing: timing},
		logger.Component(logr, "export"),
		nil,
		nil,
	)
	go runExportCleanup(ctx, exportSvc, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/metrics/summary"))

	checks := map[string]handler.Pinger{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = redisCache.Ping
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary", metricsHandler.Summary)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	timetableHandler := handler.NewTimetableHandler(timetableSvc, exportSvc)
	classroomHandler := handler.NewClassroomHandler(timetableSvc)
	jobHandler := handler.NewGenerationJobHandler(jobSvc)

	api := r.Group(cfg.APIPrefix)
	{
		timetables := api.Group("/timetables")
		timetables.POST("/generate", timetableHandler.Generate)
		timetables.POST("/save", timetableHandler.Save)
		timetables.GET("", timetableHandler.List)
		timetables.POST("/jobs", jobHandler.Submit)
		timetables.GET("/jobs/:id", jobHandler.Status)
		timetables.GET("/:id/entries", timetableHandler.Entries)
		timetables.GET("/:id/export", timetableHandler.Export)
		timetables.DELETE("/:id", timetableHandler.Delete)

		classrooms := api.Group("/classrooms")
		classrooms.POST("/availability", classroomHandler.Availability)
		classrooms.GET("/utilization", classroomHandler.Utilization)
		classrooms.POST("/optimize", classroomHandler.Optimize)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func runExportCleanup(ctx context.Context, svc *service.ExportService, logr *zap.Logger) {
	ticker := time.NewTicker(exportCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := svc.Cleanup(0)
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("export cleanup", zap.Int("removed", len(removed)))
			}
		}
	}
}
