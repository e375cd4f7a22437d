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

	_ "github.com/noah-isme/course-timetable-api/api/swagger"
	"github.com/noah-isme/course-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/course-timetable-api/internal/middleware"
	"github.com/noah-isme/course-timetable-api/internal/repository"
	"github.com/noah-isme/course-timetable-api/internal/service"
	"github.com/noah-isme/course-timetable-api/pkg/cache"
	"github.com/noah-isme/course-timetable-api/pkg/config"
	"github.com/noah-isme/course-timetable-api/pkg/database"
	"github.com/noah-isme/course-timetable-api/pkg/jobs"
	"github.com/noah-isme/course-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-timetable-api/pkg/middleware/requestid"
)

// @title Course Timetable API
// @version 1.0.0
// @description Generates and serves weekly department timetables.
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, timetable cache disabled", zap.Error(err))
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Timetable.CacheTTL, logr, cfg.Timetable.CacheEnabled && redisClient != nil)
	validate := validator.New()

	departments := repository.NewDepartmentRepository(db)
	schedules := repository.NewScheduleRepository(db)

	generator := service.NewTimetableGeneratorService(
		departments,
		repository.NewCourseRepository(db),
		repository.NewRoomRepository(db),
		repository.NewEnrollmentRepository(db),
		schedules,
		db,
		cacheSvc,
		metrics,
		validate,
		logr,
		service.TimetableGeneratorConfig{
			Slots:        cfg.Scheduler.Slots,
			RunTimeout:   cfg.Scheduler.RunTimeout,
			StudentScope: cfg.Scheduler.StudentScope,
		},
	)
	timetables := service.NewTimetableService(schedules, departments, generator, cacheSvc, nil, nil, nil, logr, service.TimetableServiceConfig{
		CacheTTL: cfg.Timetable.CacheTTL,
	})

	batch := service.NewTimetableBatchService(generator, validate, logr)
	queue := jobs.NewQueue("timetable-generate", batch.Handle, jobs.QueueConfig{
		Workers:     cfg.Scheduler.BatchWorkers,
		MaxRetries:  cfg.Scheduler.BatchRetries,
		ShouldRetry: service.Retryable,
		Logger:      logr,
	})
	batch.UseQueue(queue)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	queue.Start(ctx)
	defer queue.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	ops := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	tokens := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)
	handler.RegisterTimetableRoutes(
		r.Group(cfg.APIPrefix),
		handler.NewTimetableHandler(generator, timetables, batch),
		internalmiddleware.JWT(tokens),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	// Generation runs are bounded by the scheduler timeout, so give in-flight requests that long.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.RunTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
