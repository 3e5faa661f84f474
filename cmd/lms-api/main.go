package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/handler"
	"github.com/noah-isme/edu-platform-api/internal/repository"
	"github.com/noah-isme/edu-platform-api/internal/service"
	"github.com/noah-isme/edu-platform-api/pkg/cache"
	"github.com/noah-isme/edu-platform-api/pkg/config"
	"github.com/noah-isme/edu-platform-api/pkg/database"
	"github.com/noah-isme/edu-platform-api/pkg/jobs"
	"github.com/noah-isme/edu-platform-api/pkg/logger"
	"github.com/noah-isme/edu-platform-api/pkg/storage"
)

// @title Education Platform API
// @version 1.0.0
// @description Courses, enrollments, progress, assignments and certificates
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis, cfg.Cache.Enabled)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	validate := validator.New()
	clock := service.SystemClock{}
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr.Named("cache"))

	auditWorker := service.NewAuditWorker(userRepo, logr.Named("audit"))
	auditQueue := jobs.NewQueue("audit", auditWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		Logger:     logr,
	})
	auditQueue.Start(context.Background())
	auditSvc := service.NewAuditService(userRepo, auditQueue, logr.Named("audit"))

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.VerifyTTL, logr, cfg.Cache.Enabled)
	authSvc := service.NewAuthService(userRepo, validate, logr.Named("auth"), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	}, clock)
	courseSvc := service.NewCourseService(courseRepo, validate, logr.Named("courses"))
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, clock, metrics, logr.Named("enrollments"))
	progressSvc := service.NewProgressService(progressRepo, enrollmentRepo, enrollmentSvc, cacheSvc, cfg.Cache.LeaderboardTTL, clock, validate, logr.Named("progress"))
	certificateSvc := service.NewCertificateService(certificateRepo, enrollmentRepo, courseRepo, userRepo, nil, cacheSvc, metrics, clock,
		service.CertificateOptions{
			FallbackInstructor: cfg.Certificates.FallbackInstructor,
			MaxAttempts:        cfg.Certificates.NumberRetries,
			VerifyTTL:          cfg.Cache.VerifyTTL,
			VerifyBaseURL:      cfg.Certificates.VerifyBaseURL,
		}, logr.Named("certificates"))
	assignmentSvc := service.NewAssignmentService(assignmentRepo, courseRepo, clock, validate, logr.Named("assignments"))
	scheduleSvc := service.NewScheduleService(scheduleRepo, courseRepo, clock, validate, logr.Named("schedules"))
	exportSvc := service.NewExportService(enrollmentRepo, courseRepo, files, signer, metrics, clock, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr.Named("exports"))

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Exports.CleanupSchedule, func() {
		if _, err := exportSvc.Cleanup(); err != nil {
			logr.Warn("scheduled export cleanup failed", zap.Error(err))
		}
	}); err != nil {
		logr.Fatal("invalid export cleanup schedule", zap.String("schedule", cfg.Exports.CleanupSchedule), zap.Error(err))
	}
	scheduler.Start()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := newRouter(cfg, logr, routerDeps{
		auth:         authSvc,
		audit:        auditSvc,
		metrics:      metrics,
		authH:        handler.NewAuthHandler(authSvc),
		courseH:      handler.NewCourseHandler(courseSvc),
		enrollmentH:  handler.NewEnrollmentHandler(enrollmentSvc, progressSvc),
		scheduleH:    handler.NewScheduleHandler(scheduleSvc),
		assignmentH:  handler.NewAssignmentHandler(assignmentSvc),
		certificateH: handler.NewCertificateHandler(certificateSvc),
		exportH:      handler.NewExportHandler(exportSvc),
		metricsH: handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
			"postgres": db.PingContext,
			"redis":    cacheRepo.Ping,
		}),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	cronCtx := scheduler.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	select {
	case <-cronCtx.Done():
	case <-shutdownCtx.Done():
	}
	auditQueue.Stop()
}
