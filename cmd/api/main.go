package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/campushq/college-admin-api/api/swagger"
	"github.com/campushq/college-admin-api/internal/handler"
	"github.com/campushq/college-admin-api/internal/repository"
	"github.com/campushq/college-admin-api/internal/router"
	"github.com/campushq/college-admin-api/internal/service"
	"github.com/campushq/college-admin-api/pkg/cache"
	"github.com/campushq/college-admin-api/pkg/config"
	"github.com/campushq/college-admin-api/pkg/database"
	"github.com/campushq/college-admin-api/pkg/export"
	"github.com/campushq/college-admin-api/pkg/jobs"
	"github.com/campushq/college-admin-api/pkg/logger"
)

// @title College Admin API
// @version 1.0.0
// @description Administration backend for admissions, fees, promotion and student services
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	var cacheSvc *service.CacheService
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
	}

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	promotionRepo := repository.NewPromotionRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	clearanceRepo := repository.NewClearanceRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	hostelRepo := repository.NewHostelRepository(db)
	busRepo := repository.NewBusRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "college-admin-api",
	})
	userSvc := service.NewUserService(userRepo, auditRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, auditRepo, validate, logr)
	promotionSvc := service.NewPromotionService(promotionRepo, feeRepo, auditRepo, metricsSvc, logr, service.PromotionServiceConfig{
		TxTimeout: cfg.Promotion.TxTimeout,
	})
	feeSvc := service.NewFeeService(feeRepo, auditRepo, validate, logr)
	clearanceSvc := service.NewClearanceService(clearanceRepo, feeRepo, studentRepo, auditRepo, logr)
	certificateSvc := service.NewCertificateService(certificateRepo, studentRepo, clearanceSvc, export.NewPDFExporter(), auditRepo, logr, service.CertificateServiceConfig{
		Enabled:       cfg.Certificates.Enabled,
		InstituteName: cfg.Certificates.InstituteName,
		SerialPrefix:  cfg.Certificates.SerialPrefix,
	})
	hostelSvc := service.NewHostelService(hostelRepo, studentRepo, validate, logr)
	busSvc := service.NewBusService(busRepo, studentRepo, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, &service.LogMailer{Logger: logr}, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Students: studentRepo,
		Fees:     feeRepo,
		Hostel:   hostelRepo,
		Cache:    cacheSvc,
		Logger:   logr,
		Config:   service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Notifications.Enabled {
		flushQueue := jobs.NewQueue("notifications", notificationSvc.FlushHandler(), jobs.QueueConfig{
			Workers:    cfg.Notifications.WorkerConcurrency,
			MaxRetries: cfg.Notifications.WorkerRetries,
			RetryDelay: cfg.Notifications.FlushInterval,
			Logger:     logr,
		})
		flushQueue.Start(ctx)
		defer flushQueue.Stop()
		notificationSvc.BindQueue(flushQueue)
	}

	if cfg.Admissions.CleanupEnabled {
		go runAdmissionsCleanup(ctx, studentSvc, cfg.Admissions, logr)
	}

	engine := router.New(router.Dependencies{
		Config:    cfg,
		Logger:    logr,
		AuditRepo: auditRepo,

		AuthService:    authSvc,
		MetricsService: metricsSvc,

		Auth:          handler.NewAuthHandler(authSvc),
		Users:         handler.NewUserHandler(userSvc),
		Students:      handler.NewStudentHandler(studentSvc),
		Promotions:    handler.NewPromotionHandler(promotionSvc),
		Fees:          handler.NewFeeHandler(feeSvc),
		Clearances:    handler.NewClearanceHandler(clearanceSvc),
		Certificates:  handler.NewCertificateHandler(certificateSvc),
		Hostel:        handler.NewHostelHandler(hostelSvc),
		Bus:           handler.NewBusHandler(busSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc, metricsSvc),
		Audit:         handler.NewAuditHandler(auditRepo),
		Metrics:       handler.NewMetricsHandler(metricsSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func runAdmissionsCleanup(ctx context.Context, students *service.StudentService, cfg config.AdmissionsConfig, logr *zap.Logger) {
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := students.CleanupStaleApplications(ctx, cfg.StaleAfter)
			if err != nil {
				logr.Sugar().Warnw("stale application cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				logr.Sugar().Infow("stale applications removed", "count", removed)
			}
		}
	}
}
