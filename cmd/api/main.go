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

	_ "github.com/AureRaso/padel-club-api/api/swagger"
	"github.com/AureRaso/padel-club-api/internal/handler"
	"github.com/AureRaso/padel-club-api/internal/middleware"
	"github.com/AureRaso/padel-club-api/internal/models"
	"github.com/AureRaso/padel-club-api/internal/notifier"
	"github.com/AureRaso/padel-club-api/internal/realtime"
	"github.com/AureRaso/padel-club-api/internal/repository"
	"github.com/AureRaso/padel-club-api/internal/service"
	"github.com/AureRaso/padel-club-api/pkg/cache"
	"github.com/AureRaso/padel-club-api/pkg/config"
	"github.com/AureRaso/padel-club-api/pkg/database"
	"github.com/AureRaso/padel-club-api/pkg/logger"
	corsmiddleware "github.com/AureRaso/padel-club-api/pkg/middleware/cors"
	reqidmiddleware "github.com/AureRaso/padel-club-api/pkg/middleware/requestid"
)

// @title Padel Club API
// @version 1.0.0
// @description Waitlist and class occurrence API for padel club schedules
// @BasePath /api/v1
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	waitlistRepo := repository.NewWaitlistRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	publisher := realtime.NewPublisher(redisClient, logr)
	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var channels []notifier.Channel
	if cfg.Notifications.Enabled && cfg.Notifications.ResendAPIKey != "" {
		channels = append(channels, notifier.NewEmailChannel(cfg.Notifications.ResendAPIKey, cfg.Notifications.FromAddress, logr))
	}
	var whatsapp *notifier.WhatsAppChannel
	if cfg.WhatsApp.Enabled {
		whatsapp, err = notifier.NewWhatsAppChannel(ctx, cfg.WhatsApp.DataDir, logr)
		if err != nil {
			logr.Sugar().Warnw("whatsapp channel unavailable", "error", err)
		} else {
			channels = append(channels, whatsapp)
			defer whatsapp.Disconnect()
		}
	}

	notificationSvc := service.NewNotificationService(outboxRepo, channels, metricsSvc, service.NotificationConfig{
		Workers:         cfg.Notifications.WorkerConcurrency,
		Retries:         cfg.Notifications.WorkerRetries,
		DispatchTimeout: cfg.Notifications.DispatchTimeout,
		PollInterval:    cfg.Notifications.PollInterval,
	}, logr)
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	eligibilitySvc := service.NewEligibilityService(classRepo, enrollmentRepo, participantRepo, waitlistRepo, logr)
	waitlistSvc := service.NewWaitlistService(waitlistRepo, enrollmentRepo, eligibilitySvc, publisher, validate, logr)
	acceptanceSvc := service.NewAcceptanceService(waitlistRepo, publisher, notificationSvc, validate, logr)
	attendanceSvc := service.NewAttendanceService(participantRepo, classRepo, enrollmentRepo, publisher, logr)

	classHandler := handler.NewClassHandler(classRepo, eligibilitySvc, waitlistSvc)
	waitlistHandler := handler.NewWaitlistHandler(waitlistSvc, acceptanceSvc, metricsSvc)
	participantHandler := handler.NewParticipantHandler(attendanceSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		classes := api.Group("/classes")
		classes.GET("/:id/occurrences/:date", classHandler.Occurrence)
		classes.GET("/:id/occurrences/:date/eligibility", middleware.OptionalJWT(cfg.JWT.Secret), classHandler.Eligibility)
		classes.GET("/:id/waitlist/:date",
			middleware.JWT(cfg.JWT.Secret),
			middleware.RequireStaff(),
			classHandler.Waitlist)

		waitlist := api.Group("/waitlist")
		waitlist.POST("", middleware.OptionalJWT(cfg.JWT.Secret), waitlistHandler.Join)
		waitlist.GET("/mine", middleware.JWT(cfg.JWT.Secret), waitlistHandler.Mine)
		waitlist.POST("/:id/accept",
			middleware.JWT(cfg.JWT.Secret),
			middleware.RequireRoles(models.RoleAdmin, models.RoleTrainer),
			middleware.Audit(logr, "waitlist.accept", "class_waitlist"),
			waitlistHandler.Accept)
		waitlist.POST("/:id/reject",
			middleware.JWT(cfg.JWT.Secret),
			middleware.RequireRoles(models.RoleAdmin, models.RoleTrainer),
			middleware.Audit(logr, "waitlist.reject", "class_waitlist"),
			waitlistHandler.Reject)

		participants := api.Group("/participants", middleware.JWT(cfg.JWT.Secret))
		participants.POST("/:id/attendance/confirm", participantHandler.ConfirmAttendance)
		participants.POST("/:id/attendance/absence", participantHandler.ConfirmAbsence)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("forced shutdown", zap.Error(err))
	}
}
