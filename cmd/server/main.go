package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/youthmultiply/welcoming-college/api/swagger"
	"github.com/youthmultiply/welcoming-college/internal/backend"
	"github.com/youthmultiply/welcoming-college/internal/handler"
	"github.com/youthmultiply/welcoming-college/internal/middleware"
	"github.com/youthmultiply/welcoming-college/internal/notify"
	"github.com/youthmultiply/welcoming-college/internal/registration"
	"github.com/youthmultiply/welcoming-college/internal/repository"
	"github.com/youthmultiply/welcoming-college/internal/service"
	"github.com/youthmultiply/welcoming-college/internal/session"
	"github.com/youthmultiply/welcoming-college/pkg/cache"
	"github.com/youthmultiply/welcoming-college/pkg/config"
	"github.com/youthmultiply/welcoming-college/pkg/database"
	"github.com/youthmultiply/welcoming-college/pkg/jobs"
	"github.com/youthmultiply/welcoming-college/pkg/logger"
	corsmiddleware "github.com/youthmultiply/welcoming-college/pkg/middleware/cors"
	reqidmiddleware "github.com/youthmultiply/welcoming-college/pkg/middleware/requestid"
	"github.com/youthmultiply/welcoming-college/pkg/storage"
)

const downloadPrefix = "/exports"

// @title Youth Welcoming College API
// @version 1.0.0
// @description Participant registration and admin export service
// @BasePath /
// @schemes http https

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := validator.New()
	checks := map[string]handler.ReadinessCheck{}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("redis unavailable", zap.Error(err))
		}
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var jobRepo service.ExportJobStore = repository.NewMemoryExportJobRepository()
	if cfg.Database.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("postgres unavailable", zap.Error(err))
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			logr.Fatal("migration failed", zap.Error(err))
		}
		jobRepo = repository.NewExportJobRepository(db)
		checks["postgres"] = pinger(db)
	}

	bus := notify.NewBus(16, logr)
	client := backend.NewClient(cfg.Backend, nil, metrics, logr)

	forms := session.NewFormRegistry(func() *registration.Form {
		return registration.NewForm(client, bus, registration.Options{
			Countdown: cfg.Registration.Countdown,
			Validator: validate,
			Logger:    logr,
		})
	}, cfg.Registration.SessionTTL, logr)
	forms.StartJanitor(ctx, time.Minute)

	var tokenStore session.TokenStore = session.NewMemoryTokenStore()
	if redisClient != nil {
		tokenStore = session.NewRedisTokenStore(redisClient)
	}
	adminSessions := session.NewAdminSessions(tokenStore, session.DefaultTokenTTL)

	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Listing.CacheTTL, logr, redisClient != nil)
	listing := service.NewListingService(client, cacheSvc, cfg.Listing.CacheTTL, logr)
	unwatch := listing.WatchRegistrations(bus)
	defer unwatch()

	exporter := service.NewExportService(client, metrics, logr)
	fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("export storage unavailable", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	worker := service.NewExportWorker(jobRepo, exporter, fileStore, signer, downloadPrefix, logr)
	queue := jobs.NewQueue("participant-exports", worker.Handle, jobs.QueueConfig{
		Workers: cfg.Exports.WorkerConcurrency,
		Logger:  logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	exportJobs := service.NewExportJobService(jobRepo, queue, fileStore, signer, validate, logr, service.ExportJobConfig{
		DownloadPrefix:  downloadPrefix,
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	exportJobs.RecoverPendingJobs(ctx)
	exportJobs.StartCleanup(ctx)

	secure := cfg.Env == config.EnvProduction
	registrationHandler := handler.NewRegistrationHandler(forms, metrics, cfg.AppTitle, secure, logr)
	adminHandler := handler.NewAdminHandler(adminSessions, listing, exporter, metrics, validate, handler.AdminHandlerConfig{
		AppTitle:     cfg.AppTitle,
		SecureCookie: secure,
	}, logr)
	exportJobHandler := handler.NewExportJobHandler(exportJobs)
	eventsHandler := handler.NewEventsHandler(bus, metrics, 0, logr)
	metricsHandler := handler.NewMetricsHandler(metrics, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	r.GET("/", registrationHandler.Page)
	r.POST("/register", registrationHandler.Submit)
	r.POST("/register/fields", registrationHandler.UpdateFields)
	r.POST("/register/close", registrationHandler.Close)
	r.GET("/register/state", registrationHandler.State)

	r.PUT("/admin/session", adminHandler.Login)
	r.DELETE("/admin/session", adminHandler.Logout)
	admin := r.Group("/admin", middleware.AdminToken(adminSessions))
	admin.GET("", adminHandler.Metadata)
	admin.GET("/participants", adminHandler.Participants)
	admin.GET("/participants/export", adminHandler.Export)
	admin.POST("/exports", exportJobHandler.Create)
	admin.GET("/exports/:id", exportJobHandler.Status)
	admin.GET("/events", eventsHandler.Stream)
	r.GET(downloadPrefix+"/:token", exportJobHandler.Download)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logr.Error("server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func pinger(db *sqlx.DB) handler.ReadinessCheck {
	return func(ctx context.Context) error { return db.PingContext(ctx) }
}
