package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/erp/ordercalc/docs"
	orderapp "github.com/erp/ordercalc/internal/application/ordercalc"
	"github.com/erp/ordercalc/internal/infrastructure/cache"
	"github.com/erp/ordercalc/internal/infrastructure/config"
	"github.com/erp/ordercalc/internal/infrastructure/logger"
	"github.com/erp/ordercalc/internal/infrastructure/persistence"
	"github.com/erp/ordercalc/internal/infrastructure/telemetry"
	"github.com/erp/ordercalc/internal/interfaces/http/handler"
	"github.com/erp/ordercalc/internal/interfaces/http/middleware"
	"github.com/erp/ordercalc/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Order Calculation API
//	@version		1.0
//	@description	Order difference, merge and negation calculations for versioned orders and their return orders
//	@BasePath		/api/v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	// The logs bridge needs a logger for its own errors, so the final logger is built
	// after it.
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize OpenTelemetry logs", zap.Error(err))
	}
	log := bootLog
	if logsProvider.IsEnabled() {
		log, err = logger.New(logCfg, telemetry.NewZapOTELCore(logsProvider, logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			bootLog.Fatal("Failed to initialize logger", zap.Error(err))
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting order calculation service",
		zap.String("app", cfg.App.Name),
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:            cfg.Telemetry.ProfilingEnabled,
		ServerAddress:      cfg.Telemetry.ProfilingServerAddress,
		ApplicationName:    serviceName,
		ProfileAllocations: true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && tracerProvider.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to link spans to profiles", zap.Error(err))
		}
	}

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)

	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	dbTracingCfg := telemetry.DefaultDBTracingConfig()
	dbTracingCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracingCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracingCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if err := telemetry.NewDBTracingPlugin(dbTracingCfg, log).RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	var poolMetrics *telemetry.DBPoolMetrics
	var appOpts []orderapp.Option
	appOpts = append(appOpts, orderapp.WithLogger(log))
	if meterProvider.IsEnabled() {
		meter := meterProvider.Meter(serviceName)
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal("Failed to access connection pool", zap.Error(err))
		}
		if poolMetrics, err = telemetry.RegisterDBPoolMetrics(meter, sqlDB); err != nil {
			log.Fatal("Failed to register connection pool metrics", zap.Error(err))
		}
		calcMetrics, err := telemetry.NewCalculationMetrics(meter)
		if err != nil {
			log.Fatal("Failed to create calculation metrics", zap.Error(err))
		}
		appOpts = append(appOpts, orderapp.WithMetrics(calcMetrics))
	}

	checks := []handler.HealthCheck{{
		Name:  "database",
		Check: func(ctx context.Context) error { return db.DB.WithContext(ctx).Exec("SELECT 1").Error },
	}}

	subscriptionCtx, stopSubscription := context.WithCancel(ctx)
	defer stopSubscription()

	var differenceCache cache.Store
	if cfg.Cache.Enabled {
		cacheFactory := cache.NewDifferenceCacheFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log))
		differenceCache, err = cacheFactory.CreateStore(ctx)
		if err != nil {
			log.Fatal("Failed to create order difference cache", zap.Error(err))
		}
		if tiered, ok := differenceCache.(*cache.TieredDifferenceCache); ok {
			go func() {
				if err := tiered.StartInvalidationSubscription(subscriptionCtx); err != nil && !errors.Is(err, context.Canceled) {
					log.Warn("Cache invalidation subscription ended", zap.Error(err))
				}
			}()
		}
		if pinger, ok := differenceCache.(interface{ Ping(context.Context) error }); ok {
			checks = append(checks, handler.HealthCheck{Name: "cache", Check: pinger.Ping})
		}
		appOpts = append(appOpts, orderapp.WithDifferenceCache(differenceCache, differenceCache.Name()))
	}

	factory := persistence.NewGormCalculatableOrderFactory(db.DB)
	calculationService := orderapp.NewOrderCalculationAppService(factory, appOpts...)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitRequests > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
	}

	engineOpts := router.EngineOptions{
		HTTP:             cfg.HTTP,
		Swagger:          cfg.Swagger,
		ServiceName:      serviceName,
		Logger:           log,
		TracingEnabled:   tracerProvider.IsEnabled(),
		ProfilingEnabled: profiler.IsEnabled(),
		RateLimiter:      limiter,
		OrderCalculation: handler.NewOrderCalculationHandler(calculationService),
		System:           handler.NewSystemHandler(cfg.App.Name, version, checks...),
	}
	if meterProvider.IsEnabled() {
		engineOpts.Meter = meterProvider.Meter(serviceName)
	}
	engine, err := router.NewEngine(engineOpts)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Release in reverse order of acquisition
	stopSubscription()
	if limiter != nil {
		limiter.Stop()
	}
	if differenceCache != nil {
		if err := differenceCache.Close(); err != nil {
			log.Error("Error closing order difference cache", zap.Error(err))
		}
	}
	if poolMetrics != nil {
		if err := poolMetrics.Unregister(); err != nil {
			log.Error("Error unregistering connection pool metrics", zap.Error(err))
		}
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracing", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	if err := logsProvider.Shutdown(shutdownCtx); err != nil {
		bootLog.Error("Error shutting down OpenTelemetry logs", zap.Error(err))
	}
}
