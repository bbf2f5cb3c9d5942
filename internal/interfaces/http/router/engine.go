package router

import (
	"fmt"
	"time"

	"github.com/erp/ordercalc/internal/infrastructure/config"
	"github.com/erp/ordercalc/internal/infrastructure/logger"
	"github.com/erp/ordercalc/internal/interfaces/http/handler"
	"github.com/erp/ordercalc/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineOptions holds everything NewEngine wires into the gin engine
type EngineOptions struct {
	HTTP        config.HTTPConfig
	Swagger     config.SwaggerConfig
	ServiceName string
	Logger      *zap.Logger
	// Meter records HTTP metrics. Nil disables them.
	Meter            metric.Meter
	TracingEnabled   bool
	ProfilingEnabled bool
	// RateLimiter limits the calculation endpoints. Nil disables rate limiting.
	RateLimiter      *middleware.RateLimiter
	OrderCalculation *handler.OrderCalculationHandler
	System           *handler.SystemHandler
}

// NewEngine builds the gin engine with the middleware stack in this order:
//  1. RequestID - generate/propagate request ID
//  2. Logger and Recovery - log requests, catch panics
//  3. Secure, CORS and BodyLimit
//  4. Tracing and SpanErrorMarker
//  5. HTTP metrics and profiling labels
//
// Calculation routes are additionally rate limited.
func NewEngine(opts EngineOptions) (*gin.Engine, error) {
	if err := middleware.SetupValidator(); err != nil {
		return nil, fmt.Errorf("failed to set up request validation: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(corsConfig(opts.HTTP)))
	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}

	tracingCfg := middleware.DefaultTracingConfig()
	tracingCfg.Enabled = opts.TracingEnabled
	if opts.ServiceName != "" {
		tracingCfg.ServiceName = opts.ServiceName
	}
	engine.Use(middleware.Tracing(tracingCfg))
	if opts.TracingEnabled {
		engine.Use(middleware.SpanErrorMarker())
	}

	if opts.Meter != nil {
		httpMetrics, err := middleware.HTTPMetrics(opts.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
		}
		engine.Use(httpMetrics)
	}

	profilingCfg := middleware.DefaultProfilingConfig()
	profilingCfg.Enabled = opts.ProfilingEnabled
	engine.Use(middleware.Profiling(profilingCfg))

	if opts.System != nil {
		engine.GET("/health", opts.System.Health)
		engine.NoRoute(opts.System.NoRoute)
	}

	// Swagger documentation endpoint
	if opts.Swagger.Enabled {
		engine.GET("/swagger/*any",
			middleware.SwaggerProtection(opts.Swagger.AllowedIPs),
			ginSwagger.WrapHandler(swaggerFiles.Handler),
		)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	if opts.System != nil {
		r.Register(SystemRoutes(opts.System))
	}
	if opts.OrderCalculation != nil {
		var limit []gin.HandlerFunc
		if opts.RateLimiter != nil {
			limit = append(limit, middleware.RateLimit(opts.RateLimiter))
			log.Info("Rate limiting enabled",
				zap.Int("requests", opts.RateLimiter.Limit()),
				zap.Duration("window", opts.HTTP.RateLimitWindow),
			)
		}
		for _, group := range OrderCalculationRoutes(opts.OrderCalculation, limit...) {
			r.Register(group)
		}
	}
	r.Setup()

	return engine, nil
}

// OrderCalculationRoutes builds the order difference and calculation route groups
func OrderCalculationRoutes(h *handler.OrderCalculationHandler, middleware ...gin.HandlerFunc) []*DomainGroup {
	orders := NewDomainGroup("orders", "/orders").Use(middleware...)
	orders.GET("/:id/difference", h.GetDifference)
	orders.DELETE("/:id/difference-cache", h.InvalidateDifferenceCache)

	calculations := NewDomainGroup("order-calculations", "/order-calculations").Use(middleware...)
	calculations.POST("/merge", h.Merge)
	calculations.POST("/negate", h.Negate)

	return []*DomainGroup{orders, calculations}
}

// SystemRoutes builds the system route group
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.GetSystemInfo)
	system.GET("/ping", h.Ping)
	return system
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.CORSAllowOrigins
	}
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	cors.AllowCredentials = true
	cors.MaxAge = 12 * time.Hour
	return cors
}
