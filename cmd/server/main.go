package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	cashierapp "github.com/pos/backend/internal/application/cashier"
	salesapp "github.com/pos/backend/internal/application/sales"
	salesdomain "github.com/pos/backend/internal/domain/sales"
	"github.com/pos/backend/internal/infrastructure/auth"
	"github.com/pos/backend/internal/infrastructure/cache"
	"github.com/pos/backend/internal/infrastructure/config"
	"github.com/pos/backend/internal/infrastructure/customer"
	"github.com/pos/backend/internal/infrastructure/event"
	"github.com/pos/backend/internal/infrastructure/inventory"
	"github.com/pos/backend/internal/infrastructure/logger"
	"github.com/pos/backend/internal/infrastructure/numbering"
	"github.com/pos/backend/internal/infrastructure/persistence"
	"github.com/pos/backend/internal/infrastructure/telemetry"
	"github.com/pos/backend/internal/interfaces/http/handler"
	"github.com/pos/backend/internal/interfaces/http/middleware"
	"github.com/pos/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/pos/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			POS Backend API
//	@version		1.0
//	@description	Multi-tenant retail point-of-sale back end: sales, checkout and cash shift reconciliation.

//	@contact.name	API Support
//	@contact.url	https://github.com/pos/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	// Telemetry: traces, metrics and the zap -> OTEL log bridge. Disabled
	// providers are no-ops, so the wiring below stays unconditional.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize OTEL logger provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down OTEL logger provider", zap.Error(err))
		}
	}()
	if loggerProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: loggerProvider,
			Level:          zapcore.InfoLevel,
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore,
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		)
	}

	log.Info("Starting POS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Continuous profiler (optional)
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Telemetry.Enabled && cfg.Telemetry.ProfilingEndpoint != "",
		ServerAddress:       cfg.Telemetry.ProfilingEndpoint,
		ApplicationName:     cfg.Telemetry.ServiceName,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Database query tracing and metrics
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:         "postgresql",
			WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}

		dbMetrics, err := telemetry.NewDBMetrics(meterProvider.Meter("db"), telemetry.DBMetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err != nil {
			log.Fatal("Failed to create database metrics", zap.Error(err))
		}
		if err := db.DB.Use(telemetry.NewDBMetricsPlugin(dbMetrics, log)); err != nil {
			log.Fatal("Failed to register database metrics", zap.Error(err))
		}
	}

	// Initialize repositories
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	shiftRepo := persistence.NewGormCashShiftRepository(db.DB)
	expenseQuery := persistence.NewGormExpenseQuery(db.DB)
	collectionQuery := persistence.NewGormCreditCollectionQuery(db.DB)

	// Remote service clients for the checkout flow
	numberingClient, err := numbering.NewClient(&numbering.Config{
		BaseURL: cfg.Services.Numbering.BaseURL,
		APIKey:  cfg.Services.Numbering.APIKey,
		Timeout: cfg.Services.Numbering.Timeout,
	})
	if err != nil {
		log.Fatal("Failed to create numbering client", zap.Error(err))
	}
	stockClient, err := inventory.NewClient(&inventory.Config{
		BaseURL: cfg.Services.Inventory.BaseURL,
		APIKey:  cfg.Services.Inventory.APIKey,
		Timeout: cfg.Services.Inventory.Timeout,
	})
	if err != nil {
		log.Fatal("Failed to create inventory client", zap.Error(err))
	}
	creditClient, err := customer.NewClient(&customer.Config{
		BaseURL: cfg.Services.Customers.BaseURL,
		APIKey:  cfg.Services.Customers.APIKey,
		Timeout: cfg.Services.Customers.Timeout,
	})
	if err != nil {
		log.Fatal("Failed to create customer client", zap.Error(err))
	}

	// Shared Redis client when the deployment runs with one. Used for the
	// token blacklist and the readiness probe; the idempotency store opens
	// its own connection from the same settings.
	var redisClient *redis.Client
	if cfg.Sales.IdempotencyBackend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	// Checkout idempotency store (memory for single instance, redis when
	// several instances share a tenant)
	idempotencyStore, err := cache.NewIdempotencyStore(cfg.Sales.IdempotencyBackend, cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Payment tolerance comes from configuration and applies to every sale
	if cfg.Sales.PaymentTolerance > 0 {
		salesdomain.DefaultPaymentTolerance = decimal.NewFromFloat(cfg.Sales.PaymentTolerance)
	}

	// Initialize application services
	saleService := salesapp.NewSaleService(saleRepo, decimal.NewFromFloat(cfg.Sales.TaxRate))
	checkoutService := salesapp.NewCheckoutService(
		saleRepo, numberingClient, stockClient, creditClient, idempotencyStore, log,
	)
	checkoutService.SetClaimTTL(cfg.Sales.IdempotencyTTL)
	shiftService := cashierapp.NewShiftService(shiftRepo, saleRepo, expenseQuery, collectionQuery, log)

	// Initialize event bus and metric handlers
	eventBus := event.NewInMemoryEventBus(log)

	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:         meterProvider.Meter("pos.business"),
		Logger:        log,
		ShiftProvider: telemetry.NewGormShiftMetricsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}
	defer businessMetrics.Stop()

	saleMetricsHandler := salesapp.NewSaleMetricsHandler(businessMetrics, log)
	eventBus.Subscribe(saleMetricsHandler, saleMetricsHandler.EventTypes()...)
	log.Info("Event handlers registered",
		zap.Strings("sale_metrics_events", saleMetricsHandler.EventTypes()),
	)

	if meterProvider.IsEnabled() {
		businessMetrics.StartPeriodicCollection(ctx, telemetry.NewGormTenantProvider(db.DB), 5*time.Minute)
	}

	// Inject event bus into services that publish events
	saleService.SetEventPublisher(eventBus)
	checkoutService.SetEventPublisher(eventBus)
	shiftService.SetEventPublisher(eventBus)

	// Initialize HTTP handlers
	saleHandler := handler.NewSaleHandler(saleService, checkoutService)
	cashShiftHandler := handler.NewCashShiftHandler(shiftService)

	// Token validation for the API surface. Tokens are issued by the
	// identity service; this process only verifies them.
	tokenService := auth.NewTokenService(cfg.JWT)
	var tokenBlacklist auth.TokenBlacklist
	if redisClient != nil {
		tokenBlacklist = auth.NewRedisTokenBlacklist(redisClient)
	} else {
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing / metrics / profiling labels
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       true,
		}))
		engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
			Enabled:          profiler.IsEnabled(),
			SkipPaths:        []string{"/health", "/ready", "/metrics"},
			SkipPathPrefixes: []string{"/swagger"},
		}))
	}
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health and readiness endpoints (outside API versioning)
	systemHandler := handler.NewSystemHandler(db.DB, redisClient)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	// Swagger documentation endpoint (gated)
	jwtForSwagger := middleware.JWTAuthMiddleware(tokenService)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, jwtForSwagger),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// JWT authentication and tenant scoping for all API routes
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		TokenService:   tokenService,
		TokenBlacklist: tokenBlacklist,
		Logger:         log,
	}))
	r.Use(middleware.TenantMiddlewareWithConfig(middleware.TenantMiddlewareConfig{
		Required: true,
		Logger:   log,
	}))

	// Sales domain: sale lifecycle plus the orchestrated checkout
	salesRoutes := router.NewDomainGroup("sales", "/sales")
	salesRoutes.POST("", saleHandler.Create)
	salesRoutes.GET("", saleHandler.List)
	salesRoutes.POST("/checkout", saleHandler.Checkout)
	salesRoutes.GET("/:id", saleHandler.GetByID)
	salesRoutes.DELETE("/:id", saleHandler.Delete)
	salesRoutes.POST("/:id/items", saleHandler.AddItem)
	salesRoutes.PUT("/:id/items/:product_id", saleHandler.UpdateItem)
	salesRoutes.DELETE("/:id/items/:product_id", saleHandler.RemoveItem)
	salesRoutes.POST("/:id/discount", saleHandler.ApplyDiscount)
	salesRoutes.POST("/:id/payments", saleHandler.AddPayment)
	salesRoutes.POST("/:id/complete", saleHandler.Complete)
	salesRoutes.POST("/:id/refund", saleHandler.Refund)

	// Cashier domain: shift lifecycle and reconciliation
	shiftRoutes := router.NewDomainGroup("cash-shifts", "/cash-shifts")
	shiftRoutes.POST("/open", cashShiftHandler.Open)
	shiftRoutes.GET("", cashShiftHandler.List)
	shiftRoutes.GET("/current", cashShiftHandler.GetCurrent)
	shiftRoutes.GET("/:id", cashShiftHandler.GetByID)
	shiftRoutes.POST("/:id/close", cashShiftHandler.Close)
	shiftRoutes.POST("/:id/movements", cashShiftHandler.AddMovement)
	shiftRoutes.GET("/:id/expenses", cashShiftHandler.ListExpenses)

	r.Register(salesRoutes).Register(shiftRoutes)

	// Setup routes
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
