package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	deskingapp "github.com/dealerdesk/backend/internal/application/desking"
	identityapp "github.com/dealerdesk/backend/internal/application/identity"
	inventoryapp "github.com/dealerdesk/backend/internal/application/inventory"
	partnerapp "github.com/dealerdesk/backend/internal/application/partner"
	"github.com/dealerdesk/backend/internal/infrastructure/config"
	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"github.com/dealerdesk/backend/internal/infrastructure/persistence"
	"github.com/dealerdesk/backend/internal/infrastructure/persistence/scope"
	"github.com/dealerdesk/backend/internal/infrastructure/telemetry"
	"github.com/dealerdesk/backend/internal/interfaces/http/handler"
	"github.com/dealerdesk/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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

	log.Info("Starting DealerDesk backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Telemetry providers. Each is a no-op when disabled, so the wiring below
	// does not branch on configuration.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.TracingConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		SpanProfiles:      cfg.Telemetry.ProfilerEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(cfg.Telemetry.ServiceName, loggerProvider, log.Level())
		log = telemetry.NewBridgedLogger(log.Core(), otelCore)
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilerEnabled,
		ServerAddress:   cfg.Telemetry.ProfilerAddress,
		ApplicationName: cfg.App.Name,
	}, log)
	if err != nil {
		log.Warn("Failed to start profiler, continuing without", zap.Error(err))
	}

	// Database. The gorm session is opened here rather than inside the pool
	// wrapper so the tracing plugin and the zap-backed gorm logger can be
	// attached before any query runs.
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:                 gormLog,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Database.SlowQueryThreshold,
		}, log)
		if err := plugin.Register(gormDB); err != nil {
			log.Warn("Failed to register database tracing plugin", zap.Error(err))
		}
	}

	db, err := persistence.NewDatabaseWithGorm(gormDB, cfg.Database, persistence.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize database pool", zap.Error(err))
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := db.Ping(pingCtx); err != nil {
		cancel()
		log.Fatal("Database is unreachable", zap.Error(err))
	}
	cancel()
	log.Info("Database connected successfully")

	txManager := persistence.NewTxManager(db, persistence.TxOptions{
		MaxRetries: cfg.Transaction.MaxRetries,
		Timeout:    cfg.Transaction.DefaultTimeout,
		Backoff: persistence.BackoffPolicy{
			BaseDelay:      cfg.Transaction.BaseDelay,
			MaxDelay:       cfg.Transaction.MaxDelay,
			Multiplier:     cfg.Transaction.Multiplier,
			JitterFraction: cfg.Transaction.JitterFraction,
		},
	}, log)

	poolCollector, err := telemetry.NewPoolCollector(meterProvider, telemetry.PoolCollectorConfig{
		Enabled: cfg.Telemetry.Enabled,
	}, db, txManager, log)
	if err != nil {
		log.Warn("Failed to create pool metrics collector", zap.Error(err))
	}
	poolCollector.Start(ctx)

	// Repositories outside transactions read through the tracked pool handle.
	dealRepo := persistence.NewGormDealRepository(db.DB())
	vehicleRepo := persistence.NewGormVehicleRepository(db.DB())
	customerRepo := persistence.NewGormCustomerRepository(db.DB())
	userRepo := persistence.NewGormUserRepository(db.DB())

	// Services
	dealService := deskingapp.NewDealService(dealRepo, scope.NewDeskingTxScope(txManager), nil)
	vehicleService := inventoryapp.NewVehicleService(vehicleRepo, scope.NewInventoryTxScope(txManager))
	userService := identityapp.NewUserService(userRepo, scope.NewIdentityTxScope(txManager))
	customerService := partnerapp.NewCustomerService(customerRepo, scope.NewPartnerTxScope(txManager))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.Build(router.Config{
		Logger:          log,
		MeterProvider:   meterProvider,
		TracingEnabled:  tracerProvider.IsEnabled(),
		AllowedOrigins:  cfg.HTTP.AllowedOrigins,
		DealHandler:     handler.NewDealHandler(dealService),
		VehicleHandler:  handler.NewVehicleHandler(vehicleService),
		CustomerHandler: handler.NewCustomerHandler(customerService),
		UserHandler:     handler.NewUserHandler(userService),
		Monitoring:      handler.NewMonitoringHandler(db, txManager),
	})
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxy configuration", zap.Error(err))
	}

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, draining")

	// Stop accepting HTTP first, then drain the pool. In-flight transactions
	// get the full grace period before connections are forced closed.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.ShutdownGrace+5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}

	poolCollector.Stop()

	if err := db.Shutdown(shutdownCtx); err != nil {
		log.Error("Database drain failed", zap.Error(err))
	}

	if profiler != nil {
		if err := profiler.Stop(); err != nil {
			log.Error("Profiler shutdown failed", zap.Error(err))
		}
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Logger provider shutdown failed", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
