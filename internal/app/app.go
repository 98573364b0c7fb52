// Package app wires together all dependencies and runs the storefront server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/meridian-commerce/storefront/pkg/database"
	"github.com/meridian-commerce/storefront/pkg/health"
	"github.com/meridian-commerce/storefront/pkg/httpclient"
	pkgkafka "github.com/meridian-commerce/storefront/pkg/kafka"
	"github.com/meridian-commerce/storefront/pkg/middleware"
	"github.com/meridian-commerce/storefront/pkg/tracing"

	"github.com/meridian-commerce/storefront/internal/auth"
	"github.com/meridian-commerce/storefront/internal/config"
	"github.com/meridian-commerce/storefront/internal/event"
	handler "github.com/meridian-commerce/storefront/internal/handler/http"
	"github.com/meridian-commerce/storefront/internal/payment/hosted"
	"github.com/meridian-commerce/storefront/internal/repository/postgres"
	redisrepo "github.com/meridian-commerce/storefront/internal/repository/redis"
	"github.com/meridian-commerce/storefront/internal/service"
	"github.com/meridian-commerce/storefront/migrations"
)

// App holds the long-lived components of the storefront server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.TracingEndpoint,
		SampleRate:     cfg.TracingSample,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.PostgresConfig()
	pool, err := database.NewPostgresPool(ctx, &pgCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "storefront")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Initialize Redis client for the cart store.
	redisClient, err := database.NewRedisClient(ctx, cfg.RedisConfig())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisConfig().Addr()))

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Payment provider client with circuit breaker.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         cfg.PaymentTimeout,
		MaxRetries:      3,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 100,
	})
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, httpclient.DefaultCircuitBreakerConfig("payment-provider"), logger)

	provider := hosted.NewProvider(hosted.Config{
		BaseURL:    cfg.PaymentBaseURL,
		APIKey:     cfg.PaymentAPIKey,
		SuccessURL: cfg.CheckoutSuccess,
		CancelURL:  cfg.CheckoutCancel,
	}, cbClient, logger)

	// Build the dependency graph. Repositories run through the tracing
	// wrapper so every statement carries a span and slow query timing.
	db := database.WithTracing(pool)
	cartRepo := redisrepo.NewCartRepository(redisClient, cfg.CartTTLDuration())
	productRepo := postgres.NewProductRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	pageRepo := postgres.NewPageRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)

	eventProducer := event.NewProducer(producer, logger)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)

	// Settings feed the shipping and tax policies, so admin pricing edits
	// apply to the next cart read without a restart.
	settingsService := service.NewSettingsService(settingsRepo, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	pprofCIDRs := cfg.PprofAllowed
	if !cfg.PprofEnabled {
		pprofCIDRs = nil
	}

	router := handler.NewRouter(handler.RouterConfig{
		Cart:     service.NewCartService(cartRepo, eventProducer, settingsService, logger),
		Checkout: service.NewCheckoutService(cartRepo, provider, settingsService, logger),
		Catalog:  service.NewCatalogService(productRepo, categoryRepo, logger),
		Pages:    service.NewPageService(pageRepo, logger),
		Orders:   service.NewOrderService(orderRepo, cartRepo, eventProducer, settingsService, logger),
		Settings: settingsService,
		Auth:     service.NewAuthService(jwtManager, cfg.AdminEmail, cfg.AdminPassHash, logger),

		JWT:    jwtManager,
		Health: healthHandler,
		Logger: logger,

		WebhookSecret: cfg.WebhookSecret,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSOrigins,
			Environment:    cfg.Environment,
		},
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		PprofCIDRs:     pprofCIDRs,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: drain HTTP, flush
// spans, close the producer, then close the stores.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
