package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront-sync/internal/cache"
	"github.com/utafrali/storefront-sync/internal/config"
	"github.com/utafrali/storefront-sync/internal/event"
	handler "github.com/utafrali/storefront-sync/internal/handler/http"
	"github.com/utafrali/storefront-sync/internal/repository/postgres"
	"github.com/utafrali/storefront-sync/internal/sanitize"
	"github.com/utafrali/storefront-sync/internal/snapshot"
	"github.com/utafrali/storefront-sync/internal/store"
	"github.com/utafrali/storefront-sync/pkg/database"
	"github.com/utafrali/storefront-sync/pkg/health"
	"github.com/utafrali/storefront-sync/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront-sync/pkg/kafka"
	"github.com/utafrali/storefront-sync/pkg/tracing"
)

// App wires together all dependencies and runs the storefront-sync service.
type App struct {
	cfg         *config.Config
	logger      *slog.Logger
	pool        *pgxpool.Pool
	redisClient *redis.Client
	producer    *pkgkafka.Producer
	consumers   []*pkgkafka.Consumer
	builder     *snapshot.Builder
	invalidator *cache.Invalidator
	httpServer  *http.Server

	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(context.Background(), tracing.Config{
		ServiceName:  "storefront-sync",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SampleRate:   cfg.TraceSampleRate,
		Enabled:      cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// PostgreSQL connection pool for the catalog of record.
	pgCfg := cfg.PostgresConfig()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	// Redis client for the storefront page cache.
	redisClient, err := database.NewRedisClient(ctx, cfg.RedisConfig())
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("port", cfg.RedisPort),
	)

	// Kafka producer for lifecycle events.
	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Brand sanitization rules.
	var san *sanitize.Sanitizer
	if cfg.BrandName != "" && len(cfg.LegacyBrandNames) > 0 {
		san, err = sanitize.New(sanitize.NewBrandRules(cfg.BrandName, cfg.LegacyBrandNames))
		if err != nil {
			return nil, fmt.Errorf("build sanitize rules: %w", err)
		}
		logger.Info("brand sanitization enabled",
			slog.String("brand", cfg.BrandName),
			slog.Int("legacy_names", len(cfg.LegacyBrandNames)),
		)
	}

	// Snapshot builder over the catalog reader and artifact store.
	catalogRepo := postgres.NewCatalogRepository(pool)
	fileStore := store.NewFileStore(cfg.SnapshotDir)
	builder := snapshot.NewBuilder(catalogRepo, fileStore, san, logger)

	// Invalidation pipeline: page cache, CDN purge, event notifications.
	revalidator := cache.NewRevalidator(redisClient, logger)

	purgeClient := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("cloudflare"),
		logger,
	)
	purger := cache.NewCloudflarePurger(purgeClient, cache.CloudflareConfig{
		ZoneID:   cfg.CloudflareZoneID,
		APIToken: cfg.CloudflareAPIToken,
		BaseURL:  cfg.CloudflareAPIBase,
		Timeout:  cfg.CDNPurgeTimeout,
	}, logger)
	if !purger.Enabled() {
		logger.Warn("cloudflare purge disabled, no credentials configured")
	}

	notifier := event.NewNotifier(kafkaProducer, logger)
	invalidator := cache.NewInvalidator(builder, revalidator, purger, notifier, logger)

	// Kafka consumers for catalog mutation events.
	consumerHandler := event.NewCatalogHandler(invalidator, logger)
	consumers := event.NewConsumers(cfg.KafkaBrokers, cfg.KafkaGroupID, consumerHandler, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return kafkaProducer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		Invalidator:      invalidator,
		PageCache:        revalidator,
		Builder:          builder,
		Store:            fileStore,
		Health:           healthHandler,
		RevalidateSecret: cfg.RevalidateSecret,
		Logger:           logger,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		producer:       kafkaProducer,
		consumers:      consumers,
		builder:        builder,
		invalidator:    invalidator,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server, Kafka consumers and the scheduled rebuild loop,
// then blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	for _, consumer := range a.consumers {
		c := consumer
		go func() {
			if err := c.Start(ctx); err != nil {
				a.logger.Error("kafka consumer error", slog.String("error", err.Error()))
			}
		}()
	}

	if interval := a.cfg.SnapshotInterval(); interval > 0 {
		go a.rebuildLoop(ctx, interval)
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
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

// rebuildLoop periodically rebuilds the snapshot so drift between the catalog
// and the static tree is bounded even if every event is missed.
func (a *App) rebuildLoop(ctx context.Context, interval time.Duration) {
	a.logger.Info("scheduled snapshot rebuilds enabled", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := a.invalidator.InvalidateAll(ctx, "scheduled")
			if !res.Success {
				a.logger.Error("scheduled rebuild failed", slog.String("error", res.Error))
			}
		}
	}
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	for _, consumer := range a.consumers {
		if err := consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
