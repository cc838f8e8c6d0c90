package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trusttec/cart-service/internal/config"
	"github.com/trusttec/cart-service/internal/event"
	handler "github.com/trusttec/cart-service/internal/handler/http"
	redisrepo "github.com/trusttec/cart-service/internal/repository/redis"
	"github.com/trusttec/cart-service/internal/service"
	cartsync "github.com/trusttec/cart-service/internal/sync"
	"github.com/trusttec/cart-service/pkg/health"
	pkgkafka "github.com/trusttec/cart-service/pkg/kafka"
)

// App wires together all dependencies and runs the cart service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	watcher    *cartsync.Watcher
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize Redis client.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Build the dependency graph. The engine hydrates from storage here so
	// it serves the persisted cart from the first request.
	store := redisrepo.NewCartStore(rdb, cfg.CartStorageKey, cfg.CartTTL, logger)
	engine := service.NewCartService(ctx, store, cfg.MaxQuantityPerItem, logger)
	watcher := cartsync.NewWatcher(rdb, store, engine, cfg.CartStorageKey, store.Origin(), logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	// Kafka producer, only when event publishing is enabled.
	var producer *pkgkafka.Producer
	if cfg.EventsEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		engine.OnChange(event.NewPublisher(producer, cfg.CartStorageKey, logger).CartChanged)
		healthHandler.Register("kafka", producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// HTTP router.
	cartHandler := handler.NewCartHandler(engine,
		handler.NewOrderLinkBuilder(cfg.WhatsAppNumber, cfg.Currency))
	router := handler.NewRouter(cartHandler, handler.RouterConfig{
		Logger:      logger,
		Health:      healthHandler,
		Environment: cfg.Environment,
		CORSOrigins: cfg.CORSAllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		rdb:        rdb,
		producer:   producer,
		watcher:    watcher,
		httpServer: httpServer,
	}, nil
}

// Run starts the change watcher and the HTTP server, then blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	watchCtx, stopWatcher := context.WithCancel(context.Background())
	defer stopWatcher()

	go func() {
		if err := a.watcher.Run(watchCtx); err != nil && err != context.Canceled {
			a.logger.Error("cart watcher stopped", slog.String("error", err.Error()))
		}
	}()

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

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
