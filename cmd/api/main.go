package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shim/internal/api"
	"shim/internal/config"
	"shim/internal/database"
	"shim/internal/domain"
	"shim/internal/events"
	"shim/internal/export"
	"shim/internal/logging"
	"shim/internal/metrics"
	"shim/internal/repository"
	"shim/internal/service"
	"shim/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database, logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	eventBus := events.NewEventBus()
	if cfg.Notifications.Enabled {
		db.EnableOutbox()
		notificationWorker := worker.NewNotificationWorker(db, newNotifier(cfg, logger), redisClient, cfg.Notifications, logger)
		eventBus.Subscribe(notificationWorker.HandleEvent, events.BookingEvents...)
		go notificationWorker.Start(ctx)
	}

	go database.NewBackupService(db, cfg.Backup, logger).Start(ctx)

	metrics.Register()
	startMetrics(ctx, cfg, logger)

	server := api.NewServer(cfg, api.Deps{
		Bookings: service.NewBookingService(db, initQuota(redisClient, logger), eventBus, cfg.Booking, logger),
		Items:    service.NewItemService(db, logger),
		Grants:   service.NewGrantService(db),
		Users:    service.NewUserService(db),
		Exporter: export.NewExporter(db, logger),
		Store:    db,
	}, logger)

	return serve(ctx, server, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = repository.Close(client)
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initQuota prefers the shared Redis counter and falls back to process memory.
func initQuota(client *redis.Client, logger *zerolog.Logger) domain.QuotaRepository {
	memory := repository.NewMemoryQuotaRepository()
	if client == nil {
		return memory
	}
	return repository.NewFailoverQuotaRepository(repository.NewRedisQuotaRepository(client), memory, logger)
}

func newNotifier(cfg *config.Config, logger *zerolog.Logger) worker.Notifier {
	if cfg.Notifications.WebhookURL == "" {
		return worker.NewLogNotifier(logger)
	}
	return worker.NewWebhookNotifier(cfg.Notifications.WebhookURL, 10*time.Second)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

func serve(ctx context.Context, server *api.Server, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info().Int("http_port", cfg.HTTP.Port).Msg("API server started")

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}
