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

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/gateway"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/repository"
	"shareit/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter, cleanup := initLimiter(ctx, cfg, logger)
	defer cleanup()

	client := gateway.NewClient(
		cfg.Gateway.ServerURL,
		cfg.Gateway.Timeout,
		worker.PolicyFromConfig(cfg.Gateway.Retry),
		logging.Component(logger, "client"),
	)
	gw := gateway.New(cfg.Gateway, client, limiter, logging.Component(logger, "gateway"))

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go serveMetrics(ctx, cfg.Gateway.MetricsPort, logger)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- gw.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("gateway stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("gateway shutdown")
	}

	logger.Info().Msg("gateway stopped")
	return nil
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

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logging.Component(baseLogger, "gateway-main"), closer, nil
}

// initLimiter counts requests in Redis when it is reachable and in process
// memory otherwise.
func initLimiter(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (domain.RateLimiter, func()) {
	memory := repository.NewMemoryStore(cfg.Cache.UserTTL)
	if cfg.Redis.Address == "" || cfg.Gateway.RequestsPerMinute == 0 {
		return memory, func() {}
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, rate limits stay in memory")
		_ = client.Close()
		return memory, func() {}
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	limiter := repository.NewFailoverStore(
		repository.NewRedisStore(client, cfg.Cache.UserTTL),
		memory,
		logging.Component(logger, "limiter"),
	)
	return limiter, func() { _ = repository.Close(client) }
}

func serveMetrics(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
