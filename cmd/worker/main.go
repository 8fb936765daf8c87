package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"merchant-settlement-service/config"
	"merchant-settlement-service/internal/adapter/storage/postgres"
	"merchant-settlement-service/internal/adapter/storage/redis"
	"merchant-settlement-service/internal/service"
	"merchant-settlement-service/internal/worker"
	"merchant-settlement-service/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	metricsAddr := flag.String("metrics-addr", ":9091", "metrics listen address")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to postgres")
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to redis")
	}
	defer redisClient.Close()

	stream := redis.NewStream(redisClient, cfg.Stream.Name)
	settler := service.NewSettlementService(
		postgres.NewTransactionRepo(pool),
		postgres.NewBalanceRepo(pool),
		postgres.NewTransactor(pool),
		log,
	)

	registry := prometheus.NewRegistry()
	metrics := worker.NewMetrics(registry)

	w := worker.New(stream, settler, worker.Config{
		Group:        cfg.Stream.Group,
		Consumer:     cfg.Stream.Consumer,
		BatchSize:    cfg.Stream.BatchSize,
		Block:        cfg.Stream.Block,
		PollInterval: cfg.Stream.PollInterval,
	}, metrics, log)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: *metricsAddr, Handler: metricsMux}
	go func() {
		log.Info().Str("addr", *metricsAddr).Msg("worker metrics server starting")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker stopped with error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server shutdown failed")
	}
	log.Info().Msg("worker stopped")
}
