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
	"merchant-settlement-service/internal/adapter/http/handler"
	"merchant-settlement-service/internal/adapter/storage/postgres"
	"merchant-settlement-service/internal/adapter/storage/redis"
	"merchant-settlement-service/internal/service"
	"merchant-settlement-service/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
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
	claims := redis.NewClaimStore(redisClient)

	withdrawalRepo := postgres.NewWithdrawalRepo(pool)
	transactionRepo := postgres.NewTransactionRepo(pool)
	balanceRepo := postgres.NewBalanceRepo(pool)

	producer := service.NewProducer(stream, log)
	withdrawals := service.NewWithdrawalService(withdrawalRepo, transactionRepo, balanceRepo, log)
	tokens := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	router := handler.SetupRouter(handler.RouterDeps{
		Settlements: handler.NewSettlementHandler(producer, log),
		Withdrawals: handler.NewWithdrawalHandler(withdrawals, log),
		Health:      handler.NewHealthHandler(postgres.NewHealthCheck(pool), redis.NewHealthCheck(redisClient)),
		Tokens:      tokens,
		Claims:      claims,
		ClaimTTL:    cfg.Idempotency.TTL,
		ClaimWait:   cfg.Idempotency.Timeout,
		Mode:        cfg.Server.Mode,
		Log:         log,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("api server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("api server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("api server stopped")
}
