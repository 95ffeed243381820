// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"portfolio-access/internal/config"
	"portfolio-access/internal/infra/api"
	pg "portfolio-access/internal/infra/db/postgres"
	"portfolio-access/internal/infra/logging"
	"portfolio-access/internal/infra/metrics"
	"portfolio-access/internal/infra/payment"
	red "portfolio-access/internal/infra/redis"
	"portfolio-access/internal/infra/sched"
	"portfolio-access/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "development mode (manual grant endpoint, relaxed validation)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	throttle := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	passRepo := pg.NewAccessPassRepo(pool)
	opRepo := pg.NewPaymentOperationRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Gateway ----
	gateway := payment.NewIntechGateway(cfg.Payment.Intech.BaseURL, cfg.Payment.Intech.SecretKey)

	// ---- Use cases ----
	pricing := usecase.Pricing{
		Amount:   cfg.Access.Amount,
		Currency: cfg.Access.Currency,
		PassTTL:  cfg.Access.PassTTL,
	}
	probe := usecase.NewStatusProbe(gateway, throttle, logger)
	accessUC := usecase.NewAccessUseCase(passRepo, opRepo, gateway, pricing, cfg.Payment.Intech.CallbackURL, probe, logger)
	activationUC := usecase.NewActivationUseCase(passRepo, opRepo, txManager, gateway, throttle, pricing, logger)

	// ---- Metrics ----
	metrics.MustRegister()

	// ---- Reconciler ----
	reconciler := sched.NewOperationReconciler(activationUC, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, cfg.Reconciler.BatchLimit, logger)
	go func() {
		if err := reconciler.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("reconciler stopped")
		}
	}()

	// ---- HTTP ----
	auth := api.NewAuthManager(cfg.Auth.JWTSecret)
	server := api.NewServer(accessUC, activationUC, auth, cfg.Payment.Intech.CallbackSecret, cfg.Server.RequestTimeout, cfg.Runtime.Dev, logger)
	go func() {
		if err := server.Start(cfg.Server.Port); err != nil && ctx.Err() == nil {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	// ---- Shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
