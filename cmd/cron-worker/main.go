package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/armanehsani/zarledger-backend/internal/contracts"
	"github.com/armanehsani/zarledger-backend/internal/cron"
	"github.com/armanehsani/zarledger-backend/internal/goldprice"
	"github.com/armanehsani/zarledger-backend/pkg/config"
	"github.com/armanehsani/zarledger-backend/pkg/db"
	"github.com/armanehsani/zarledger-backend/pkg/logger"
	"github.com/armanehsani/zarledger-backend/pkg/metrics"
	"github.com/armanehsani/zarledger-backend/pkg/migrate"
	"github.com/armanehsani/zarledger-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	defer func() {
		closeErr := multierr.Combine(dbClient.Close(), redisClient.Close())
		if closeErr != nil {
			logg.Error(context.Background(), "error closing resources", closeErr)
		}
	}()

	contractRepo := contracts.NewRepository(dbClient.DB())
	contractService, err := contracts.NewService(contractRepo, cfg.Contracts)
	if err != nil {
		logg.Error(context.Background(), "failed to create contract service", err)
		os.Exit(1)
	}

	var priceSource goldprice.Source
	if cfg.GoldPrice.SourceURL != "" {
		priceSource, err = goldprice.NewHTTPSource(cfg.GoldPrice.SourceURL, goldprice.WithTimeout(cfg.GoldPrice.SourceTimeout))
		if err != nil {
			logg.Error(context.Background(), "failed to create gold price source", err)
			os.Exit(1)
		}
	}

	priceCache := goldprice.NewRedisCache(redisClient, cfg.GoldPrice.CacheTTL)
	priceService, err := goldprice.NewService(priceSource, priceCache, goldprice.NewRepository(dbClient.DB()), cfg.GoldPrice, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create gold price service", err)
		os.Exit(1)
	}

	refreshJob, err := cron.NewPriceRefreshJob(cron.PriceRefreshJobParams{Logger: logg, Prices: priceService})
	if err != nil {
		logg.Error(context.Background(), "failed to create price refresh job", err)
		os.Exit(1)
	}
	sweepJob, err := cron.NewDefaultSweepJob(cron.DefaultSweepJobParams{Logger: logg, Contracts: contractService})
	if err != nil {
		logg.Error(context.Background(), "failed to create default sweep job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-cycle"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(refreshJob, sweepJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
