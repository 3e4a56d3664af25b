package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/armanehsani/zarledger-backend/api/routes"
	"github.com/armanehsani/zarledger-backend/internal/contracts"
	"github.com/armanehsani/zarledger-backend/internal/customers"
	"github.com/armanehsani/zarledger-backend/internal/goldprice"
	"github.com/armanehsani/zarledger-backend/internal/ledger"
	"github.com/armanehsani/zarledger-backend/internal/payments"
	"github.com/armanehsani/zarledger-backend/pkg/config"
	"github.com/armanehsani/zarledger-backend/pkg/db"
	"github.com/armanehsani/zarledger-backend/pkg/logger"
	"github.com/armanehsani/zarledger-backend/pkg/metrics"
	"github.com/armanehsani/zarledger-backend/pkg/migrate"
	"github.com/armanehsani/zarledger-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	customerService, err := customers.NewService(customers.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create customer service", err)
		os.Exit(1)
	}

	contractRepo := contracts.NewRepository(dbClient.DB())
	contractService, err := contracts.NewService(contractRepo, cfg.Contracts)
	if err != nil {
		logg.Error(context.Background(), "failed to create contract service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	var priceSource goldprice.Source
	if cfg.GoldPrice.SourceURL != "" {
		priceSource, err = goldprice.NewHTTPSource(cfg.GoldPrice.SourceURL, goldprice.WithTimeout(cfg.GoldPrice.SourceTimeout))
		if err != nil {
			logg.Error(context.Background(), "failed to create gold price source", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "no gold price source configured, relying on cache and stored samples")
	}

	priceCache := goldprice.NewRedisCache(redisClient, cfg.GoldPrice.CacheTTL)
	priceService, err := goldprice.NewService(priceSource, priceCache, goldprice.NewRepository(dbClient.DB()), cfg.GoldPrice, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create gold price service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(dbClient, contractRepo, ledgerService, priceService, ledgerMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			redisClient,
			registry,
			customerService,
			contractService,
			ledgerService,
			paymentService,
			priceService,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining requests")
		graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
