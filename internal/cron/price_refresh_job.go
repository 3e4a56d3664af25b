package cron

import (
	"context"
	"fmt"

	"github.com/armanehsani/zarledger-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type priceRefresher interface {
	Refresh(ctx context.Context) (decimal.Decimal, error)
}

// PriceRefreshJobParams configure the gold price refresh job.
type PriceRefreshJobParams struct {
	Logger *logger.Logger
	Prices priceRefresher
}

// NewPriceRefreshJob builds the job that polls the gold price feed and warms
// the cache between API requests.
func NewPriceRefreshJob(params PriceRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Prices == nil {
		return nil, fmt.Errorf("price service required")
	}
	return &priceRefreshJob{logg: params.Logger, prices: params.Prices}, nil
}

type priceRefreshJob struct {
	logg   *logger.Logger
	prices priceRefresher
}

func (j *priceRefreshJob) Name() string { return "gold-price-refresh" }

func (j *priceRefreshJob) Run(ctx context.Context) error {
	price, err := j.prices.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("gold price refresh: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "price_per_gram", price.String())
	j.logg.Info(logCtx, "gold price refreshed")
	return nil
}
