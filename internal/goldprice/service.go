package goldprice

import (
	"context"
	"errors"
	"time"

	"github.com/armanehsani/zarledger-backend/pkg/config"
	"github.com/armanehsani/zarledger-backend/pkg/db/models"
	"github.com/armanehsani/zarledger-backend/pkg/enums"
	apperrors "github.com/armanehsani/zarledger-backend/pkg/errors"
	"github.com/armanehsani/zarledger-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	sourceCache    = "cache"
	sourceFeed     = "feed"
	sourceHistory  = "history"
	sourceFallback = "fallback"
)

// Service resolves the current per-gram price for any supported karat.
//
// Resolution order is cache, then the upstream feed, then the newest
// persisted sample, then the configured static fallback. Feed hits are
// cached and recorded in the price history.
type Service interface {
	CurrentPrice(ctx context.Context, karat enums.Karat) (decimal.Decimal, error)
	CurrentQuote(ctx context.Context, karat enums.Karat) (*models.GoldPrice, error)
	History(ctx context.Context, karat enums.Karat, since time.Time) ([]models.GoldPrice, error)
	Refresh(ctx context.Context) (decimal.Decimal, error)
}

type service struct {
	source Source
	cache  Cache
	repo   Repository
	cfg    config.GoldPriceConfig
	logg   *logger.Logger
}

// NewService wires the price service. Source may be nil when no feed URL is
// configured; the service then runs on cache and fallback alone.
func NewService(source Source, cache Cache, repo Repository, cfg config.GoldPriceConfig, logg *logger.Logger) (Service, error) {
	if cache == nil || repo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "gold price cache and repository required")
	}
	return &service{source: source, cache: cache, repo: repo, cfg: cfg, logg: logg}, nil
}

func (s *service) CurrentPrice(ctx context.Context, karat enums.Karat) (decimal.Decimal, error) {
	if !karat.IsValid() {
		return decimal.Zero, apperrors.New(apperrors.CodeValidation, "unsupported karat")
	}
	base, _, err := s.basePrice(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return s.adjustKarat(base, karat), nil
}

func (s *service) CurrentQuote(ctx context.Context, karat enums.Karat) (*models.GoldPrice, error) {
	if !karat.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unsupported karat")
	}
	base, origin, err := s.basePrice(ctx)
	if err != nil {
		return nil, err
	}
	return &models.GoldPrice{
		Karat:        int(karat),
		PricePerGram: s.adjustKarat(base, karat),
		Source:       origin,
		SampledAt:    time.Now().UTC(),
	}, nil
}

// Refresh polls the feed, caches the base price and appends it to the
// history table. Used by the cron worker.
func (s *service) Refresh(ctx context.Context) (decimal.Decimal, error) {
	if s.source == nil {
		return decimal.Zero, apperrors.New(apperrors.CodeDependency, "no gold price feed configured")
	}
	quote, err := s.source.Fetch(ctx)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.CodeDependency, err, "poll gold price feed")
	}
	s.storeQuote(ctx, quote)
	return quote.PricePerGram, nil
}

func (s *service) basePrice(ctx context.Context) (decimal.Decimal, string, error) {
	cached, ok, err := s.cache.GetPrice(ctx)
	if err != nil && s.logg != nil {
		s.logg.Warn(ctx, "gold price cache read failed: "+err.Error())
	}
	if err == nil && ok {
		return cached, sourceCache, nil
	}

	if s.source != nil {
		quote, fetchErr := s.source.Fetch(ctx)
		if fetchErr == nil {
			s.storeQuote(ctx, quote)
			return quote.PricePerGram, sourceFeed, nil
		}
		if s.logg != nil {
			s.logg.Warn(ctx, "gold price feed unavailable: "+fetchErr.Error())
		}
	}

	if latest, repoErr := s.repo.Latest(ctx, s.cfg.BaseKarat); repoErr == nil {
		return latest.PricePerGram, sourceHistory, nil
	} else if !errors.Is(repoErr, gorm.ErrRecordNotFound) && s.logg != nil {
		s.logg.Warn(ctx, "gold price history read failed: "+repoErr.Error())
	}

	return decimal.NewFromInt(s.cfg.FallbackPerGram), sourceFallback, nil
}

func (s *service) storeQuote(ctx context.Context, quote Quote) {
	if err := s.cache.SetPrice(ctx, quote.PricePerGram); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "gold price cache write failed: "+err.Error())
	}
	record := &models.GoldPrice{
		Karat:        s.cfg.BaseKarat,
		PricePerGram: quote.PricePerGram,
		Source:       sourceFeed,
		SampledAt:    quote.SampledAt,
	}
	if err := s.repo.Create(ctx, record); err != nil && s.logg != nil {
		s.logg.Error(ctx, "persist gold price sample", err)
	}
}

// adjustKarat scales the base-karat price linearly by purity and rounds to a
// whole toman.
func (s *service) adjustKarat(base decimal.Decimal, karat enums.Karat) decimal.Decimal {
	if int(karat) == s.cfg.BaseKarat {
		return base.Round(0)
	}
	return base.
		Mul(decimal.NewFromInt(int64(karat))).
		DivRound(decimal.NewFromInt(int64(s.cfg.BaseKarat)), 0)
}

// History lists persisted samples for a karat since the given instant.
// Samples are stored at the base karat, so other grades are scaled on read.
func (s *service) History(ctx context.Context, karat enums.Karat, since time.Time) ([]models.GoldPrice, error) {
	if !karat.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unsupported karat")
	}
	samples, err := s.repo.ListSince(ctx, s.cfg.BaseKarat, since)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "list price history")
	}
	if int(karat) == s.cfg.BaseKarat {
		return samples, nil
	}
	scaled := make([]models.GoldPrice, len(samples))
	for i, sample := range samples {
		sample.Karat = int(karat)
		sample.PricePerGram = s.adjustKarat(sample.PricePerGram, karat)
		scaled[i] = sample
	}
	return scaled, nil
}
