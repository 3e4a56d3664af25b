package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/armanehsani/zarledger-backend/pkg/logger"
	"github.com/google/uuid"
)

type overdueSweeper interface {
	SweepOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// DefaultSweepJobParams configure the overdue contract sweep.
type DefaultSweepJobParams struct {
	Logger    *logger.Logger
	Contracts overdueSweeper
}

// NewDefaultSweepJob builds the job that marks contracts defaulted once
// their payment deadline plus grace period has lapsed.
func NewDefaultSweepJob(params DefaultSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Contracts == nil {
		return nil, fmt.Errorf("contract service required")
	}
	return &defaultSweepJob{logg: params.Logger, contracts: params.Contracts, now: time.Now}, nil
}

type defaultSweepJob struct {
	logg      *logger.Logger
	contracts overdueSweeper
	now       func() time.Time
}

func (j *defaultSweepJob) Name() string { return "contract-default-sweep" }

func (j *defaultSweepJob) Run(ctx context.Context) error {
	defaulted, err := j.contracts.SweepOverdue(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("default sweep: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "contracts_defaulted", len(defaulted))
	j.logg.Info(logCtx, "default sweep complete")
	return nil
}
