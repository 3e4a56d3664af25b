package contracts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/armanehsani/zarledger-backend/pkg/config"
	"github.com/armanehsani/zarledger-backend/pkg/db/models"
	"github.com/armanehsani/zarledger-backend/pkg/enums"
	apperrors "github.com/armanehsani/zarledger-backend/pkg/errors"
	"github.com/armanehsani/zarledger-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service exposes contract lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateContractInput) (*models.Contract, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	List(ctx context.Context, query ListQuery) (*ListResult, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	MarkDefaulted(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	SweepOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// CreateContractInput carries the fields a new installment contract requires.
type CreateContractInput struct {
	CustomerID      uuid.UUID          `json:"customer_id" validate:"required"`
	Karat           enums.Karat        `json:"karat" validate:"required"`
	InitialWeight   decimal.Decimal    `json:"initial_weight" validate:"required"`
	ScheduleType    enums.ScheduleType `json:"schedule_type" validate:"required"`
	ScheduleDays    int                `json:"schedule_days,omitempty" validate:"omitempty,min=1,max=365"`
	PriceCeiling    *decimal.Decimal   `json:"price_ceiling,omitempty"`
	PriceFloor      *decimal.Decimal   `json:"price_floor,omitempty"`
	EarlyDiscount   decimal.Decimal    `json:"early_discount,omitempty"`
	GracePeriodDays *int               `json:"grace_period_days,omitempty" validate:"omitempty,min=0,max=365"`
}

// ListQuery narrows and paginates contract listings.
type ListQuery struct {
	CustomerID *uuid.UUID
	Status     *enums.ContractStatus
	Limit      int
	Cursor     string
}

// ListResult wraps a page of contracts and the cursor for the next page.
type ListResult struct {
	Items  []models.Contract `json:"items"`
	Cursor string            `json:"cursor"`
}

type service struct {
	repo Repository
	cfg  config.ContractsConfig
}

// NewService wires a contract service with the provided repository.
func NewService(repo Repository, cfg config.ContractsConfig) (Service, error) {
	if repo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "contract repository required")
	}
	return &service{repo: repo, cfg: cfg}, nil
}

func (s *service) Create(ctx context.Context, input CreateContractInput) (*models.Contract, error) {
	if input.CustomerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "customer id is required")
	}
	if !input.Karat.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unsupported karat")
	}
	if !input.InitialWeight.IsPositive() {
		return nil, apperrors.New(apperrors.CodeValidation, "initial weight must be positive")
	}
	if !input.ScheduleType.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unsupported schedule type")
	}
	if input.ScheduleType == enums.ScheduleTypeCustom && input.ScheduleDays <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "custom schedules require schedule days")
	}
	if input.PriceFloor != nil && !input.PriceFloor.IsPositive() {
		return nil, apperrors.New(apperrors.CodeValidation, "price floor must be positive")
	}
	if input.PriceCeiling != nil && !input.PriceCeiling.IsPositive() {
		return nil, apperrors.New(apperrors.CodeValidation, "price ceiling must be positive")
	}
	if input.PriceFloor != nil && input.PriceCeiling != nil && input.PriceFloor.GreaterThan(*input.PriceCeiling) {
		return nil, apperrors.New(apperrors.CodeValidation, "price floor cannot exceed price ceiling")
	}
	if input.EarlyDiscount.IsNegative() || input.EarlyDiscount.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, apperrors.New(apperrors.CodeValidation, "early discount must be in [0, 1)")
	}

	grace := s.cfg.DefaultGracePeriodDays
	if input.GracePeriodDays != nil {
		if *input.GracePeriodDays < 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "grace period cannot be negative")
		}
		grace = *input.GracePeriodDays
	}

	scheduleDays := input.ScheduleDays
	if input.ScheduleType != enums.ScheduleTypeCustom {
		scheduleDays = input.ScheduleType.IntervalDays()
	}

	weight := input.InitialWeight.Round(3)
	contract := &models.Contract{
		CustomerID:      input.CustomerID,
		Karat:           input.Karat,
		InitialWeight:   weight,
		RemainingWeight: weight,
		ScheduleType:    input.ScheduleType,
		ScheduleDays:    scheduleDays,
		PriceCeiling:    input.PriceCeiling,
		PriceFloor:      input.PriceFloor,
		EarlyDiscount:   input.EarlyDiscount,
		GracePeriodDays: grace,
		Status:          enums.ContractStatusActive,
	}
	if err := s.repo.Create(ctx, contract); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "create contract")
	}
	return contract, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "contract id is required")
	}
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "contract not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "load contract")
	}
	return contract, nil
}

func (s *service) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	filter := ListFilter{
		CustomerID: query.CustomerID,
		Status:     query.Status,
		Limit:      query.Limit,
	}
	if query.Cursor != "" {
		cursor, err := pagination.ParseCursor(query.Cursor)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
		}
		filter.Cursor = cursor
	}

	contracts, next, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "list contracts")
	}

	encoded := ""
	if next != nil {
		encoded = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: contracts, Cursor: encoded}, nil
}

func (s *service) MarkCompleted(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	return s.transition(ctx, id, enums.ContractStatusCompleted, func(c *models.Contract) error {
		if !c.RemainingWeight.IsZero() {
			return apperrors.New(apperrors.CodeStateConflict, "contract still carries a weight balance")
		}
		return nil
	})
}

func (s *service) MarkDefaulted(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	return s.transition(ctx, id, enums.ContractStatusDefaulted, nil)
}

func (s *service) transition(ctx context.Context, id uuid.UUID, target enums.ContractStatus, guard func(*models.Contract) error) (*models.Contract, error) {
	contract, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if contract.Status != enums.ContractStatusActive {
		return nil, apperrors.New(apperrors.CodeStateConflict, "contract is not active")
	}
	if guard != nil {
		if guardErr := guard(contract); guardErr != nil {
			return nil, guardErr
		}
	}
	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "update contract status")
	}
	contract.Status = target
	return contract, nil
}

// SweepOverdue defaults every active contract whose payment deadline has
// lapsed. The deadline is last activity plus one schedule interval plus the
// contract's grace period.
func (s *service) SweepOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	candidates, err := s.repo.ListOverdue(ctx, now)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "list overdue contracts")
	}

	var defaulted []uuid.UUID
	var sweepErr error
	for i := range candidates {
		contract := &candidates[i]
		if !paymentOverdue(contract, now) {
			continue
		}
		if err := s.repo.UpdateStatus(ctx, contract.ID, enums.ContractStatusDefaulted); err != nil {
			sweepErr = multierr.Append(sweepErr, fmt.Errorf("default contract %s: %w", contract.ID, err))
			continue
		}
		defaulted = append(defaulted, contract.ID)
	}
	return defaulted, sweepErr
}

func paymentOverdue(contract *models.Contract, now time.Time) bool {
	lastActivity := contract.CreatedAt
	if contract.LastPaymentAt != nil {
		lastActivity = *contract.LastPaymentAt
	}
	intervalDays := contract.ScheduleDays
	if intervalDays <= 0 {
		intervalDays = contract.ScheduleType.IntervalDays()
	}
	deadline := lastActivity.AddDate(0, 0, intervalDays+contract.GracePeriodDays)
	return now.After(deadline)
}
