package payments

import (
	"context"
	"errors"
	"time"

	"github.com/armanehsani/zarledger-backend/internal/contracts"
	"github.com/armanehsani/zarledger-backend/internal/ledger"
	"github.com/armanehsani/zarledger-backend/pkg/db"
	"github.com/armanehsani/zarledger-backend/pkg/db/models"
	"github.com/armanehsani/zarledger-backend/pkg/enums"
	apperrors "github.com/armanehsani/zarledger-backend/pkg/errors"
	"github.com/armanehsani/zarledger-backend/pkg/logger"
	"github.com/armanehsani/zarledger-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const conflictRetryBackoff = 50 * time.Millisecond

// PriceProvider supplies the current per-gram price for a purity grade.
type PriceProvider interface {
	CurrentPrice(ctx context.Context, karat enums.Karat) (decimal.Decimal, error)
}

// Service posts payments and adjustments against contract balances.
type Service interface {
	PostPayment(ctx context.Context, input PostPaymentInput) (*PostResult, error)
	PostAdjustment(ctx context.Context, input PostAdjustmentInput) (*PostResult, error)
}

// PostPaymentInput carries a cash installment to convert into gold weight.
type PostPaymentInput struct {
	ContractID  uuid.UUID       `json:"contract_id" validate:"required"`
	ActorUserID uuid.UUID       `json:"-"`
	AmountToman decimal.Decimal `json:"amount_toman" validate:"required"`
	Note        *string         `json:"note,omitempty" validate:"omitempty,max=500"`
}

// PostAdjustmentInput carries an authorized manual weight correction.
type PostAdjustmentInput struct {
	ContractID  uuid.UUID              `json:"contract_id" validate:"required"`
	ActorUserID uuid.UUID              `json:"-"`
	ActorRole   enums.MemberRole       `json:"-"`
	WeightDelta decimal.Decimal        `json:"weight_delta" validate:"required"`
	Reason      enums.AdjustmentReason `json:"reason" validate:"required"`
	Note        *string                `json:"note,omitempty" validate:"omitempty,max=500"`
}

// PostResult is a posted ledger entry together with the updated contract.
type PostResult struct {
	Entry    *models.LedgerEntry `json:"entry"`
	Contract *models.Contract    `json:"contract"`
}

type service struct {
	db        *db.Client
	contracts contracts.Repository
	ledger    ledger.Service
	prices    PriceProvider
	metrics   *metrics.LedgerMetrics
	logg      *logger.Logger
}

// NewService wires the posting service with its transaction boundary and
// collaborators.
func NewService(client *db.Client, contractRepo contracts.Repository, ledgerSvc ledger.Service, prices PriceProvider, m *metrics.LedgerMetrics, logg *logger.Logger) (Service, error) {
	if client == nil || contractRepo == nil || ledgerSvc == nil || prices == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "posting service dependencies missing")
	}
	return &service{
		db:        client,
		contracts: contractRepo,
		ledger:    ledgerSvc,
		prices:    prices,
		metrics:   m,
		logg:      logg,
	}, nil
}

func (s *service) PostPayment(ctx context.Context, input PostPaymentInput) (*PostResult, error) {
	start := time.Now()
	result, err := s.postPayment(ctx, input)
	s.observe(enums.LedgerEntryTypePayment, start, err)
	return result, err
}

func (s *service) postPayment(ctx context.Context, input PostPaymentInput) (*PostResult, error) {
	if input.ContractID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "contract id is required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "actor is required")
	}
	if !input.AmountToman.IsPositive() {
		return nil, apperrors.New(apperrors.CodeValidation, "payment amount must be positive")
	}

	var result *PostResult
	err := s.withConflictRetry(ctx, func(ctx context.Context) error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			contract, err := s.lockActiveContract(ctx, tx, input.ContractID)
			if err != nil {
				return err
			}

			marketPrice, err := s.prices.CurrentPrice(ctx, contract.Karat)
			if err != nil {
				return apperrors.Wrap(apperrors.CodeDependency, err, "resolve gold price")
			}

			quote, err := QuotePayment(contract, input.AmountToman, marketPrice)
			if err != nil {
				return err
			}

			entry, err := s.ledger.WithTx(tx).Append(ctx, ledger.AppendEntryInput{
				ContractID:     contract.ID,
				ActorUserID:    input.ActorUserID,
				Type:           enums.LedgerEntryTypePayment,
				AmountToman:    &input.AmountToman,
				EffectivePrice: &quote.EffectivePrice,
				WeightDelta:    quote.WeightDelta,
				BalanceAfter:   quote.NewBalance,
				Note:           input.Note,
			})
			if err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "append payment entry")
			}

			paidAt := time.Now().UTC()
			if err := s.applyBalance(ctx, tx, contract, quote.NewBalance, &paidAt); err != nil {
				return err
			}

			result = &PostResult{Entry: entry, Contract: contract}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithContractID(ctx, input.ContractID.String())
		ctx = s.logg.WithFields(ctx, map[string]any{
			"amount_toman":    input.AmountToman.String(),
			"effective_price": result.Entry.EffectivePrice.String(),
			"weight_delta":    result.Entry.WeightDelta.String(),
			"balance_after":   result.Entry.BalanceAfter.String(),
		})
		s.logg.Info(ctx, "payment posted")
	}
	return result, nil
}

func (s *service) PostAdjustment(ctx context.Context, input PostAdjustmentInput) (*PostResult, error) {
	start := time.Now()
	result, err := s.postAdjustment(ctx, input)
	s.observe(enums.LedgerEntryTypeAdjustment, start, err)
	return result, err
}

func (s *service) postAdjustment(ctx context.Context, input PostAdjustmentInput) (*PostResult, error) {
	if input.ContractID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "contract id is required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "actor is required")
	}
	if !input.ActorRole.CanAuthorizeAdjustments() {
		return nil, apperrors.New(apperrors.CodeForbidden, "role cannot authorize adjustments")
	}
	if !input.Reason.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unknown adjustment reason")
	}

	var result *PostResult
	err := s.withConflictRetry(ctx, func(ctx context.Context) error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			contract, err := s.lockActiveContract(ctx, tx, input.ContractID)
			if err != nil {
				return err
			}

			newBalance, err := QuoteAdjustment(contract, input.WeightDelta)
			if err != nil {
				return err
			}

			reason := input.Reason
			entry, err := s.ledger.WithTx(tx).Append(ctx, ledger.AppendEntryInput{
				ContractID:       contract.ID,
				ActorUserID:      input.ActorUserID,
				Type:             enums.LedgerEntryTypeAdjustment,
				WeightDelta:      input.WeightDelta.Round(weightScale),
				BalanceAfter:     newBalance,
				AdjustmentReason: &reason,
				Note:             input.Note,
			})
			if err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "append adjustment entry")
			}

			if err := s.applyBalance(ctx, tx, contract, newBalance, nil); err != nil {
				return err
			}

			result = &PostResult{Entry: entry, Contract: contract}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithContractID(ctx, input.ContractID.String())
		ctx = s.logg.WithFields(ctx, map[string]any{
			"reason":        string(input.Reason),
			"weight_delta":  result.Entry.WeightDelta.String(),
			"balance_after": result.Entry.BalanceAfter.String(),
		})
		s.logg.Info(ctx, "adjustment posted")
	}
	return result, nil
}

// lockActiveContract loads the contract under a row lock and rejects posting
// against anything but an active contract.
func (s *service) lockActiveContract(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Contract, error) {
	contract, err := s.contracts.WithTx(tx).FindForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "contract not found")
		}
		return nil, err
	}
	if contract.Status != enums.ContractStatusActive {
		return nil, apperrors.New(apperrors.CodeStateConflict, "contract is not active")
	}
	return contract, nil
}

// applyBalance persists the new cached balance and completes the contract
// when the ledger reaches exactly zero.
func (s *service) applyBalance(ctx context.Context, tx *gorm.DB, contract *models.Contract, newBalance decimal.Decimal, paidAt *time.Time) error {
	repo := s.contracts.WithTx(tx)
	if err := repo.UpdateBalance(ctx, contract.ID, newBalance, paidAt); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "update contract balance")
	}
	contract.RemainingWeight = newBalance
	if paidAt != nil {
		contract.LastPaymentAt = paidAt
	}
	if newBalance.IsZero() {
		if err := repo.UpdateStatus(ctx, contract.ID, enums.ContractStatusCompleted); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "complete settled contract")
		}
		contract.Status = enums.ContractStatusCompleted
	}
	return nil
}

// withConflictRetry retries the posting transaction once when the database
// reports a serialization conflict. A conflict that survives the retry is
// reported as such so the caller can resubmit.
func (s *service) withConflictRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(1, retry.NewConstant(conflictRetryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if db.IsSerializationConflict(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if db.IsSerializationConflict(err) {
		return apperrors.Wrap(apperrors.CodeConflict, err, "concurrent posting on the same contract, retry the request")
	}
	return err
}

func (s *service) observe(entryType enums.LedgerEntryType, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObservePostDuration(string(entryType), time.Since(start))
	if err == nil {
		s.metrics.IncPosted(string(entryType))
		return
	}
	code := apperrors.CodeInternal
	if appErr := apperrors.As(err); appErr != nil {
		code = appErr.Code()
	}
	s.metrics.IncRejected(string(code))
}
