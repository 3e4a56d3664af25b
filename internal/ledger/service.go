package ledger

import (
	"context"
	"fmt"

	"github.com/armanehsani/zarledger-backend/pkg/db/models"
	"github.com/armanehsani/zarledger-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service defines operations that record and read ledger entries.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Append(ctx context.Context, input AppendEntryInput) (*models.LedgerEntry, error)
	History(ctx context.Context, contractID uuid.UUID) ([]models.LedgerEntry, error)
	NetDelta(ctx context.Context, contractID uuid.UUID) (decimal.Decimal, error)
}

type service struct {
	repo Repository
}

// AppendEntryInput captures the immutable data a ledger entry requires.
type AppendEntryInput struct {
	ContractID       uuid.UUID
	ActorUserID      uuid.UUID
	Type             enums.LedgerEntryType
	AmountToman      *decimal.Decimal
	EffectivePrice   *decimal.Decimal
	WeightDelta      decimal.Decimal
	BalanceAfter     decimal.Decimal
	AdjustmentReason *enums.AdjustmentReason
	Note             *string
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) Append(ctx context.Context, input AppendEntryInput) (*models.LedgerEntry, error) {
	if input.ContractID == uuid.Nil {
		return nil, fmt.Errorf("contract id is required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, fmt.Errorf("actor user id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid ledger entry type %q", input.Type)
	}
	switch input.Type {
	case enums.LedgerEntryTypePayment:
		if input.AmountToman == nil || input.EffectivePrice == nil {
			return nil, fmt.Errorf("payment entries require amount and effective price")
		}
	case enums.LedgerEntryTypeAdjustment:
		if input.AdjustmentReason == nil || !input.AdjustmentReason.IsValid() {
			return nil, fmt.Errorf("adjustment entries require a valid reason")
		}
	}

	entry := &models.LedgerEntry{
		ContractID:       input.ContractID,
		ActorUserID:      input.ActorUserID,
		Type:             input.Type,
		AmountToman:      input.AmountToman,
		EffectivePrice:   input.EffectivePrice,
		WeightDelta:      input.WeightDelta,
		BalanceAfter:     input.BalanceAfter,
		AdjustmentReason: input.AdjustmentReason,
		Note:             input.Note,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) History(ctx context.Context, contractID uuid.UUID) ([]models.LedgerEntry, error) {
	if contractID == uuid.Nil {
		return nil, fmt.Errorf("contract id is required")
	}
	return s.repo.ListByContractID(ctx, contractID)
}

func (s *service) NetDelta(ctx context.Context, contractID uuid.UUID) (decimal.Decimal, error) {
	if contractID == uuid.Nil {
		return decimal.Zero, fmt.Errorf("contract id is required")
	}
	return s.repo.SumDeltas(ctx, contractID)
}
