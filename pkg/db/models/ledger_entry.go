package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/armanehsani/zarledger-backend/pkg/enums"
)

// LedgerEntry records an immutable balance mutation on a contract. Rows are
// insert-only; corrections happen through new adjustment entries, never edits.
type LedgerEntry struct {
	ID               uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ContractID       uuid.UUID               `gorm:"column:contract_id;type:uuid;not null;index"`
	ActorUserID      uuid.UUID               `gorm:"column:actor_user_id;type:uuid;not null"`
	Type             enums.LedgerEntryType   `gorm:"column:type;type:ledger_entry_type_enum;not null"`
	AmountToman      *decimal.Decimal        `gorm:"column:amount_toman;type:numeric(16,2)"`
	EffectivePrice   *decimal.Decimal        `gorm:"column:effective_price;type:numeric(14,0)"`
	WeightDelta      decimal.Decimal         `gorm:"column:weight_delta;type:numeric(12,3);not null"`
	BalanceAfter     decimal.Decimal         `gorm:"column:balance_after;type:numeric(12,3);not null"`
	AdjustmentReason *enums.AdjustmentReason `gorm:"column:adjustment_reason;type:adjustment_reason_enum"`
	Note             *string                 `gorm:"column:note"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
}
