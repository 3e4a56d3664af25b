package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/armanehsani/zarledger-backend/pkg/enums"
)

// Contract is a customer's gold installment agreement. RemainingWeight is a
// cached view of the ledger: it is only ever written inside the transaction
// that inserts the matching LedgerEntry.
type Contract struct {
	ID              uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID      uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	Karat           enums.Karat          `gorm:"column:karat;not null;default:18"`
	InitialWeight   decimal.Decimal      `gorm:"column:initial_weight;type:numeric(12,3);not null"`
	RemainingWeight decimal.Decimal      `gorm:"column:remaining_weight;type:numeric(12,3);not null"`
	ScheduleType    enums.ScheduleType   `gorm:"column:schedule_type;type:schedule_type_enum;not null;default:'monthly'"`
	ScheduleDays    int                  `gorm:"column:schedule_days;not null;default:0"`
	PriceCeiling    *decimal.Decimal     `gorm:"column:price_ceiling;type:numeric(14,0)"`
	PriceFloor      *decimal.Decimal     `gorm:"column:price_floor;type:numeric(14,0)"`
	EarlyDiscount   decimal.Decimal      `gorm:"column:early_discount;type:numeric(5,4);not null;default:0"`
	GracePeriodDays int                  `gorm:"column:grace_period_days;not null;default:14"`
	Status          enums.ContractStatus `gorm:"column:status;type:contract_status_enum;not null;default:'active'"`
	LastPaymentAt   *time.Time           `gorm:"column:last_payment_at"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
