package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GoldPrice is one sampled market quote, kept as history for audits.
// Prices are toman per gram at the base karat.
type GoldPrice struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Karat        int             `gorm:"column:karat;not null"`
	PricePerGram decimal.Decimal `gorm:"column:price_per_gram;type:numeric(14,0);not null"`
	Source       string          `gorm:"column:source;not null;default:'upstream'"`
	SampledAt    time.Time       `gorm:"column:sampled_at;not null;index"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
