package controllers

import (
	"time"

	"github.com/armanehsani/zarledger-backend/pkg/db/models"
	"github.com/armanehsani/zarledger-backend/pkg/units"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// customerResponse is the public shape of a customer record.
type customerResponse struct {
	ID         uuid.UUID `json:"id"`
	FullName   string    `json:"full_name"`
	Phone      *string   `json:"phone,omitempty"`
	NationalID *string   `json:"national_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toCustomerResponse(c *models.Customer) customerResponse {
	return customerResponse{
		ID:         c.ID,
		FullName:   c.FullName,
		Phone:      c.Phone,
		NationalID: c.NationalID,
		CreatedAt:  c.CreatedAt,
	}
}

type customerListResponse struct {
	Items      []customerResponse `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// contractResponse reports weight both in grams and mithqal, the unit the
// shop quotes to customers.
type contractResponse struct {
	ID                     uuid.UUID        `json:"id"`
	CustomerID             uuid.UUID        `json:"customer_id"`
	Karat                  int              `json:"karat"`
	InitialWeight          decimal.Decimal  `json:"initial_weight_grams"`
	RemainingWeight        decimal.Decimal  `json:"remaining_weight_grams"`
	RemainingWeightMithqal decimal.Decimal  `json:"remaining_weight_mithqal"`
	ScheduleType           string           `json:"schedule_type"`
	ScheduleDays           int              `json:"schedule_days"`
	PriceCeiling           *decimal.Decimal `json:"price_ceiling,omitempty"`
	PriceFloor             *decimal.Decimal `json:"price_floor,omitempty"`
	EarlyDiscount          decimal.Decimal  `json:"early_discount"`
	GracePeriodDays        int              `json:"grace_period_days"`
	Status                 string           `json:"status"`
	LastPaymentAt          *time.Time       `json:"last_payment_at,omitempty"`
	CreatedAt              time.Time        `json:"created_at"`
}

func toContractResponse(c *models.Contract) contractResponse {
	return contractResponse{
		ID:                     c.ID,
		CustomerID:             c.CustomerID,
		Karat:                  int(c.Karat),
		InitialWeight:          c.InitialWeight,
		RemainingWeight:        c.RemainingWeight,
		RemainingWeightMithqal: units.GramsToMithqal(c.RemainingWeight),
		ScheduleType:           string(c.ScheduleType),
		ScheduleDays:           c.ScheduleDays,
		PriceCeiling:           c.PriceCeiling,
		PriceFloor:             c.PriceFloor,
		EarlyDiscount:          c.EarlyDiscount,
		GracePeriodDays:        c.GracePeriodDays,
		Status:                 string(c.Status),
		LastPaymentAt:          c.LastPaymentAt,
		CreatedAt:              c.CreatedAt,
	}
}

type contractListResponse struct {
	Items      []contractResponse `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

type ledgerEntryResponse struct {
	ID               uuid.UUID        `json:"id"`
	ContractID       uuid.UUID        `json:"contract_id"`
	Type             string           `json:"type"`
	AmountToman      *decimal.Decimal `json:"amount_toman,omitempty"`
	EffectivePrice   *decimal.Decimal `json:"effective_price,omitempty"`
	WeightDelta      decimal.Decimal  `json:"weight_delta_grams"`
	BalanceAfter     decimal.Decimal  `json:"balance_after_grams"`
	AdjustmentReason *string          `json:"adjustment_reason,omitempty"`
	Note             *string          `json:"note,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

func toLedgerEntryResponse(e *models.LedgerEntry) ledgerEntryResponse {
	resp := ledgerEntryResponse{
		ID:             e.ID,
		ContractID:     e.ContractID,
		Type:           string(e.Type),
		AmountToman:    e.AmountToman,
		EffectivePrice: e.EffectivePrice,
		WeightDelta:    e.WeightDelta,
		BalanceAfter:   e.BalanceAfter,
		Note:           e.Note,
		CreatedAt:      e.CreatedAt,
	}
	if e.AdjustmentReason != nil {
		reason := string(*e.AdjustmentReason)
		resp.AdjustmentReason = &reason
	}
	return resp
}

type priceResponse struct {
	Karat        int             `json:"karat"`
	PricePerGram decimal.Decimal `json:"price_per_gram"`
	Source       string          `json:"source"`
	SampledAt    time.Time       `json:"sampled_at"`
}

func toPriceResponse(p *models.GoldPrice) priceResponse {
	return priceResponse{
		Karat:        p.Karat,
		PricePerGram: p.PricePerGram,
		Source:       p.Source,
		SampledAt:    p.SampledAt,
	}
}

type postResultResponse struct {
	Entry    ledgerEntryResponse `json:"entry"`
	Contract contractResponse    `json:"contract"`
}
