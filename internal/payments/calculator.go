package payments

import (
	"github.com/armanehsani/zarledger-backend/pkg/db/models"
	apperrors "github.com/armanehsani/zarledger-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// weightScale is the ledger precision in decimal places: one soot (milligram).
const weightScale = 3

// PaymentQuote is the outcome of converting a toman payment into gold weight
// against a contract's balance.
type PaymentQuote struct {
	MarketPrice     decimal.Decimal
	EffectivePrice  decimal.Decimal
	WeightDelta     decimal.Decimal
	NewBalance      decimal.Decimal
	DiscountApplied bool
}

// EffectivePrice clamps the market per-gram price into the contract's agreed
// floor and ceiling band. A nil bound leaves that side open.
func EffectivePrice(contract *models.Contract, marketPrice decimal.Decimal) decimal.Decimal {
	price := marketPrice
	if contract.PriceFloor != nil && price.LessThan(*contract.PriceFloor) {
		price = *contract.PriceFloor
	}
	if contract.PriceCeiling != nil && price.GreaterThan(*contract.PriceCeiling) {
		price = *contract.PriceCeiling
	}
	return price
}

// QuotePayment converts amount (toman) into a weight delta at the contract's
// effective price and computes the balance after posting. The balance may go
// negative, meaning the shop owes the customer gold.
//
// When the contract carries an early payoff discount and the payment would
// clear the whole balance at a discounted price, the discounted price becomes
// the effective one.
func QuotePayment(contract *models.Contract, amount, marketPrice decimal.Decimal) (PaymentQuote, error) {
	if contract == nil {
		return PaymentQuote{}, apperrors.New(apperrors.CodeInternal, "contract required")
	}
	if !amount.IsPositive() {
		return PaymentQuote{}, apperrors.New(apperrors.CodeValidation, "payment amount must be positive")
	}
	if !marketPrice.IsPositive() {
		return PaymentQuote{}, apperrors.New(apperrors.CodeDependency, "gold price unavailable or not positive")
	}

	effective := EffectivePrice(contract, marketPrice)
	discountApplied := false

	if contract.EarlyDiscount.IsPositive() && contract.RemainingWeight.IsPositive() {
		discounted := effective.
			Mul(decimal.NewFromInt(1).Sub(contract.EarlyDiscount)).
			RoundUp(0)
		if discounted.IsPositive() {
			settledDelta := amount.DivRound(discounted, weightScale)
			if settledDelta.GreaterThanOrEqual(contract.RemainingWeight) {
				effective = discounted
				discountApplied = true
			}
		}
	}

	delta := amount.DivRound(effective, weightScale)
	return PaymentQuote{
		MarketPrice:     marketPrice,
		EffectivePrice:  effective,
		WeightDelta:     delta,
		NewBalance:      contract.RemainingWeight.Sub(delta).Round(weightScale),
		DiscountApplied: discountApplied,
	}, nil
}

// QuoteAdjustment validates a manual weight correction and computes the
// resulting balance. Delta is signed: positive reduces what the customer owes.
func QuoteAdjustment(contract *models.Contract, delta decimal.Decimal) (decimal.Decimal, error) {
	if contract == nil {
		return decimal.Zero, apperrors.New(apperrors.CodeInternal, "contract required")
	}
	if delta.IsZero() {
		return decimal.Zero, apperrors.New(apperrors.CodeValidation, "adjustment delta cannot be zero")
	}
	rounded := delta.Round(weightScale)
	if rounded.IsZero() {
		return decimal.Zero, apperrors.New(apperrors.CodeValidation, "adjustment delta is below one soot")
	}
	return contract.RemainingWeight.Sub(rounded).Round(weightScale), nil
}
