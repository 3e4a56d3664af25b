// Package units converts between grams and the traditional Persian weight
// units used on printed receipts. Conversions are display-only; the ledger
// always stores grams.
package units

import "github.com/shopspring/decimal"

var (
	// GramsPerMithqal follows the bazaar convention of 4.6083 g per mithqal.
	GramsPerMithqal = decimal.RequireFromString("4.6083")
	// GramsPerSoot: a soot is the trade name for a milligram.
	GramsPerSoot = decimal.RequireFromString("0.001")
)

const displayPlaces = 3

// GramsToMithqal converts a gram weight into mithqal, rounded to 3 places.
func GramsToMithqal(grams decimal.Decimal) decimal.Decimal {
	return grams.DivRound(GramsPerMithqal, displayPlaces)
}

// MithqalToGrams converts a mithqal weight into grams, rounded to 3 places.
func MithqalToGrams(mithqal decimal.Decimal) decimal.Decimal {
	return mithqal.Mul(GramsPerMithqal).Round(displayPlaces)
}

// GramsToSoot converts a gram weight into soot (milligrams).
func GramsToSoot(grams decimal.Decimal) decimal.Decimal {
	return grams.DivRound(GramsPerSoot, 0)
}

// SootToGrams converts soot back into grams, rounded to 3 places.
func SootToGrams(soot decimal.Decimal) decimal.Decimal {
	return soot.Mul(GramsPerSoot).Round(displayPlaces)
}
