package enums

import "fmt"

// AdjustmentReason maps to the adjustment_reason_enum enum in Postgres.
// Every manual balance correction must carry one of these codes.
type AdjustmentReason string

const (
	AdjustmentReasonDispute       AdjustmentReason = "dispute"
	AdjustmentReasonEntryError    AdjustmentReason = "entry_error"
	AdjustmentReasonSettlement    AdjustmentReason = "settlement"
	AdjustmentReasonWeightRecheck AdjustmentReason = "weight_recheck"
)

var validAdjustmentReasons = []AdjustmentReason{
	AdjustmentReasonDispute,
	AdjustmentReasonEntryError,
	AdjustmentReasonSettlement,
	AdjustmentReasonWeightRecheck,
}

// IsValid reports whether the value matches the canonical adjustment reason enum.
func (r AdjustmentReason) IsValid() bool {
	for _, candidate := range validAdjustmentReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseAdjustmentReason converts raw input into AdjustmentReason.
func ParseAdjustmentReason(value string) (AdjustmentReason, error) {
	for _, candidate := range validAdjustmentReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adjustment reason %q", value)
}
