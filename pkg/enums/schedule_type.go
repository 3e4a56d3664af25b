package enums

import "fmt"

// ScheduleType maps to the schedule_type_enum enum in Postgres.
type ScheduleType string

const (
	ScheduleTypeWeekly   ScheduleType = "weekly"
	ScheduleTypeBiweekly ScheduleType = "biweekly"
	ScheduleTypeMonthly  ScheduleType = "monthly"
	ScheduleTypeCustom   ScheduleType = "custom"
)

var validScheduleTypes = []ScheduleType{
	ScheduleTypeWeekly,
	ScheduleTypeBiweekly,
	ScheduleTypeMonthly,
	ScheduleTypeCustom,
}

// IsValid reports whether the value matches the canonical schedule type enum.
func (s ScheduleType) IsValid() bool {
	for _, candidate := range validScheduleTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// IntervalDays returns the expected days between installments. Custom
// schedules carry their own cadence on the contract and report zero here.
func (s ScheduleType) IntervalDays() int {
	switch s {
	case ScheduleTypeWeekly:
		return 7
	case ScheduleTypeBiweekly:
		return 14
	case ScheduleTypeMonthly:
		return 30
	default:
		return 0
	}
}

// ParseScheduleType converts raw input into ScheduleType.
func ParseScheduleType(value string) (ScheduleType, error) {
	for _, candidate := range validScheduleTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid schedule type %q", value)
}
