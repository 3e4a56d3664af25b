package enums

import "fmt"

// ContractStatus maps to the contract_status_enum enum in Postgres.
type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusDefaulted ContractStatus = "defaulted"
)

var validContractStatuses = []ContractStatus{
	ContractStatusActive,
	ContractStatusCompleted,
	ContractStatusDefaulted,
}

// IsValid reports whether the value matches the canonical contract status enum.
func (s ContractStatus) IsValid() bool {
	for _, candidate := range validContractStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseContractStatus converts raw input into ContractStatus.
func ParseContractStatus(value string) (ContractStatus, error) {
	for _, candidate := range validContractStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid contract status %q", value)
}
