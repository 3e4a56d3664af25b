package enums

import "fmt"

// Karat is the gold purity grades the shop trades in.
type Karat int

const (
	Karat18 Karat = 18
	Karat21 Karat = 21
	Karat22 Karat = 22
	Karat24 Karat = 24
)

var validKarats = []Karat{Karat18, Karat21, Karat22, Karat24}

// IsValid reports whether the value is a supported purity grade.
func (k Karat) IsValid() bool {
	for _, candidate := range validKarats {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseKarat converts a numeric input into Karat.
func ParseKarat(value int) (Karat, error) {
	k := Karat(value)
	if !k.IsValid() {
		return 0, fmt.Errorf("invalid karat %d", value)
	}
	return k, nil
}
