package enums

import "fmt"

// DiscountStatus enables or disables a discount code.
type DiscountStatus string

const (
	DiscountStatusActive   DiscountStatus = "active"
	DiscountStatusInactive DiscountStatus = "inactive"
)

var validDiscountStatuses = []DiscountStatus{
	DiscountStatusActive,
	DiscountStatusInactive,
}

// String implements fmt.Stringer.
func (d DiscountStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountStatus.
func (d DiscountStatus) IsValid() bool {
	for _, candidate := range validDiscountStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountStatus converts raw input into a DiscountStatus.
func ParseDiscountStatus(value string) (DiscountStatus, error) {
	for _, candidate := range validDiscountStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount status %q", value)
}
