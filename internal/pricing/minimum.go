package pricing

import (
	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// IsEligible reports whether subtotal meets minimum. A zero or negative
// minimum disables the check. Tax and shipping never count towards it.
func IsEligible(subtotal, minimum decimal.Decimal) bool {
	if !minimum.IsPositive() {
		return true
	}
	return subtotal.GreaterThanOrEqual(minimum)
}

// Remaining is how much more subtotal is needed to reach minimum, never negative.
func Remaining(subtotal, minimum decimal.Decimal) decimal.Decimal {
	if !minimum.IsPositive() {
		return decimal.Zero
	}
	return decimal.Max(decimal.Zero, minimum.Sub(subtotal))
}

// CheckMinimumOrder combines IsEligible and Remaining.
func CheckMinimumOrder(subtotal, minimum decimal.Decimal) model.MinimumOrder {
	return model.MinimumOrder{
		Eligible:  IsEligible(subtotal, minimum),
		Minimum:   decimal.Max(decimal.Zero, minimum),
		Remaining: Remaining(subtotal, minimum),
	}
}
