// Package pricing holds the pure financial engine: tier price resolution,
// budget bucketing, shipping rates, order totals and the minimum-order guard.
// Nothing in this package performs I/O or keeps state between calls.
package pricing

import (
	"fmt"
	"sort"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// Price is the outcome of resolving a unit price. When Quoted is set the
// product has no usable price at that quantity and must be priced by staff;
// Amount is zero in that case and must not be read as a real price.
type Price struct {
	Amount decimal.Decimal `json:"amount"`
	Quoted bool            `json:"quoted"`
}

// NotPriced is the "price on request" outcome.
var NotPriced = Price{Quoted: true}

// Priced wraps a concrete unit price.
func Priced(amount decimal.Decimal) Price {
	return Price{Amount: amount}
}

// UnitPriceScale is the number of decimal places a stored unit price keeps.
const UnitPriceScale = 4

// exceedsUnitPriceScale reports whether storing price would round it.
func exceedsUnitPriceScale(price decimal.Decimal) bool {
	return !price.Equal(price.Round(UnitPriceScale))
}

// ValidateTiers checks that tiers are sorted and partition [1, ∞) up to their
// last tier: the first starts at 1, each starts right after the previous ends,
// and only the last may be unbounded. Unit prices must be non-negative and fit
// UnitPriceScale. Overlaps are reported as ErrTierOverlap,
// every other defect as ErrInvalidTierTable. An empty table is valid.
func ValidateTiers(tiers []model.PriceTier) error {
	for i, tier := range tiers {
		if tier.QuantityMin < 1 {
			return fmt.Errorf("%w: tier %d starts at %d, minimum is 1", model.ErrInvalidTierTable, i, tier.QuantityMin)
		}
		if tier.QuantityMax != nil && *tier.QuantityMax < tier.QuantityMin {
			return fmt.Errorf("%w: tier %d ends at %d before it starts at %d",
				model.ErrInvalidTierTable, i, *tier.QuantityMax, tier.QuantityMin)
		}
		if tier.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: tier %d has negative unit price %s", model.ErrInvalidTierTable, i, tier.UnitPrice)
		}
		if exceedsUnitPriceScale(tier.UnitPrice) {
			return fmt.Errorf("%w: tier %d unit price %s has more than %d decimal places",
				model.ErrInvalidTierTable, i, tier.UnitPrice, UnitPriceScale)
		}

		if i == 0 {
			if tier.QuantityMin != 1 {
				return fmt.Errorf("%w: first tier starts at %d, expected 1", model.ErrInvalidTierTable, tier.QuantityMin)
			}
			continue
		}

		prev := tiers[i-1]
		if prev.QuantityMax == nil {
			return fmt.Errorf("%w: unbounded tier %d is followed by tier %d", model.ErrTierOverlap, i-1, i)
		}
		switch {
		case tier.QuantityMin <= *prev.QuantityMax:
			return fmt.Errorf("%w: tier %d [%d..] overlaps tier %d [..%d]",
				model.ErrTierOverlap, i, tier.QuantityMin, i-1, *prev.QuantityMax)
		case tier.QuantityMin > *prev.QuantityMax+1:
			return fmt.Errorf("%w: gap between %d and %d", model.ErrInvalidTierTable, *prev.QuantityMax, tier.QuantityMin)
		}
	}

	return nil
}

// NewTierTable sorts a copy of tiers by QuantityMin and validates it.
func NewTierTable(tiers []model.PriceTier) ([]model.PriceTier, error) {
	table := make([]model.PriceTier, len(tiers))
	copy(table, tiers)

	sort.SliceStable(table, func(i, j int) bool {
		return table[i].QuantityMin < table[j].QuantityMin
	})

	if err := ValidateTiers(table); err != nil {
		return nil, err
	}

	return table, nil
}

// Resolve returns the unit price for quantity from a pre-sorted tier table,
// falling back to flatPrice when no tier covers the quantity. A flat price
// that is missing or not positive yields NotPriced, never a zero price.
// Two matching tiers mean the stored table is corrupt and yield ErrTierOverlap.
func Resolve(tiers []model.PriceTier, flatPrice decimal.NullDecimal, quantity int) (Price, error) {
	if quantity < 1 {
		return Price{}, model.ErrInvalidQuantity
	}

	var (
		match   *model.PriceTier
		matched int
	)
	for i := range tiers {
		if tiers[i].Contains(quantity) {
			matched++
			if match == nil {
				match = &tiers[i]
			}
		}
	}

	if matched > 1 {
		return Price{}, fmt.Errorf("%w: %d tiers match quantity %d", model.ErrTierOverlap, matched, quantity)
	}
	if match != nil {
		return Priced(match.UnitPrice), nil
	}

	if flatPrice.Valid && flatPrice.Decimal.IsPositive() {
		return Priced(flatPrice.Decimal), nil
	}

	return NotPriced, nil
}

// ResolveProduct resolves the unit price of p at quantity.
func ResolveProduct(p *model.Product, quantity int) (Price, error) {
	return Resolve(p.Tiers, p.UnitPrice, quantity)
}

// EffectivePrice is the lowest price a product can be bought at: the minimum
// tier unit price when tiers exist, otherwise the flat unit price.
func EffectivePrice(p *model.Product) decimal.Decimal {
	if len(p.Tiers) == 0 {
		return p.FlatPrice()
	}

	lowest := p.Tiers[0].UnitPrice
	for _, tier := range p.Tiers[1:] {
		if tier.UnitPrice.LessThan(lowest) {
			lowest = tier.UnitPrice
		}
	}
	return lowest
}
