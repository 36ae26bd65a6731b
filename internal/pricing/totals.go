package pricing

import (
	"fmt"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// TaxRate is the flat VAT rate applied to the subtotal. Shipping is not taxed.
var TaxRate = decimal.RequireFromString("0.23")

// Recompute derives the totals of a line-item list and a shipping cost.
// Each line's TotalPrice is recomputed in place before it is summed; stored
// line totals are never trusted. No rounding happens here.
func Recompute(items []model.LineItem, shippingCost decimal.Decimal) model.Totals {
	subtotal := decimal.Zero
	for i := range items {
		items[i].Recalculate()
		subtotal = subtotal.Add(items[i].TotalPrice)
	}

	tax := subtotal.Mul(TaxRate)

	return model.Totals{
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: shippingCost,
		Total:        subtotal.Add(tax).Add(shippingCost),
	}
}

// ValidateLineItems rejects lines that cannot take part in a total.
func ValidateLineItems(items []model.LineItem) error {
	for i, item := range items {
		if item.Quantity < 1 {
			return fmt.Errorf("line %d: %w", i, model.ErrInvalidQuantity)
		}
		if item.UnitPrice.IsNegative() {
			return model.NewValidationError(fmt.Sprintf("items[%d].unitPrice", i), "must not be negative")
		}
		if exceedsUnitPriceScale(item.UnitPrice) {
			return model.NewValidationError(fmt.Sprintf("items[%d].unitPrice", i),
				fmt.Sprintf("must have at most %d decimal places", UnitPriceScale))
		}
	}
	return nil
}

// ValidateShippingCost rejects a negative shipping cost.
func ValidateShippingCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return model.NewValidationError("shippingCost", "must not be negative")
	}
	return nil
}

// AddLine appends item and returns the recomputed totals.
func AddLine(items []model.LineItem, item model.LineItem, shippingCost decimal.Decimal) ([]model.LineItem, model.Totals, error) {
	if item.Quantity < 1 {
		return items, model.Totals{}, model.ErrInvalidQuantity
	}
	items = append(items, item)
	return items, Recompute(items, shippingCost), nil
}

// SetQuantity changes the quantity of line index and returns the recomputed totals.
func SetQuantity(items []model.LineItem, index, quantity int, shippingCost decimal.Decimal) (model.Totals, error) {
	if index < 0 || index >= len(items) {
		return model.Totals{}, model.NewValidationError("index", fmt.Sprintf("line %d does not exist", index))
	}
	if quantity < 1 {
		return model.Totals{}, model.ErrInvalidQuantity
	}
	items[index].Quantity = quantity
	return Recompute(items, shippingCost), nil
}

// RemoveLine drops line index and returns the remaining lines with their totals.
func RemoveLine(items []model.LineItem, index int, shippingCost decimal.Decimal) ([]model.LineItem, model.Totals, error) {
	if index < 0 || index >= len(items) {
		return items, model.Totals{}, model.NewValidationError("index", fmt.Sprintf("line %d does not exist", index))
	}
	items = append(items[:index:index], items[index+1:]...)
	return items, Recompute(items, shippingCost), nil
}
