package pricing

import (
	"fmt"
	"math"
	"sort"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

var gramsPerKg = decimal.NewFromInt(1000)

// ShipmentWeight sums product weight times quantity over the line items.
// weights maps product id to grams; a product missing from weights is an error
// because an unknown weight would silently pick the wrong carrier band. A sum
// that does not fit in an int is rejected rather than wrapped.
func ShipmentWeight(items []model.LineItem, weights map[string]int) (int, error) {
	total := 0
	for _, item := range items {
		grams, ok := weights[item.ProductID]
		if !ok {
			return 0, fmt.Errorf("%w: no weight for product %s", model.ErrProductNotFound, item.ProductID)
		}
		if grams < 0 {
			return 0, model.NewValidationError("weight", fmt.Sprintf("product %s has negative weight", item.ProductID))
		}
		if grams > 0 && item.Quantity > (math.MaxInt-total)/grams {
			return 0, model.NewValidationError("weight", "shipment weight is too large")
		}
		total += grams * item.Quantity
	}
	return total, nil
}

// ShippingCost prices one method for a shipment:
// base + per_kg * grams/1000, waived when subtotal reaches the method's
// free-shipping threshold.
func ShippingCost(m model.ShippingMethod, weightGrams int, subtotal decimal.Decimal) (cost decimal.Decimal, free bool) {
	if m.FreeShippingMinAmount.Valid && subtotal.GreaterThanOrEqual(m.FreeShippingMinAmount.Decimal) {
		return decimal.Zero, true
	}

	kg := decimal.NewFromInt(int64(weightGrams)).Div(gramsPerKg)
	return m.BasePrice.Add(m.PricePerKg.Mul(kg)), false
}

// QuoteShipping lists every active method whose weight band covers the
// shipment, with its cost, cheapest first. It never picks one: selection is
// the caller's explicit choice. No eligible method is ErrNoShippingAvailable.
func QuoteShipping(methods []model.ShippingMethod, weightGrams int, subtotal decimal.Decimal) ([]model.ShippingQuote, error) {
	if weightGrams < 0 {
		return nil, model.NewValidationError("weight", "shipment weight must not be negative")
	}

	quotes := make([]model.ShippingQuote, 0, len(methods))
	for _, m := range methods {
		if !m.Active || !m.CoversWeight(weightGrams) {
			continue
		}

		cost, free := ShippingCost(m, weightGrams, subtotal)
		quotes = append(quotes, model.ShippingQuote{
			MethodID:     m.ID,
			Name:         m.Name,
			Cost:         cost,
			FreeShipping: free,
			Position:     m.Position,
		})
	}

	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: weight %dg", model.ErrNoShippingAvailable, weightGrams)
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		if !quotes[i].Cost.Equal(quotes[j].Cost) {
			return quotes[i].Cost.LessThan(quotes[j].Cost)
		}
		if quotes[i].Position != quotes[j].Position {
			return quotes[i].Position < quotes[j].Position
		}
		return quotes[i].Name < quotes[j].Name
	})

	return quotes, nil
}

// SelectShipping returns the quote for methodID, or ErrShippingNotEligible
// when that method is not among the eligible options.
func SelectShipping(quotes []model.ShippingQuote, methodID string) (model.ShippingQuote, error) {
	for _, q := range quotes {
		if q.MethodID == methodID {
			return q, nil
		}
	}
	return model.ShippingQuote{}, fmt.Errorf("%w: method %s", model.ErrShippingNotEligible, methodID)
}
