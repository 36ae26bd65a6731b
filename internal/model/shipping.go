package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShippingMethod is a carrier rule applying to a weight band in grams.
// A nil WeightMax means the band is unbounded above.
type ShippingMethod struct {
	ID                    string              `json:"id" db:"id"`
	Name                  string              `json:"name" db:"name"`
	WeightMin             int                 `json:"weightMin" db:"weight_min"`
	WeightMax             *int                `json:"weightMax" db:"weight_max"`
	BasePrice             decimal.Decimal     `json:"basePrice" db:"base_price"`
	PricePerKg            decimal.Decimal     `json:"pricePerKg" db:"price_per_kg"`
	FreeShippingMinAmount decimal.NullDecimal `json:"freeShippingMinAmount" db:"free_shipping_min_amount"`
	Active                bool                `json:"active" db:"active"`
	Position              int                 `json:"position" db:"position"`
	CreatedAt             time.Time           `json:"createdAt" db:"created_at"`
}

// CoversWeight reports whether the method's weight band contains grams.
func (m ShippingMethod) CoversWeight(grams int) bool {
	if grams < m.WeightMin {
		return false
	}
	return m.WeightMax == nil || grams <= *m.WeightMax
}

// ShippingQuote is one selectable shipping option with its computed cost.
type ShippingQuote struct {
	MethodID     string          `json:"methodId"`
	Name         string          `json:"name"`
	Cost         decimal.Decimal `json:"cost"`
	FreeShipping bool            `json:"freeShipping"`
	Position     int             `json:"-"`
}
