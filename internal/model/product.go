package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents an item in the B2B catalogue.
type Product struct {
	ID         string              `json:"id" db:"id"`
	Name       string              `json:"name" db:"name"`
	SKU        string              `json:"sku" db:"sku"`
	UnitPrice  decimal.NullDecimal `json:"unitPrice" db:"unit_price"`
	WeightGram int                 `json:"weightGrams" db:"weight_grams"`
	CategoryID *string             `json:"categoryId,omitempty" db:"category_id"`
	Tiers      []PriceTier         `json:"tiers"`
	Colors     []ColorVariant      `json:"colors,omitempty"`
	CreatedAt  time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time           `json:"updatedAt" db:"updated_at"`
}

// PriceTier maps an inclusive quantity range to a unit price for one product.
// A nil QuantityMax means the tier is unbounded above.
type PriceTier struct {
	ProductID   string          `json:"productId,omitempty" db:"product_id"`
	QuantityMin int             `json:"quantityMin" db:"quantity_min"`
	QuantityMax *int            `json:"quantityMax" db:"quantity_max"`
	UnitPrice   decimal.Decimal `json:"unitPrice" db:"unit_price"`
}

// Unbounded reports whether the tier has no upper quantity limit.
func (t PriceTier) Unbounded() bool {
	return t.QuantityMax == nil
}

// Contains reports whether quantity falls within the tier.
func (t PriceTier) Contains(quantity int) bool {
	if quantity < t.QuantityMin {
		return false
	}
	return t.QuantityMax == nil || quantity <= *t.QuantityMax
}

// ColorVariant is a selectable colour of a product.
type ColorVariant struct {
	Name    string `json:"name" db:"name"`
	HexCode string `json:"hexCode,omitempty" db:"hex_code"`
}

// FlatPrice returns the product's flat unit price, or zero when none is set.
func (p *Product) FlatPrice() decimal.Decimal {
	if !p.UnitPrice.Valid {
		return decimal.Zero
	}
	return p.UnitPrice.Decimal
}

// IntPtr returns a pointer to v. Handy for tier upper bounds.
func IntPtr(v int) *int {
	return &v
}
