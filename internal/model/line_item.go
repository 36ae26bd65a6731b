package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is the line shape shared by carts, quotes and orders.
// TotalPrice is always derived from Quantity and UnitPrice; see Recalculate.
type LineItem struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	ProductID     string          `json:"productId" db:"product_id"`
	ProductName   string          `json:"productName" db:"product_name"`
	Quantity      int             `json:"quantity" db:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Customization *string         `json:"customization,omitempty" db:"customization"`
	NeedsPricing  bool            `json:"needsPricing,omitempty" db:"needs_pricing"`
	TotalPrice    decimal.Decimal `json:"totalPrice" db:"total_price"`
}

// Recalculate derives TotalPrice from Quantity and UnitPrice.
func (li *LineItem) Recalculate() {
	li.TotalPrice = li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Clone returns an independent copy of the line item under a fresh id.
func (li LineItem) Clone() LineItem {
	c := li
	c.ID = uuid.New()
	if li.Customization != nil {
		s := *li.Customization
		c.Customization = &s
	}
	return c
}

// CloneLineItems deep-copies items so the copy shares nothing with the source.
func CloneLineItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// Totals holds the derived monetary figures of a cart, quote or order.
type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Total        decimal.Decimal `json:"total"`
}

// Rounded returns the totals rounded to two decimal places for presentation.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal:     t.Subtotal.Round(2),
		Tax:          t.Tax.Round(2),
		ShippingCost: t.ShippingCost.Round(2),
		Total:        t.Total.Round(2),
	}
}
