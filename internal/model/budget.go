package model

import "github.com/shopspring/decimal"

// BudgetRange is one "shop by price" band. Its lower bound is the previous
// band's MaxPrice (exclusive), or zero (inclusive) for the first band.
type BudgetRange struct {
	Label    string          `json:"label" yaml:"label"`
	MaxPrice decimal.Decimal `json:"maxPrice" yaml:"max_price"`
}

// MinimumOrder is the result of checking a subtotal against the minimum order value.
type MinimumOrder struct {
	Eligible  bool            `json:"eligible"`
	Minimum   decimal.Decimal `json:"minimum"`
	Remaining decimal.Decimal `json:"remaining"`
}
