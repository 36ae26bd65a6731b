// Package pricelist reads price sheets, gzipped CSV files of bulk price tiers
// keyed by SKU, and turns them into validated tier tables.
package pricelist

import (
	"context"

	"storefront/internal/model"
)

// Header is the required first line of a price sheet. An empty quantity_max
// makes the tier unbounded.
var Header = []string{"sku", "quantity_min", "quantity_max", "unit_price"}

// Row is one tier of one product as read from a sheet.
type Row struct {
	SKU  string
	Tier model.PriceTier
	Line int
}

// Sheet is the parsed content of one price sheet.
type Sheet struct {
	Source string
	Rows   []Row
}

// SKUs returns the number of distinct SKUs in the sheet.
func (s *Sheet) SKUs() int {
	seen := make(map[string]struct{}, len(s.Rows))
	for _, r := range s.Rows {
		seen[r.SKU] = struct{}{}
	}
	return len(seen)
}

// Loader defines the interface for loading price sheets.
type Loader interface {
	// Load reads the gzipped sheet at path.
	Load(ctx context.Context, path string) (*Sheet, error)
}

// TierWriter stores a product's tier table by SKU.
type TierWriter interface {
	ReplaceTiersBySKU(ctx context.Context, sku string, tiers []model.PriceTier) (string, error)
}
