package pricelist

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"storefront/internal/model"
	"storefront/internal/pricing"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxParallelSheets bounds how many sheets are read at once.
const maxParallelSheets = 4

// Table is the validated tier table of one SKU.
type Table struct {
	SKU   string
	Tiers []model.PriceTier
}

// Importer merges price sheets into per-SKU tier tables.
type Importer struct {
	loader Loader
	logger zerolog.Logger
}

// NewImporter creates a new price sheet importer.
func NewImporter(loader Loader, logger zerolog.Logger) *Importer {
	return &Importer{
		loader: loader,
		logger: logger.With().Str("component", "pricelist-importer").Logger(),
	}
}

// Load reads every sheet in paths concurrently and returns one validated
// table per SKU, sorted by SKU. Rows of the same SKU from different sheets
// form one table. Any unreadable sheet or invalid table fails the whole load.
func (im *Importer) Load(ctx context.Context, paths []string) ([]Table, error) {
	if len(paths) == 0 {
		return nil, model.NewValidationError("paths", "at least one price sheet is required")
	}

	sheets := make([]*Sheet, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelSheets)
	for i, path := range paths {
		g.Go(func() error {
			sheet, err := im.loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load price sheet %s: %w", path, err)
			}
			sheets[i] = sheet
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		im.logger.Error().Err(err).Msg("price sheet load failed")
		return nil, err
	}

	return im.merge(sheets)
}

func (im *Importer) merge(sheets []*Sheet) ([]Table, error) {
	bySKU := make(map[string][]model.PriceTier)
	origin := make(map[string][]string)
	for _, sheet := range sheets {
		for _, row := range sheet.Rows {
			bySKU[row.SKU] = append(bySKU[row.SKU], row.Tier)
			origin[row.SKU] = append(origin[row.SKU], fmt.Sprintf("%s:%d", sheet.Source, row.Line))
		}
	}

	tables := make([]Table, 0, len(bySKU))
	for sku, tiers := range bySKU {
		table, err := pricing.NewTierTable(tiers)
		if err != nil {
			im.logger.Error().
				Err(err).
				Str("sku", sku).
				Strs("rows", origin[sku]).
				Msg("invalid tier table in price sheets")
			return nil, fmt.Errorf("sku %s: %w", sku, err)
		}
		tables = append(tables, Table{SKU: sku, Tiers: table})
	}

	sort.Slice(tables, func(i, j int) bool {
		return tables[i].SKU < tables[j].SKU
	})

	im.logger.Info().
		Int("sheets", len(sheets)).
		Int("skus", len(tables)).
		Msg("price sheets merged")

	return tables, nil
}

// ApplyResult summarises a completed import.
type ApplyResult struct {
	Updated []string // product IDs whose tiers were replaced
	Unknown []string // SKUs with no matching product
}

// Apply writes every table through w. SKUs without a product are skipped and
// reported; any other failure stops the import.
func (im *Importer) Apply(ctx context.Context, tables []Table, w TierWriter) (*ApplyResult, error) {
	result := &ApplyResult{}

	for _, table := range tables {
		productID, err := w.ReplaceTiersBySKU(ctx, table.SKU, table.Tiers)
		if err != nil {
			if errors.Is(err, model.ErrProductNotFound) {
				im.logger.Warn().Str("sku", table.SKU).Msg("price sheet references unknown SKU")
				result.Unknown = append(result.Unknown, table.SKU)
				continue
			}
			return result, fmt.Errorf("failed to store tiers of %s: %w", table.SKU, err)
		}

		im.logger.Debug().
			Str("sku", table.SKU).
			Str("product_id", productID).
			Int("tiers", len(table.Tiers)).
			Msg("tier table replaced")
		result.Updated = append(result.Updated, productID)
	}

	im.logger.Info().
		Int("updated", len(result.Updated)).
		Int("unknown", len(result.Unknown)).
		Msg("price import applied")

	return result, nil
}
