package cmd

import (
	"fmt"
	"strings"

	"storefront/internal/pricelist"
	"storefront/internal/repository"

	"github.com/spf13/cobra"
)

var importDryRun bool

var importPricesCmd = &cobra.Command{
	Use:   "import-prices <sheet> [sheet...]",
	Short: "Replace product tier tables from price sheets",
	Long: `Read one or more gzip-compressed CSV price sheets with the header

    sku,quantity_min,quantity_max,unit_price

and replace the tier table of every listed SKU. Rows of one SKU may be spread
over several sheets. When S3 is enabled sheets are read from S3_BUCKET under
S3_PREFIX first, falling back to the local path.

Every table is validated before anything is written; one invalid table aborts
the import.`,
	Args: cobra.MinimumNArgs(1),
	RunE: importPrices,
}

func init() {
	rootCmd.AddCommand(importPricesCmd)

	importPricesCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate the sheets without writing anything")
}

func importPrices(cmd *cobra.Command, paths []string) error {
	ctx := cmd.Context()

	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	cfg, logger := e.cfg, e.logger

	fileLoader := pricelist.NewFileLoader(logger)
	var remote pricelist.Loader
	if cfg.S3.Enabled {
		remote, err = pricelist.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
			remote = nil
		}
	} else {
		logger.Info().Msg("using local file system for price sheets (S3 disabled)")
	}
	loader := pricelist.NewFallbackLoader(remote, fileLoader, cfg.S3.Prefix, cfg.S3.Enabled, logger)

	importer := pricelist.NewImporter(loader, logger)

	tables, err := importer.Load(ctx, paths)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if importDryRun {
		fmt.Fprintf(out, "%d tier tables valid, nothing written\n", len(tables))
		return nil
	}

	result, err := importer.Apply(ctx, tables, repository.NewProductRepository(e.pool, logger))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "updated %d products\n", len(result.Updated))
	if len(result.Unknown) > 0 {
		fmt.Fprintf(out, "skipped %d unknown SKUs: %s\n", len(result.Unknown), strings.Join(result.Unknown, ", "))
	}
	return nil
}
