package cmd

import (
	"context"
	"fmt"

	"storefront/internal/database"

	"github.com/spf13/cobra"
)

var migrateDropFirst bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the storefront tables",
	Long: `Create every storefront table and index that does not exist yet, and
seed the default settings. With --drop-first all storefront tables are
dropped before being recreated.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		return migrate(cmd.Context(), e, migrateDropFirst)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&migrateDropFirst, "drop-first", false, "Drop existing tables first (destroys all data)")
}

func migrate(ctx context.Context, e *env, dropFirst bool) error {
	if err := database.Migrate(ctx, e.pool, dropFirst, e.logger); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	e.logger.Info().Bool("drop_first", dropFirst).Msg("schema is up to date")
	return nil
}
