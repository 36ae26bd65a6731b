package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type settingsRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSettingsRepository creates a new PostgreSQL-backed settings repository.
func NewSettingsRepository(pool *pgxpool.Pool, logger zerolog.Logger) SettingsRepository {
	return &settingsRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "settings").Logger(),
	}
}

// MinimumOrderValue returns the configured minimum order subtotal.
func (r *settingsRepository) MinimumOrderValue(ctx context.Context) (decimal.Decimal, error) {
	var value decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT minimum_order_value FROM store_settings WHERE id`).Scan(&value)
	if err != nil {
		if isNoRows(err) {
			// no settings row: check disabled
			return decimal.Zero, nil
		}
		r.logger.Error().Err(err).Msg("failed to query minimum order value")
		return decimal.Zero, fmt.Errorf("failed to query minimum order value: %w", err)
	}

	return value, nil
}

// SetMinimumOrderValue stores a new minimum order subtotal.
func (r *settingsRepository) SetMinimumOrderValue(ctx context.Context, value decimal.Decimal) error {
	query := `
		INSERT INTO store_settings (id, minimum_order_value)
		VALUES (TRUE, $1)
		ON CONFLICT (id) DO UPDATE SET minimum_order_value = EXCLUDED.minimum_order_value
	`

	if _, err := r.pool.Exec(ctx, query, value); err != nil {
		r.logger.Error().Err(err).Str("value", value.String()).Msg("failed to store minimum order value")
		return fmt.Errorf("failed to store minimum order value: %w", err)
	}

	r.logger.Info().Str("value", value.StringFixed(2)).Msg("minimum order value updated")
	return nil
}
