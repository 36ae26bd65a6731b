package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type shippingRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewShippingRepository creates a new PostgreSQL-backed shipping method repository.
func NewShippingRepository(pool *pgxpool.Pool, logger zerolog.Logger) ShippingRepository {
	return &shippingRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "shipping").Logger(),
	}
}

// List retrieves every configured shipping method ordered by position.
func (r *shippingRepository) List(ctx context.Context) ([]model.ShippingMethod, error) {
	query := `
		SELECT id, name, weight_min, weight_max, base_price, price_per_kg,
		       free_shipping_min_amount, active, position, created_at
		FROM shipping_methods
		ORDER BY position, name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query shipping methods")
		return nil, fmt.Errorf("failed to query shipping methods: %w", err)
	}
	defer rows.Close()

	methods := make([]model.ShippingMethod, 0)
	for rows.Next() {
		var m model.ShippingMethod
		err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.WeightMin,
			&m.WeightMax,
			&m.BasePrice,
			&m.PricePerKg,
			&m.FreeShippingMinAmount,
			&m.Active,
			&m.Position,
			&m.CreatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan shipping method row")
			return nil, fmt.Errorf("failed to scan shipping method: %w", err)
		}
		methods = append(methods, m)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating shipping method rows")
		return nil, fmt.Errorf("error iterating shipping methods: %w", err)
	}

	return methods, nil
}
