package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type draftRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDraftRepository creates a new PostgreSQL-backed draft repository.
func NewDraftRepository(pool *pgxpool.Pool, logger zerolog.Logger) DraftRepository {
	return &draftRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "draft").Logger(),
	}
}

// Save upserts the owner's draft of the given kind. Items are stored as JSON;
// totals are derived on load and never stored.
func (r *draftRepository) Save(ctx context.Context, draft *model.Draft) error {
	if draft.ID == uuid.Nil {
		draft.ID = uuid.New()
	}
	items := draft.Items
	if items == nil {
		items = []model.LineItem{}
	}

	query := `
		INSERT INTO drafts (id, owner_id, kind, version, items, shipping_method_id, updated_at)
		VALUES ($1, $2, $3, 1, $4, $5, $6)
		ON CONFLICT (owner_id, kind) DO UPDATE
		SET items = EXCLUDED.items,
		    shipping_method_id = EXCLUDED.shipping_method_id,
		    version = drafts.version + 1,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, version, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		draft.ID,
		draft.OwnerID,
		draft.Kind,
		items,
		draft.ShippingMethodID,
		draft.UpdatedAt,
	).Scan(&draft.ID, &draft.Version, &draft.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("owner_id", draft.OwnerID).
			Str("kind", string(draft.Kind)).
			Msg("failed to save draft")
		return fmt.Errorf("failed to save draft: %w", err)
	}

	r.logger.Debug().
		Str("owner_id", draft.OwnerID).
		Str("kind", string(draft.Kind)).
		Int64("version", draft.Version).
		Msg("draft saved")

	return nil
}

// Get retrieves the owner's draft of the given kind.
func (r *draftRepository) Get(ctx context.Context, ownerID string, kind model.DraftKind) (*model.Draft, error) {
	query := `
		SELECT id, owner_id, kind, version, items, shipping_method_id, updated_at
		FROM drafts
		WHERE owner_id = $1 AND kind = $2
	`

	var d model.Draft
	err := r.pool.QueryRow(ctx, query, ownerID, kind).Scan(
		&d.ID,
		&d.OwnerID,
		&d.Kind,
		&d.Version,
		&d.Items,
		&d.ShippingMethodID,
		&d.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("owner_id", ownerID).Str("kind", string(kind)).Msg("draft not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("owner_id", ownerID).Msg("failed to query draft")
		return nil, fmt.Errorf("failed to query draft: %w", err)
	}

	return &d, nil
}
