package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const quoteColumns = `id, quote_number, status, shipping_method_id,
	subtotal, tax, shipping_cost, total,
	customer_name, customer_email, customer_phone, customer_company,
	notes, files, converted_order_id, created_at, updated_at`

// quoteRepository implements the QuoteRepository interface using PostgreSQL.
type quoteRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewQuoteRepository creates a new PostgreSQL-backed quote repository.
func NewQuoteRepository(pool *pgxpool.Pool, logger zerolog.Logger) QuoteRepository {
	return &quoteRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "quote").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *quoteRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Create inserts a new quote with its items.
func (r *quoteRepository) Create(ctx context.Context, quote *model.Quote) error {
	query := `
		INSERT INTO quotes (` + quoteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			quote.ID,
			quote.QuoteNumber,
			quote.Status,
			quote.ShippingMethodID,
			quote.Subtotal,
			quote.Tax,
			quote.ShippingCost,
			quote.Total,
			quote.Customer.Name,
			quote.Customer.Email,
			quote.Customer.Phone,
			quote.Customer.Company,
			quote.Notes,
			filesOrEmpty(quote.Files),
			quote.ConvertedOrderID,
			quote.CreatedAt,
			quote.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create quote: %w", err)
		}
		return insertQuoteItems(ctx, tx, quote.ID, quote.Items)
	})
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("quote_id", quote.ID.String()).
			Msg("failed to create quote")
		return err
	}

	r.logger.Debug().
		Str("quote_id", quote.ID.String()).
		Str("quote_number", quote.QuoteNumber).
		Int("items", len(quote.Items)).
		Msg("quote created successfully")

	return nil
}

// GetByID retrieves a quote with its items.
func (r *quoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	return r.get(ctx, r.pool, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves and row-locks a quote within tx.
func (r *quoteRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Quote, error) {
	return r.get(ctx, tx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1 FOR UPDATE`, id)
}

func (r *quoteRepository) get(ctx context.Context, q querier, query string, id uuid.UUID) (*model.Quote, error) {
	quote, err := scanQuote(q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("quote_id", id.String()).Msg("quote not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("quote_id", id.String()).Msg("failed to query quote")
		return nil, fmt.Errorf("failed to query quote: %w", err)
	}

	items, err := loadQuoteItems(ctx, q, id)
	if err != nil {
		r.logger.Error().Err(err).Str("quote_id", id.String()).Msg("failed to query quote items")
		return nil, err
	}
	quote.Items = items

	return &quote, nil
}

// List retrieves quote headers, newest first. An empty status lists every quote.
func (r *quoteRepository) List(ctx context.Context, status model.QuoteStatus, limit, offset int) ([]model.Quote, error) {
	query := `SELECT ` + quoteColumns + `
		FROM quotes
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("status", string(status)).Msg("failed to query quotes")
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]model.Quote, 0)
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan quote row")
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, quote)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating quote rows")
		return nil, fmt.Errorf("error iterating quotes: %w", err)
	}

	return quotes, nil
}

// Save overwrites the editable state of a quote. The status column is never
// written here; status changes go through SetStatusIfEqual.
func (r *quoteRepository) Save(ctx context.Context, quote *model.Quote) error {
	query := `
		UPDATE quotes
		SET shipping_method_id = $2,
		    subtotal = $3,
		    tax = $4,
		    shipping_cost = $5,
		    total = $6,
		    notes = $7,
		    updated_at = $8
		WHERE id = $1 AND status IN ('pending', 'approved')
	`

	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query,
			quote.ID,
			quote.ShippingMethodID,
			quote.Subtotal,
			quote.Tax,
			quote.ShippingCost,
			quote.Total,
			quote.Notes,
			quote.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save quote: %w", err)
		}

		if tag.RowsAffected() == 0 {
			var status model.QuoteStatus
			err := tx.QueryRow(ctx, `SELECT status FROM quotes WHERE id = $1`, quote.ID).Scan(&status)
			if isNoRows(err) {
				return model.ErrQuoteNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to read quote status: %w", err)
			}
			return fmt.Errorf("%w: quote is %s", model.ErrQuoteImmutable, status)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM quote_items WHERE quote_id = $1`, quote.ID); err != nil {
			return fmt.Errorf("failed to clear quote items: %w", err)
		}
		return insertQuoteItems(ctx, tx, quote.ID, quote.Items)
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("quote_id", quote.ID.String()).Msg("quote save rejected")
		return err
	}

	r.logger.Debug().Str("quote_id", quote.ID.String()).Msg("quote saved")
	return nil
}

// SetStatusIfEqual moves the quote from expected to next within tx.
func (r *quoteRepository) SetStatusIfEqual(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next model.QuoteStatus) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE quotes
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`,
		id, expected, next, time.Now().UTC())
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("quote_id", id.String()).
			Str("expected", string(expected)).
			Str("next", string(next)).
			Msg("failed to update quote status")
		return false, fmt.Errorf("failed to update quote status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// LinkOrder records the order a quote was converted into.
func (r *quoteRepository) LinkOrder(ctx context.Context, tx pgx.Tx, quoteID, orderID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `UPDATE quotes SET converted_order_id = $2 WHERE id = $1`, quoteID, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("quote_id", quoteID.String()).Msg("failed to link order")
		return fmt.Errorf("failed to link order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrQuoteNotFound
	}
	return nil
}

func scanQuote(row pgx.Row) (model.Quote, error) {
	var q model.Quote
	err := row.Scan(
		&q.ID,
		&q.QuoteNumber,
		&q.Status,
		&q.ShippingMethodID,
		&q.Subtotal,
		&q.Tax,
		&q.ShippingCost,
		&q.Total,
		&q.Customer.Name,
		&q.Customer.Email,
		&q.Customer.Phone,
		&q.Customer.Company,
		&q.Notes,
		&q.Files,
		&q.ConvertedOrderID,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	return q, err
}

func insertQuoteItems(ctx context.Context, tx pgx.Tx, quoteID uuid.UUID, items []model.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO quote_items (id, quote_id, position, product_id, product_name,
			quantity, unit_price, customization, needs_pricing, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(query,
			item.ID, quoteID, i, item.ProductID, item.ProductName,
			item.Quantity, item.UnitPrice, item.Customization, item.NeedsPricing, item.TotalPrice)
	}

	if err := execBatch(ctx, tx, batch); err != nil {
		return fmt.Errorf("failed to create quote items: %w", err)
	}
	return nil
}

func loadQuoteItems(ctx context.Context, q querier, quoteID uuid.UUID) ([]model.LineItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, product_id, product_name, quantity, unit_price,
		       customization, needs_pricing, total_price
		FROM quote_items
		WHERE quote_id = $1
		ORDER BY position`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote items: %w", err)
	}
	defer rows.Close()

	items := make([]model.LineItem, 0)
	for rows.Next() {
		var item model.LineItem
		err := rows.Scan(
			&item.ID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitPrice,
			&item.Customization,
			&item.NeedsPricing,
			&item.TotalPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quote items: %w", err)
	}

	return items, nil
}

func filesOrEmpty(files []model.QuoteFile) []model.QuoteFile {
	if files == nil {
		return []model.QuoteFile{}
	}
	return files
}
