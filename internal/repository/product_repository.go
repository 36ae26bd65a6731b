package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `id, name, sku, unit_price, weight_grams, category_id, created_at, updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// GetAll retrieves products with pagination support.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		ORDER BY name, id
		LIMIT $1 OFFSET $2`

	products, err := r.queryProducts(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, err
	}

	return products, nil
}

// GetByID retrieves a single product with tiers and colour variants.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	products := []model.Product{p}
	if err := r.attachTiers(ctx, products); err != nil {
		return nil, err
	}

	colors, err := r.colors(ctx, id)
	if err != nil {
		return nil, err
	}
	products[0].Colors = colors

	return &products[0], nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1)
		ORDER BY name, id`

	products, err := r.queryProducts(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, err
	}

	return products, nil
}

// ListCatalog retrieves the whole catalogue.
func (r *productRepository) ListCatalog(ctx context.Context) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY name, id`

	products, err := r.queryProducts(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list catalogue")
		return nil, err
	}

	return products, nil
}

// ReplaceTiers atomically replaces the tier table of a product.
func (r *productRepository) ReplaceTiers(ctx context.Context, productID string, tiers []model.PriceTier) error {
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&locked)
		if err != nil {
			if isNoRows(err) {
				return model.ErrProductNotFound
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}
		return replaceTiers(ctx, tx, productID, tiers)
	})
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID).Msg("failed to replace price tiers")
		return err
	}

	r.logger.Info().
		Str("product_id", productID).
		Int("tiers", len(tiers)).
		Msg("price tiers replaced")

	return nil
}

// ReplaceTiersBySKU atomically replaces the tier table of the product with the given SKU.
func (r *productRepository) ReplaceTiersBySKU(ctx context.Context, sku string, tiers []model.PriceTier) (string, error) {
	var productID string
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `SELECT id FROM products WHERE sku = $1 FOR UPDATE`, sku).Scan(&productID)
		if err != nil {
			if isNoRows(err) {
				return fmt.Errorf("%w: sku %s", model.ErrProductNotFound, sku)
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}
		return replaceTiers(ctx, tx, productID, tiers)
	})
	if err != nil {
		r.logger.Error().Err(err).Str("sku", sku).Msg("failed to replace price tiers")
		return "", err
	}

	r.logger.Debug().
		Str("sku", sku).
		Str("product_id", productID).
		Int("tiers", len(tiers)).
		Msg("price tiers replaced")

	return productID, nil
}

func replaceTiers(ctx context.Context, tx pgx.Tx, productID string, tiers []model.PriceTier) error {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM product_tiers WHERE product_id = $1`, productID)
	for _, t := range tiers {
		batch.Queue(`
			INSERT INTO product_tiers (product_id, quantity_min, quantity_max, unit_price)
			VALUES ($1, $2, $3, $4)`,
			productID, t.QuantityMin, t.QuantityMax, t.UnitPrice)
	}
	batch.Queue(`UPDATE products SET updated_at = NOW() WHERE id = $1`, productID)

	if err := execBatch(ctx, tx, batch); err != nil {
		return fmt.Errorf("failed to write price tiers: %w", err)
	}
	return nil
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	if err := r.attachTiers(ctx, products); err != nil {
		return nil, err
	}

	return products, nil
}

// attachTiers loads the tier tables of products in one query.
func (r *productRepository) attachTiers(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i := range products {
		ids[i] = products[i].ID
		index[products[i].ID] = i
		products[i].Tiers = []model.PriceTier{}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT product_id, quantity_min, quantity_max, unit_price
		FROM product_tiers
		WHERE product_id = ANY($1)
		ORDER BY product_id, quantity_min`, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query price tiers")
		return fmt.Errorf("failed to query price tiers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t model.PriceTier
		if err := rows.Scan(&t.ProductID, &t.QuantityMin, &t.QuantityMax, &t.UnitPrice); err != nil {
			return fmt.Errorf("failed to scan price tier: %w", err)
		}
		i := index[t.ProductID]
		products[i].Tiers = append(products[i].Tiers, t)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating price tiers: %w", err)
	}

	return nil
}

func (r *productRepository) colors(ctx context.Context, productID string) ([]model.ColorVariant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, hex_code
		FROM product_colors
		WHERE product_id = $1
		ORDER BY position`, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID).Msg("failed to query colours")
		return nil, fmt.Errorf("failed to query colours: %w", err)
	}
	defer rows.Close()

	var colors []model.ColorVariant
	for rows.Next() {
		var c model.ColorVariant
		if err := rows.Scan(&c.Name, &c.HexCode); err != nil {
			return nil, fmt.Errorf("failed to scan colour: %w", err)
		}
		colors = append(colors, c)
	}

	return colors, rows.Err()
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.SKU,
		&p.UnitPrice,
		&p.WeightGram,
		&p.CategoryID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}
