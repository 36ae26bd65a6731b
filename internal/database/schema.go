package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// SchemaSQL creates every table the storefront reads or writes. It is
// idempotent and safe to run on each deploy.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS products (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    sku TEXT NOT NULL UNIQUE,
    unit_price NUMERIC(12,4) CHECK (unit_price >= 0),
    weight_grams INTEGER NOT NULL DEFAULT 0 CHECK (weight_grams >= 0),
    category_id TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);

-- Quantity tiers; quantity_max NULL means unbounded.
CREATE TABLE IF NOT EXISTS product_tiers (
    product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    quantity_min INTEGER NOT NULL CHECK (quantity_min >= 1),
    quantity_max INTEGER CHECK (quantity_max IS NULL OR quantity_max >= quantity_min),
    unit_price NUMERIC(12,4) NOT NULL CHECK (unit_price >= 0),
    PRIMARY KEY (product_id, quantity_min)
);

CREATE TABLE IF NOT EXISTS product_colors (
    product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    hex_code TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (product_id, position)
);

CREATE TABLE IF NOT EXISTS shipping_methods (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    weight_min INTEGER NOT NULL DEFAULT 0 CHECK (weight_min >= 0),
    weight_max INTEGER CHECK (weight_max IS NULL OR weight_max >= weight_min),
    base_price NUMERIC(12,2) NOT NULL CHECK (base_price >= 0),
    price_per_kg NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (price_per_kg >= 0),
    free_shipping_min_amount NUMERIC(12,2),
    active BOOLEAN NOT NULL DEFAULT TRUE,
    position INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Single-row store settings.
CREATE TABLE IF NOT EXISTS store_settings (
    id BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
    minimum_order_value NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (minimum_order_value >= 0)
);
INSERT INTO store_settings (id) VALUES (TRUE) ON CONFLICT DO NOTHING;

CREATE TABLE IF NOT EXISTS quotes (
    id UUID PRIMARY KEY,
    quote_number TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'converted')),
    shipping_method_id TEXT,
    subtotal NUMERIC(14,4) NOT NULL DEFAULT 0,
    tax NUMERIC(14,4) NOT NULL DEFAULT 0,
    shipping_cost NUMERIC(14,4) NOT NULL DEFAULT 0,
    total NUMERIC(14,4) NOT NULL DEFAULT 0,
    customer_name TEXT NOT NULL DEFAULT '',
    customer_email TEXT NOT NULL DEFAULT '',
    customer_phone TEXT NOT NULL DEFAULT '',
    customer_company TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    files JSONB NOT NULL DEFAULT '[]',
    converted_order_id UUID,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_quotes_status ON quotes(status, created_at DESC);

CREATE TABLE IF NOT EXISTS quote_items (
    id UUID PRIMARY KEY,
    quote_id UUID NOT NULL REFERENCES quotes(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    product_id TEXT NOT NULL,
    product_name TEXT NOT NULL DEFAULT '',
    quantity INTEGER NOT NULL CHECK (quantity > 0),
    unit_price NUMERIC(12,4) NOT NULL CHECK (unit_price >= 0),
    customization TEXT,
    needs_pricing BOOLEAN NOT NULL DEFAULT FALSE,
    total_price NUMERIC(14,4) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_quote_items_quote ON quote_items(quote_id, position);

CREATE TABLE IF NOT EXISTS orders (
    id UUID PRIMARY KEY,
    order_number TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL CHECK (status IN ('pending', 'processing', 'shipped', 'delivered', 'cancelled')),
    payment_status TEXT NOT NULL CHECK (payment_status IN ('pending', 'paid', 'failed', 'refunded')),
    shipping_method_id TEXT,
    subtotal NUMERIC(14,4) NOT NULL,
    tax NUMERIC(14,4) NOT NULL,
    shipping_cost NUMERIC(14,4) NOT NULL,
    total NUMERIC(14,4) NOT NULL,
    customer_name TEXT NOT NULL DEFAULT '',
    customer_email TEXT NOT NULL DEFAULT '',
    customer_phone TEXT NOT NULL DEFAULT '',
    customer_company TEXT NOT NULL DEFAULT '',
    -- one order per quote at most
    source_quote_id UUID UNIQUE REFERENCES quotes(id),
    carrier TEXT,
    tracking_number TEXT,
    tracking_url TEXT,
    shipped_at TIMESTAMPTZ,
    estimated_delivery TIMESTAMPTZ,
    delivered_at TIMESTAMPTZ,
    tracking_notes TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS order_items (
    id UUID PRIMARY KEY,
    order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    product_id TEXT NOT NULL,
    product_name TEXT NOT NULL DEFAULT '',
    quantity INTEGER NOT NULL CHECK (quantity > 0),
    unit_price NUMERIC(12,4) NOT NULL CHECK (unit_price >= 0),
    customization TEXT,
    total_price NUMERIC(14,4) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id, position);

CREATE TABLE IF NOT EXISTS drafts (
    id UUID PRIMARY KEY,
    owner_id TEXT NOT NULL,
    kind TEXT NOT NULL CHECK (kind IN ('cart', 'quote')),
    version BIGINT NOT NULL DEFAULT 1,
    items JSONB NOT NULL DEFAULT '[]',
    shipping_method_id TEXT,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (owner_id, kind)
);
`

// DropSchemaSQL removes every storefront table.
const DropSchemaSQL = `
DROP TABLE IF EXISTS drafts;
DROP TABLE IF EXISTS order_items;
DROP TABLE IF EXISTS orders;
DROP TABLE IF EXISTS quote_items;
DROP TABLE IF EXISTS quotes;
DROP TABLE IF EXISTS store_settings;
DROP TABLE IF EXISTS shipping_methods;
DROP TABLE IF EXISTS product_colors;
DROP TABLE IF EXISTS product_tiers;
DROP TABLE IF EXISTS products;
`

// Migrate creates the schema, optionally dropping existing tables first.
func Migrate(ctx context.Context, pool *pgxpool.Pool, dropFirst bool, logger zerolog.Logger) error {
	if dropFirst {
		logger.Warn().Msg("dropping existing storefront tables")
		if _, err := pool.Exec(ctx, DropSchemaSQL); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
	}

	if _, err := pool.Exec(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info().Msg("database schema is up to date")
	return nil
}
