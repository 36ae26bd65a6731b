package integration

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/numbering"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestAPIKey is the key accepted by servers built with NewTestServer.
const TestAPIKey = "integration-test-key"

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the storefront schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.MaxConns = 20
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool, false, zerolog.Nop()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedCatalog inserts a tier-priced pen, a flat-priced tote and a banner
// that is only sold on request, plus two overlapping shipping bands.
func SeedCatalog(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	statements := []string{
		`INSERT INTO products (id, name, sku, unit_price, weight_grams) VALUES
			('P001', 'Branded Pen', 'PEN-1', NULL, 10),
			('P002', 'Canvas Tote', 'TOTE-1', 2.40, 150),
			('P003', 'Custom Banner', 'BAN-1', NULL, 800)`,
		`INSERT INTO product_tiers (product_id, quantity_min, quantity_max, unit_price) VALUES
			('P001', 1, 499, 1.00),
			('P001', 500, 1999, 0.80),
			('P001', 2000, NULL, 0.65)`,
		`INSERT INTO shipping_methods (id, name, weight_min, weight_max, base_price, price_per_kg, free_shipping_min_amount, position) VALUES
			('LIGHT', 'Parcel', 0, 9999, 4.00, 1.00, NULL, 1),
			('HEAVY', 'Pallet', 6000, NULL, 25.00, 0.50, 500.00, 2)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("failed to seed catalogue: %v", err)
		}
	}
}

// CleanupDB removes all rows written by the tests, keeping the schema.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{
		"drafts", "order_items", "orders", "quote_items", "quotes",
		"shipping_methods", "product_colors", "product_tiers", "products",
	}
	for _, table := range tables {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
	if _, err := pool.Exec(ctx, "UPDATE store_settings SET minimum_order_value = 0"); err != nil {
		t.Logf("failed to reset settings: %v", err)
	}
}

// NewTestServer wires the full API the way the serve command does, backed by pool.
func NewTestServer(t *testing.T, pool *pgxpool.Pool) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()

	numbers, err := numbering.New(1)
	if err != nil {
		t.Fatalf("failed to create number generator: %v", err)
	}

	productRepo := repository.NewProductRepository(pool, logger)
	shippingRepo := repository.NewShippingRepository(pool, logger)
	settingsRepo := repository.NewSettingsRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	quoteRepo := repository.NewQuoteRepository(pool, logger)
	draftRepo := repository.NewDraftRepository(pool, logger)

	retry := service.NewRetrier(1)
	cache := service.NewPriceCache(100, time.Minute)

	catalogService := service.NewCatalogService(productRepo, config.DefaultBudgets(), cache, true, retry, logger)
	shippingService := service.NewShippingService(productRepo, shippingRepo, retry, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, shippingRepo, settingsRepo, numbers, retry, logger)
	quoteService := service.NewQuoteService(quoteRepo, orderRepo, productRepo, shippingRepo, numbers, retry, logger)
	draftService := service.NewDraftService(draftRepo, productRepo, shippingRepo, retry, logger)

	mux := router.New(router.Handlers{
		Products: handler.NewProductHandler(catalogService, logger),
		Checkout: handler.NewCheckoutHandler(orderService, shippingService, logger),
		Orders:   handler.NewOrderHandler(orderService, logger),
		Quotes:   handler.NewQuoteHandler(quoteService, logger),
		Drafts:   handler.NewDraftHandler(draftService, logger),
	}, TestAPIKey, logger)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}
