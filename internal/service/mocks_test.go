package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) ListCatalog(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) ReplaceTiers(ctx context.Context, productID string, tiers []model.PriceTier) error {
	args := m.Called(ctx, productID, tiers)
	return args.Error(0)
}

func (m *MockProductRepository) ReplaceTiersBySKU(ctx context.Context, sku string, tiers []model.PriceTier) (string, error) {
	args := m.Called(ctx, sku, tiers)
	return args.String(0), args.Error(1)
}

// MockShippingRepository is a mock implementation of ShippingRepository.
type MockShippingRepository struct {
	mock.Mock
}

func (m *MockShippingRepository) List(ctx context.Context) ([]model.ShippingMethod, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ShippingMethod), args.Error(1)
}

// MockSettingsRepository is a mock implementation of SettingsRepository.
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) MinimumOrderValue(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockSettingsRepository) SetMinimumOrderValue(ctx context.Context, value decimal.Decimal) error {
	args := m.Called(ctx, value)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []model.LineItem) error {
	args := m.Called(ctx, tx, orderID, items)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, order *model.Order, expected model.OrderStatus) (bool, error) {
	args := m.Called(ctx, order, expected)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, expected, next model.PaymentStatus) (bool, error) {
	args := m.Called(ctx, id, expected, next)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) SetTracking(ctx context.Context, id uuid.UUID, tracking *model.Tracking) error {
	args := m.Called(ctx, id, tracking)
	return args.Error(0)
}

// MockQuoteRepository is a mock implementation of QuoteRepository.
type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuoteRepository) Create(ctx context.Context, quote *model.Quote) error {
	args := m.Called(ctx, quote)
	return args.Error(0)
}

func (m *MockQuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Quote), args.Error(1)
}

func (m *MockQuoteRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Quote, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Quote), args.Error(1)
}

func (m *MockQuoteRepository) List(ctx context.Context, status model.QuoteStatus, limit, offset int) ([]model.Quote, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Quote), args.Error(1)
}

func (m *MockQuoteRepository) Save(ctx context.Context, quote *model.Quote) error {
	args := m.Called(ctx, quote)
	return args.Error(0)
}

func (m *MockQuoteRepository) SetStatusIfEqual(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next model.QuoteStatus) (bool, error) {
	args := m.Called(ctx, tx, id, expected, next)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuoteRepository) LinkOrder(ctx context.Context, tx pgx.Tx, quoteID, orderID uuid.UUID) error {
	args := m.Called(ctx, tx, quoteID, orderID)
	return args.Error(0)
}

// MockDraftRepository is a mock implementation of DraftRepository.
type MockDraftRepository struct {
	mock.Mock
}

func (m *MockDraftRepository) Save(ctx context.Context, draft *model.Draft) error {
	args := m.Called(ctx, draft)
	return args.Error(0)
}

func (m *MockDraftRepository) Get(ctx context.Context, ownerID string, kind model.DraftKind) (*model.Draft, error) {
	args := m.Called(ctx, ownerID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Draft), args.Error(1)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

// seqNumbers issues predictable document numbers.
type seqNumbers struct {
	n atomic.Int64
}

func (s *seqNumbers) QuoteNumber() string {
	return fmt.Sprintf("Q-%d", s.n.Add(1))
}

func (s *seqNumbers) OrderNumber() string {
	return fmt.Sprintf("O-%d", s.n.Add(1))
}

// fastRetry retries twice without meaningful delay.
var fastRetry = Retrier{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

// noRetry gives up after the first failure.
var noRetry = Retrier{MaxRetries: 0, InitialInterval: time.Millisecond}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(v int) *int {
	return &v
}

func strPtr(s string) *string {
	return &s
}

// testCatalog is P001 tiered, P002 flat at 2.40, P003 priced on request.
func testCatalog() []model.Product {
	return []model.Product{
		{
			ID:         "P001",
			Name:       "Branded Pen",
			SKU:        "PEN-001",
			WeightGram: 10,
			Tiers: []model.PriceTier{
				{QuantityMin: 1, QuantityMax: intPtr(499), UnitPrice: dec("1.00")},
				{QuantityMin: 500, QuantityMax: intPtr(1999), UnitPrice: dec("0.80")},
				{QuantityMin: 2000, UnitPrice: dec("0.65")},
			},
		},
		{
			ID:         "P002",
			Name:       "Canvas Tote",
			SKU:        "TOTE-002",
			WeightGram: 150,
			UnitPrice:  decimal.NewNullDecimal(dec("2.40")),
		},
		{
			ID:         "P003",
			Name:       "Custom Banner",
			SKU:        "BAN-003",
			WeightGram: 800,
		},
	}
}

func catalogByID(ids ...string) []model.Product {
	var out []model.Product
	for _, p := range testCatalog() {
		for _, id := range ids {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out
}

// testMethods offers a light band and an unbounded heavy band free above 500.
func testMethods() []model.ShippingMethod {
	return []model.ShippingMethod{
		{ID: "LIGHT", Name: "Light parcel", WeightMin: 0, WeightMax: intPtr(9999), BasePrice: dec("4.00"), PricePerKg: dec("1.00"), Active: true, Position: 1},
		{
			ID: "HEAVY", Name: "Pallet", WeightMin: 5000, BasePrice: dec("25.00"), PricePerKg: dec("0.50"),
			FreeShippingMinAmount: decimal.NewNullDecimal(dec("500.00")), Active: true, Position: 2,
		},
	}
}
