package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memDB is an in-memory store whose transactions run one at a time, the way
// row locks serialise conversions of the same quote in Postgres.
type memDB struct {
	txLock sync.Mutex

	mu     sync.Mutex
	quotes map[uuid.UUID]model.Quote
	orders map[uuid.UUID]model.Order

	failCreateOrder int
}

func newMemDB(quotes ...*model.Quote) *memDB {
	db := &memDB{
		quotes: make(map[uuid.UUID]model.Quote),
		orders: make(map[uuid.UUID]model.Order),
	}
	for _, q := range quotes {
		db.quotes[q.ID] = *q
	}
	return db
}

func (db *memDB) begin() *memTx {
	db.txLock.Lock()
	return &memTx{db: db}
}

func (db *memDB) ordersFor(quoteID uuid.UUID) []model.Order {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []model.Order
	for _, o := range db.orders {
		if o.SourceQuoteID != nil && *o.SourceQuoteID == quoteID {
			out = append(out, o)
		}
	}
	return out
}

func (db *memDB) quote(id uuid.UUID) model.Quote {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.quotes[id]
}

// memTx stages writes and applies them on commit.
type memTx struct {
	pgx.Tx
	db     *memDB
	done   bool
	writes []func()
}

func (tx *memTx) Commit(ctx context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.db.mu.Lock()
	for _, w := range tx.writes {
		w()
	}
	tx.db.mu.Unlock()
	tx.finish()
	return nil
}

func (tx *memTx) Rollback(ctx context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.finish()
	return nil
}

func (tx *memTx) finish() {
	tx.done = true
	tx.writes = nil
	tx.db.txLock.Unlock()
}

// memQuotes implements the QuoteRepository calls made during conversion.
type memQuotes struct {
	MockQuoteRepository
	db *memDB
}

func (r *memQuotes) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.db.begin(), nil
}

func (r *memQuotes) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Quote, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	q, ok := r.db.quotes[id]
	if !ok {
		return nil, nil
	}
	q.Items = model.CloneLineItems(q.Items)
	return &q, nil
}

func (r *memQuotes) SetStatusIfEqual(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next model.QuoteStatus) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.quotes[id].Status != expected {
		return false, nil
	}
	mtx := tx.(*memTx)
	mtx.writes = append(mtx.writes, func() {
		q := r.db.quotes[id]
		q.Status = next
		r.db.quotes[id] = q
	})
	return true, nil
}

func (r *memQuotes) LinkOrder(ctx context.Context, tx pgx.Tx, quoteID, orderID uuid.UUID) error {
	mtx := tx.(*memTx)
	mtx.writes = append(mtx.writes, func() {
		q := r.db.quotes[quoteID]
		q.ConvertedOrderID = &orderID
		r.db.quotes[quoteID] = q
	})
	return nil
}

// memOrders implements the OrderRepository calls made during conversion.
type memOrders struct {
	MockOrderRepository
	db *memDB
}

func (r *memOrders) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	r.db.mu.Lock()
	if r.db.failCreateOrder > 0 {
		r.db.failCreateOrder--
		r.db.mu.Unlock()
		return errors.New("connection lost")
	}
	r.db.mu.Unlock()

	stored := *order
	stored.Items = model.CloneLineItems(order.Items)
	mtx := tx.(*memTx)
	mtx.writes = append(mtx.writes, func() {
		r.db.orders[stored.ID] = stored
	})
	return nil
}

func (r *memOrders) CreateOrderItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []model.LineItem) error {
	return nil
}

func newMemQuoteService(db *memDB) QuoteService {
	return NewQuoteService(
		&memQuotes{db: db},
		&memOrders{db: db},
		new(MockProductRepository),
		new(MockShippingRepository),
		&seqNumbers{},
		noRetry,
		zerolog.Nop(),
	)
}

func TestQuoteService_Convert_ConcurrentCallsCreateOneOrder(t *testing.T) {
	for _, status := range []model.QuoteStatus{model.QuoteStatusPending, model.QuoteStatusApproved} {
		t.Run(string(status), func(t *testing.T) {
			quote := pricedQuote(status)
			db := newMemDB(quote)
			svc := newMemQuoteService(db)

			const callers = 16
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				succeeded []*model.Order
				refused   int
			)

			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					order, err := svc.Convert(context.Background(), quote.ID)

					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						succeeded = append(succeeded, order)
						return
					}
					if errors.Is(err, model.ErrAlreadyConverted) {
						refused++
					}
				}()
			}
			wg.Wait()

			require.Len(t, succeeded, 1)
			assert.Equal(t, callers-1, refused)

			orders := db.ordersFor(quote.ID)
			require.Len(t, orders, 1)
			assert.Equal(t, succeeded[0].ID, orders[0].ID)

			stored := db.quote(quote.ID)
			assert.Equal(t, model.QuoteStatusConverted, stored.Status)
			require.NotNil(t, stored.ConvertedOrderID)
			assert.Equal(t, orders[0].ID, *stored.ConvertedOrderID)
		})
	}
}

func TestQuoteService_Convert_FailedAttemptLeavesQuoteConvertible(t *testing.T) {
	quote := pricedQuote(model.QuoteStatusApproved)
	db := newMemDB(quote)
	db.failCreateOrder = 1
	svc := newMemQuoteService(db)
	ctx := context.Background()

	_, err := svc.Convert(ctx, quote.ID)
	require.Error(t, err)
	assert.Equal(t, model.QuoteStatusApproved, db.quote(quote.ID).Status)
	assert.Empty(t, db.ordersFor(quote.ID))

	order, err := svc.Convert(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, quote.ID, *order.SourceQuoteID)

	_, err = svc.Convert(ctx, quote.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyConverted)
	assert.Len(t, db.ordersFor(quote.ID), 1)
}

func TestQuoteService_Convert_UnpricedLineNeverBecomesOrder(t *testing.T) {
	quote := pricedQuote(model.QuoteStatusPending)
	quote.Items[0].NeedsPricing = true
	quote.Items[0].UnitPrice = decimal.Zero
	db := newMemDB(quote)
	svc := newMemQuoteService(db)

	order, err := svc.Convert(context.Background(), quote.ID)

	assert.ErrorIs(t, err, model.ErrUnpricedQuoteLines)
	assert.Nil(t, order)
	assert.Empty(t, db.ordersFor(quote.ID))
	assert.Equal(t, model.QuoteStatusPending, db.quote(quote.ID).Status)
}
