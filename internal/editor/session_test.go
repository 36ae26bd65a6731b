package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a QuoteStore holding a single quote.
type memStore struct {
	mu       sync.Mutex
	quote    *model.Quote
	saves    int
	saveErr  error
	onSave   func()
	afterGet func()
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.Quote, error) {
	m.mu.Lock()
	if m.quote == nil || m.quote.ID != id {
		m.mu.Unlock()
		return nil, model.ErrQuoteNotFound
	}
	quote := cloneQuote(m.quote)
	hook := m.afterGet
	m.afterGet = nil
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return quote, nil
}

// pauseAfterGet makes the next GetByID block once it has read the quote,
// until the returned release func is called.
func (m *memStore) pauseAfterGet() (read <-chan struct{}, release func()) {
	readCh := make(chan struct{})
	releaseCh := make(chan struct{})
	m.mu.Lock()
	m.afterGet = func() {
		close(readCh)
		<-releaseCh
	}
	m.mu.Unlock()
	return readCh, func() { close(releaseCh) }
}

func (m *memStore) Save(_ context.Context, quote *model.Quote) (*model.Quote, error) {
	m.mu.Lock()
	hook := m.onSave
	m.onSave = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	if !m.quote.Status.Editable() {
		return nil, fmt.Errorf("%w: quote is %s", model.ErrQuoteImmutable, m.quote.Status)
	}
	stored := cloneQuote(quote)
	stored.UpdatedAt = stored.UpdatedAt.Add(time.Second)
	m.quote = stored
	m.saves++
	return cloneQuote(stored), nil
}

func (m *memStore) stored() *model.Quote {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneQuote(m.quote)
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memStore) setStatus(status model.QuoteStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quote.Status = status
}

func (m *memStore) setNotes(notes string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quote.Notes = notes
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newStore(status model.QuoteStatus) *memStore {
	return &memStore{quote: &model.Quote{
		ID:          uuid.New(),
		QuoteNumber: "Q-1",
		Status:      status,
		Items: []model.LineItem{
			{ID: uuid.New(), ProductID: "P001", Quantity: 500, UnitPrice: dec("0.80"), TotalPrice: dec("400.00")},
		},
		Totals: model.Totals{
			Subtotal: dec("400.00"),
			Tax:      dec("92.00"),
			Total:    dec("492.00"),
		},
		Customer: model.Customer{Name: "Ada", Email: "ada@example.com"},
	}}
}

func setQuantity(qty int) func(q *model.Quote) error {
	return func(q *model.Quote) error {
		q.Items[0].Quantity = qty
		return nil
	}
}

func openSession(t *testing.T, store *memStore, opts Options) *Session {
	t.Helper()
	s, err := Open(context.Background(), store, store.quote.ID, opts, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name      string
		status    model.QuoteStatus
		expectErr error
	}{
		{name: "Pending quote", status: model.QuoteStatusPending},
		{name: "Approved quote", status: model.QuoteStatusApproved},
		{name: "Converted quote", status: model.QuoteStatusConverted, expectErr: model.ErrQuoteImmutable},
		{name: "Rejected quote", status: model.QuoteStatusRejected, expectErr: model.ErrQuoteImmutable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(tt.status)

			s, err := Open(context.Background(), store, store.quote.ID, Options{}, zerolog.Nop())

			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.False(t, s.Dirty())
			assert.Equal(t, "Q-1", s.Quote().QuoteNumber)
		})
	}
}

func TestOpen_UnknownQuote(t *testing.T) {
	_, err := Open(context.Background(), newStore(model.QuoteStatusPending), uuid.New(), Options{}, zerolog.Nop())
	assert.ErrorIs(t, err, model.ErrQuoteNotFound)
}

func TestEdit(t *testing.T) {
	store := newStore(model.QuoteStatusPending)
	s := openSession(t, store, Options{})

	require.NoError(t, s.Edit(setQuantity(1000)))

	q := s.Quote()
	assert.True(t, s.Dirty())
	assert.Equal(t, "800.00", q.Subtotal.StringFixed(2))
	assert.Equal(t, "184.00", q.Tax.StringFixed(2))
	assert.Equal(t, "984.00", q.Total.StringFixed(2))
	assert.Equal(t, "800.00", q.Items[0].TotalPrice.StringFixed(2))

	// Nothing reaches the store before a flush.
	assert.Equal(t, 500, store.stored().Items[0].Quantity)
}

func TestEdit_RejectedEditLeavesWorkingCopy(t *testing.T) {
	store := newStore(model.QuoteStatusPending)
	s := openSession(t, store, Options{})

	err := s.Edit(setQuantity(0))
	assert.ErrorIs(t, err, model.ErrInvalidQuantity)

	err = s.Edit(func(q *model.Quote) error {
		q.Items[0].Quantity = 2
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")

	err = s.Edit(func(q *model.Quote) error {
		q.ShippingCost = dec("-1")
		return nil
	})
	var validationErr *model.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	assert.False(t, s.Dirty())
	assert.Equal(t, 500, s.Quote().Items[0].Quantity)
}

func TestQuote_ReturnsCopy(t *testing.T) {
	s := openSession(t, newStore(model.QuoteStatusPending), Options{})

	q := s.Quote()
	q.Items[0].Quantity = 9

	assert.Equal(t, 500, s.Quote().Items[0].Quantity)
}

func TestFlush(t *testing.T) {
	store := newStore(model.QuoteStatusPending)
	s := openSession(t, store, Options{})

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 0, store.saveCount(), "clean session does not save")

	require.NoError(t, s.Edit(setQuantity(750)))
	require.NoError(t, s.Flush(context.Background()))

	assert.False(t, s.Dirty())
	assert.Equal(t, 1, store.saveCount())
	assert.Equal(t, 750, store.stored().Items[0].Quantity)
	assert.Equal(t, "600.00", store.stored().Subtotal.StringFixed(2))
	assert.Equal(t, store.stored().UpdatedAt, s.Quote().UpdatedAt, "adopts the saved quote")
}

func TestFlush_EditDuringSaveStaysDirty(t *testing.T) {
	store := newStore(model.QuoteStatusPending)
	s := openSession(t, store, Options{})

	require.NoError(t, s.Edit(setQuantity(750)))
	store.onSave = func() {
		require.NoError(t, s.Edit(setQuantity(900)))
	}

	require.NoError(t, s.Flush(context.Background()))

	assert.True(t, s.Dirty())
	assert.Equal(t, 750, store.stored().Items[0].Quantity)
	assert.Equal(t, 900, s.Quote().Items[0].Quantity, "newer edit is kept")

	require.NoError(t, s.Flush(context.Background()))
	assert.False(t, s.Dirty())
	assert.Equal(t, 900, store.stored().Items[0].Quantity)
}

func TestFlush_TransientFailureKeepsEdits(t *testing.T) {
	store := newStore(model.QuoteStatusPending)
	s := openSession(t, store, Options{})
	require.NoError(t, s.Edit(setQuantity(750)))

	store.saveErr = errors.New("connection reset")
	err := s.Flush(context.Background())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionClosed)
	assert.True(t, s.Dirty())
	assert.NoError(t, s.Err())

	store.saveErr = nil
	require.NoError(t, s.Flush(context.Background()))
	assert.False(t, s.Dirty())
}

func TestFlush_ImmutableQuoteClosesSession(t *testing.T) {
	store := newStore(model.QuoteStatusApproved)
	s := openSession(t, store, Options{})
	require.NoError(t, s.Edit(setQuantity(750)))

	store.setStatus(model.QuoteStatusConverted)
	err := s.Flush(context.Background())

	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, err, model.ErrQuoteImmutable)
	assert.ErrorIs(t, s.Err(), ErrSessionClosed)
	assert.ErrorIs(t, s.Edit(setQuantity(1)), ErrSessionClosed)
	assert.Equal(t, 500, store.stored().Items[0].Quantity)
}

func TestRefresh(t *testing.T) {
	store := newStore(model.QuoteStatusPending)
	s := openSession(t, store, Options{})

	store.setNotes("rush job")
	replaced, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, "rush job", s.Quote().Notes)
}

func TestRefresh_SkippedWhileDirty(t *testing.T) {
	store := newStore(model.QuoteStatusPending)
	s := openSession(t, store, Options{})
	require.NoError(t, s.Edit(setQuantity(750)))

	store.setNotes("rush job")
	replaced, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Equal(t, 750, s.Quote().Items[0].Quantity)
	assert.Empty(t, s.Quote().Notes)

	// Once saved, last write wins and the next refresh reads it back.
	require.NoError(t, s.Flush(context.Background()))
	replaced, err = s.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Empty(t, s.Quote().Notes)
}

func TestRefresh_SaveDuringReadKeepsSavedEdit(t *testing.T) {
	tests := []struct {
		name      string
		editFirst bool
	}{
		{name: "Edit before refresh starts", editFirst: true},
		{name: "Edit while refresh reads", editFirst: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(model.QuoteStatusPending)
			s := openSession(t, store, Options{})

			if tt.editFirst {
				require.NoError(t, s.Edit(setQuantity(900)))
			}

			read, release := store.pauseAfterGet()
			type result struct {
				replaced bool
				err      error
			}
			done := make(chan result, 1)
			go func() {
				replaced, err := s.Refresh(ctx)
				done <- result{replaced: replaced, err: err}
			}()
			<-read

			if !tt.editFirst {
				require.NoError(t, s.Edit(setQuantity(900)))
			}
			require.NoError(t, s.Flush(ctx))
			release()

			res := <-done
			require.NoError(t, res.err)
			assert.False(t, res.replaced)
			assert.Equal(t, 900, s.Quote().Items[0].Quantity)
			assert.False(t, s.Dirty())
			assert.Equal(t, 900, store.stored().Items[0].Quantity)

			// A later edit and save still carries the 900 line forward.
			require.NoError(t, s.Edit(func(q *model.Quote) error {
				q.Notes = "rush job"
				return nil
			}))
			require.NoError(t, s.Flush(ctx))
			assert.Equal(t, 900, store.stored().Items[0].Quantity)
		})
	}
}

func TestRefresh_ConvertedQuoteClosesSession(t *testing.T) {
	store := newStore(model.QuoteStatusApproved)
	s := openSession(t, store, Options{})

	store.setStatus(model.QuoteStatusConverted)
	replaced, err := s.Refresh(context.Background())

	assert.True(t, replaced)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Equal(t, model.QuoteStatusConverted, s.Quote().Status)

	_, err = s.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestRun_AutosavesEdits(t *testing.T) {
	store := newStore(model.QuoteStatusPending)
	s := openSession(t, store, Options{AutosaveInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.NoError(t, s.Edit(setQuantity(2000)))
	assert.Eventually(t, func() bool {
		return store.stored().Items[0].Quantity == 2000
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.False(t, s.Dirty())
}

func TestRun_FlushesOnCancel(t *testing.T) {
	store := newStore(model.QuoteStatusPending)
	s := openSession(t, store, Options{})
	require.NoError(t, s.Edit(setQuantity(1500)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
	assert.Equal(t, 1500, store.stored().Items[0].Quantity)
	assert.Equal(t, 1, store.saveCount())
}

func TestRun_StopsWhenQuoteIsConverted(t *testing.T) {
	store := newStore(model.QuoteStatusApproved)
	s := openSession(t, store, Options{RefreshInterval: 5 * time.Millisecond})

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	store.setStatus(model.QuoteStatusConverted)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSessionClosed)
		assert.ErrorIs(t, err, model.ErrQuoteImmutable)
	case <-time.After(time.Second):
		t.Fatal("session did not close")
	}
}
