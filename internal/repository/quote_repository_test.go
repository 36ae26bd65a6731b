package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQuote(status model.QuoteStatus) *model.Quote {
	now := time.Now().UTC()
	note := "Logo on the clip"
	items := []model.LineItem{
		{ID: uuid.New(), ProductID: "P001", ProductName: "Branded Pen", Quantity: 750, UnitPrice: dec("0.80"), Customization: &note},
		{ID: uuid.New(), ProductID: "P003", ProductName: "Custom Banner", Quantity: 2, NeedsPricing: true},
	}
	for i := range items {
		items[i].Recalculate()
	}

	return &model.Quote{
		ID:          uuid.New(),
		QuoteNumber: "Q-" + uuid.NewString()[:8],
		Status:      status,
		Items:       items,
		Totals: model.Totals{
			Subtotal: dec("600.00"),
			Tax:      dec("138.00"),
			Total:    dec("738.00"),
		},
		Customer:  model.Customer{Name: "Ada", Email: "ada@example.com", Company: "Acme"},
		Notes:     "Rush if possible",
		Files:     []model.QuoteFile{{Name: "logo.svg", URL: "https://files.example.com/logo.svg"}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestQuoteRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewQuoteRepository(pool, zerolog.Nop())
	ctx := context.Background()

	quote := newTestQuote(model.QuoteStatusPending)
	require.NoError(t, repo.Create(ctx, quote))

	loaded, err := repo.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, quote.QuoteNumber, loaded.QuoteNumber)
	assert.Equal(t, model.QuoteStatusPending, loaded.Status)
	assert.Equal(t, quote.Customer, loaded.Customer)
	assert.Equal(t, quote.Files, loaded.Files)
	assert.Equal(t, "738.00", loaded.Total.StringFixed(2))
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, "P001", loaded.Items[0].ProductID)
	require.NotNil(t, loaded.Items[0].Customization)
	assert.Equal(t, "Logo on the clip", *loaded.Items[0].Customization)
	assert.Equal(t, "600.00", loaded.Items[0].TotalPrice.StringFixed(2))
	assert.True(t, loaded.Items[1].NeedsPricing)
	assert.True(t, loaded.HasUnpricedLines())

	missing, err := repo.GetByID(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestQuoteRepository_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewQuoteRepository(pool, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestQuote(model.QuoteStatusPending)))
	require.NoError(t, repo.Create(ctx, newTestQuote(model.QuoteStatusPending)))
	require.NoError(t, repo.Create(ctx, newTestQuote(model.QuoteStatusRejected)))

	tests := []struct {
		name     string
		status   model.QuoteStatus
		expected int
	}{
		{name: "All quotes", status: "", expected: 3},
		{name: "Pending only", status: model.QuoteStatusPending, expected: 2},
		{name: "Rejected only", status: model.QuoteStatusRejected, expected: 1},
		{name: "No converted quotes", status: model.QuoteStatusConverted, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes, err := repo.List(ctx, tt.status, 50, 0)
			require.NoError(t, err)
			assert.Len(t, quotes, tt.expected)
		})
	}
}

func TestQuoteRepository_Save(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewQuoteRepository(pool, zerolog.Nop())
	ctx := context.Background()

	t.Run("Last write wins on an editable quote", func(t *testing.T) {
		quote := newTestQuote(model.QuoteStatusPending)
		require.NoError(t, repo.Create(ctx, quote))

		first := *quote
		first.Notes = "first edit"
		second := *quote
		second.Notes = "second edit"
		second.Items = []model.LineItem{{ID: uuid.New(), ProductID: "P002", Quantity: 10, UnitPrice: dec("2.40")}}
		second.Items[0].Recalculate()

		require.NoError(t, repo.Save(ctx, &first))
		require.NoError(t, repo.Save(ctx, &second))

		loaded, err := repo.GetByID(ctx, quote.ID)
		require.NoError(t, err)
		assert.Equal(t, "second edit", loaded.Notes)
		require.Len(t, loaded.Items, 1)
		assert.Equal(t, "P002", loaded.Items[0].ProductID)
		assert.Equal(t, model.QuoteStatusPending, loaded.Status)
	})

	t.Run("Converted quote is immutable", func(t *testing.T) {
		quote := newTestQuote(model.QuoteStatusConverted)
		require.NoError(t, repo.Create(ctx, quote))

		quote.Notes = "too late"
		err := repo.Save(ctx, quote)
		assert.ErrorIs(t, err, model.ErrQuoteImmutable)

		loaded, err := repo.GetByID(ctx, quote.ID)
		require.NoError(t, err)
		assert.Equal(t, "Rush if possible", loaded.Notes)
		assert.Len(t, loaded.Items, 2)
	})

	t.Run("Missing quote", func(t *testing.T) {
		err := repo.Save(ctx, newTestQuote(model.QuoteStatusPending))
		assert.ErrorIs(t, err, model.ErrQuoteNotFound)
	})
}

func TestQuoteRepository_SetStatusIfEqual(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewQuoteRepository(pool, zerolog.Nop())
	ctx := context.Background()

	quote := newTestQuote(model.QuoteStatusApproved)
	require.NoError(t, repo.Create(ctx, quote))

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	ok, err := repo.SetStatusIfEqual(ctx, tx, quote.ID, model.QuoteStatusApproved, model.QuoteStatusConverted)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetStatusIfEqual(ctx, tx, quote.ID, model.QuoteStatusApproved, model.QuoteStatusConverted)
	require.NoError(t, err)
	assert.False(t, ok, "a second transition from the old state must not match")

	orderID := uuid.New()
	require.NoError(t, repo.LinkOrder(ctx, tx, quote.ID, orderID))
	require.NoError(t, tx.Commit(ctx))

	loaded, err := repo.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QuoteStatusConverted, loaded.Status)
	require.NotNil(t, loaded.ConvertedOrderID)
	assert.Equal(t, orderID, *loaded.ConvertedOrderID)
}

func TestQuoteRepository_GetByIDForUpdate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewQuoteRepository(pool, zerolog.Nop())
	ctx := context.Background()

	quote := newTestQuote(model.QuoteStatusPending)
	require.NoError(t, repo.Create(ctx, quote))

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	locked, err := repo.GetByIDForUpdate(ctx, tx, quote.ID)
	require.NoError(t, err)
	require.NotNil(t, locked)
	assert.Len(t, locked.Items, 2)

	missing, err := repo.GetByIDForUpdate(ctx, tx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
