// Package editor keeps a staff member's working copy of a quote in step with
// the stored one while they edit it.
//
// A Session runs two background producers against the store: a periodic
// refresh that re-reads the quote and a periodic autosave that writes local
// edits. Both race with edits made through Edit. Saves are whole-quote and
// last-write-wins; a refresh never discards unsaved edits.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/model"
	"storefront/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSessionClosed is returned by a session that stopped because its quote
// can no longer be edited.
var ErrSessionClosed = errors.New("edit session closed")

// QuoteStore loads and saves whole quotes.
type QuoteStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Quote, error)
	Save(ctx context.Context, quote *model.Quote) (*model.Quote, error)
}

// Options configures the background producers. A zero interval disables
// that producer.
type Options struct {
	RefreshInterval  time.Duration
	AutosaveInterval time.Duration
}

// DefaultOptions refreshes every 30 seconds and autosaves every 5.
func DefaultOptions() Options {
	return Options{
		RefreshInterval:  30 * time.Second,
		AutosaveInterval: 5 * time.Second,
	}
}

// Session is one staff member's edit session of one quote.
type Session struct {
	store  QuoteStore
	id     uuid.UUID
	opts   Options
	logger zerolog.Logger

	mu     sync.Mutex
	local  *model.Quote
	edits  uint64 // bumped by every local edit
	saved  uint64 // value of edits covered by the last successful save
	closed error
	saving sync.Mutex
}

// Open loads the quote and starts a session on it. Converted and rejected
// quotes cannot be opened.
func Open(ctx context.Context, store QuoteStore, id uuid.UUID, opts Options, logger zerolog.Logger) (*Session, error) {
	quote, err := store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to open quote %s: %w", id, err)
	}
	if !quote.Status.Editable() {
		return nil, fmt.Errorf("%w: quote is %s", model.ErrQuoteImmutable, quote.Status)
	}

	return &Session{
		store:  store,
		id:     id,
		opts:   opts,
		logger: logger.With().Str("component", "quote-editor").Str("quote_id", id.String()).Logger(),
		local:  cloneQuote(quote),
	}, nil
}

// Quote returns a copy of the working quote.
func (s *Session) Quote() *model.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneQuote(s.local)
}

// Dirty reports whether there are edits not yet saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edits != s.saved
}

// Err returns the reason the session closed, or nil while it is open.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Edit applies fn to the working quote and recomputes its totals. When fn
// fails the working quote is left unchanged.
func (s *Session) Edit(fn func(q *model.Quote) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed != nil {
		return s.closed
	}

	draft := cloneQuote(s.local)
	if err := fn(draft); err != nil {
		return err
	}
	if err := pricing.ValidateLineItems(draft.Items); err != nil {
		return err
	}
	if err := pricing.ValidateShippingCost(draft.ShippingCost); err != nil {
		return err
	}
	draft.Totals = pricing.Recompute(draft.Items, draft.ShippingCost).Rounded()

	s.local = draft
	s.edits++
	return nil
}

// Refresh re-reads the stored quote and adopts it when there are no unsaved
// edits. It reports whether the working copy was replaced.
func (s *Session) Refresh(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.closed != nil {
		s.mu.Unlock()
		return false, s.closed
	}
	edits, saved := s.edits, s.saved
	s.mu.Unlock()

	stored, err := s.store.GetByID(ctx, s.id)
	if err != nil {
		return false, fmt.Errorf("failed to refresh quote: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.edits != s.saved {
		s.logger.Debug().Msg("refresh skipped, unsaved edits pending")
		return false, nil
	}
	// An edit or save that landed during the read makes stored older than local.
	if s.edits != edits || s.saved != saved {
		s.logger.Debug().Msg("refresh dropped, quote changed while reading")
		return false, nil
	}

	s.local = cloneQuote(stored)
	if !stored.Status.Editable() {
		s.closeLocked(fmt.Errorf("%w: quote is %s", model.ErrQuoteImmutable, stored.Status))
		return true, s.closed
	}
	return true, nil
}

// Flush saves pending edits. A quote that became immutable closes the session.
func (s *Session) Flush(ctx context.Context) error {
	s.saving.Lock()
	defer s.saving.Unlock()

	s.mu.Lock()
	if s.closed != nil {
		s.mu.Unlock()
		return s.closed
	}
	if s.edits == s.saved {
		s.mu.Unlock()
		return nil
	}
	snapshot := cloneQuote(s.local)
	version := s.edits
	s.mu.Unlock()

	saved, err := s.store.Save(ctx, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if errors.Is(err, model.ErrQuoteImmutable) || errors.Is(err, model.ErrQuoteNotFound) {
			s.closeLocked(err)
			return s.closed
		}
		s.logger.Warn().Err(err).Msg("autosave failed, will retry")
		return fmt.Errorf("failed to save quote: %w", err)
	}

	s.saved = version
	if s.edits == version {
		s.local = cloneQuote(saved)
	}
	s.logger.Debug().Uint64("version", version).Msg("quote saved")
	return nil
}

// Run drives the refresh and autosave producers until ctx ends or the
// session closes. Pending edits are flushed when ctx ends.
func (s *Session) Run(ctx context.Context) error {
	refresh := tick(s.opts.RefreshInterval)
	defer refresh.stop()
	autosave := tick(s.opts.AutosaveInterval)
	defer autosave.stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			err := s.Flush(flushCtx)
			cancel()
			if err != nil && !errors.Is(err, ErrSessionClosed) {
				return err
			}
			return ctx.Err()

		case <-refresh.c:
			if _, err := s.Refresh(ctx); err != nil {
				if errors.Is(err, ErrSessionClosed) {
					return err
				}
				s.logger.Warn().Err(err).Msg("refresh failed")
			}

		case <-autosave.c:
			if err := s.Flush(ctx); err != nil && errors.Is(err, ErrSessionClosed) {
				return err
			}
		}
	}
}

func (s *Session) closeLocked(cause error) {
	if s.closed != nil {
		return
	}
	s.closed = fmt.Errorf("%w: %w", ErrSessionClosed, cause)
	s.logger.Info().Err(cause).Msg("edit session closed")
}

type ticker struct {
	t *time.Ticker
	c <-chan time.Time
}

// tick returns a ticker firing every d; a zero d never fires.
func tick(d time.Duration) ticker {
	if d <= 0 {
		return ticker{}
	}
	t := time.NewTicker(d)
	return ticker{t: t, c: t.C}
}

func (t ticker) stop() {
	if t.t != nil {
		t.t.Stop()
	}
}

func cloneQuote(q *model.Quote) *model.Quote {
	c := *q
	c.Items = make([]model.LineItem, len(q.Items))
	for i, item := range q.Items {
		c.Items[i] = item
		if item.Customization != nil {
			v := *item.Customization
			c.Items[i].Customization = &v
		}
	}
	if q.ShippingMethodID != nil {
		v := *q.ShippingMethodID
		c.ShippingMethodID = &v
	}
	if q.Files != nil {
		c.Files = append([]model.QuoteFile(nil), q.Files...)
	}
	return &c
}
