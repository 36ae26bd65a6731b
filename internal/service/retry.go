package service

import (
	"context"
	"errors"
	"time"

	"storefront/internal/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Retrier retries transient collaborator failures with exponential backoff.
// Domain errors, validation errors and cancellation are never retried.
type Retrier struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// NewRetrier returns a Retrier allowing maxRetries retries after the first attempt.
func NewRetrier(maxRetries int) Retrier {
	return Retrier{
		MaxRetries:      maxRetries,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

func (r Retrier) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.InitialInterval
	if r.MaxInterval > 0 {
		b.MaxInterval = r.MaxInterval
	}
	b.MaxElapsedTime = 0

	retries := r.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// retryFetch runs fetch until it succeeds, fails permanently or retries run out.
func retryFetch[T any](ctx context.Context, r Retrier, logger zerolog.Logger, what string, fetch func(ctx context.Context) (T, error)) (T, error) {
	operation := func() (T, error) {
		v, err := fetch(ctx)
		if err != nil && !isTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	notify := func(err error, next time.Duration) {
		logger.Warn().
			Err(err).
			Str("fetch", what).
			Dur("retry_in", next).
			Msg("transient fetch failure, retrying")
	}

	return backoff.RetryNotifyWithData(operation, r.policy(ctx), notify)
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		return false
	}

	var validationErr *model.ValidationError
	return !errors.As(err, &validationErr)
}
