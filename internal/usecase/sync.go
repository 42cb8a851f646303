package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/polkiloo/dispatchboard/internal/config"
	domainErrors "github.com/polkiloo/dispatchboard/internal/domain/errors"
)

const (
	defaultSyncTimeout = 5 * time.Second
	defaultSyncBackoff = 200 * time.Millisecond
)

// SyncOptions bounds every remote write.
type SyncOptions struct {
	// Timeout applies to each attempt separately.
	Timeout time.Duration
	// Retries is the number of extra attempts after the first failure.
	Retries int
	// Backoff is multiplied by the attempt number before each retry.
	Backoff time.Duration
}

// SyncOptionsFromConfig reads the sync settings of cfg.
func SyncOptionsFromConfig(cfg *config.Config) SyncOptions {
	return SyncOptions{Timeout: cfg.SyncTimeout, Retries: cfg.SyncRetries, Backoff: defaultSyncBackoff}
}

func (o SyncOptions) normalized() SyncOptions {
	if o.Timeout <= 0 {
		o.Timeout = defaultSyncTimeout
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	return o
}

// retry calls fn until it succeeds, fails permanently or runs out of attempts.
func retry[T any](ctx context.Context, opts SyncOptions, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 && opts.Backoff > 0 {
			timer := time.NewTimer(opts.Backoff * time.Duration(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
		attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		res, err := fn(attemptCtx, attempt)
		cancel()
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
	}
	return zero, lastErr
}

func retryable(err error) bool {
	return !errors.Is(err, domainErrors.ErrNotFound) &&
		!errors.Is(err, domainErrors.ErrValidation) &&
		!errors.Is(err, domainErrors.ErrAlreadyExists) &&
		!errors.Is(err, domainErrors.ErrInvalidState)
}
