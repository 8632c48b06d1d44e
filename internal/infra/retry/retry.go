// Package retry re-runs failed persistence writes with exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/t-race/typerace/internal/domain"
	"github.com/t-race/typerace/internal/infra/metrics"
	"github.com/t-race/typerace/internal/logger"
)

// Config configures the backoff.
type Config struct {
	MaxRetries int           // Attempts after the first; 0 disables retrying
	BaseDelay  time.Duration // Initial backoff delay (doubles each retry)
	MaxDelay   time.Duration // Cap on backoff delay
}

// DefaultConfig returns production retry defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 2,
		BaseDelay:  50 * time.Millisecond,
		MaxDelay:   2 * time.Second,
	}
}

// Backoff returns the delay before retry number attempt (1-based):
// BaseDelay * 2^(attempt-1), capped at MaxDelay.
func (c Config) Backoff(attempt int) time.Duration {
	delay := c.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if c.MaxDelay > 0 && delay > c.MaxDelay {
			return c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

// Permanent reports whether err must not be retried: domain outcomes and
// cancellation are final, anything else is treated as transient I/O.
func Permanent(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.Is(err, domain.ErrDuplicateBadge),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrInvalidSample),
		errors.Is(err, domain.ErrUnsupportedCriterion):
		return true
	}
	return false
}

// Do runs fn until it succeeds, fails permanently, ctx ends, or
// MaxRetries retries are spent. The last error is returned.
func Do(ctx context.Context, cfg Config, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil || Permanent(err) || attempt >= cfg.MaxRetries {
			return err
		}

		delay := cfg.Backoff(attempt + 1)
		metrics.StoreRetries.WithLabelValues(op).Inc()
		logger.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).
			Dur("backoff", delay).Msg("retrying store write")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}
