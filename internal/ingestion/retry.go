package ingestion

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Default retry configuration values.
const (
	DefaultRetryInitialInterval = 120 * time.Second
	DefaultRetryMaxInterval     = 600 * time.Second
	DefaultRetryMaxAttempts     = 3
	DefaultRetryMultiplier      = 2.0
)

// RetryPolicy configures exponential backoff between fetch attempts.
type RetryPolicy struct {
	InitialInterval time.Duration `mapstructure:"initial_interval" validate:"gte=0"`
	MaxInterval     time.Duration `mapstructure:"max_interval" validate:"gte=0"`
	MaxAttempts     int           `mapstructure:"max_attempts" validate:"gte=1"`
}

// DefaultRetryPolicy returns the upstream-friendly default policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: DefaultRetryInitialInterval,
		MaxInterval:     DefaultRetryMaxInterval,
		MaxAttempts:     DefaultRetryMaxAttempts,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.Multiplier = DefaultRetryMultiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Retry runs fn until it succeeds, returns a permanent error, the policy
// runs out of attempts or ctx is done. It returns the number of attempts
// made and the last error.
func Retry(ctx context.Context, policy RetryPolicy, logger zerolog.Logger, op string, fn func(ctx context.Context) error) (int, error) {
	attempts := 0
	operation := func() error {
		attempts++
		return fn(ctx)
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn().
			Err(err).
			Str("op", op).
			Int("attempt", attempts).
			Dur("wait", wait).
			Msg("retrying after failure")
	}

	err := backoff.RetryNotify(operation, policy.backOff(ctx), notify)
	return attempts, err
}
