package retrier

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultInitialInterval = 1 * time.Second
	defaultMaxInterval     = 10 * time.Second
	defaultMultiplier      = 1.5
	defaultMaxRetries      = 5
	defaultJitter          = 0.1
)

// ErrExhausted returned (wrapped around the last error) when all attempts failed.
var ErrExhausted = errors.New("retries exhausted")

// Retrier repeats an operation with growing pauses while its error stays retryable.
type Retrier struct {
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
	maxRetries      int
	jitter          float64
	retryIf         func(error) bool
}

// Option defines a function to configure the Retrier.
type Option func(*Retrier)

// WithInitialInterval sets the pause before the first repeat.
func WithInitialInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.initialInterval = d
	}
}

// WithMaxInterval caps the pause between attempts.
func WithMaxInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.maxInterval = d
	}
}

// WithMultiplier sets the pause growth factor.
func WithMultiplier(m float64) Option {
	return func(r *Retrier) {
		r.multiplier = m
	}
}

// WithMaxRetries sets how many times the operation is repeated after the first attempt.
// A negative value repeats until the context is done.
func WithMaxRetries(n int) Option {
	return func(r *Retrier) {
		r.maxRetries = n
	}
}

// WithJitter sets the jitter factor (0.0 to 1.0).
func WithJitter(j float64) Option {
	return func(r *Retrier) {
		r.jitter = j
	}
}

// WithRetryIf limits repeats to errors accepted by fn. Other errors are returned at once.
func WithRetryIf(fn func(error) bool) Option {
	return func(r *Retrier) {
		r.retryIf = fn
	}
}

// New creates a new Retrier with default values and optional overrides.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
		multiplier:      defaultMultiplier,
		maxRetries:      defaultMaxRetries,
		jitter:          defaultJitter,
		retryIf:         func(error) bool { return true },
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Do runs fn until it succeeds, returns a non-retryable error, attempts run out
// or ctx is done.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	interval := r.initialInterval

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !r.retryIf(err) {
			return err
		}
		if r.maxRetries >= 0 && attempt >= r.maxRetries {
			return errors.Wrapf(ErrExhausted, "after %d attempts: %v", attempt+1, err)
		}

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "last error: %v", err)
		case <-time.After(r.pause(interval)):
		}

		interval = time.Duration(float64(interval) * r.multiplier)
		if interval > r.maxInterval {
			interval = r.maxInterval
		}
	}
}

func (r *Retrier) pause(interval time.Duration) time.Duration {
	d := time.Duration(float64(interval) + (rand.Float64()*2-1)*r.jitter*float64(interval))
	if d < 0 {
		return 0
	}
	return d
}

// DoWithData is Do for operations that produce a value.
func DoWithData[T any](ctx context.Context, r *Retrier, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}
