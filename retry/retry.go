// Package retry wraps bus calls that can return a retryable condition
// (writer-in-progress, torn-snapshot) in a bounded backoff loop guarded
// by a circuit breaker. sony/gobreaker is declared in the teacher's
// go.mod but never exercised by its copied kernel code; this package
// gives it a home: a client hammering a hot key during sustained
// contention trips the breaker instead of spinning forever.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/splinterhq/libsplinter/errno"
	"github.com/splinterhq/libsplinter/internal/ids"
	"github.com/sony/gobreaker"
)

// Policy configures the retry loop.
type Policy struct {
	// MaxAttempts bounds how many times Do calls fn before giving up.
	MaxAttempts int
	// Backoff is the sleep between attempts. Zero means no sleep.
	Backoff time.Duration
	// Breaker trips after enough consecutive failures reach the
	// circuit breaker's own thresholds; nil disables breaker tracking.
	Breaker *gobreaker.CircuitBreaker
}

// DefaultPolicy returns a policy with a breaker tuned for short,
// bursty retry loops against a single contended key: it trips after 5
// consecutive failures and probes again after a short cooldown.
func DefaultPolicy(name string) Policy {
	if name == "" {
		name = "breaker-" + ids.New()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     200 * time.Millisecond,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return Policy{MaxAttempts: 20, Backoff: time.Millisecond, Breaker: cb}
}

// Do calls fn until it returns a non-retryable result: nil error, or an
// error that errno.Retryable reports as terminal. It stops early if ctx
// is cancelled, MaxAttempts is exhausted, or the circuit breaker is
// open. The last error observed is returned.
func Do(ctx context.Context, p Policy, fn func() error) error {
	attempt := func() error {
		if p.Breaker == nil {
			return fn()
		}
		_, err := p.Breaker.Execute(func() (interface{}, error) {
			return nil, fn()
		})
		return err
	}

	var last error
	max := p.MaxAttempts
	if max <= 0 {
		max = 1
	}
	for i := 0; i < max; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := attempt()
		if err == nil {
			return nil
		}
		last = err
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return err
		}
		if !errno.Retryable(err) {
			return err
		}
		if p.Backoff > 0 {
			select {
			case <-time.After(p.Backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return last
}
