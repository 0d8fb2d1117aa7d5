// Package lifecycle coordinates orderly shutdown of the components a
// process wires together around a bus: a maintenance scheduler, the
// bus's own region handle, anything else with a Close-like method.
// Grounded on _examples/nmxmxh-inos_v1/kernel/utils/graceful.go's GracefulShutdown —
// same register/run-in-reverse/timeout shape, adapted to this port's
// telemetry logger and with the WASM-facing bits dropped.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/splinterhq/libsplinter/internal/ids"
	"github.com/splinterhq/libsplinter/internal/telemetry"
)

// Shutdown runs registered stop functions concurrently when asked,
// bounded by a timeout, logging failures rather than aborting the rest.
type Shutdown struct {
	mu      sync.Mutex
	fns     []func() error
	labels  []string
	timeout time.Duration
	log     *telemetry.Logger
	tag     string
}

// New returns a Shutdown bounded by timeout. A nil logger gets the
// package default logger.
func New(timeout time.Duration, log *telemetry.Logger) *Shutdown {
	if log == nil {
		log = telemetry.Default("lifecycle")
	}
	return &Shutdown{timeout: timeout, log: log, tag: ids.New()[:8]}
}

// Register adds fn to the stop list under label (used only in logs).
// Stop starts the functions' goroutines in reverse registration order,
// but they run concurrently: no function waits for another to finish,
// so the order in which they complete is not defined.
func (s *Shutdown) Register(label string, fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = append(s.fns, fn)
	s.labels = append(s.labels, label)
}

// Stop runs every registered function concurrently, launching them in
// reverse registration order, and waits up to s.timeout for all of them
// to return. It collects every error rather than stopping at the first.
func (s *Shutdown) Stop(ctx context.Context) error {
	s.mu.Lock()
	fns := append([]func() error(nil), s.fns...)
	labels := append([]string(nil), s.labels...)
	s.mu.Unlock()

	s.log.Info("shutdown starting", telemetry.F("instance", s.tag), telemetry.F("components", len(fns)))

	stopCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, len(fns))
	for i := len(fns) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(label string, fn func() error) {
			defer wg.Done()
			if err := fn(); err != nil {
				s.log.Error("component shutdown failed", telemetry.F("component", label), telemetry.F("error", err.Error()))
				errCh <- fmt.Errorf("%s: %w", label, err)
			}
		}(labels[i], fns[i])
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		close(errCh)
		var errs []error
		for err := range errCh {
			errs = append(errs, err)
		}
		if len(errs) > 0 {
			return fmt.Errorf("lifecycle: %d component(s) failed to shut down cleanly: %v", len(errs), errs)
		}
		s.log.Info("shutdown complete", telemetry.F("instance", s.tag))
		return nil
	case <-stopCtx.Done():
		return fmt.Errorf("lifecycle: shutdown timed out after %s", s.timeout)
	}
}
