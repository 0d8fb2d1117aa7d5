// Package maintenance wraps bus.PurgeSlot in a background scheduler
// loop. bits-and-blooms/bloom/v3 is a dependency of the teacher's mesh
// package (kernel/core/mesh/gossip.go uses it for gossip-message
// deduplication with a periodic reset); this package reuses the same
// pattern: Sweep consults the filter before scrubbing each slot, skips
// any slot already marked seen this generation, and resets the filter
// once the pass completes, exactly as gossip.go resets seenFilter on
// its cleanup tick.
package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/splinterhq/libsplinter/bus"
	"github.com/splinterhq/libsplinter/internal/telemetry"
)

// Scheduler runs Sweep (bus.PurgeSlot over every slot) on an interval
// until stopped.
type Scheduler struct {
	b        *bus.Bus
	interval time.Duration
	log      *telemetry.Logger

	mu         sync.Mutex
	generation uint64
	seen       *bloom.BloomFilter
	expected   uint
}

// Config configures a Scheduler.
type Config struct {
	Interval time.Duration
	// ExpectedSlots sizes the per-generation bloom filter; pass the
	// region's slot count for a tight false-positive rate.
	ExpectedSlots uint
	Logger        *telemetry.Logger
}

func NewScheduler(b *bus.Bus, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.ExpectedSlots == 0 {
		cfg.ExpectedSlots = 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.Default("maintenance")
	}
	return &Scheduler{
		b:        b,
		interval: cfg.Interval,
		log:      cfg.Logger,
		expected: cfg.ExpectedSlots,
		seen:     bloom.NewWithEstimates(cfg.ExpectedSlots, 0.01),
	}
}

// Run blocks, calling Sweep every interval, until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("maintenance scheduler stopping")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep advances the purge generation, then walks every slot, scrubbing
// it through bus.PurgeSlot unless AlreadySeen already reports it
// scrubbed this generation — which a collaborator can arrange by
// calling MarkSeen directly (e.g. it just zeroed the slot out-of-band)
// before or during this pass, the same role gossip.go's seenFilter
// plays for inbound messages within one cleanup tick. The skip filter
// itself is reset once the pass completes, ready for the next
// generation.
func (s *Scheduler) Sweep() {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	r := s.b.Region()
	var scrubbed, skipped uint64
	for i := uint32(0); i < r.Slots(); i++ {
		id := SlotID(i, r.Slot(i).Key())
		if s.AlreadySeen(id) {
			skipped++
			continue
		}
		if s.b.PurgeSlot(i) {
			scrubbed++
		}
		s.MarkSeen(id)
	}

	// Reset for the next generation only after this pass has consulted
	// it, so a mark made any time before or during this Sweep call is
	// honored, not just ones made after Sweep already started.
	s.mu.Lock()
	s.seen = bloom.NewWithEstimates(s.expected, 0.01)
	s.mu.Unlock()

	s.log.Info("purge sweep complete",
		telemetry.F("generation", gen),
		telemetry.F("scrubbed", scrubbed),
		telemetry.F("skipped", skipped),
	)
}

// SlotID builds the bloom-filter key Sweep uses to identify slot index
// against MarkSeen/AlreadySeen. The index is always included so
// distinct empty slots (which all share the key "") never collide in
// the filter. A collaborator that scrubs a slot out-of-band and wants
// Sweep to skip it this generation must call MarkSeen(SlotID(i, key)).
func SlotID(index uint32, key string) string {
	return fmt.Sprintf("%d:%s", index, key)
}

// MarkSeen records that slotKey was scrubbed this generation, letting a
// caller driving its own iteration — or Sweep's own loop — skip a
// redundant zero-pass.
func (s *Scheduler) MarkSeen(slotKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen.Add([]byte(slotKey))
}

// AlreadySeen reports whether slotKey was (probably) marked seen this
// generation. False positives are possible (it is a bloom filter);
// false negatives are not.
func (s *Scheduler) AlreadySeen(slotKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen.Test([]byte(slotKey))
}

func (s *Scheduler) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("maintenance.Scheduler(generation=%d, interval=%s)", s.generation, s.interval)
}
