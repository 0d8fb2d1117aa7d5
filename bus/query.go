package bus

import (
	"errors"
	"time"

	"github.com/splinterhq/libsplinter/errno"
	"github.com/splinterhq/libsplinter/seqlock"
	"github.com/splinterhq/libsplinter/table"
)

// pollInterval is the sleep step between epoch re-checks, matching
// splinter_poll's 10ms nanosleep.
const pollInterval = 10 * time.Millisecond

// ErrPollTimeout is returned by Poll when its deadline elapses without
// the watched slot's epoch changing. It is not part of the general
// errno taxonomy since it only ever comes from Poll.
var ErrPollTimeout = errors.New("bus: poll deadline exceeded")

// Poll waits until key's slot epoch changes to a different even value,
// or timeout elapses. An odd epoch at the first observation fails
// immediately with writer-in-progress rather than waiting for it to
// clear, matching splinter_poll.
func (b *Bus) Poll(key string, timeout time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}
	slot, found := table.Lookup(b.r, key)
	if !found {
		return errno.ErrNotFound
	}

	start := slot.Epoch()
	if seqlock.IsWriterActive(start) {
		return errno.ErrWriterInProgress
	}

	deadline := time.Now().Add(timeout)
	for {
		cur := slot.Epoch()
		if seqlock.IsWriterActive(cur) {
			return errno.ErrWriterInProgress
		}
		if cur != start {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrPollTimeout
		}
		time.Sleep(pollInterval)
	}
}

// GetEpoch returns key's slot epoch, or 0 if the key is not present
// (occupied slots always carry a non-zero epoch after their first
// write, so 0 is an unambiguous absence signal).
func (b *Bus) GetEpoch(key string) uint64 {
	slot, found := table.Lookup(b.r, key)
	if !found {
		return 0
	}
	return slot.Epoch()
}

// PeekRaw returns a direct slice into the arena for key's current
// value, plus the epoch observed at lookup time, with no seqlock
// protection. Callers must re-read the epoch after consuming bytes and
// discard the read if it changed or is odd; this is the low-level
// primitive for zero-copy consumers, grounded on splinter_get_raw_ptr.
func (b *Bus) PeekRaw(key string) (data []byte, epoch uint64, err error) {
	if err := validateKey(key); err != nil {
		return nil, 0, err
	}
	slot, found := table.Lookup(b.r, key)
	if !found {
		return nil, 0, errno.ErrNotFound
	}
	e := slot.Epoch()
	n := slot.ValLen()
	return slot.Value(n), e, nil
}
