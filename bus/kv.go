package bus

import (
	"github.com/splinterhq/libsplinter/errno"
	"github.com/splinterhq/libsplinter/layout"
	"github.com/splinterhq/libsplinter/seqlock"
	"github.com/splinterhq/libsplinter/signal"
	"github.com/splinterhq/libsplinter/table"
)

// Set stores value under key, creating or overwriting the slot.
// Grounded on original_source/splinter.c's splinter_set: validate
// length, probe for a usable slot (§4.3), scrub per the active policy,
// write value then key then hash, release, bump the global epoch, and
// pulse subscribers.
func (b *Bus) Set(key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if len(value) == 0 {
		return errno.ErrInvalidArgument
	}
	if uint32(len(value)) > b.r.MaxValSz() {
		return errno.ErrCapacityExceeded
	}

	res, ok := table.AcquireForWrite(b.r, key)
	if !ok {
		return errno.ErrCapacityExceeded
	}
	slot := res.Slot

	if uint64(slot.ValOff())+uint64(len(value)) > b.r.ArenaSize() {
		seqlock.Abort(slot)
		return errno.ErrCapacityExceeded
	}

	h := b.r.Header()
	scrubSlotValue(slot, currentScrubPolicy(h), uint32(len(value)), b.r.MaxValSz(), b.r.ArenaSize())

	copy(slot.Value(uint32(len(value))), value)
	slot.SetValLen(uint32(len(value)))
	slot.SetKey(key)
	slot.SetHash(res.Hash)

	seqlock.Publish(slot)
	h.BumpEpoch()
	signal.Pulse(h, slot)
	return nil
}

// Get reads key's current value under the seqlock. If buf is nil, only
// the length is reported. A buf shorter than the value fails with
// buffer-too-small (the length is still returned). Writer-in-progress
// and torn-snapshot observations are reported as distinct retryable
// errors so callers can choose their own backoff.
func (b *Bus) Get(key string, buf []byte) (out []byte, n uint32, err error) {
	if err := validateKey(key); err != nil {
		return nil, 0, err
	}
	slot, found := table.Lookup(b.r, key)
	if !found {
		return nil, 0, errno.ErrNotFound
	}

	begin, ok := seqlock.ReadBegin(slot)
	if !ok {
		return nil, 0, errno.ErrWriterInProgress
	}
	length := slot.ValLen()
	if buf != nil && uint32(len(buf)) < length {
		if !seqlock.ReadEnd(slot, begin) {
			return nil, 0, errno.ErrTornSnapshot
		}
		return nil, length, errno.ErrBufferTooSmall
	}

	var dst []byte
	if buf != nil {
		dst = buf[:length]
		copy(dst, slot.Value(length))
	} else {
		dst = append([]byte(nil), slot.Value(length)...)
	}

	if !seqlock.ReadEnd(slot, begin) {
		return nil, 0, errno.ErrTornSnapshot
	}
	return dst, length, nil
}

// Unset deletes key's slot, returning the length the slot held. Grounded
// on splinter_unset: publish hash = 0 first, then (scrub policy
// permitting) zero the key and value bytes, reset metadata, and bump
// the seqlock by 2 so the slot never passes through a visible odd
// state beyond the one CAS transition. No signal pulse.
func (b *Bus) Unset(key string) (uint32, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	res, found, held := table.AcquireExistingForWrite(b.r, key)
	if held {
		return 0, errno.ErrWriterInProgress
	}
	if !found {
		return 0, errno.ErrNotFound
	}
	slot := res.Slot
	length := slot.ValLen()

	slot.SetHash(0)

	if currentScrubPolicy(b.r.Header()) != scrubOff {
		slot.ScrubKey()
		width := b.r.MaxValSz()
		if remaining := b.r.ArenaSize() - uint64(slot.ValOff()); remaining < uint64(width) {
			width = uint32(remaining)
		}
		slot.ScrubValue(0, width)
	}
	slot.SetTypeFlag(layout.TypeVoid)
	slot.SetValLen(0)
	slot.SetCTime(0)
	slot.SetATime(0)
	slot.SetUserFlag(0)
	slot.SetWatcherMask(0)
	slot.SetBloom(0)

	seqlock.Publish(slot)
	return length, nil
}

// List reports up to max keys currently occupied (hash != 0, a positive
// value length). No ordering is guaranteed, matching splinter_list.
func (b *Bus) List(max int) []string {
	slots := b.r.Slots()
	keys := make([]string, 0, max)
	for i := uint32(0); i < slots && len(keys) < max; i++ {
		slot := b.r.Slot(i)
		if slot.Hash() != 0 && slot.ValLen() > 0 {
			keys = append(keys, slot.Key())
		}
	}
	return keys
}
