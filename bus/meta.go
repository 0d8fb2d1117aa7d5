package bus

import (
	"github.com/splinterhq/libsplinter/errno"
	"github.com/splinterhq/libsplinter/seqlock"
	"github.com/splinterhq/libsplinter/table"
)

// TimeMode selects which timestamp field SetSlotTime updates.
type TimeMode int

const (
	TimeCTime TimeMode = iota
	TimeATime
)

// SetSlotTime stores timestamp-offset into key's ctime or atime field
// under a consistent even-epoch observation. offset lets a client
// compensate for clock-read latency incurred after the write it is
// annotating. Does not bump the global epoch, matching
// splinter_set_slot_time.
func (b *Bus) SetSlotTime(key string, mode TimeMode, timestamp, offset uint64) error {
	slot, found := table.Lookup(b.r, key)
	if !found {
		return errno.ErrNotFound
	}
	start := slot.Epoch()
	if seqlock.IsWriterActive(start) {
		return errno.ErrWriterInProgress
	}

	value := timestamp - offset
	switch mode {
	case TimeCTime:
		slot.SetCTime(value)
	case TimeATime:
		slot.SetATime(value)
	default:
		return errno.ErrInvalidArgument
	}
	return nil
}

// SetLabel ORs mask into key's bloom bitset. Does not require the
// seqlock — labels are additive and read independently by Pulse.
func (b *Bus) SetLabel(key string, mask uint64) error {
	slot, found := table.Lookup(b.r, key)
	if !found {
		return errno.ErrNotFound
	}
	slot.OrBloom(mask)
	b.r.Header().BumpEpoch()
	return nil
}
