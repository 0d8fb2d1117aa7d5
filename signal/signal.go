// Package signal implements the bus's pub/sub layer (spec §4.8): a
// per-slot watcher mask, the header's 64-entry label→group table, and
// the 64 cache-line-aligned signal-group counters. Grounded on
// original_source/splinter.h's splinter_watch_register/unregister/
// label_register/pulse_watchers/get_signal_count declarations and the
// pulse step at the end of original_source/splinter.c's splinter_set.
package signal

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/splinterhq/libsplinter/errno"
	"github.com/splinterhq/libsplinter/layout"
	"github.com/splinterhq/libsplinter/table"
)

// Pulse runs the end-of-mutation signal step for slot: every group bit
// set in its watcher_mask gets its counter bumped, and every label bit
// set in its bloom gets routed through the header's bloom_watches table
// to a group (skipping unmapped bits). Called after set, integer-op,
// and embedding-set — never after unset (§4.8).
func Pulse(h layout.HeaderView, slot layout.SlotView) {
	mask := bitset.From(u64Words(slot.WatcherMask()))
	for g, ok := mask.NextSet(0); ok; g, ok = mask.NextSet(g + 1) {
		h.IncSignalCounter(int(g))
	}

	bloom := bitset.From(u64Words(slot.Bloom()))
	for b, ok := bloom.NextSet(0); ok; b, ok = bloom.NextSet(b + 1) {
		group := h.BloomWatch(int(b))
		if group < layout.MaxGroups {
			h.IncSignalCounter(int(group))
		}
	}
}

func u64Words(v uint64) []uint64 { return []uint64{v} }

// WatchRegister locates key's slot and ORs (1 << groupID) into its
// watcher_mask.
func WatchRegister(r table.Region, key string, groupID uint8) error {
	if groupID >= layout.MaxGroups {
		return errno.ErrInvalidArgument
	}
	slot, ok := table.Lookup(r, key)
	if !ok {
		return errno.ErrNotFound
	}
	slot.OrWatcherMask(1 << groupID)
	return nil
}

// WatchUnregister locates key's slot and ANDs out (1 << groupID) from
// its watcher_mask.
func WatchUnregister(r table.Region, key string, groupID uint8) error {
	if groupID >= layout.MaxGroups {
		return errno.ErrInvalidArgument
	}
	slot, ok := table.Lookup(r, key)
	if !ok {
		return errno.ErrNotFound
	}
	slot.AndWatcherMask(^(uint64(1) << groupID))
	return nil
}

// WatchLabelRegister maps every set bit in bloomMask to groupID in the
// header's bloom_watches table. Only one group per bit; a later
// registration overwrites an earlier one.
func WatchLabelRegister(h layout.HeaderView, bloomMask uint64, groupID uint8) error {
	if groupID >= layout.MaxGroups {
		return errno.ErrInvalidArgument
	}
	bits := bitset.From(u64Words(bloomMask))
	for b, ok := bits.NextSet(0); ok; b, ok = bits.NextSet(b + 1) {
		h.SetBloomWatch(int(b), uint32(groupID))
	}
	return nil
}

// SignalCount acquire-reads group groupID's counter.
func SignalCount(h layout.HeaderView, groupID uint8) (uint64, error) {
	if groupID >= layout.MaxGroups {
		return 0, errno.ErrInvalidArgument
	}
	return h.SignalCounter(int(groupID)), nil
}
