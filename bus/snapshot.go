package bus

import (
	"github.com/splinterhq/libsplinter/errno"
	"github.com/splinterhq/libsplinter/layout"
	"github.com/splinterhq/libsplinter/seqlock"
	"github.com/splinterhq/libsplinter/table"
)

// HeaderSnapshot is a stable, field-by-field copy of the region header.
// Unlike a slot snapshot, header fields are independent of one another
// so no retry loop is needed, matching splinter_get_header_snapshot.
type HeaderSnapshot struct {
	Slots            uint32
	MaxValSz         uint32
	ValSz            uint32
	ValBrk           uint32
	Epoch            uint64
	CoreFlags        uint32
	UserFlags        uint32
	ParseFailures    uint64
	LastFailureEpoch uint64
}

// HeaderSnapshot copies the current header fields.
func (b *Bus) HeaderSnapshot() HeaderSnapshot {
	h := b.r.Header()
	return HeaderSnapshot{
		Slots:            h.Slots(),
		MaxValSz:         h.MaxValSz(),
		ValSz:            h.ValSz(),
		ValBrk:           h.ValBrk(),
		Epoch:            h.Epoch(),
		CoreFlags:        h.CoreFlags(),
		UserFlags:        h.UserFlags(),
		ParseFailures:    h.ParseFailures(),
		LastFailureEpoch: h.LastFailureEpoch(),
	}
}

// SlotSnapshot is a stable copy of one slot's metadata and value,
// produced by looping on the seqlock until a consecutive odd-free
// read agrees, matching splinter_get_slot_snapshot.
type SlotSnapshot struct {
	Hash      uint64
	Epoch     uint64
	Key       string
	Value     []byte
	TypeFlag  layout.TypeTag
	UserFlag  uint32
	CTime     uint64
	ATime     uint64
	Embedding []float32
}

// SlotSnapshot captures key's slot, retrying internally until it
// observes a consistent (non-torn) read.
func (b *Bus) SlotSnapshot(key string) (SlotSnapshot, error) {
	slot, found := table.Lookup(b.r, key)
	if !found {
		return SlotSnapshot{}, errno.ErrNotFound
	}

	for {
		begin, ok := seqlock.ReadBegin(slot)
		if !ok {
			continue
		}
		snap := SlotSnapshot{
			Hash:     slot.Hash(),
			Epoch:    begin,
			Key:      slot.Key(),
			TypeFlag: slot.TypeFlag(),
			UserFlag: slot.UserFlag(),
			CTime:    slot.CTime(),
			ATime:    slot.ATime(),
		}
		snap.Value = append([]byte(nil), slot.Value(slot.ValLen())...)
		if slot.HasEmbedding() {
			snap.Embedding = append([]float32(nil), slot.Embedding()...)
		}
		if seqlock.ReadEnd(slot, begin) {
			return snap, nil
		}
	}
}

// SetAutoScrub toggles Full-mode auto-scrub. Disabling it also clears
// the hybrid bit, matching §4.7's "clearing also clears HYBRID_SCRUB".
func (b *Bus) SetAutoScrub(enable bool) {
	h := b.r.Header()
	if enable {
		h.SetCoreFlagsBits(layout.FlagAutoScrub)
		h.ClearCoreFlagsBits(layout.FlagHybridScrub)
	} else {
		h.ClearCoreFlagsBits(layout.FlagAutoScrub | layout.FlagHybridScrub)
	}
}

// GetAutoScrub tests the AUTO_SCRUB bit.
func (b *Bus) GetAutoScrub() bool {
	return b.r.Header().CoreFlags()&layout.FlagAutoScrub != 0
}

// SetHybridAutoScrub atomically sets both AUTO_SCRUB and HYBRID_SCRUB.
func (b *Bus) SetHybridAutoScrub() {
	b.r.Header().SetCoreFlagsBits(layout.FlagAutoScrub | layout.FlagHybridScrub)
}

// GetHybridAutoScrub tests the HYBRID_SCRUB bit.
func (b *Bus) GetHybridAutoScrub() bool {
	return b.r.Header().CoreFlags()&layout.FlagHybridScrub != 0
}

// PurgeSlot scrubs a single slot exactly as Purge does for each of its
// slots: if the slot is not currently writer-held, it acquires the
// seqlock and zeroes either the full value region (empty slot) or only
// the tail bytes past val_len (occupied slot), then releases. It
// reports whether the scrub ran; a writer-held slot is skipped, never
// waited on, and reported as not-run.
func (b *Bus) PurgeSlot(i uint32) bool {
	slot := b.r.Slot(i)
	if _, ok := seqlock.TryAcquire(slot); !ok {
		return false
	}
	ceiling := b.r.MaxValSz()
	if remaining := b.r.ArenaSize() - uint64(slot.ValOff()); remaining < uint64(ceiling) {
		ceiling = uint32(remaining)
	}
	if slot.Hash() == 0 {
		slot.ScrubValue(0, ceiling)
	} else if length := slot.ValLen(); length < ceiling {
		slot.ScrubValue(length, ceiling-length)
	}
	seqlock.Publish(slot)
	return true
}

// Purge walks every slot and calls PurgeSlot on it, matching the
// reference purge routine.
func (b *Bus) Purge() {
	for i := uint32(0); i < b.r.Slots(); i++ {
		b.PurgeSlot(i)
	}
}
