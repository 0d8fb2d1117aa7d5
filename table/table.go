// Package table implements the open-addressed key→slot mapping over a
// region: FNV-1a-64 hashing, linear probing, and the probe loops used
// by the write-side operations (set/unset/typed ops). It is grounded
// directly on original_source/splinter.c's fnv1a/slot_idx helpers and
// the probing loops inside splinter_set/splinter_unset/splinter_get.
package table

import "github.com/splinterhq/libsplinter/layout"

const (
	fnvOffsetBasis uint64 = 14695981039346656037
	fnvPrime       uint64 = 1099511628211
)

// Hash computes the FNV-1a-64 hash of key, matching splinter.c's fnv1a
// over the key's bytes (the C code hashes a null-terminated string; we
// hash the Go string's bytes directly, which is equivalent since Go
// strings never embed the terminator splinter.c stops at).
func Hash(key string) uint64 {
	h := fnvOffsetBasis
	for i := 0; i < len(key); i++ {
		h = (h ^ uint64(key[i])) * fnvPrime
	}
	return h
}

// NaturalIndex returns the key's natural (unprobed) slot index.
func NaturalIndex(hash uint64, slots uint32) uint32 {
	return uint32(hash % uint64(slots))
}

// Region is the minimal surface table needs from region.Region, kept
// as an interface so table can be tested without mapping real memory.
type Region interface {
	Slots() uint32
	Slot(i uint32) layout.SlotView
}

// keyMatches reports whether slot currently holds key, given its
// precomputed hash.
func keyMatches(slot layout.SlotView, key string, hash uint64) bool {
	return slot.Hash() == hash && slot.Key() == key
}

// Lookup performs a read-path probe: starting at key's natural index,
// scan forward (wrapping) comparing hash then key bytes, stopping on
// the first match or after a full cycle of the table. It does not
// touch the seqlock; callers that need a consistent read still apply
// the seqlock protocol to the slot Lookup returns.
func Lookup(r Region, key string) (layout.SlotView, bool) {
	slots := r.Slots()
	hash := Hash(key)
	idx := NaturalIndex(hash, slots)

	for i := uint32(0); i < slots; i++ {
		slot := r.Slot((idx + i) % slots)
		if keyMatches(slot, key, hash) {
			return slot, true
		}
	}
	return layout.SlotView{}, false
}

// AcquireResult is returned by AcquireForWrite/AcquireExistingForWrite.
type AcquireResult struct {
	Slot  layout.SlotView
	Hash  uint64
	Epoch uint64 // the even epoch the caller now holds as epoch+1
}

// AcquireForWrite implements the insert/update probe rule from §4.3: at
// each candidate, the slot is usable if empty (hash == 0) or holds a
// matching key. A candidate whose seqlock is already held by another
// writer is skipped — never waited on — and probing continues. Returns
// ok=false (capacity exceeded) if a full cycle finds no usable slot.
func AcquireForWrite(r Region, key string) (AcquireResult, bool) {
	slots := r.Slots()
	hash := Hash(key)
	idx := NaturalIndex(hash, slots)

	for i := uint32(0); i < slots; i++ {
		slot := r.Slot((idx + i) % slots)
		slotHash := slot.Hash()
		usable := slotHash == 0 || (slotHash == hash && slot.Key() == key)
		if !usable {
			continue
		}
		e := slot.Epoch()
		if e&1 != 0 {
			continue // writer-held; skip, keep probing
		}
		if !slot.CASEpoch(e, e+1) {
			continue // lost the CAS race; another writer got here first
		}
		return AcquireResult{Slot: slot, Hash: hash, Epoch: e}, true
	}
	return AcquireResult{}, false
}

// AcquireExistingForWrite probes for a slot that already matches key
// (unset, integer-op, set-named-type, embedding-set all need an
// existing slot, never an empty one) and acquires its seqlock. found is
// false if no slot in the table matches key after a full probe; held is
// true if a match was found but its seqlock was writer-held (the
// caller should report writer-in-progress, not not-found).
func AcquireExistingForWrite(r Region, key string) (res AcquireResult, found, held bool) {
	slots := r.Slots()
	hash := Hash(key)
	idx := NaturalIndex(hash, slots)

	for i := uint32(0); i < slots; i++ {
		slot := r.Slot((idx + i) % slots)
		slotHash := slot.Hash()
		if slotHash == 0 {
			continue
		}
		if slotHash != hash || slot.Key() != key {
			continue
		}
		e := slot.Epoch()
		if e&1 != 0 {
			return AcquireResult{}, true, true
		}
		if !slot.CASEpoch(e, e+1) {
			// Lost the race to another writer; report as held rather
			// than resuming the probe past a key we know is present.
			return AcquireResult{}, true, true
		}
		return AcquireResult{Slot: slot, Hash: hash, Epoch: e}, true, false
	}
	return AcquireResult{}, false, false
}
