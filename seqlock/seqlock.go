// Package seqlock implements the per-slot sequence-counter discipline
// from spec §4.2: even epoch means quiescent, odd means a writer holds
// the slot. Writers that cannot acquire a slot must not block; they
// report failure so the caller (the table package's probe loop) moves
// on to the next candidate. This mirrors original_source/splinter.c's
// splinter_set/splinter_get directly — the CAS-to-odd, release-publish,
// acquire-reread shape is unchanged, just generalized to any
// layout.SlotView.
package seqlock

import "github.com/splinterhq/libsplinter/layout"

// TryAcquire attempts the writer's even-to-odd transition. It returns
// the even epoch that was observed (the writer now holds epoch+1) and
// true on success. On failure (another writer is active, or a
// concurrent CAS beat this one to it) it returns false; the caller must
// not retry this slot and must not block — it probes onward.
func TryAcquire(s layout.SlotView) (epoch uint64, ok bool) {
	cur := s.Epoch()
	if cur&1 != 0 {
		return 0, false
	}
	if !s.CASEpoch(cur, cur+1) {
		return 0, false
	}
	return cur, true
}

// Publish performs the writer's release increment from the held odd
// epoch back to quiescent. Call this only after every payload field
// (key, value bytes, length, type, metadata) has been written.
func Publish(s layout.SlotView) { s.AddEpoch(1) }

// Abort releases a held slot without publishing new content, used when
// a writer acquires the seqlock and then discovers it cannot proceed
// (e.g. set's arena range check fails after acquisition). It performs
// the same release increment as Publish; the slot's payload is left
// exactly as it was before acquisition.
func Abort(s layout.SlotView) { Publish(s) }

// ReadBegin starts a reader's seqlock read. It returns the observed
// epoch and whether it was safe to proceed (even). If ok is false, the
// caller must report a writer-in-progress condition immediately without
// reading payload fields.
func ReadBegin(s layout.SlotView) (epoch uint64, ok bool) {
	e := s.Epoch()
	return e, e&1 == 0
}

// ReadEnd re-reads the epoch after the reader has copied whatever
// fields it needed and reports whether the snapshot was consistent: the
// epoch must be unchanged from the value ReadBegin returned (and so
// still even, transitively).
func ReadEnd(s layout.SlotView, begin uint64) (consistent bool) {
	return s.Epoch() == begin
}

// IsWriterActive reports whether epoch represents an odd, writer-held
// state.
func IsWriterActive(epoch uint64) bool { return epoch&1 != 0 }
