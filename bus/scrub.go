package bus

import "github.com/splinterhq/libsplinter/layout"

// scrubPolicy mirrors the three auto-scrub modes of §4.7, derived from
// core_flags: AUTO_SCRUB clear means Off; AUTO_SCRUB set with
// HYBRID_SCRUB clear means Full; both set means Hybrid.
type scrubPolicy int

const (
	scrubOff scrubPolicy = iota
	scrubFull
	scrubHybrid
)

func currentScrubPolicy(h layout.HeaderView) scrubPolicy {
	flags := h.CoreFlags()
	if flags&layout.FlagAutoScrub == 0 {
		return scrubOff
	}
	if flags&layout.FlagHybridScrub != 0 {
		return scrubHybrid
	}
	return scrubFull
}

func roundUp64(n uint32) uint32 {
	return (n + 63) &^ 63
}

// scrubWidth returns how many bytes at the slot's value offset the
// active policy wants zeroed before a write of newLen bytes, capped by
// both max_val_sz and whatever room remains in the arena past val_off
// (a promoted BIGUINT slot's val_off may sit close to the arena's end).
func scrubWidth(policy scrubPolicy, newLen, maxValSz uint32, arenaRemaining uint64) uint32 {
	var want uint32
	switch policy {
	case scrubOff:
		return 0
	case scrubHybrid:
		want = roundUp64(newLen)
		if want > maxValSz {
			want = maxValSz
		}
	case scrubFull:
		want = maxValSz
	}
	if uint64(want) > arenaRemaining {
		want = uint32(arenaRemaining)
	}
	return want
}

// scrubSlotValue zeroes scrubWidth(...) bytes at the slot's current
// val_off ahead of a write or on unset.
func scrubSlotValue(s layout.SlotView, policy scrubPolicy, newLen, maxValSz uint32, arenaSize uint64) {
	remaining := arenaSize - uint64(s.ValOff())
	width := scrubWidth(policy, newLen, maxValSz, remaining)
	if width == 0 {
		return
	}
	s.ScrubValue(0, width)
}
