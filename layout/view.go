package layout

// HeaderView is a typed accessor over the header bytes of a mapped
// region. It does no bounds validation beyond what its constructor's
// caller already performed by sizing buf correctly; region.Region is
// the only expected constructor caller.
type HeaderView struct {
	buf []byte
}

// NewHeaderView wraps buf (the whole region) as a header view. buf must
// be at least HeaderSize bytes.
func NewHeaderView(buf []byte) HeaderView { return HeaderView{buf: buf} }

func (h HeaderView) Magic() uint32      { return loadU32(h.buf, hdrMagicOff) }
func (h HeaderView) SetMagic(v uint32)  { storeU32(h.buf, hdrMagicOff, v) }
func (h HeaderView) Version() uint32    { return loadU32(h.buf, hdrVersionOff) }
func (h HeaderView) SetVersion(v uint32) { storeU32(h.buf, hdrVersionOff, v) }
func (h HeaderView) Slots() uint32      { return loadU32(h.buf, hdrSlotsOff) }
func (h HeaderView) SetSlots(v uint32)  { storeU32(h.buf, hdrSlotsOff, v) }
func (h HeaderView) MaxValSz() uint32   { return loadU32(h.buf, hdrMaxValSzOff) }
func (h HeaderView) SetMaxValSz(v uint32) { storeU32(h.buf, hdrMaxValSzOff, v) }
func (h HeaderView) ValSz() uint32      { return loadU32(h.buf, hdrValSzOff) }
func (h HeaderView) SetValSz(v uint32)  { storeU32(h.buf, hdrValSzOff, v) }

func (h HeaderView) ValBrk() uint32 { return loadU32(h.buf, hdrValBrkOff) }

// TryBumpValBrk attempts to atomically advance val_brk by delta,
// returning the pre-bump offset to use as the fresh region's start.
// Fails if the bump would exceed ceiling (the arena's total size).
func (h HeaderView) TryBumpValBrk(delta, ceiling uint32) (offset uint32, ok bool) {
	for {
		cur := h.ValBrk()
		next := cur + delta
		if next > ceiling || next < cur {
			return 0, false
		}
		if casU32(h.buf, hdrValBrkOff, cur, next) {
			return cur, true
		}
	}
}

func (h HeaderView) Epoch() uint64 { return loadU64(h.buf, hdrEpochOff) }

// BumpEpoch performs the relaxed global epoch increment that follows
// every successful mutation (§4.4). It is not the per-slot seqlock;
// it is the header's own monotone change counter.
func (h HeaderView) BumpEpoch() uint64 { return addU64(h.buf, hdrEpochOff, 1) }

func (h HeaderView) CoreFlags() uint32 { return loadU32(h.buf, hdrCoreFlagsOff) }

// SetCoreFlagsBits ORs mask into core_flags and returns the new value.
func (h HeaderView) SetCoreFlagsBits(mask uint32) uint32 {
	for {
		cur := h.CoreFlags()
		next := cur | mask
		if cur == next || casU32(h.buf, hdrCoreFlagsOff, cur, next) {
			return next
		}
	}
}

// ClearCoreFlagsBits ANDs out mask from core_flags and returns the new
// value.
func (h HeaderView) ClearCoreFlagsBits(mask uint32) uint32 {
	for {
		cur := h.CoreFlags()
		next := cur &^ mask
		if cur == next || casU32(h.buf, hdrCoreFlagsOff, cur, next) {
			return next
		}
	}
}

func (h HeaderView) EmbeddingsEnabled() bool {
	return h.CoreFlags()&flagEmbeddings != 0
}

// SetEmbeddingsEnabled is only ever called once, at creation, before the
// region is published to other processes.
func (h HeaderView) SetEmbeddingsEnabled(v bool) {
	if v {
		h.SetCoreFlagsBits(flagEmbeddings)
	} else {
		h.ClearCoreFlagsBits(flagEmbeddings)
	}
}

func (h HeaderView) UserFlags() uint32     { return loadU32(h.buf, hdrUserFlagsOff) }
func (h HeaderView) SetUserFlags(v uint32) { storeU32(h.buf, hdrUserFlagsOff, v) }

func (h HeaderView) ParseFailures() uint64    { return loadU64(h.buf, hdrParseFailuresOff) }
func (h HeaderView) IncParseFailures() uint64 { return addU64(h.buf, hdrParseFailuresOff, 1) }

func (h HeaderView) LastFailureEpoch() uint64 { return loadU64(h.buf, hdrLastFailureEpochOff) }
func (h HeaderView) SetLastFailureEpoch(v uint64) {
	storeU64(h.buf, hdrLastFailureEpochOff, v)
}

func bloomWatchOff(b int) uint64 {
	return hdrBloomWatchesOff + uint64(b)*hdrBloomWatchesEntrySize
}

// BloomWatch returns the signal group mapped to label bit b, or
// UnmappedGroup if none is mapped.
func (h HeaderView) BloomWatch(b int) uint32 { return loadU32(h.buf, bloomWatchOff(b)) }

// SetBloomWatch maps label bit b to group (or UnmappedGroup to clear
// it). Only one group per bit; a later registration overwrites.
func (h HeaderView) SetBloomWatch(b int, group uint32) { storeU32(h.buf, bloomWatchOff(b), group) }

// InitBloomWatches sets every label bit to the unmapped sentinel. Called
// once at region creation so unmapped bits never alias group 0.
func (h HeaderView) InitBloomWatches() {
	for b := 0; b < MaxGroups; b++ {
		h.SetBloomWatch(b, UnmappedGroup)
	}
}

func signalGroupOff(g int) uint64 {
	return hdrSignalGroupsOff + uint64(g)*signalGroupStride
}

// SignalCounter acquire-reads group g's counter.
func (h HeaderView) SignalCounter(g int) uint64 { return loadU64(h.buf, signalGroupOff(g)) }

// IncSignalCounter release-increments group g's counter and returns the
// new value.
func (h HeaderView) IncSignalCounter(g int) uint64 {
	return addU64(h.buf, signalGroupOff(g), 1)
}

// SlotView is a typed accessor over one slot record plus the span of
// the value arena assigned to it. Multiple SlotView values over the
// same region alias the same backing array; there is no per-view state
// beyond offsets.
type SlotView struct {
	buf         []byte
	base        uint64
	valuesBase  uint64
	embeddings  bool
}

// NewSlotView constructs a view for slot index i.
func NewSlotView(buf []byte, i uint32, slotSize uint32, valuesBase uint64, embeddings bool) SlotView {
	return SlotView{
		buf:        buf,
		base:       SlotOffset(i, slotSize),
		valuesBase: valuesBase,
		embeddings: embeddings,
	}
}

func (s SlotView) Hash() uint64     { return loadU64(s.buf, s.base+slotHashOff) }
func (s SlotView) SetHash(v uint64) { storeU64(s.buf, s.base+slotHashOff, v) }

func (s SlotView) Epoch() uint64 { return loadU64(s.buf, s.base+slotEpochOff) }

// CASEpoch performs the seqlock's atomic transition from old to new.
func (s SlotView) CASEpoch(old, new uint64) bool {
	return casU64(s.buf, s.base+slotEpochOff, old, new)
}

// AddEpoch performs a plain fetch-add, used for the publish step (which
// does not need to fail).
func (s SlotView) AddEpoch(delta uint64) uint64 {
	return addU64(s.buf, s.base+slotEpochOff, delta)
}

// ValOff and ValLen, along with the key/value/embedding bytes, are
// mutated only while the caller holds the seqlock (an odd per-slot
// epoch it owns exclusively via CASEpoch). ValOff and ValLen are read
// and written with atomic 32-bit loads/stores; the key, value and
// embedding bytes are plain loads/stores. Readers rely on the epoch's
// seqlock pair, not on these accesses, for a consistent snapshot.
func (s SlotView) ValOff() uint32     { return loadU32(s.buf, s.base+slotValOffOff) }
func (s SlotView) SetValOff(v uint32) { storeU32(s.buf, s.base+slotValOffOff, v) }

func (s SlotView) ValLen() uint32     { return loadU32(s.buf, s.base+slotValLenOff) }
func (s SlotView) SetValLen(v uint32) { storeU32(s.buf, s.base+slotValLenOff, v) }

func (s SlotView) TypeFlag() TypeTag { return TypeTag(loadU32(s.buf, s.base+slotTypeFlagOff)) }
func (s SlotView) SetTypeFlag(t TypeTag) {
	storeU32(s.buf, s.base+slotTypeFlagOff, uint32(t))
}

func (s SlotView) UserFlag() uint32     { return loadU32(s.buf, s.base+slotUserFlagOff) }
func (s SlotView) SetUserFlag(v uint32) { storeU32(s.buf, s.base+slotUserFlagOff, v) }

func (s SlotView) WatcherMask() uint64 { return loadU64(s.buf, s.base+slotWatcherMaskOff) }

// OrWatcherMask atomically sets bits and returns the new mask.
func (s SlotView) OrWatcherMask(mask uint64) uint64 {
	for {
		cur := s.WatcherMask()
		next := cur | mask
		if cur == next || casU64(s.buf, s.base+slotWatcherMaskOff, cur, next) {
			return next
		}
	}
}

// AndWatcherMask atomically clears bits (pass ^mask to unregister
// group bit mask) and returns the new mask.
func (s SlotView) AndWatcherMask(mask uint64) uint64 {
	for {
		cur := s.WatcherMask()
		next := cur & mask
		if cur == next || casU64(s.buf, s.base+slotWatcherMaskOff, cur, next) {
			return next
		}
	}
}

func (s SlotView) SetWatcherMask(v uint64) { storeU64(s.buf, s.base+slotWatcherMaskOff, v) }

func (s SlotView) CTime() uint64     { return loadU64(s.buf, s.base+slotCTimeOff) }
func (s SlotView) SetCTime(v uint64) { storeU64(s.buf, s.base+slotCTimeOff, v) }
func (s SlotView) ATime() uint64     { return loadU64(s.buf, s.base+slotATimeOff) }
func (s SlotView) SetATime(v uint64) { storeU64(s.buf, s.base+slotATimeOff, v) }

func (s SlotView) Bloom() uint64 { return loadU64(s.buf, s.base+slotBloomOff) }

// OrBloom atomically ORs mask into the label bitset (labels are
// additive, §4.4) and returns the new value.
func (s SlotView) OrBloom(mask uint64) uint64 {
	for {
		cur := s.Bloom()
		next := cur | mask
		if cur == next || casU64(s.buf, s.base+slotBloomOff, cur, next) {
			return next
		}
	}
}

func (s SlotView) SetBloom(v uint64) { storeU64(s.buf, s.base+slotBloomOff, v) }

// Key reads the slot's null-terminated key buffer as a string.
func (s SlotView) Key() string {
	off := s.base + slotKeyOff
	raw := s.buf[off : off+KeyMax]
	for i, b := range raw {
		if b == 0 {
			return string(raw[:i])
		}
	}
	return string(raw)
}

// SetKey writes key into the slot's key buffer, null-terminating and
// zero-padding the remainder. The caller must ensure len(key) < KeyMax.
func (s SlotView) SetKey(key string) {
	off := s.base + slotKeyOff
	dst := s.buf[off : off+KeyMax]
	n := copy(dst, key)
	for i := n; i < KeyMax; i++ {
		dst[i] = 0
	}
}

// ScrubKey zeroes the entire key buffer.
func (s SlotView) ScrubKey() {
	off := s.base + slotKeyOff
	dst := s.buf[off : off+KeyMax]
	for i := range dst {
		dst[i] = 0
	}
}

// Value returns a slice over the first n bytes of this slot's current
// value region in the arena, located at ValOff().
func (s SlotView) Value(n uint32) []byte {
	off := s.valuesBase + uint64(s.ValOff())
	return s.buf[off : off+uint64(n)]
}

// ScrubValue zeroes n bytes of the value region starting at skip bytes
// past the region's base (used by auto-scrub and purge, which zero
// either the whole region or only the tail past val_len).
func (s SlotView) ScrubValue(skip, n uint32) {
	off := s.valuesBase + uint64(s.ValOff()) + uint64(skip)
	dst := s.buf[off : off+uint64(n)]
	for i := range dst {
		dst[i] = 0
	}
}

// HasEmbedding reports whether this view was constructed over a region
// with the embeddings feature enabled.
func (s SlotView) HasEmbedding() bool { return s.embeddings }

// Embedding copies the slot's embedding vector out as float32s.
func (s SlotView) Embedding() []float32 {
	off := s.base + slotEmbeddingOff
	raw := s.buf[off : off+embeddingBytes]
	out := make([]float32, EmbedDim)
	for i := 0; i < EmbedDim; i++ {
		out[i] = decodeFloat32(raw[i*4 : i*4+4])
	}
	return out
}

// SetEmbedding writes vals (must have length EmbedDim) into the slot's
// embedding field.
func (s SlotView) SetEmbedding(vals []float32) {
	off := s.base + slotEmbeddingOff
	raw := s.buf[off : off+embeddingBytes]
	for i, v := range vals {
		encodeFloat32(raw[i*4:i*4+4], v)
	}
}
