package bus

import (
	"github.com/splinterhq/libsplinter/errno"
	"github.com/splinterhq/libsplinter/layout"
	"github.com/splinterhq/libsplinter/seqlock"
	"github.com/splinterhq/libsplinter/signal"
	"github.com/splinterhq/libsplinter/table"
)

// IntegerOpKind enumerates the bitwise/arithmetic operations supported
// against a BIGUINT-tagged slot's 8-byte value.
type IntegerOpKind int

const (
	OpOr IntegerOpKind = iota
	OpAnd
	OpXor
	OpNot
	OpInc
	OpDec
)

// SetNamedType declares key's type tag. When the target tag includes
// BIGUINT and the slot's current value is shorter than 8 bytes, the
// slot is promoted: a fresh 8-byte region is bump-allocated from the
// arena's val_brk cursor, and the old bytes are reinterpreted as the
// initial integer value — parsed as ASCII decimal if the first byte is
// '0'..'9', otherwise copied into the low bytes of the new 64-bit
// value. Grounded on splinter_set_named_type.
func (b *Bus) SetNamedType(key string, tag layout.TypeTag) error {
	res, found, held := table.AcquireExistingForWrite(b.r, key)
	if held {
		return errno.ErrWriterInProgress
	}
	if !found {
		return errno.ErrNotFound
	}
	slot := res.Slot

	if tag == layout.TypeBigUint && slot.ValLen() < 8 {
		h := b.r.Header()
		newOff, ok := h.TryBumpValBrk(8, uint32(b.r.ArenaSize()))
		if !ok {
			seqlock.Abort(slot)
			return errno.ErrCapacityExceeded
		}

		oldLen := slot.ValLen()
		old := append([]byte(nil), slot.Value(oldLen)...)
		value := decodeInitialBiguint(old)

		slot.SetValOff(newOff)
		var buf [8]byte
		layout.PutUint64(buf[:], value)
		copy(slot.Value(8), buf[:])
		slot.SetValLen(8)
	}

	slot.SetTypeFlag(tag)
	seqlock.Publish(slot)
	b.r.Header().BumpEpoch()
	return nil
}

// decodeInitialBiguint reinterprets a slot's pre-promotion bytes as the
// starting value for its new 8-byte BIGUINT lane: an ASCII decimal
// string (first byte '0'..'9') is parsed numerically, up to 15 digits;
// anything else is treated as the low-order bytes of the integer
// verbatim, matching splinter_set_named_type's byte-for-byte memcpy
// fallback.
func decodeInitialBiguint(old []byte) uint64 {
	if len(old) > 0 && old[0] >= '0' && old[0] <= '9' {
		var v uint64
		n := len(old)
		if n > 15 {
			n = 15
		}
		for i := 0; i < n; i++ {
			c := old[i]
			if c < '0' || c > '9' {
				break
			}
			v = v*10 + uint64(c-'0')
		}
		return v
	}
	var v uint64
	n := len(old)
	if n > 8 {
		n = 8
	}
	for i := 0; i < n; i++ {
		v |= uint64(old[i]) << (8 * uint(i))
	}
	return v
}

// IntegerOp applies op against mask over the 8-byte integer stored at a
// BIGUINT-tagged slot. Fails with wrong-type if the slot does not carry
// the BIGUINT tag. Grounded on splinter_integer_op.
func (b *Bus) IntegerOp(key string, op IntegerOpKind, mask uint64) error {
	res, found, held := table.AcquireExistingForWrite(b.r, key)
	if held {
		return errno.ErrWriterInProgress
	}
	if !found {
		return errno.ErrNotFound
	}
	slot := res.Slot

	if slot.TypeFlag() != layout.TypeBigUint {
		seqlock.Abort(slot)
		return errno.ErrWrongType
	}

	raw := slot.Value(8)
	cur := layout.GetUint64(raw)
	switch op {
	case OpOr:
		cur |= mask
	case OpAnd:
		cur &= mask
	case OpXor:
		cur ^= mask
	case OpNot:
		cur = ^cur
	case OpInc:
		cur += mask
	case OpDec:
		cur -= mask
	}
	layout.PutUint64(raw, cur)

	seqlock.Publish(slot)
	h := b.r.Header()
	h.BumpEpoch()
	signal.Pulse(h, slot)
	return nil
}
