package bus

import (
	"github.com/splinterhq/libsplinter/errno"
	"github.com/splinterhq/libsplinter/layout"
	"github.com/splinterhq/libsplinter/seqlock"
	"github.com/splinterhq/libsplinter/signal"
	"github.com/splinterhq/libsplinter/table"
)

// SetEmbedding copies a 768-float vector into key's slot under the
// seqlock, the one field wide enough that a torn read would otherwise
// be plausible. Fails with invalid-argument if the region was not
// created with embeddings enabled or vec has the wrong length.
func (b *Bus) SetEmbedding(key string, vec []float32) error {
	if !b.r.Embeddings() || len(vec) != layout.EmbedDim {
		return errno.ErrInvalidArgument
	}
	res, found, held := table.AcquireExistingForWrite(b.r, key)
	if held {
		return errno.ErrWriterInProgress
	}
	if !found {
		return errno.ErrNotFound
	}
	slot := res.Slot
	slot.SetEmbedding(vec)
	seqlock.Publish(slot)
	h := b.r.Header()
	h.BumpEpoch()
	signal.Pulse(h, slot)
	return nil
}

// GetEmbedding reads key's 768-float vector under the seqlock, retrying
// the caller's responsibility on a torn read.
func (b *Bus) GetEmbedding(key string) ([]float32, error) {
	if !b.r.Embeddings() {
		return nil, errno.ErrInvalidArgument
	}
	slot, found := table.Lookup(b.r, key)
	if !found {
		return nil, errno.ErrNotFound
	}
	if !slot.HasEmbedding() {
		return nil, errno.ErrInvalidArgument
	}

	begin, ok := seqlock.ReadBegin(slot)
	if !ok {
		return nil, errno.ErrWriterInProgress
	}
	out := append([]float32(nil), slot.Embedding()...)
	if !seqlock.ReadEnd(slot, begin) {
		return nil, errno.ErrTornSnapshot
	}
	return out, nil
}
