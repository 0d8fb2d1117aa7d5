package signal_test

import (
	"path/filepath"
	"testing"

	"github.com/splinterhq/libsplinter/errno"
	"github.com/splinterhq/libsplinter/layout"
	"github.com/splinterhq/libsplinter/region"
	"github.com/splinterhq/libsplinter/signal"
	"github.com/splinterhq/libsplinter/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegion(t *testing.T) *region.Region {
	t.Helper()
	r, err := region.Create(region.Config{
		Name:       filepath.Join(t.TempDir(), "bus.region"),
		Slots:      8,
		MaxValSz:   64,
		Persistent: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func insert(t *testing.T, r *region.Region, key string) layout.SlotView {
	t.Helper()
	res, ok := table.AcquireForWrite(r, key)
	require.True(t, ok)
	res.Slot.SetKey(key)
	res.Slot.SetHash(res.Hash)
	res.Slot.AddEpoch(1)
	return res.Slot
}

func TestWatchRegisterThenPulse(t *testing.T) {
	r := newRegion(t)
	slot := insert(t, r, "sig")
	h := r.Header()

	require.NoError(t, signal.WatchRegister(r, "sig", 5))
	c0, err := signal.SignalCount(h, 5)
	require.NoError(t, err)

	signal.Pulse(h, slot)

	c1, err := signal.SignalCount(h, 5)
	require.NoError(t, err)
	assert.Greater(t, c1, c0)
}

func TestWatchUnregisterStopsPulses(t *testing.T) {
	r := newRegion(t)
	slot := insert(t, r, "sig")
	h := r.Header()

	require.NoError(t, signal.WatchRegister(r, "sig", 5))
	require.NoError(t, signal.WatchUnregister(r, "sig", 5))

	before, _ := signal.SignalCount(h, 5)
	signal.Pulse(h, slot)
	after, _ := signal.SignalCount(h, 5)
	assert.Equal(t, before, after)
}

func TestLabelRegisterRoutesBloomBits(t *testing.T) {
	r := newRegion(t)
	slot := insert(t, r, "n")
	h := r.Header()
	h.InitBloomWatches()

	require.NoError(t, signal.WatchLabelRegister(h, 0x01, 9))
	slot.OrBloom(0x01)

	before, _ := signal.SignalCount(h, 9)
	signal.Pulse(h, slot)
	after, _ := signal.SignalCount(h, 9)
	assert.Greater(t, after, before)
}

func TestUnmappedLabelBitsDoNotPulseGroupZero(t *testing.T) {
	r := newRegion(t)
	slot := insert(t, r, "n")
	h := r.Header()
	h.InitBloomWatches() // every bit -> sentinel 0xFF, none mapped

	slot.OrBloom(0x02)
	before, _ := signal.SignalCount(h, 0)
	signal.Pulse(h, slot)
	after, _ := signal.SignalCount(h, 0)
	assert.Equal(t, before, after, "unmapped label bits must never alias group 0")
}

func TestInvalidGroupIDRejected(t *testing.T) {
	r := newRegion(t)
	insert(t, r, "k")
	h := r.Header()

	assert.ErrorIs(t, signal.WatchRegister(r, "k", 64), errno.ErrInvalidArgument)
	_, err := signal.SignalCount(h, 64)
	assert.ErrorIs(t, err, errno.ErrInvalidArgument)
}
