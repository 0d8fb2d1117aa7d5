package diagnostics_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/splinterhq/libsplinter/bus"
	"github.com/splinterhq/libsplinter/diagnostics"
	"github.com/splinterhq/libsplinter/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBus(t *testing.T) *bus.Bus {
	t.Helper()
	b, err := bus.Create(bus.Config{
		Name:       filepath.Join(t.TempDir(), "bus.region"),
		Slots:      8,
		MaxValSz:   32,
		Embeddings: true,
		Persistent: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestDumpAndLoadRoundTrip(t *testing.T) {
	b := newBus(t)
	require.NoError(t, b.Set("alpha", []byte("one")))
	require.NoError(t, b.Set("beta", []byte("two")))
	vec := make([]float32, layout.EmbedDim)
	copy(vec, []float32{1, 2, 3})
	require.NoError(t, b.SetEmbedding("alpha", vec))

	var buf bytes.Buffer
	require.NoError(t, diagnostics.DumpSnapshot(b, &buf, 16))
	assert.Greater(t, buf.Len(), 0)

	dump, err := diagnostics.LoadSnapshotDump(&buf)
	require.NoError(t, err)

	assert.Equal(t, uint32(8), dump.Header.Slots)
	require.Len(t, dump.Slots, 2)

	byKey := map[string]bus.SlotSnapshot{}
	for _, s := range dump.Slots {
		byKey[s.Key] = s
	}
	require.Contains(t, byKey, "alpha")
	require.Contains(t, byKey, "beta")
	assert.Equal(t, []byte("one"), byKey["alpha"].Value)
	assert.Equal(t, []byte("two"), byKey["beta"].Value)
	assert.Equal(t, vec, byKey["alpha"].Embedding)
}

func TestDumpSnapshotEmptyBus(t *testing.T) {
	b := newBus(t)

	var buf bytes.Buffer
	require.NoError(t, diagnostics.DumpSnapshot(b, &buf, 16))

	dump, err := diagnostics.LoadSnapshotDump(&buf)
	require.NoError(t, err)
	assert.Empty(t, dump.Slots)
	assert.Equal(t, uint32(8), dump.Header.Slots)
}

func TestLoadSnapshotDumpRejectsGarbage(t *testing.T) {
	_, err := diagnostics.LoadSnapshotDump(bytes.NewReader([]byte("not a brotli stream")))
	assert.Error(t, err)
}
