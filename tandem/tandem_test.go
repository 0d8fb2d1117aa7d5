package tandem_test

import (
	"path/filepath"
	"testing"

	"github.com/splinterhq/libsplinter/bus"
	"github.com/splinterhq/libsplinter/tandem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBus(t *testing.T) *bus.Bus {
	t.Helper()
	b, err := bus.Create(bus.Config{
		Name:       filepath.Join(t.TempDir(), "bus.region"),
		Slots:      16,
		MaxValSz:   64,
		Persistent: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestKeyNaming(t *testing.T) {
	g := tandem.Group{Base: "vec", Count: 3}
	assert.Equal(t, "vec", g.Key(0))
	assert.Equal(t, "vec.1", g.Key(1))
	assert.Equal(t, "vec.3", g.Key(3))
}

func TestSetAllThenUnsetAll(t *testing.T) {
	b := newBus(t)
	g := tandem.Group{Base: "vec", Count: 2}

	require.NoError(t, g.SetAll(b, [][]byte{[]byte("base"), []byte("one"), []byte("two")}))

	for i, want := range []string{"base", "one", "two"} {
		got, _, err := b.Get(g.Key(i), nil)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}

	require.NoError(t, g.UnsetAll(b))
	for i := 0; i <= g.Count; i++ {
		_, _, err := b.Get(g.Key(i), nil)
		assert.Error(t, err)
	}
}

func TestSetAllRejectsWrongValueCount(t *testing.T) {
	b := newBus(t)
	g := tandem.Group{Base: "vec", Count: 2}
	err := g.SetAll(b, [][]byte{[]byte("only-one")})
	assert.Error(t, err)
}

func TestUnsetAllToleratesPartiallyPopulatedGroup(t *testing.T) {
	b := newBus(t)
	g := tandem.Group{Base: "vec", Count: 2}
	require.NoError(t, b.Set(g.Key(0), []byte("base")))

	assert.NoError(t, g.UnsetAll(b))
}
