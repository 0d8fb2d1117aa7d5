package region_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/splinterhq/libsplinter/errno"
	"github.com/splinterhq/libsplinter/layout"
	"github.com/splinterhq/libsplinter/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempCfg(t *testing.T) region.Config {
	t.Helper()
	dir := t.TempDir()
	return region.Config{
		Name:       filepath.Join(dir, "bus.region"),
		Slots:      8,
		MaxValSz:   64,
		Persistent: true,
	}
}

func TestCreateThenOpen(t *testing.T) {
	cfg := tempCfg(t)

	r, err := region.Create(cfg)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), r.Slots())
	assert.Equal(t, uint32(64), r.MaxValSz())
	require.NoError(t, r.Close())

	r2, err := region.Open(cfg)
	require.NoError(t, err)
	defer r2.Close()
	assert.Equal(t, uint32(8), r2.Slots())
	assert.Equal(t, uint32(64), r2.MaxValSz())
}

func TestCreateFailsIfExists(t *testing.T) {
	cfg := tempCfg(t)
	r, err := region.Create(cfg)
	require.NoError(t, err)
	defer r.Close()

	_, err = region.Create(cfg)
	assert.Error(t, err)
}

func TestCreateFailsOnZeroSlotsOrValSz(t *testing.T) {
	dir := t.TempDir()
	_, err := region.Create(region.Config{Name: filepath.Join(dir, "a"), Slots: 0, MaxValSz: 64, Persistent: true})
	assert.Error(t, err)
	_, err = region.Create(region.Config{Name: filepath.Join(dir, "b"), Slots: 8, MaxValSz: 0, Persistent: true})
	assert.Error(t, err)
}

func TestOpenFailsOnBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt")
	require.NoError(t, os.WriteFile(path, make([]byte, layout.HeaderSize+256), 0o600))

	_, err := region.Open(region.Config{Name: path, Persistent: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, errno.ErrBackingError)
}

func TestOpenFailsOnMissingFileReportsBackingError(t *testing.T) {
	dir := t.TempDir()
	_, err := region.Open(region.Config{Name: filepath.Join(dir, "nope"), Persistent: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, errno.ErrBackingError)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCreateOrOpenAndOpenOrCreate(t *testing.T) {
	cfg := tempCfg(t)

	r1, err := region.CreateOrOpen(cfg)
	require.NoError(t, err)
	r1.Close()

	r2, err := region.CreateOrOpen(cfg)
	require.NoError(t, err)
	r2.Close()

	cfg2 := tempCfg(t)
	r3, err := region.OpenOrCreate(cfg2)
	require.NoError(t, err)
	defer r3.Close()
	assert.Equal(t, uint32(8), r3.Slots())
}

func TestCloseThenReopen(t *testing.T) {
	cfg := tempCfg(t)
	r, err := region.Create(cfg)
	require.NoError(t, err)

	s := r.Slot(0)
	s.SetKey("k1")
	require.NoError(t, r.Close())

	r2, err := region.Open(cfg)
	require.NoError(t, err)
	defer r2.Close()
	assert.Equal(t, "k1", r2.Slot(0).Key())
}

func TestSlotsInitializedToNaturalSlice(t *testing.T) {
	cfg := tempCfg(t)
	r, err := region.Create(cfg)
	require.NoError(t, err)
	defer r.Close()

	for i := uint32(0); i < r.Slots(); i++ {
		assert.Equal(t, i*r.MaxValSz(), r.Slot(i).ValOff())
	}
}
