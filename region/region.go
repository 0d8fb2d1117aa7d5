// Package region owns the backing object's lifecycle: creating or
// opening the shared-memory (or persistent file) object, sizing it,
// mapping it read-write-shared, and validating the header's magic and
// version on open. Everything above this package works with the mapped
// []byte through layout.HeaderView/SlotView; region never interprets
// slot contents itself.
package region

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/splinterhq/libsplinter/errno"
	"github.com/splinterhq/libsplinter/layout"
	"golang.org/x/sys/unix"
)

// Config describes the region to create or open. Slots and MaxValSz are
// only consulted by Create (and the create half of CreateOrOpen /
// OpenOrCreate); Open derives everything from the header it finds.
type Config struct {
	// Name identifies the backing object. For anonymous (non-Persistent)
	// regions it is a bare name resolved under /dev/shm (or os.TempDir
	// as a fallback); for Persistent regions it is used as-is as a file
	// path.
	Name string
	// Slots is the fixed slot count. Immutable after creation.
	Slots uint32
	// MaxValSz is the fixed per-slot value capacity in bytes. Immutable
	// after creation.
	MaxValSz uint32
	// Embeddings enables the optional embedding field on every slot.
	Embeddings bool
	// Persistent routes Name through a plain file instead of the
	// default /dev/shm-backed anonymous object, so the region survives
	// process exit (spec §1 lists this as an optional, out-of-scope-by-
	// default external collaborator surface the core still exposes a
	// hook for).
	Persistent bool
}

func (c Config) path() (string, error) {
	if c.Name == "" {
		return "", errors.New("region: name required")
	}
	if c.Persistent {
		return c.Name, nil
	}
	if _, err := os.Stat("/dev/shm"); err == nil {
		return filepath.Join("/dev/shm", c.Name), nil
	}
	return filepath.Join(os.TempDir(), c.Name), nil
}

func (c Config) validateForCreate() error {
	if c.Slots == 0 {
		return errors.New("region: slots must be nonzero")
	}
	if c.MaxValSz == 0 {
		return errors.New("region: max_val_sz must be nonzero")
	}
	return nil
}

// Region is one process's live mapping of a bus backing object.
type Region struct {
	path string
	file *os.File
	data []byte

	slots      uint32
	maxValSz   uint32
	slotSize   uint32
	embeddings bool
}

// Create maps a brand-new backing object, failing if one already exists
// at cfg's path.
func Create(cfg Config) (*Region, error) {
	if err := cfg.validateForCreate(); err != nil {
		return nil, err
	}
	path, err := cfg.path()
	if err != nil {
		return nil, err
	}
	size := layout.TotalSize(cfg.Slots, cfg.MaxValSz, cfg.Embeddings)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("region: create %s: %w: %w", path, errno.ErrBackingError, err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("region: truncate %s: %w: %w", path, errno.ErrBackingError, err)
	}

	r, err := mapRegion(f, path, int(size))
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	r.initHeader(cfg)
	return r, nil
}

// Open maps an existing backing object, failing if its magic or version
// do not match this package's.
func Open(cfg Config) (*Region, error) {
	path, err := cfg.path()
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("region: open %s: %w: %w", path, errno.ErrBackingError, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("region: stat %s: %w: %w", path, errno.ErrBackingError, err)
	}

	r, err := mapRegion(f, path, int(info.Size()))
	if err != nil {
		return nil, err
	}
	if err := r.adoptHeader(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// CreateOrOpen creates cfg's region, or opens it if it already exists.
func CreateOrOpen(cfg Config) (*Region, error) {
	r, err := Create(cfg)
	if err == nil {
		return r, nil
	}
	if errors.Is(err, os.ErrExist) {
		return Open(cfg)
	}
	return nil, err
}

// OpenOrCreate opens cfg's region, or creates it if it does not exist.
func OpenOrCreate(cfg Config) (*Region, error) {
	r, err := Open(cfg)
	if err == nil {
		return r, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return Create(cfg)
	}
	return nil, err
}

func mapRegion(f *os.File, path string, size int) (*Region, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("region: mmap %s: %w: %w", path, errno.ErrBackingError, err)
	}
	_ = unix.Madvise(data, unix.MADV_DONTDUMP)

	return &Region{path: path, file: f, data: data}, nil
}

func (r *Region) initHeader(cfg Config) {
	h := r.Header()
	h.SetMagic(layout.Magic)
	h.SetVersion(layout.Version)
	h.SetSlots(cfg.Slots)
	h.SetMaxValSz(cfg.MaxValSz)
	h.SetValSz(uint32(len(r.data)))
	h.SetEmbeddingsEnabled(cfg.Embeddings)
	h.InitBloomWatches()

	r.slots = cfg.Slots
	r.maxValSz = cfg.MaxValSz
	r.embeddings = cfg.Embeddings
	r.slotSize = layout.SlotSize(cfg.Embeddings)

	for i := uint32(0); i < cfg.Slots; i++ {
		r.Slot(i).SetValOff(i * cfg.MaxValSz)
	}
}

func (r *Region) adoptHeader() error {
	h := r.Header()
	if h.Magic() != layout.Magic {
		return fmt.Errorf("region: %s: bad magic 0x%08x: %w", r.path, h.Magic(), errno.ErrBackingError)
	}
	if h.Version() != layout.Version {
		return fmt.Errorf("region: %s: unsupported version %d: %w", r.path, h.Version(), errno.ErrBackingError)
	}
	r.slots = h.Slots()
	r.maxValSz = h.MaxValSz()
	r.embeddings = h.EmbeddingsEnabled()
	r.slotSize = layout.SlotSize(r.embeddings)
	return nil
}

// Header returns the region's header view.
func (r *Region) Header() layout.HeaderView { return layout.NewHeaderView(r.data) }

// Slot returns slot i's view.
func (r *Region) Slot(i uint32) layout.SlotView {
	return layout.NewSlotView(r.data, i, r.slotSize, r.ValuesBase(), r.embeddings)
}

// ValuesBase returns the absolute offset of the value arena.
func (r *Region) ValuesBase() uint64 { return layout.ValuesOffset(r.slots, r.slotSize) }

// ArenaSize returns the total size of the value arena in bytes.
func (r *Region) ArenaSize() uint64 { return uint64(r.slots) * uint64(r.maxValSz) }

// Slots returns the fixed slot count.
func (r *Region) Slots() uint32 { return r.slots }

// MaxValSz returns the fixed per-slot value capacity.
func (r *Region) MaxValSz() uint32 { return r.maxValSz }

// Embeddings reports whether this region was created with the
// embeddings feature enabled.
func (r *Region) Embeddings() bool { return r.embeddings }

// Close unmaps the region and closes the backing file descriptor. It
// does not remove the backing object. Subsequent use of r is undefined;
// callers must not retain Region, HeaderView, or SlotView values past
// Close.
func (r *Region) Close() error {
	var err error
	if r.data != nil {
		if unmapErr := unix.Munmap(r.data); unmapErr != nil {
			err = unmapErr
		}
		r.data = nil
	}
	if r.file != nil {
		if closeErr := r.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		r.file = nil
	}
	return err
}
