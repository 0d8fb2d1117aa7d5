// Package bus is the public operations layer over a mapped region: the
// collaborator-facing surface of set/get/unset/list/poll/raw-peek,
// typed integer ops, type promotion, timestamp backfill, embeddings,
// snapshots, scrub configuration and purge. Every operation composes
// region/layout/seqlock/table/signal and is grounded directly on the
// corresponding function in original_source/splinter.c.
package bus

import (
	"github.com/splinterhq/libsplinter/errno"
	"github.com/splinterhq/libsplinter/layout"
	"github.com/splinterhq/libsplinter/region"
)

// Bus is a handle to one mapped region. The reference source keeps this
// state at module scope (a single process-wide mapping); this type
// makes the handle explicit per spec §9 while leaving every operation's
// semantics unchanged. A Bus is safe for concurrent use from multiple
// goroutines in the same process — every field it touches in the
// region is either atomic or protected by the seqlock protocol.
type Bus struct {
	r *region.Region
}

// Config mirrors region.Config; it is the collaborator-facing lifecycle
// surface named in spec §6 (create, open, create_or_open, open_or_create,
// close).
type Config struct {
	Name       string
	Slots      uint32
	MaxValSz   uint32
	Embeddings bool
	Persistent bool
}

func (c Config) toRegionConfig() region.Config {
	return region.Config{
		Name:       c.Name,
		Slots:      c.Slots,
		MaxValSz:   c.MaxValSz,
		Embeddings: c.Embeddings,
		Persistent: c.Persistent,
	}
}

// Create maps a brand-new backing object and initializes its header and
// slot table. Fails with a backing-error if the object already exists.
func Create(cfg Config) (*Bus, error) {
	r, err := region.Create(cfg.toRegionConfig())
	if err != nil {
		return nil, err
	}
	return &Bus{r: r}, nil
}

// Open maps an existing backing object, validating its magic and
// version against this package's layout.
func Open(cfg Config) (*Bus, error) {
	r, err := region.Open(cfg.toRegionConfig())
	if err != nil {
		return nil, err
	}
	return &Bus{r: r}, nil
}

// CreateOrOpen creates the backing object, falling back to Open if it
// already exists.
func CreateOrOpen(cfg Config) (*Bus, error) {
	r, err := region.CreateOrOpen(cfg.toRegionConfig())
	if err != nil {
		return nil, err
	}
	return &Bus{r: r}, nil
}

// OpenOrCreate opens the backing object, falling back to Create if it
// does not yet exist.
func OpenOrCreate(cfg Config) (*Bus, error) {
	r, err := region.OpenOrCreate(cfg.toRegionConfig())
	if err != nil {
		return nil, err
	}
	return &Bus{r: r}, nil
}

// Close unmaps the region and releases its file descriptor. It does not
// remove a persistent backing file.
func (b *Bus) Close() error {
	return b.r.Close()
}

// Region exposes the underlying mapped region for packages (signal,
// tandem, maintenance, diagnostics) that need direct slot/header access
// alongside the Bus operations.
func (b *Bus) Region() *region.Region {
	return b.r
}

func validateKey(key string) error {
	if key == "" || len(key) >= layout.KeyMax {
		return errno.ErrInvalidArgument
	}
	return nil
}
