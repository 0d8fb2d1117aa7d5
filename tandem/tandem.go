// Package tandem implements the client-side sibling-key convenience
// named in spec §4.4: writing or deleting a base key alongside keys
// named "base.1", "base.2", ... up to a caller count. This is purely a
// naming convention over bus.Set/bus.Unset — the bus stores every
// sibling as an independent slot with no relationship between them.
package tandem

import (
	"errors"
	"fmt"

	"github.com/splinterhq/libsplinter/bus"
	"github.com/splinterhq/libsplinter/errno"
)

// Group names a base key and its sibling count.
type Group struct {
	Base  string
	Count int
}

// Key returns the i'th member name: Key(0) is the base key itself,
// Key(i) for i > 0 is "base.i".
func (g Group) Key(i int) string {
	if i == 0 {
		return g.Base
	}
	return fmt.Sprintf("%s.%d", g.Base, i)
}

// SetAll writes values[0] to the base key and values[i] to "base.i" for
// each subsequent entry, up to g.Count siblings. values must have
// exactly g.Count+1 entries. Stops and returns the first error
// encountered; earlier writes in the call are not rolled back, mirroring
// the underlying per-key independence of the bus.
func (g Group) SetAll(b *bus.Bus, values [][]byte) error {
	if len(values) != g.Count+1 {
		return fmt.Errorf("tandem: expected %d values for group %q, got %d", g.Count+1, g.Base, len(values))
	}
	for i, v := range values {
		if err := b.Set(g.Key(i), v); err != nil {
			return fmt.Errorf("tandem: set %q: %w", g.Key(i), err)
		}
	}
	return nil
}

// UnsetAll deletes the base key and all g.Count siblings. A missing
// member is not an error — tandem groups may be partially populated.
func (g Group) UnsetAll(b *bus.Bus) error {
	for i := 0; i <= g.Count; i++ {
		_, err := b.Unset(g.Key(i))
		if err != nil && !errors.Is(err, errno.ErrNotFound) {
			return fmt.Errorf("tandem: unset %q: %w", g.Key(i), err)
		}
	}
	return nil
}
