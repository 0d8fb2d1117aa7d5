// Package diagnostics exports and imports brotli-compressed dumps of a
// bus's header and occupied slots. github.com/andybalholm/brotli is
// declared in the teacher's go.mod (pulled in as a compression-family
// dependency alongside the wire layer's "brotli"/"lz4"/"snap" codec
// naming in kernel/core/mesh) but never directly imported by any
// copied kernel file; this package gives it a concrete home as the
// codec for dumping bus state for out-of-process inspection (dumps are
// read back for inspection only; nothing restores them into a region).
package diagnostics

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/splinterhq/libsplinter/bus"
)

// Dump is the serializable capture of a bus's header and every
// currently occupied slot, produced by bus.HeaderSnapshot and
// bus.SlotSnapshot.
type Dump struct {
	Header bus.HeaderSnapshot
	Slots  []bus.SlotSnapshot
}

// DumpSnapshot walks b's key set (via List) and assembles a Dump of the
// header plus every listed slot's snapshot, then brotli-compresses the
// gob-encoded result into w.
func DumpSnapshot(b *bus.Bus, w io.Writer, maxKeys int) error {
	dump := Dump{Header: b.HeaderSnapshot()}
	for _, key := range b.List(maxKeys) {
		snap, err := b.SlotSnapshot(key)
		if err != nil {
			return fmt.Errorf("diagnostics: snapshot %q: %w", key, err)
		}
		dump.Slots = append(dump.Slots, snap)
	}

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(dump); err != nil {
		return fmt.Errorf("diagnostics: encode dump: %w", err)
	}

	bw := brotli.NewWriter(w)
	if _, err := bw.Write(raw.Bytes()); err != nil {
		return fmt.Errorf("diagnostics: compress dump: %w", err)
	}
	return bw.Close()
}

// LoadSnapshotDump decompresses and decodes a Dump written by
// DumpSnapshot. It does not apply the dump back into a region — it is
// a read-only inspection format, not a restore mechanism (the arena
// bump cursor and exact slot indices are not part of the dump).
func LoadSnapshotDump(r io.Reader) (Dump, error) {
	br := brotli.NewReader(r)
	var raw bytes.Buffer
	if _, err := io.Copy(&raw, br); err != nil {
		return Dump{}, fmt.Errorf("diagnostics: decompress dump: %w", err)
	}

	var dump Dump
	if err := gob.NewDecoder(&raw).Decode(&dump); err != nil {
		return Dump{}, fmt.Errorf("diagnostics: decode dump: %w", err)
	}
	return dump, nil
}
