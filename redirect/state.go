// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package redirect

import (
	"sync"
	"sync/atomic"

	"github.com/woozymasta/dwpack"
)

// packedArchive is the shared state of one archive path.
type packedArchive struct {
	// path is the canonical archive path.
	path string
	// name is the archive base name, the override directory key.
	name string
	// originalSize is archive size reported on first open.
	originalSize int64
	// header is nil until the first header read.
	header *dwpack.Header
	// headerRaw holds header bytes served on repeated header reads.
	headerRaw [dwpack.HeaderSize]byte
	// dataStart is absolute offset of first payload byte.
	dataStart int64
	// entries has one slot per declared entry; nil until the slot is read.
	entries []*archiveEntry
	// foreign marks an archive whose header lacks the DW_PACK signature.
	foreign bool
	// mu guards header and entry slots.
	mu sync.Mutex
}

// newPackedArchive creates state for an archive seen for the first time.
func newPackedArchive(path string, size int64) *packedArchive {
	return &packedArchive{
		path:         path,
		name:         dwpack.ArchiveBaseName(path),
		originalSize: size,
	}
}

// loadHeader caches header bytes and allocates empty entry slots.
func (p *packedArchive) loadHeader(header dwpack.Header, raw []byte) {
	p.header = &header
	copy(p.headerRaw[:], raw)
	p.dataStart = header.DataStart()
	p.entries = make([]*archiveEntry, header.FileCount)
}

// entryAt returns the first loaded entry whose patched payload range contains offset.
func (p *packedArchive) entryAt(offset int64) *archiveEntry {
	for _, entry := range p.entries {
		if entry == nil {
			continue
		}

		start, end := entry.patched.Span(p.dataStart)
		if offset >= start && offset < end {
			return entry
		}
	}

	return nil
}

// handleState is the per-handle view of an archive.
type handleState struct {
	pack     *packedArchive
	position atomic.Int64
}

// archiveEntry is the state of one entry table slot.
type archiveEntry struct {
	// original is metadata as stored in archive.
	original dwpack.Entry
	// patched is metadata handed to the caller.
	patched dwpack.Entry
	// overridePath is absolute override file path when redirected.
	overridePath string
	// overrideSize is override file size when redirected.
	overrideSize int64
	// raw is the record served for every read of this slot.
	raw [dwpack.EntrySize]byte
	// index is the immutable table position.
	index int
	// redirected reports whether data reads come from overridePath.
	redirected bool
}

// newArchiveEntry builds slot state from the record bytes read from archive.
func newArchiveEntry(index int, record []byte) (*archiveEntry, error) {
	decoded, err := dwpack.DecodeEntry(record)
	if err != nil {
		return nil, err
	}

	entry := &archiveEntry{
		index:    index,
		original: decoded,
		patched:  decoded,
	}
	copy(entry.raw[:], record)
	return entry, nil
}

// redirect points the entry at an override file and patches its record.
// The override is raw data, so both sizes become the file size and flags are cleared.
func (e *archiveEntry) redirect(path string, size uint32) {
	e.redirected = true
	e.overridePath = path
	e.overrideSize = int64(size)

	e.patched.CompressedSize = size
	e.patched.UncompressedSize = size
	e.patched.Flags = 0
	_ = dwpack.PatchEntry(e.raw[:], e.patched)
}
