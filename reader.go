// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package dwpack

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// readerEntryBufferSize is a sequential read buffer for entry table parsing.
const readerEntryBufferSize = 64 * 1024

// Reader provides read-only access to a parsed DW_PACK file.
type Reader struct {
	// ra is the underlying random-access reader used for payload reads.
	ra io.ReaderAt
	// file is set when Reader owns an *os.File opened via Open.
	file *os.File
	// name is the archive base name, set by Open.
	name string
	// entries stores parsed entry metadata in table order.
	entries []Entry
	// header stores decoded fixed header.
	header Header
	// size is total source size in bytes.
	size int64
	// dataStart is absolute offset of first payload byte.
	dataStart int64
	// mu guards closed state and close operation.
	mu sync.Mutex
	// closed reports whether Close was already called.
	closed bool
}

// Open opens DW_PACK file by path and parses header and entry table.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open DW_PACK: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	r, err := NewReaderFromReaderAt(f, fi.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f
	r.name = ArchiveBaseName(path)
	return r, nil
}

// NewReaderFromReaderAt parses DW_PACK from existing ReaderAt and known size.
func NewReaderFromReaderAt(ra io.ReaderAt, size int64) (*Reader, error) {
	r := &Reader{ra: ra, size: size}
	if err := r.parse(); err != nil {
		return nil, err
	}

	return r, nil
}

// Header returns decoded archive header.
func (r *Reader) Header() Header {
	return r.header
}

// Name returns the archive base name, or "" for readers not created by Open.
func (r *Reader) Name() string {
	return r.name
}

// DataStart returns absolute offset of the first payload byte.
func (r *Reader) DataStart() int64 {
	return r.dataStart
}

// Size returns total archive size in bytes.
func (r *Reader) Size() int64 {
	return r.size
}

// Entries returns a copy of parsed entries in table order.
func (r *Reader) Entries() []Entry {
	if r == nil {
		return nil
	}

	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Close closes the underlying file if reader owns one.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	if r.file != nil {
		return r.file.Close()
	}

	return nil
}

// OpenEntry opens the stored payload of the named entry.
// Compressed entries are returned as stored.
func (r *Reader) OpenEntry(name string) (io.Reader, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	entry := r.findEntryByName(name)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	start, _ := entry.Span(r.dataStart)
	return io.NewSectionReader(r.ra, start, int64(entry.CompressedSize)), nil
}

// ReadEntry reads the full stored payload of the named entry.
func (r *Reader) ReadEntry(name string) ([]byte, error) {
	rd, err := r.OpenEntry(name)
	if err != nil {
		return nil, err
	}

	return io.ReadAll(rd)
}

// findEntryByName resolves one entry by normalized path.
func (r *Reader) findEntryByName(name string) *Entry {
	lookupName := NormalizePath(name)
	for i := range r.entries {
		if NormalizePath(r.entries[i].Path) == lookupName {
			return &r.entries[i]
		}
	}

	return nil
}

// parse reads and validates DW_PACK structure from ReaderAt.
func (r *Reader) parse() error {
	var raw [HeaderSize]byte
	if _, err := r.ra.ReadAt(raw[:], 0); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: short header", ErrInvalidHeader)
		}

		return fmt.Errorf("read header: %w", err)
	}

	header, err := DecodeHeader(raw[:])
	if err != nil {
		return err
	}
	if !header.Valid() {
		return ErrInvalidHeader
	}

	r.header = header
	r.dataStart = header.DataStart()
	if r.dataStart > r.size {
		return fmt.Errorf("%w: entry table of %d records exceeds file size", ErrInvalidHeader, header.FileCount)
	}

	return r.parseEntriesBuffered()
}

// parseEntriesBuffered parses entry records with sequential buffered reads.
func (r *Reader) parseEntriesBuffered() error {
	sr := io.NewSectionReader(r.ra, HeaderSize, r.dataStart-HeaderSize)
	br := bufio.NewReaderSize(sr, readerEntryBufferSize)

	r.entries = make([]Entry, 0, r.header.FileCount)
	var record [EntrySize]byte
	for i := uint32(0); i < r.header.FileCount; i++ {
		if _, err := io.ReadFull(br, record[:]); err != nil {
			return fmt.Errorf("read entry %d: %w", i, err)
		}

		entry, err := DecodeEntry(record[:])
		if err != nil {
			return err
		}

		_, end := entry.Span(r.dataStart)
		if end > r.size {
			return fmt.Errorf("%w: entry %s payload out of file bounds", ErrInvalidEntryOffset, entry.Path)
		}

		r.entries = append(r.entries, entry)
	}

	return nil
}
