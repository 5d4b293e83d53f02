// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package dwpack

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// packWriteBufferSize is buffered writer size used by Pack.
const packWriteBufferSize = 256 * 1024

// Pack writes an uncompressed DW_PACK archive to out.
// Entries are written in input order and payloads follow the entry table.
func Pack(out io.Writer, inputs []Input, opts PackOptions) ([]Entry, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyInputs
	}

	opts.applyDefaults()

	entries, err := preparePackEntries(inputs, opts)
	if err != nil {
		return nil, err
	}

	bw := bufio.NewWriterSize(out, packWriteBufferSize)

	var header [HeaderSize]byte
	if err := EncodeHeader(header[:], Header{
		Signature: Signature,
		FileCount: uint32(len(entries)), //nolint:gosec // bounded by preparePackEntries
		Index:     opts.Index,
	}); err != nil {
		return nil, err
	}
	if _, err := bw.Write(header[:]); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	var record [EntrySize]byte
	for i := range entries {
		if err := EncodeEntry(record[:], entries[i]); err != nil {
			return nil, err
		}
		if _, err := bw.Write(record[:]); err != nil {
			return nil, fmt.Errorf("write entry %s: %w", entries[i].Path, err)
		}
	}

	var written uint32
	for i := range entries {
		if pad := entries[i].DataOffset - written; pad > 0 {
			if _, err := bw.Write(make([]byte, pad)); err != nil {
				return nil, fmt.Errorf("write padding: %w", err)
			}
		}
		if _, err := bw.Write(inputs[i].Data); err != nil {
			return nil, fmt.Errorf("write payload %s: %w", entries[i].Path, err)
		}

		written = entries[i].DataOffset + entries[i].CompressedSize
	}

	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("flush archive: %w", err)
	}

	return entries, nil
}

// PackFile writes a DW_PACK archive to outPath.
func PackFile(outPath string, inputs []Input, opts PackOptions) ([]Entry, error) {
	f, err := os.OpenFile(outPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create DW_PACK file: %w", err)
	}
	defer func() {
		if f != nil {
			_ = f.Close()
		}
	}()

	entries, err := Pack(f, inputs, opts)
	if err != nil {
		return nil, err
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close DW_PACK file: %w", err)
	}
	f = nil

	return entries, nil
}

// preparePackEntries validates inputs and lays out payload offsets.
func preparePackEntries(inputs []Input, opts PackOptions) ([]Entry, error) {
	if uint64(len(inputs)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d entries", ErrSizeOverflow, len(inputs))
	}

	seen := make(map[string]struct{}, len(inputs))
	entries := make([]Entry, len(inputs))

	var offset uint64
	for i := range inputs {
		normalizedPath, err := normalizeArchiveEntryPath(inputs[i].Path)
		if err != nil {
			return nil, err
		}

		key := strings.ToLower(normalizedPath)
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntryPath, normalizedPath)
		}
		seen[key] = struct{}{}

		if rem := offset % uint64(opts.Align); rem != 0 {
			offset += uint64(opts.Align) - rem
		}

		size := uint64(len(inputs[i].Data))
		if offset+size > math.MaxUint32 {
			return nil, fmt.Errorf("%w: entry %s", ErrSizeOverflow, normalizedPath)
		}

		id := inputs[i].ID
		if id == 0 {
			id = uint16(i) //nolint:gosec // table position fits by format convention
		}

		entries[i] = Entry{
			Path:             normalizedPath,
			ID:               id,
			CompressedSize:   uint32(size),
			UncompressedSize: uint32(size),
			DataOffset:       uint32(offset),
		}
		offset += size
	}

	return entries, nil
}
