// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package redirect

import (
	"fmt"
	"io"
	"os"

	"github.com/woozymasta/dwpack"
	"github.com/woozymasta/dwpack/overlay"
)

// read dispatches one read by shape. Caller holds pack.mu.
func (r *Redirector) read(h overlay.Handle, st *handleState, pack *packedArchive, p []byte, effOffset int64) (int, error) {
	length := int64(len(p))

	switch {
	case pack.foreign:
		return r.passThrough(h, p, effOffset)
	case effOffset == 0 && length == dwpack.HeaderSize:
		return r.readHeader(h, st, pack, p)
	case pack.header != nil && effOffset >= dwpack.HeaderSize && effOffset < pack.dataStart && length == dwpack.EntrySize:
		return r.readEntry(h, st, pack, p, effOffset)
	case pack.header != nil && effOffset >= pack.dataStart:
		return r.readData(h, st, pack, p, effOffset)
	default:
		r.logger.Error("unexpected read request",
			"archive", pack.name,
			"handle", h,
			"offset", fmt.Sprintf("0x%08X", effOffset),
			"length", fmt.Sprintf("0x%08X", length),
			"header_read", pack.header != nil,
		)
		return r.passThrough(h, p, effOffset)
	}
}

// readHeader caches the header on first read and replays it afterwards.
func (r *Redirector) readHeader(h overlay.Handle, st *handleState, pack *packedArchive, p []byte) (int, error) {
	if pack.header != nil {
		copy(p, pack.headerRaw[:])
		r.advance(h, st, dwpack.HeaderSize)
		return dwpack.HeaderSize, nil
	}

	r.logger.Debug("intercepted header read", "archive", pack.name, "handle", h)
	n, err := r.passThrough(h, p, 0)
	if err != nil || n != dwpack.HeaderSize {
		return n, err
	}

	header, err := dwpack.DecodeHeader(p)
	if err != nil {
		return n, nil
	}

	if !header.Valid() {
		pack.foreign = true
		r.logger.Warn("archive has no DW_PACK signature, passing through",
			"archive", pack.name,
			"signature", fmt.Sprintf("0x%016X", header.Signature),
		)
		return n, nil
	}

	if pack.originalSize > 0 && header.DataStart() > pack.originalSize {
		pack.foreign = true
		r.logger.Warn("entry table exceeds archive size, passing through",
			"archive", pack.name,
			"file_count", header.FileCount,
			"size", pack.originalSize,
		)
		return n, nil
	}

	pack.loadHeader(header, p)
	r.logger.Debug("DW_PACK header",
		"archive", pack.name,
		"handle", h,
		"index", header.Index,
		"file_count", header.FileCount,
		"data_start", fmt.Sprintf("0x%08X", pack.dataStart),
	)

	return n, nil
}

// readEntry populates an entry slot on first read and replays the patched record afterwards.
func (r *Redirector) readEntry(h overlay.Handle, st *handleState, pack *packedArchive, p []byte, effOffset int64) (int, error) {
	index, aligned := dwpack.EntryIndex(effOffset)
	if !aligned || index >= len(pack.entries) {
		r.logger.Error("file index out of range",
			"archive", pack.name,
			"handle", h,
			"index", index,
			"aligned", aligned,
			"file_count", len(pack.entries),
		)
		return r.passThrough(h, p, effOffset)
	}

	if entry := pack.entries[index]; entry != nil {
		copy(p, entry.raw[:])
		r.advance(h, st, effOffset+dwpack.EntrySize)
		return dwpack.EntrySize, nil
	}

	n, err := r.passThrough(h, p, effOffset)
	if err != nil || n != dwpack.EntrySize {
		return n, err
	}

	entry, err := newArchiveEntry(index, p)
	if err != nil {
		return n, nil
	}

	r.logger.Debug("accessed file entry",
		"archive", pack.name,
		"handle", h,
		"entry", entry.original.Path,
		"id", entry.original.ID,
		"compressed_size", entry.original.CompressedSize,
		"uncompressed_size", entry.original.UncompressedSize,
		"flags", entry.original.Flags,
		"data_offset", fmt.Sprintf("0x%08X", pack.dataStart+int64(entry.original.DataOffset)),
	)

	r.resolve(pack, entry)
	pack.entries[index] = entry

	if entry.redirected {
		copy(p, entry.raw[:])
		r.logger.Debug("patched entry",
			"archive", pack.name,
			"entry", entry.patched.Path,
			"compressed_size", entry.patched.CompressedSize,
			"uncompressed_size", entry.patched.UncompressedSize,
			"flags", entry.patched.Flags,
		)
		r.dump(pack, effOffset, p)
	}

	return n, nil
}

// readData serves a payload read from the override or the archive.
func (r *Redirector) readData(h overlay.Handle, st *handleState, pack *packedArchive, p []byte, effOffset int64) (int, error) {
	entry := pack.entryAt(effOffset)
	if entry == nil {
		r.logger.Error("unhandled file data read request",
			"archive", pack.name,
			"handle", h,
			"offset", fmt.Sprintf("0x%08X", effOffset),
			"length", fmt.Sprintf("0x%08X", len(p)),
		)
		return r.passThrough(h, p, effOffset)
	}

	if !entry.redirected {
		r.logger.Info("file data access",
			"archive", pack.name,
			"handle", h,
			"entry", entry.patched.Path,
			"offset", fmt.Sprintf("0x%08X", effOffset),
			"length", fmt.Sprintf("0x%08X", len(p)),
		)
		return r.passThrough(h, p, effOffset)
	}

	r.logger.Info("file data access redirected",
		"archive", pack.name,
		"handle", h,
		"entry", entry.patched.Path,
		"offset", fmt.Sprintf("0x%08X", effOffset),
		"length", fmt.Sprintf("0x%08X", len(p)),
		"override", entry.overridePath,
	)

	n, err := r.readOverride(pack, entry, p, effOffset)
	if err != nil {
		r.logger.Error("redirected read rejected, passing through",
			"archive", pack.name,
			"handle", h,
			"entry", entry.patched.Path,
			"error", err,
		)
		return r.passThrough(h, p, effOffset)
	}

	r.advance(h, st, effOffset+int64(n))
	r.dump(pack, effOffset, p[:n])
	return n, nil
}

// readOverride copies len(p) bytes of the override file that correspond to effOffset.
// Bounds are checked before p is touched.
func (r *Redirector) readOverride(pack *packedArchive, entry *archiveEntry, p []byte, effOffset int64) (int, error) {
	start, _ := entry.patched.Span(pack.dataStart)
	relOffset := effOffset - start
	length := int64(len(p))

	if length != entry.overrideSize {
		r.logger.Debug("read length does not match override size",
			"archive", pack.name,
			"entry", entry.patched.Path,
			"length", length,
			"override_size", entry.overrideSize,
		)
	}

	if relOffset < 0 {
		return 0, fmt.Errorf("%w: offset %d before entry start", ErrOverrideBounds, relOffset)
	}
	if relOffset+length > entry.overrideSize {
		return 0, fmt.Errorf("%w: read [%d, %d) past override size %d",
			ErrOverrideBounds, relOffset, relOffset+length, entry.overrideSize)
	}

	f, err := os.Open(entry.overridePath)
	if err != nil {
		return 0, fmt.Errorf("open override: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Seek(relOffset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek override: %w", err)
	}

	n, err := io.ReadFull(f, p)
	if err != nil {
		return n, fmt.Errorf("read override: %w", err)
	}

	return n, nil
}
