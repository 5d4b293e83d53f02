// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package dwpack

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// DecodeHeader decodes a header from the first HeaderSize bytes of buf.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, got %d", ErrShortBuffer, HeaderSize, len(buf))
	}

	return Header{
		Signature: binary.LittleEndian.Uint64(buf[headerSignatureOffset:]),
		Field08:   binary.LittleEndian.Uint32(buf[headerField08Offset:]),
		FileCount: binary.LittleEndian.Uint32(buf[headerFileCountOffset:]),
		Index:     binary.LittleEndian.Uint32(buf[headerIndexOffset:]),
	}, nil
}

// EncodeHeader writes h into the first HeaderSize bytes of buf.
func EncodeHeader(buf []byte, h Header) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("%w: header needs %d bytes, got %d", ErrShortBuffer, HeaderSize, len(buf))
	}

	binary.LittleEndian.PutUint64(buf[headerSignatureOffset:], h.Signature)
	binary.LittleEndian.PutUint32(buf[headerField08Offset:], h.Field08)
	binary.LittleEndian.PutUint32(buf[headerFileCountOffset:], h.FileCount)
	binary.LittleEndian.PutUint32(buf[headerIndexOffset:], h.Index)
	return nil
}

// DecodeEntry decodes an entry record from the first EntrySize bytes of buf.
func DecodeEntry(buf []byte) (Entry, error) {
	if len(buf) < EntrySize {
		return Entry{}, fmt.Errorf("%w: entry needs %d bytes, got %d", ErrShortBuffer, EntrySize, len(buf))
	}

	pathField := buf[entryPathOffset : entryPathOffset+EntryPathSize]
	if idx := bytes.IndexByte(pathField, 0); idx >= 0 {
		pathField = pathField[:idx]
	}

	return Entry{
		Path:             string(pathField),
		Field00:          binary.LittleEndian.Uint16(buf[entryField00Offset:]),
		ID:               binary.LittleEndian.Uint16(buf[entryIDOffset:]),
		Field104:         binary.LittleEndian.Uint32(buf[entryField104Offset:]),
		CompressedSize:   binary.LittleEndian.Uint32(buf[entryCompressedSizeOffset:]),
		UncompressedSize: binary.LittleEndian.Uint32(buf[entryUncompressedSizeOffset:]),
		Flags:            binary.LittleEndian.Uint32(buf[entryFlagsOffset:]),
		DataOffset:       binary.LittleEndian.Uint32(buf[entryDataOffsetOffset:]),
	}, nil
}

// EncodeEntry writes e into the first EntrySize bytes of buf.
// The path field is NUL-padded; a path must leave room for the terminator.
func EncodeEntry(buf []byte, e Entry) error {
	if len(buf) < EntrySize {
		return fmt.Errorf("%w: entry needs %d bytes, got %d", ErrShortBuffer, EntrySize, len(buf))
	}

	if len(e.Path) >= EntryPathSize {
		return fmt.Errorf("%w: %q", ErrFileNameTooLong, e.Path)
	}

	binary.LittleEndian.PutUint16(buf[entryField00Offset:], e.Field00)
	binary.LittleEndian.PutUint16(buf[entryIDOffset:], e.ID)

	pathField := buf[entryPathOffset : entryPathOffset+EntryPathSize]
	clear(pathField)
	copy(pathField, e.Path)

	binary.LittleEndian.PutUint32(buf[entryField104Offset:], e.Field104)
	return PatchEntry(buf, e)
}

// PatchEntry rewrites only the size, flag and offset fields of an encoded record.
// Path bytes and opaque fields in buf are left as they are.
func PatchEntry(buf []byte, e Entry) error {
	if len(buf) < EntrySize {
		return fmt.Errorf("%w: entry needs %d bytes, got %d", ErrShortBuffer, EntrySize, len(buf))
	}

	binary.LittleEndian.PutUint32(buf[entryCompressedSizeOffset:], e.CompressedSize)
	binary.LittleEndian.PutUint32(buf[entryUncompressedSizeOffset:], e.UncompressedSize)
	binary.LittleEndian.PutUint32(buf[entryFlagsOffset:], e.Flags)
	binary.LittleEndian.PutUint32(buf[entryDataOffsetOffset:], e.DataOffset)
	return nil
}

// EntryIndex maps an absolute entry table offset to a table index.
// It reports false when offset is before the table or not record-aligned.
func EntryIndex(offset int64) (int, bool) {
	rel := offset - HeaderSize
	if rel < 0 || rel%EntrySize != 0 {
		return 0, false
	}

	return int(rel / EntrySize), true
}
