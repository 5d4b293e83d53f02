// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package dwpack

import (
	"github.com/woozymasta/pathrules"
)

// Binary layout of DW_PACK archives.
const (
	HeaderSize    = 0x14  // fixed header size in bytes
	EntrySize     = 0x118 // fixed entry table record size in bytes
	EntryPathSize = 0x100 // NUL-padded path field size inside entry record
)

// Header field offsets.
const (
	headerSignatureOffset = 0x00
	headerField08Offset   = 0x08
	headerFileCountOffset = 0x0C
	headerIndexOffset     = 0x10
)

// Entry field offsets.
const (
	entryField00Offset          = 0x000
	entryIDOffset               = 0x002
	entryPathOffset             = 0x004
	entryField104Offset         = 0x104
	entryCompressedSizeOffset   = 0x108
	entryUncompressedSizeOffset = 0x10C
	entryFlagsOffset            = 0x110
	entryDataOffsetOffset       = 0x114
)

// Signature is the DW_PACK magic ("DW_PACK\0") read as little-endian uint64.
const Signature uint64 = 0x004B4341505F5744

// DefaultArchivePattern matches packed archives by base name:
// a non-empty stem ending in five digits, e.g. chara00001.pac.
const DefaultArchivePattern = "?*[0-9][0-9][0-9][0-9][0-9].pac"

// Header is a decoded DW_PACK header.
type Header struct {
	// Signature is the archive magic, zero for an unread header.
	Signature uint64 `json:"signature" yaml:"signature"`
	// Field08 is opaque and passed through.
	Field08 uint32 `json:"field08,omitempty" yaml:"field08,omitempty"`
	// FileCount is number of entry records following the header.
	FileCount uint32 `json:"file_count" yaml:"file_count"`
	// Index is the archive sequence index.
	Index uint32 `json:"index" yaml:"index"`
}

// Valid reports whether the header carries the DW_PACK signature.
func (h *Header) Valid() bool {
	return h.Signature == Signature
}

// DataStart returns absolute offset of the first payload byte.
func (h *Header) DataStart() int64 {
	return DataStart(h.FileCount)
}

// DataStart returns absolute payload offset for archive with count entries.
func DataStart(count uint32) int64 {
	return int64(HeaderSize) + int64(count)*int64(EntrySize)
}

// Entry is a decoded DW_PACK entry table record.
type Entry struct {
	// Path is the entry path as stored in archive (up to the first NUL).
	Path string `json:"path" yaml:"path"`
	// Field00 is opaque and passed through.
	Field00 uint16 `json:"field00,omitempty" yaml:"field00,omitempty"`
	// ID is the entry identifier.
	ID uint16 `json:"id" yaml:"id"`
	// Field104 is opaque and passed through.
	Field104 uint32 `json:"field104,omitempty" yaml:"field104,omitempty"`
	// CompressedSize is stored payload size in bytes.
	CompressedSize uint32 `json:"compressed_size" yaml:"compressed_size"`
	// UncompressedSize is payload size after decompression.
	UncompressedSize uint32 `json:"uncompressed_size" yaml:"uncompressed_size"`
	// Flags holds compression bits; zero means raw payload.
	Flags uint32 `json:"flags,omitempty" yaml:"flags,omitempty"`
	// DataOffset is payload offset relative to data start.
	DataOffset uint32 `json:"data_offset" yaml:"data_offset"`
}

// IsCompressed reports whether payload is stored compressed.
func (e *Entry) IsCompressed() bool {
	return e.Flags != 0
}

// Span returns absolute payload range [start, end) for given data start.
func (e *Entry) Span(dataStart int64) (int64, int64) {
	start := dataStart + int64(e.DataOffset)
	return start, start + int64(e.CompressedSize)
}

// Input describes one loose file to be packed into an archive entry.
type Input struct {
	// Path is destination path inside archive.
	Path string `json:"path" yaml:"path"`
	// Data is raw entry payload.
	Data []byte `json:"-" yaml:"-"`
	// ID is entry identifier; zero means table position.
	ID uint16 `json:"id,omitempty" yaml:"id,omitempty"`
}

// PackOptions configures Pack behavior.
type PackOptions struct {
	// Index is written into header index field.
	Index uint32 `json:"index,omitempty" yaml:"index,omitempty"`
	// Align pads each payload start to a multiple of Align bytes.
	// Zero or one disables padding.
	Align uint32 `json:"align,omitempty" yaml:"align,omitempty"`
}

// MatcherOptions configures archive name matching.
type MatcherOptions struct {
	// Rules are ordered include/exclude patterns applied to archive base names.
	// Empty means DefaultArchivePattern.
	Rules []pathrules.Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
	// Matcher controls rule matching; zero value means case-insensitive with default exclude.
	Matcher pathrules.MatcherOptions `json:"matcher,omitzero" yaml:"matcher,omitzero"`
}

// applyDefaults fills zero-valued matcher options with defaults.
func (opts *MatcherOptions) applyDefaults() {
	if len(opts.Rules) == 0 {
		opts.Rules = []pathrules.Rule{
			{Action: pathrules.ActionInclude, Pattern: DefaultArchivePattern},
		}
	}

	if opts.Matcher == (pathrules.MatcherOptions{}) {
		opts.Matcher = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		}
	}

	if opts.Matcher.DefaultAction == pathrules.ActionUnknown {
		opts.Matcher.DefaultAction = pathrules.ActionExclude
	}
}

// applyDefaults fills zero-valued pack options with defaults.
func (opts *PackOptions) applyDefaults() {
	if opts.Align == 0 {
		opts.Align = 1
	}
}
