// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package dwpack

import "errors"

// Sentinel errors for DW_PACK operations. Use errors.Is in callers.
var (
	// ErrInvalidHeader means the archive is missing or has a bad header.
	ErrInvalidHeader = errors.New("invalid DW_PACK file: missing or bad header")
	// ErrShortBuffer means a decode or encode buffer is smaller than the fixed record size.
	ErrShortBuffer = errors.New("buffer too small for record")
	// ErrFileNameTooLong means the entry path does not fit into the path field.
	ErrFileNameTooLong = errors.New("entry path exceeds maximum length")
	// ErrEntryNotFound means the entry is not found.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrClosed means the reader is already closed.
	ErrClosed = errors.New("reader already closed")
	// ErrSizeOverflow means a size or offset exceeds the uint32 limit of the format.
	ErrSizeOverflow = errors.New("size exceeds uint32 DW_PACK limit")
	// ErrEmptyInputs means no inputs provided for pack.
	ErrEmptyInputs = errors.New("no inputs provided for pack")
	// ErrInvalidEntryPath means an entry path is empty or invalid after normalization.
	ErrInvalidEntryPath = errors.New("invalid entry path")
	// ErrDuplicateEntryPath means two inputs resolve to the same path (case-insensitive).
	ErrDuplicateEntryPath = errors.New("duplicate entry path")
	// ErrInvalidEntryOffset means an entry payload lies outside archive bounds.
	ErrInvalidEntryOffset = errors.New("invalid entry offset")
	// ErrNilReader means reader is nil or has no data source.
	ErrNilReader = errors.New("nil reader")
	// ErrInvalidExtractPath means an entry path is absolute or escapes the output directory.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrInvalidArchivePattern means one or more archive match rules are invalid.
	ErrInvalidArchivePattern = errors.New("invalid archive rules")
)
