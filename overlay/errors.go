// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package overlay

import "errors"

// Sentinel errors for overlay operations. Use errors.Is in callers.
var (
	// ErrActivated means filters were changed after the dispatcher was activated.
	ErrActivated = errors.New("dispatcher already activated")
	// ErrNilFilter means a nil filter was registered.
	ErrNilFilter = errors.New("filter is nil")
	// ErrInvalidHandle means the handle is unknown or already closed.
	ErrInvalidHandle = errors.New("invalid handle")
	// ErrInvalidPath means the path is empty after canonicalization.
	ErrInvalidPath = errors.New("invalid path")
	// ErrUnsupportedInfoClass means the info class is not handled.
	ErrUnsupportedInfoClass = errors.New("unsupported info class")
	// ErrNegativePosition means set-position received a negative offset.
	ErrNegativePosition = errors.New("negative position")
)
