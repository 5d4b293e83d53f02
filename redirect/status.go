// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package redirect

import (
	"github.com/woozymasta/dwpack"
	"github.com/woozymasta/dwpack/overlay"
)

// EntryStatus is a snapshot of one loaded entry slot.
type EntryStatus struct {
	// Original is metadata as stored in archive.
	Original dwpack.Entry `json:"original" yaml:"original"`
	// Patched is metadata served to the caller.
	Patched dwpack.Entry `json:"patched" yaml:"patched"`
	// OverridePath is the override file when redirected.
	OverridePath string `json:"override_path,omitempty" yaml:"override_path,omitempty"`
	// OverrideSize is the override file size when redirected.
	OverrideSize int64 `json:"override_size,omitempty" yaml:"override_size,omitempty"`
	// Index is the table position.
	Index int `json:"index" yaml:"index"`
	// Redirected reports whether data is served from OverridePath.
	Redirected bool `json:"redirected" yaml:"redirected"`
}

// ArchiveStatus is a snapshot of one archive record.
type ArchiveStatus struct {
	// Path is the canonical archive path.
	Path string `json:"path" yaml:"path"`
	// Name is the override directory key.
	Name string `json:"name" yaml:"name"`
	// Size is archive size as stored on disk.
	Size int64 `json:"size" yaml:"size"`
	// Header is the cached header; zero until read.
	Header dwpack.Header `json:"header" yaml:"header"`
	// DataStart is absolute payload offset; zero until header read.
	DataStart int64 `json:"data_start" yaml:"data_start"`
	// Entries lists loaded slots in table order.
	Entries []EntryStatus `json:"entries,omitempty" yaml:"entries,omitempty"`
	// Slots is number of declared entries.
	Slots int `json:"slots" yaml:"slots"`
	// Foreign reports an archive without DW_PACK signature.
	Foreign bool `json:"foreign,omitempty" yaml:"foreign,omitempty"`
}

// Status returns a snapshot of the archive record for path.
// Relative paths are resolved the same way intercepted opens are.
func (r *Redirector) Status(path string) (ArchiveStatus, bool) {
	if canonical, ok := overlay.CanonicalPath(path); ok {
		path = canonical
	}

	r.mu.RLock()
	pack, ok := r.byName[dwpack.ArchiveKey(path)]
	r.mu.RUnlock()
	if !ok {
		return ArchiveStatus{}, false
	}

	pack.mu.Lock()
	defer pack.mu.Unlock()

	status := ArchiveStatus{
		Path:      pack.path,
		Name:      pack.name,
		Size:      pack.originalSize,
		DataStart: pack.dataStart,
		Slots:     len(pack.entries),
		Foreign:   pack.foreign,
	}
	if pack.header != nil {
		status.Header = *pack.header
	}

	for _, entry := range pack.entries {
		if entry == nil {
			continue
		}

		status.Entries = append(status.Entries, EntryStatus{
			Index:        entry.index,
			Original:     entry.original,
			Patched:      entry.patched,
			Redirected:   entry.redirected,
			OverridePath: entry.overridePath,
			OverrideSize: entry.overrideSize,
		})
	}

	return status, true
}
