// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package dwpack

import "strings"

// filterEntriesByPrefix keeps entries under prefix (or exact match if it points to a file).
func filterEntriesByPrefix(entries []Entry, prefix string) []Entry {
	prefix = NormalizePath(prefix)
	if prefix == "" {
		return entries
	}

	lowerPrefix := strings.ToLower(prefix)
	normalizedPrefix := lowerPrefix + "/"
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		entryPath := strings.ToLower(NormalizePath(entry.Path))
		if entryPath == lowerPrefix || strings.HasPrefix(entryPath, normalizedPrefix) {
			out = append(out, entry)
		}
	}

	return out
}

// filterRawEntries keeps entries stored without compression.
func filterRawEntries(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsCompressed() {
			continue
		}

		out = append(out, entry)
	}

	return out
}
