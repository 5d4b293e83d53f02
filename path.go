// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package dwpack

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// NormalizePath converts an archive/internal path to normalized slash-separated form.
// It trims spaces, accepts both "/" and "\", removes leading "./" and "/", and cleans "." and ".." segments
// without escaping the root.
func NormalizePath(raw string) string {
	raw = normalizePathForMatching(raw)
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.TrimSuffix(raw, "/")
}

// ArchiveBaseName returns archive file name without directory and extension.
// It is the override directory key for that archive.
func ArchiveBaseName(archivePath string) string {
	base := filepath.Base(normalizePathForMatching(archivePath))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ArchiveKey returns the case-insensitive identity of an archive path.
func ArchiveKey(archivePath string) string {
	return strings.ToLower(filepath.Clean(archivePath))
}

// OverridePath builds "<root>/<archiveBase>/<entryPath>" for an archive entry.
// It returns false when entryPath is empty after normalization.
func OverridePath(root string, archiveBase string, entryPath string) (string, bool) {
	normalized := NormalizePath(entryPath)
	if normalized == "" || archiveBase == "" {
		return "", false
	}

	return filepath.Join(root, archiveBase, filepath.FromSlash(normalized)), true
}

// normalizePathForMatching normalizes user/input paths for matcher use.
func normalizePathForMatching(path string) string {
	path = strings.TrimSpace(path)
	path = strings.ReplaceAll(path, `\`, `/`)
	path = strings.TrimPrefix(path, "./")
	return path
}

// normalizeArchiveEntryPath converts input path to canonical archive form with "/" separators.
func normalizeArchiveEntryPath(raw string) (string, error) {
	normalizedPath := NormalizePath(raw)
	if normalizedPath == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntryPath, raw)
	}

	if len(normalizedPath) >= EntryPathSize {
		return "", fmt.Errorf("%w: %q", ErrFileNameTooLong, raw)
	}

	return normalizedPath, nil
}
