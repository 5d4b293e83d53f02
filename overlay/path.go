// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package overlay

import (
	"path/filepath"
	"strings"
)

// ntObjectPrefix is the NT object manager prefix of DOS paths.
const ntObjectPrefix = `\??\`

// CanonicalPath resolves an intercepted open path to an absolute clean path.
// It reports false for empty paths, which are passed through untracked.
func CanonicalPath(raw string) (string, bool) {
	if len(raw) >= len(ntObjectPrefix) && strings.EqualFold(raw[:len(ntObjectPrefix)], ntObjectPrefix) {
		raw = raw[len(ntObjectPrefix):]
	}

	if strings.TrimSpace(raw) == "" {
		return raw, false
	}

	abs, err := filepath.Abs(raw)
	if err != nil {
		return raw, false
	}

	return abs, true
}
