// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package dwpack

import (
	"fmt"
	"path"

	"github.com/woozymasta/pathrules"
)

// ArchiveMatcher decides which file paths are DW_PACK archives.
type ArchiveMatcher struct {
	matcher *pathrules.Matcher
}

// NewArchiveMatcher compiles archive name rules.
func NewArchiveMatcher(opts MatcherOptions) (*ArchiveMatcher, error) {
	opts.applyDefaults()

	rules := normalizeArchiveRules(opts.Rules)
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: no usable patterns", ErrInvalidArchivePattern)
	}

	matcher, err := pathrules.NewMatcher(rules, opts.Matcher)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidArchivePattern, err)
	}

	return &ArchiveMatcher{matcher: matcher}, nil
}

// normalizeArchiveRules normalizes rule patterns and drops empty patterns.
func normalizeArchiveRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := normalizePathForMatching(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether the file name of filePath is included by the rules.
func (m *ArchiveMatcher) Match(filePath string) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	candidate := path.Base(normalizePathForMatching(filePath))
	if candidate == "" || candidate == "." || candidate == "/" {
		return false
	}

	return m.matcher.Included(candidate, false)
}
