// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

// Package config loads the overlay daemon configuration file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/woozymasta/dwpack"
	"github.com/woozymasta/pathrules"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the overlay mount.
type Config struct {
	// SourceDir is the real game data directory.
	SourceDir string `yaml:"source_dir"`

	// Mountpoint is where the overlay view is mounted.
	Mountpoint string `yaml:"mountpoint"`

	// OverrideRoots are searched in order for override files laid out as
	// <root>/<archive base name>/<entry path>. The first hit wins.
	OverrideRoots []string `yaml:"override_roots"`

	// ArchiveRules select which file names are DW_PACK archives.
	// Empty means dwpack.DefaultArchivePattern.
	ArchiveRules []RuleConfig `yaml:"archive_rules"`

	// DumpDir, when set, receives copies of patched entry records and
	// redirected data buffers.
	DumpDir string `yaml:"dump_dir"`

	// AllowOther permits other users to access the mount.
	AllowOther bool `yaml:"allow_other"`

	// Log configures diagnostic output.
	Log LogConfig `yaml:"log"`
}

// RuleConfig is one ordered archive name rule.
type RuleConfig struct {
	// Action is "include" or "exclude". Defaults to "include".
	Action string `yaml:"action"`

	// Pattern is a glob matched against the archive file name.
	Pattern string `yaml:"pattern"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`

	// Format is "text" or "json". Defaults to text.
	Format string `yaml:"format"`
}

// UnmarshalYAML accepts both the bare pattern form and the mapping form.
//
//	archive_rules:
//	  - "*.pac"
//	  - {action: exclude, pattern: "movie*.pac"}
func (r *RuleConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		r.Action = "include"
		r.Pattern = value.Value
		return nil
	}

	type rawRuleConfig RuleConfig
	var raw rawRuleConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}

	r.Action = raw.Action
	r.Pattern = raw.Pattern
	if r.Action == "" {
		r.Action = "include"
	}

	return nil
}

// LoadConfig loads a configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes configuration YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks that the configuration is usable for a mount.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("source_dir is required")
	}
	if c.Mountpoint == "" {
		return fmt.Errorf("mountpoint is required")
	}
	if len(c.OverrideRoots) == 0 {
		return fmt.Errorf("at least one override_roots entry is required")
	}

	for i, root := range c.OverrideRoots {
		if strings.TrimSpace(root) == "" {
			return fmt.Errorf("override_roots[%d]: empty path", i)
		}
	}

	if _, err := c.Rules(); err != nil {
		return err
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q (supported: text, json)", c.Log.Format)
	}

	return nil
}

// Rules converts archive rules to matcher rules.
func (c *Config) Rules() ([]pathrules.Rule, error) {
	rules := make([]pathrules.Rule, 0, len(c.ArchiveRules))
	for i, rule := range c.ArchiveRules {
		if strings.TrimSpace(rule.Pattern) == "" {
			return nil, fmt.Errorf("archive_rules[%d]: pattern is required", i)
		}

		action, err := ParseAction(rule.Action)
		if err != nil {
			return nil, fmt.Errorf("archive_rules[%d]: %w", i, err)
		}

		rules = append(rules, pathrules.Rule{Action: action, Pattern: rule.Pattern})
	}

	return rules, nil
}

// MatcherOptions returns archive matcher options for the configured rules.
func (c *Config) MatcherOptions() (dwpack.MatcherOptions, error) {
	rules, err := c.Rules()
	if err != nil {
		return dwpack.MatcherOptions{}, err
	}

	return dwpack.MatcherOptions{Rules: rules}, nil
}

// ParseAction maps a rule action name to a matcher action.
func ParseAction(name string) (pathrules.Action, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "include":
		return pathrules.ActionInclude, nil
	case "exclude":
		return pathrules.ActionExclude, nil
	default:
		return pathrules.ActionUnknown, fmt.Errorf("unknown action %q (supported: include, exclude)", name)
	}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}

	return level, nil
}
