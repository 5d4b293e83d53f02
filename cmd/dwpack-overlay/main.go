// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

// dwpack-overlay serves DW_PACK archives with per-entry overrides taken from
// loose files, without modifying the archives on disk.
//
// Subcommands:
//
//	mount    mount the overlay view of a game data directory
//	inspect  replay header, entry and data reads of one archive and print what the overlay serves
//	list     print the entry table of an archive
//	pack     build an archive from a directory of loose files
//	extract  write archive entries to loose files, optionally as an override root
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"github.com/woozymasta/dwpack/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches a subcommand.
func run(args []string, stdout io.Writer, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return errors.New("subcommand is required")
	}

	switch args[0] {
	case "mount":
		return runMount(args[1:], stderr)
	case "inspect":
		return runInspect(args[1:], stdout, stderr)
	case "list":
		return runList(args[1:], stdout)
	case "pack":
		return runPack(args[1:], stdout)
	case "extract":
		return runExtract(args[1:], stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `dwpack-overlay serves DW_PACK archives with loose-file overrides.

Usage:
  dwpack-overlay mount   [flags]
  dwpack-overlay inspect [flags] <archive.pac>
  dwpack-overlay list    <archive.pac>
  dwpack-overlay pack    [flags] <out.pac> <dir>
  dwpack-overlay extract [flags] <archive.pac> <dir>

Override files are looked up as <root>/<archive name>/<entry path>,
for example mods/chara00001/face/002.tex for entry face/002.tex of
chara00001.pac.
`)
}

// logFlags are the logger flags shared by subcommands.
type logFlags struct {
	level  string
	format string
}

func (l *logFlags) add(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&l.level, "log-level", "", "log level: debug, info, warn, error")
	flagSet.StringVar(&l.format, "log-format", "", "log format: text or json")
}

// apply overrides config log settings with flags that were set.
func (l *logFlags) apply(cfg *config.LogConfig) {
	if l.level != "" {
		cfg.Level = l.level
	}
	if l.format != "" {
		cfg.Format = l.format
	}
}

// newLogger builds the process logger from log settings.
func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	options := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, options)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, options)), nil
	default:
		return nil, fmt.Errorf("log.format: unknown format %q (supported: text, json)", cfg.Format)
	}
}

// parseFlags parses args and reports whether help was requested.
func parseFlags(flagSet *pflag.FlagSet, args []string) (bool, error) {
	flagSet.BoolP("help", "h", false, "show help")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, err
	}

	help, _ := flagSet.GetBool("help")
	return help, nil
}
