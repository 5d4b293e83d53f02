// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"
	"github.com/woozymasta/dwpack"
	"github.com/woozymasta/dwpack/internal/config"
	"github.com/woozymasta/dwpack/overlay"
	"github.com/woozymasta/dwpack/redirect"
	"gopkg.in/yaml.v3"
)

func runInspect(args []string, stdout io.Writer, stderr io.Writer) error {
	var (
		log       logFlags
		overrides []string
		dumpDir   string
		format    string
	)

	flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	flagSet.StringArrayVarP(&overrides, "override", "o", nil, "override root, repeatable; earlier roots win")
	flagSet.StringVar(&dumpDir, "dump-dir", "", "write patched records and redirected buffers here")
	flagSet.StringVar(&format, "output", "yaml", "output format: yaml or json")
	log.add(flagSet)

	help, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if help {
		flagSet.SetOutput(stderr)
		flagSet.PrintDefaults()
		return nil
	}
	if flagSet.NArg() != 1 {
		return errors.New("inspect needs exactly one archive path")
	}

	cfg := &config.Config{OverrideRoots: overrides, DumpDir: dumpDir, Log: config.LogConfig{Level: "warn"}}
	log.apply(&cfg.Log)

	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}

	status, err := inspectArchive(cfg, flagSet.Arg(0), logger)
	if err != nil {
		return err
	}

	return writeStatus(stdout, status, format)
}

// inspectArchive reads an archive through the overlay the way the game does:
// header, every entry record, then every entry payload.
func inspectArchive(cfg *config.Config, path string, logger *slog.Logger) (redirect.ArchiveStatus, error) {
	dispatcher, redirector, err := newOverlay(cfg, redirect.Options{Logger: logger})
	if err != nil {
		return redirect.ArchiveStatus{}, err
	}

	h, err := dispatcher.Open(path, overlay.ReadOnly())
	if err != nil {
		return redirect.ArchiveStatus{}, err
	}
	defer func() { _ = dispatcher.Close(h) }()

	headerRaw := make([]byte, dwpack.HeaderSize)
	if err := readFull(dispatcher, h, headerRaw, 0); err != nil {
		return redirect.ArchiveStatus{}, fmt.Errorf("read header: %w", err)
	}

	header, err := dwpack.DecodeHeader(headerRaw)
	if err != nil {
		return redirect.ArchiveStatus{}, err
	}
	if !header.Valid() {
		return redirect.ArchiveStatus{}, fmt.Errorf("%w: %s", dwpack.ErrInvalidHeader, path)
	}

	entries := make([]dwpack.Entry, header.FileCount)
	record := make([]byte, dwpack.EntrySize)
	for i := range entries {
		offset := int64(dwpack.HeaderSize) + int64(i)*dwpack.EntrySize
		if err := readFull(dispatcher, h, record, offset); err != nil {
			return redirect.ArchiveStatus{}, fmt.Errorf("read entry %d: %w", i, err)
		}

		entries[i], err = dwpack.DecodeEntry(record)
		if err != nil {
			return redirect.ArchiveStatus{}, fmt.Errorf("decode entry %d: %w", i, err)
		}
	}

	for i, entry := range entries {
		start, _ := entry.Span(header.DataStart())
		buf := make([]byte, entry.CompressedSize)
		if err := readFull(dispatcher, h, buf, start); err != nil {
			return redirect.ArchiveStatus{}, fmt.Errorf("read entry %d data: %w", i, err)
		}
	}

	status, ok := redirector.Status(path)
	if !ok {
		return redirect.ArchiveStatus{}, fmt.Errorf("%s is not matched as an archive", path)
	}

	return status, nil
}

// readFull fills p from offset through the dispatcher.
func readFull(d *overlay.Dispatcher, h overlay.Handle, p []byte, offset int64) error {
	n, err := d.Read(h, p, &offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("%w: got %d of %d bytes", io.ErrUnexpectedEOF, n, len(p))
	}

	return nil
}

// writeStatus renders status in the requested format.
func writeStatus(w io.Writer, status redirect.ArchiveStatus, format string) error {
	switch format {
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(status); err != nil {
			return err
		}
		return encoder.Close()
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(status)
	default:
		return fmt.Errorf("unknown output format %q (supported: yaml, json)", format)
	}
}
