// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"github.com/woozymasta/dwpack"
)

func runPack(args []string, stdout io.Writer) error {
	var opts dwpack.PackOptions

	flagSet := pflag.NewFlagSet("pack", pflag.ContinueOnError)
	flagSet.Uint32Var(&opts.Index, "index", 0, "value of the header index field")
	flagSet.Uint32Var(&opts.Align, "align", 0, "pad each payload start to this many bytes")

	help, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if help {
		flagSet.SetOutput(stdout)
		flagSet.PrintDefaults()
		return nil
	}
	if flagSet.NArg() != 2 {
		return errors.New("pack needs <out.pac> <dir>")
	}

	inputs, err := collectInputs(flagSet.Arg(1))
	if err != nil {
		return err
	}

	entries, err := dwpack.PackFile(flagSet.Arg(0), inputs, opts)
	if err != nil {
		return err
	}

	return writeEntries(stdout, entries)
}

func runList(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errors.New("list needs exactly one archive path")
	}

	reader, err := dwpack.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	header := reader.Header()
	fmt.Fprintf(stdout, "index=%d files=%d data_start=0x%08X size=%d\n",
		header.Index, header.FileCount, reader.DataStart(), reader.Size())
	return writeEntries(stdout, reader.Entries())
}

// collectInputs reads every regular file under dir in lexical path order.
func collectInputs(dir string) ([]dwpack.Input, error) {
	var inputs []dwpack.Input

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		inputs = append(inputs, dwpack.Input{Path: filepath.ToSlash(rel), Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect inputs from %s: %w", dir, err)
	}

	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Path < inputs[j].Path })
	return inputs, nil
}

// writeEntries prints an entry table.
func writeEntries(w io.Writer, entries []dwpack.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tOFFSET\tSIZE\tRAW SIZE\tFLAGS")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%d\t%s\t0x%08X\t%d\t%d\t0x%X\n",
			entry.ID, entry.Path, entry.DataOffset, entry.CompressedSize, entry.UncompressedSize, entry.Flags)
	}

	return tw.Flush()
}
