// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/pflag"
	"github.com/woozymasta/dwpack"
)

func runExtract(args []string, stdout io.Writer) error {
	var (
		opts          dwpack.ExtractOptions
		includePacked bool
	)

	flagSet := pflag.NewFlagSet("extract", pflag.ContinueOnError)
	flagSet.StringVar(&opts.Prefix, "prefix", "", "extract only entries under this archive directory")
	flagSet.IntVarP(&opts.MaxWorkers, "workers", "j", 0, "parallel writers (default GOMAXPROCS)")
	flagSet.BoolVar(&opts.OverrideLayout, "override-layout", false, "write into <dir>/<archive name>/ so dir can be used as an override root")
	flagSet.BoolVar(&includePacked, "include-compressed", false, "also write compressed entries as stored")

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
		return errors.New("extract needs <archive.pac> <dir>")
	}

	opts.SkipCompressed = !includePacked

	var mu sync.Mutex
	opts.OnEntryDone = func(entry dwpack.Entry, written int64, outputPath string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(stdout, "%s\t%d\t%s\n", entry.Path, written, outputPath)
	}

	reader, err := dwpack.Open(flagSet.Arg(0))
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return reader.Extract(ctx, flagSet.Arg(1), opts)
}
