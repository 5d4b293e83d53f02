// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/woozymasta/dwpack/fusehost"
	"github.com/woozymasta/dwpack/internal/config"
	"github.com/woozymasta/dwpack/overlay"
	"github.com/woozymasta/dwpack/redirect"
)

// mountFlags are command line settings layered over the config file.
type mountFlags struct {
	log        logFlags
	configPath string
	source     string
	mountpoint string
	dumpDir    string
	overrides  []string
	allowOther bool
	debug      bool
}

// resolveMountConfig loads the config file when given and applies flags on top.
func resolveMountConfig(flags *mountFlags) (*config.Config, error) {
	cfg := &config.Config{}
	if flags.configPath != "" {
		loaded, err := config.LoadConfig(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if flags.source != "" {
		cfg.SourceDir = flags.source
	}
	if flags.mountpoint != "" {
		cfg.Mountpoint = flags.mountpoint
	}
	if len(flags.overrides) > 0 {
		cfg.OverrideRoots = flags.overrides
	}
	if flags.dumpDir != "" {
		cfg.DumpDir = flags.dumpDir
	}
	if flags.allowOther {
		cfg.AllowOther = true
	}
	flags.log.apply(&cfg.Log)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newOverlay builds an active dispatcher with the archive redirector registered.
func newOverlay(cfg *config.Config, opts redirect.Options) (*overlay.Dispatcher, *redirect.Redirector, error) {
	matcher, err := cfg.MatcherOptions()
	if err != nil {
		return nil, nil, err
	}

	opts.OverrideRoots = cfg.OverrideRoots
	opts.Matcher = matcher
	opts.DumpDir = cfg.DumpDir

	redirector, err := redirect.New(opts)
	if err != nil {
		return nil, nil, err
	}

	dispatcher := overlay.NewDispatcher(overlay.NewOSNative(), overlay.DispatcherOptions{Logger: opts.Logger})
	if err := dispatcher.AddFilter(redirector); err != nil {
		return nil, nil, err
	}
	dispatcher.Activate()

	return dispatcher, redirector, nil
}

func runMount(args []string, stderr io.Writer) error {
	var flags mountFlags

	flagSet := pflag.NewFlagSet("mount", pflag.ContinueOnError)
	flagSet.StringVarP(&flags.configPath, "config", "c", "", "path to YAML config file")
	flagSet.StringVar(&flags.source, "source", "", "game data directory")
	flagSet.StringVar(&flags.mountpoint, "mountpoint", "", "where to mount the overlay view")
	flagSet.StringArrayVarP(&flags.overrides, "override", "o", nil, "override root, repeatable; earlier roots win")
	flagSet.StringVar(&flags.dumpDir, "dump-dir", "", "write patched records and redirected buffers here")
	flagSet.BoolVar(&flags.allowOther, "allow-other", false, "allow other users to access the mount")
	flagSet.BoolVar(&flags.debug, "fuse-debug", false, "trace FUSE requests")
	flags.log.add(flagSet)

	help, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if help {
		flagSet.SetOutput(stderr)
		flagSet.PrintDefaults()
		return nil
	}

	cfg, err := resolveMountConfig(&flags)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}

	if err := fusehost.Available(); err != nil {
		return err
	}

	dispatcher, _, err := newOverlay(cfg, redirect.Options{Logger: logger})
	if err != nil {
		return err
	}

	server, err := fusehost.Mount(fusehost.Options{
		SourceDir:  cfg.SourceDir,
		Mountpoint: cfg.Mountpoint,
		Dispatcher: dispatcher,
		AllowOther: cfg.AllowOther,
		Debug:      flags.debug,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("unmounting", "mountpoint", cfg.Mountpoint)
		if err := server.Unmount(); err != nil {
			logger.Error("unmount failed", "error", err)
		}
	}()

	server.Wait()
	if tracked := dispatcher.Tracked(); tracked > 0 {
		logger.Warn("handles still open at unmount", "count", tracked)
	}

	if ctx.Err() == nil {
		return fmt.Errorf("mount %s ended unexpectedly", cfg.Mountpoint)
	}

	return nil
}
