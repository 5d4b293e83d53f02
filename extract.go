// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package dwpack

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// extractCopyBufferSize is the copy buffer size of one extract worker.
const extractCopyBufferSize = 64 * 1024

// ExtractOptions configures Extract.
type ExtractOptions struct {
	// Entries limits extraction to these entries; nil means all entries.
	Entries []Entry
	// Prefix keeps only entries under this archive directory (or the exact entry).
	Prefix string
	// OnEntryDone is called after each entry is written. Calls may be concurrent.
	OnEntryDone func(entry Entry, written int64, outputPath string)
	// MaxWorkers bounds parallel writers; zero means GOMAXPROCS.
	MaxWorkers int
	// SkipCompressed leaves out entries with non-zero flags.
	SkipCompressed bool
	// OverrideLayout writes under dstDir/<archive base name>/ so dstDir can
	// be used directly as an override root. Requires a reader created by Open.
	OverrideLayout bool
}

// extractTask is one entry with its resolved output path.
type extractTask struct {
	entry   Entry
	outPath string
}

// extractBuffers recycles worker copy buffers between Extract calls.
var extractBuffers = sync.Pool{
	New: func() any {
		buf := make([]byte, extractCopyBufferSize)
		return &buf
	},
}

// Extract writes stored payloads of selected entries to dstDir/<entry path>.
// Payloads are written as stored; compressed entries are not decoded.
// On failure it cancels remaining writes and returns the first error.
func (r *Reader) Extract(ctx context.Context, dstDir string, opts ExtractOptions) error {
	if r == nil || r.ra == nil {
		return ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}

	entries := r.entries
	if opts.Entries != nil {
		entries = opts.Entries
	}
	entries = filterEntriesByPrefix(entries, opts.Prefix)
	if opts.SkipCompressed {
		entries = filterRawEntries(entries)
	}
	if len(entries) == 0 {
		return nil
	}

	root, err := filepath.Abs(dstDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}
	if opts.OverrideLayout {
		if r.name == "" {
			return fmt.Errorf("%w: override layout needs archive name", ErrInvalidExtractPath)
		}
		root = filepath.Join(root, r.name)
	}

	tasks, err := planExtract(root, entries)
	if err != nil {
		return err
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}

		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			written, err := r.extractEntry(task)
			if err != nil {
				return err
			}

			if opts.OnEntryDone != nil {
				opts.OnEntryDone(task.entry, written, task.outPath)
			}
			return nil
		})
	}

	return eg.Wait()
}

// planExtract resolves output paths and creates their parent directories.
func planExtract(root string, entries []Entry) ([]extractTask, error) {
	tasks := make([]extractTask, 0, len(entries))
	dirs := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		rel, err := extractRelPath(entry.Path)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry.Path, err)
		}

		outPath := filepath.Join(root, filepath.FromSlash(rel))
		dirs[filepath.Dir(outPath)] = struct{}{}
		tasks = append(tasks, extractTask{entry: entry, outPath: outPath})
	}

	for dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}

	return tasks, nil
}

// extractEntry copies one stored payload to its output file.
func (r *Reader) extractEntry(task extractTask) (int64, error) {
	start, end := task.entry.Span(r.dataStart)
	if end > r.size {
		return 0, fmt.Errorf("%w: %s ends at %d past archive size %d", ErrInvalidEntryOffset, task.entry.Path, end, r.size)
	}

	out, err := os.OpenFile(task.outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", task.outPath, err)
	}

	bufPtr := extractBuffers.Get().(*[]byte)
	written, copyErr := io.CopyBuffer(out, io.NewSectionReader(r.ra, start, end-start), *bufPtr)
	extractBuffers.Put(bufPtr)

	closeErr := out.Close()
	if copyErr != nil {
		return written, fmt.Errorf("write %s: %w", task.entry.Path, copyErr)
	}
	if closeErr != nil {
		return written, fmt.Errorf("close %s: %w", task.entry.Path, closeErr)
	}

	return written, nil
}

// extractRelPath returns a slash-separated relative output path for an entry.
// Absolute paths, drive prefixes and ".." segments are rejected.
func extractRelPath(entryPath string) (string, error) {
	raw := normalizePathForMatching(entryPath)
	switch {
	case raw == "", strings.ContainsRune(raw, 0):
		return "", ErrInvalidExtractPath
	case strings.HasPrefix(raw, "/"), hasDrivePrefix(raw):
		return "", ErrInvalidExtractPath
	}

	for _, part := range strings.Split(raw, "/") {
		if part == ".." {
			return "", ErrInvalidExtractPath
		}
	}

	rel := NormalizePath(raw)
	if rel == "" {
		return "", ErrInvalidExtractPath
	}

	return rel, nil
}

// hasDrivePrefix reports whether path starts with a drive letter like C:.
func hasDrivePrefix(path string) bool {
	if len(path) < 2 || path[1] != ':' {
		return false
	}

	c := path[0] | 0x20
	return c >= 'a' && c <= 'z'
}
