// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package redirect

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/woozymasta/dwpack"
	"github.com/woozymasta/dwpack/overlay"
)

// Options configures a Redirector.
type Options struct {
	// Logger receives diagnostic messages. If nil, messages are discarded.
	Logger *slog.Logger
	// OverrideRoots are searched in order; the first root holding a regular
	// file for an entry wins.
	OverrideRoots []string
	// Matcher selects which opened paths are treated as archives.
	Matcher dwpack.MatcherOptions
	// DumpDir, when set, receives copies of patched records and redirected data buffers.
	DumpDir string
}

// Redirector is the DW_PACK overlay filter.
type Redirector struct {
	hooks    overlay.Hooks
	matcher  *dwpack.ArchiveMatcher
	logger   *slog.Logger
	byHandle map[overlay.Handle]*handleState
	byName   map[string]*packedArchive
	roots    []string
	dumpDir  string
	mu       sync.RWMutex
}

var _ overlay.Filter = (*Redirector)(nil)

// New creates a Redirector.
func New(opts Options) (*Redirector, error) {
	matcher, err := dwpack.NewArchiveMatcher(opts.Matcher)
	if err != nil {
		return nil, err
	}

	roots := make([]string, 0, len(opts.OverrideRoots))
	for _, root := range opts.OverrideRoots {
		if root == "" {
			continue
		}

		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve override root %s: %w", root, err)
		}
		roots = append(roots, abs)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Redirector{
		matcher:  matcher,
		logger:   logger.With("component", "dwpack-redirector"),
		byHandle: make(map[overlay.Handle]*handleState),
		byName:   make(map[string]*packedArchive),
		roots:    roots,
		dumpDir:  opts.DumpDir,
	}, nil
}

// Bind stores the hooks used for pass-through calls.
func (r *Redirector) Bind(hooks overlay.Hooks) {
	r.hooks = hooks
}

// AcceptPath reports whether path names a DW_PACK archive.
func (r *Redirector) AcceptPath(path string) bool {
	return r.matcher.Match(path)
}

// AcceptHandle reports whether h was opened through this redirector.
func (r *Redirector) AcceptHandle(h overlay.Handle) bool {
	return r.state(h) != nil
}

// Open opens the archive and binds the handle to the shared archive record.
func (r *Redirector) Open(path string, req overlay.OpenRequest) (overlay.Handle, error) {
	h, err := r.hooks.Open(path, req)
	if err != nil {
		return h, err
	}

	key := dwpack.ArchiveKey(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byHandle[h]; ok {
		r.logger.Debug("handle reused before close", "handle", h, "path", path)
	}

	pack, ok := r.byName[key]
	if !ok {
		var size int64
		if info, err := r.hooks.QueryInfo(h, overlay.InfoStandard); err != nil {
			r.logger.Warn("query archive size failed", "path", path, "error", err)
		} else {
			size = info.Size
		}

		pack = newPackedArchive(path, size)
		r.byName[key] = pack
		r.logger.Debug("registered archive", "path", path, "size", size)
	}

	r.byHandle[h] = &handleState{pack: pack}
	r.logger.Debug("handle registered", "archive", pack.name, "handle", h)
	return h, nil
}

// Read classifies the requested range and serves it from cache, override or archive.
func (r *Redirector) Read(h overlay.Handle, p []byte, offset *int64) (int, error) {
	st := r.state(h)
	if st == nil {
		return r.hooks.Read(h, p, offset)
	}

	effOffset := st.position.Load()
	if offset != nil {
		effOffset = *offset
	}

	pack := st.pack
	pack.mu.Lock()
	n, err := r.read(h, st, pack, p, effOffset)
	pack.mu.Unlock()

	if n > 0 {
		st.position.Store(effOffset + int64(n))
	}
	if err != nil && !errors.Is(err, io.EOF) {
		r.logger.Error("read failed",
			"archive", pack.name,
			"handle", h,
			"offset", effOffset,
			"length", len(p),
			"error", err,
		)
	}

	return n, err
}

// SetPosition records the handle position and forwards the call.
func (r *Redirector) SetPosition(h overlay.Handle, position int64) error {
	if st := r.state(h); st != nil && position >= 0 {
		st.position.Store(position)
	}

	return r.hooks.SetPosition(h, position)
}

// QueryInfo answers position queries from handle state and forwards the rest.
// Archive size is reported as stored on disk.
func (r *Redirector) QueryInfo(h overlay.Handle, class overlay.InfoClass) (overlay.FileInfo, error) {
	if st := r.state(h); st != nil && class == overlay.InfoPosition {
		return overlay.FileInfo{Class: class, Position: st.position.Load()}, nil
	}

	return r.hooks.QueryInfo(h, class)
}

// Close drops handle state and forwards the call. Archive state is kept.
func (r *Redirector) Close(h overlay.Handle) error {
	r.mu.Lock()
	delete(r.byHandle, h)
	r.mu.Unlock()

	return r.hooks.Close(h)
}

// state returns handle state or nil for foreign handles.
func (r *Redirector) state(h overlay.Handle) *handleState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.byHandle[h]
}

// passThrough reads from the archive at an explicit offset.
func (r *Redirector) passThrough(h overlay.Handle, p []byte, effOffset int64) (int, error) {
	return r.hooks.Read(h, p, &effOffset)
}

// advance persists a handle position after a read the archive did not serve.
func (r *Redirector) advance(h overlay.Handle, st *handleState, position int64) {
	st.position.Store(position)
	if err := r.hooks.SetPosition(h, position); err != nil {
		r.logger.Warn("persist handle position failed", "handle", h, "position", position, "error", err)
	}
}
