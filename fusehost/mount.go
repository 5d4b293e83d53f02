// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package fusehost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/woozymasta/dwpack/overlay"
	"golang.org/x/sys/unix"
)

// DevicePath is the FUSE control device.
const DevicePath = "/dev/fuse"

// ErrFuseUnavailable is returned when the FUSE device cannot be used.
var ErrFuseUnavailable = errors.New("fuse device unavailable")

// Options configures the overlay mount.
type Options struct {
	// SourceDir is the real game data directory.
	SourceDir string

	// Mountpoint is where the overlay view is mounted. It is created if missing.
	Mountpoint string

	// Dispatcher serves every file open and read.
	Dispatcher *overlay.Dispatcher

	// AllowOther permits other users to access the mount.
	// Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Debug enables go-fuse request tracing.
	Debug bool

	// Logger receives diagnostic messages. If nil, messages are discarded.
	Logger *slog.Logger
}

// Available reports whether the FUSE device can be opened for read and write.
func Available() error {
	if err := unix.Access(DevicePath, unix.R_OK|unix.W_OK); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFuseUnavailable, DevicePath, err)
	}

	return nil
}

// Mount mounts the overlay view of SourceDir at Mountpoint.
// The caller must call Unmount on the returned server when done.
func Mount(options Options) (*fuse.Server, error) {
	if options.SourceDir == "" {
		return nil, fmt.Errorf("source directory is required")
	}
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}

	source, err := filepath.Abs(options.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolve source directory %s: %w", options.SourceDir, err)
	}

	fi, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("stat source directory: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("source %s is not a directory", source)
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	root := &dirNode{options: &options, path: source}

	entryTimeout := 1 * time.Second
	attrTimeout := 1 * time.Second
	negativeTimeout := 100 * time.Millisecond

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "dwpack-overlay",
			Name:       "dwpack",
			AllowOther: options.AllowOther,
			Debug:      options.Debug,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("overlay mounted", "source", source, "mountpoint", options.Mountpoint)
	return server, nil
}

// dirNode mirrors one source directory.
type dirNode struct {
	gofuse.Inode
	options *Options
	path    string
}

var _ gofuse.InodeEmbedder = (*dirNode)(nil)
var _ gofuse.NodeLookuper = (*dirNode)(nil)
var _ gofuse.NodeReaddirer = (*dirNode)(nil)
var _ gofuse.NodeGetattrer = (*dirNode)(nil)

func (d *dirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	path := filepath.Join(d.path, name)

	fi, err := os.Stat(path)
	if err != nil {
		return nil, gofuse.ToErrno(err)
	}

	switch {
	case fi.IsDir():
		fillAttr(fi, &out.Attr)
		child := d.NewInode(ctx, &dirNode{options: d.options, path: path}, gofuse.StableAttr{Mode: syscall.S_IFDIR})
		return child, 0
	case fi.Mode().IsRegular():
		fillAttr(fi, &out.Attr)
		child := d.NewInode(ctx, &fileNode{options: d.options, path: path}, gofuse.StableAttr{Mode: syscall.S_IFREG})
		return child, 0
	default:
		return nil, syscall.ENOENT
	}
}

func (d *dirNode) Readdir(_ context.Context) (gofuse.DirStream, syscall.Errno) {
	items, err := os.ReadDir(d.path)
	if err != nil {
		return nil, gofuse.ToErrno(err)
	}

	entries := make([]fuse.DirEntry, 0, len(items))
	for _, item := range items {
		fi, err := item.Info()
		if err != nil {
			continue
		}

		mode := uint32(syscall.S_IFREG)
		switch {
		case fi.IsDir():
			mode = syscall.S_IFDIR
		case !fi.Mode().IsRegular():
			// symlinks are followed on lookup
			target, err := os.Stat(filepath.Join(d.path, item.Name()))
			if err != nil {
				continue
			}
			if target.IsDir() {
				mode = syscall.S_IFDIR
			} else if !target.Mode().IsRegular() {
				continue
			}
		}

		entries = append(entries, fuse.DirEntry{Name: item.Name(), Mode: mode})
	}

	return gofuse.NewListDirStream(entries), 0
}

func (d *dirNode) Getattr(_ context.Context, _ gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	fi, err := os.Stat(d.path)
	if err != nil {
		return gofuse.ToErrno(err)
	}

	fillAttr(fi, &out.Attr)
	return 0
}

// fileNode mirrors one source file. All opens go through the dispatcher.
type fileNode struct {
	gofuse.Inode
	options *Options
	path    string
}

var _ gofuse.InodeEmbedder = (*fileNode)(nil)
var _ gofuse.NodeGetattrer = (*fileNode)(nil)
var _ gofuse.NodeOpener = (*fileNode)(nil)

func (f *fileNode) Getattr(_ context.Context, _ gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	fi, err := os.Stat(f.path)
	if err != nil {
		return gofuse.ToErrno(err)
	}

	fillAttr(fi, &out.Attr)
	return 0
}

func (f *fileNode) Open(_ context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}

	h, err := f.options.Dispatcher.Open(f.path, overlay.ReadOnly())
	if err != nil {
		f.options.Logger.Error("open failed", "path", f.path, "error", err)
		return nil, 0, gofuse.ToErrno(err)
	}

	// Direct I/O keeps the kernel from merging or splitting header and entry reads.
	return &fileHandle{options: f.options, path: f.path, handle: h}, fuse.FOPEN_DIRECT_IO, 0
}

// fileHandle is one open dispatcher handle.
type fileHandle struct {
	options *Options
	path    string
	handle  overlay.Handle
}

var _ gofuse.FileReader = (*fileHandle)(nil)
var _ gofuse.FileReleaser = (*fileHandle)(nil)

func (h *fileHandle) Read(_ context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := h.options.Dispatcher.Read(h.handle, dest, &off)
	if err != nil && n == 0 && !errors.Is(err, io.EOF) {
		h.options.Logger.Error("read failed",
			"path", h.path,
			"offset", off,
			"length", len(dest),
			"error", err,
		)
		return nil, gofuse.ToErrno(err)
	}

	return fuse.ReadResultData(dest[:n]), 0
}

func (h *fileHandle) Release(_ context.Context) syscall.Errno {
	if err := h.options.Dispatcher.Close(h.handle); err != nil {
		h.options.Logger.Warn("close failed", "path", h.path, "error", err)
		return gofuse.ToErrno(err)
	}

	return 0
}

// fillAttr copies read-only attributes of a source file.
func fillAttr(fi os.FileInfo, out *fuse.Attr) {
	if fi.IsDir() {
		out.Mode = syscall.S_IFDIR | 0o555
	} else {
		out.Mode = syscall.S_IFREG | 0o444
	}

	out.Size = uint64(fi.Size())
	out.Blocks = (out.Size + 511) / 512
	mtime := fi.ModTime()
	out.SetTimes(nil, &mtime, nil)
}
