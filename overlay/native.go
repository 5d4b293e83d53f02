// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package overlay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// OSNative implements Native on top of os.File.
// Handles are allocated on open and freed on close.
type OSNative struct {
	files map[Handle]*os.File
	mu    sync.Mutex
	next  Handle
}

var _ Native = (*OSNative)(nil)

// NewOSNative returns an empty handle table.
func NewOSNative() *OSNative {
	return &OSNative{files: make(map[Handle]*os.File)}
}

// Open opens path with flags derived from req.
func (n *OSNative) Open(path string, req OpenRequest) (Handle, error) {
	if path == "" {
		return InvalidHandle, ErrInvalidPath
	}

	f, err := os.OpenFile(path, openFlags(req), 0o644)
	if err != nil {
		return InvalidHandle, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.next++
	h := n.next
	n.files[h] = f
	return h, nil
}

// Read reads like a synchronous NtReadFile: an explicit offset also moves
// the handle position past the bytes read.
func (n *OSNative) Read(h Handle, p []byte, offset *int64) (int, error) {
	f, err := n.file(h)
	if err != nil {
		return 0, err
	}

	if offset == nil {
		return f.Read(p)
	}

	read, err := f.ReadAt(p, *offset)
	if errors.Is(err, io.EOF) && read > 0 {
		err = nil
	}
	if _, seekErr := f.Seek(*offset+int64(read), io.SeekStart); seekErr != nil && err == nil {
		err = fmt.Errorf("advance position: %w", seekErr)
	}

	return read, err
}

// SetPosition moves the handle position.
func (n *OSNative) SetPosition(h Handle, position int64) error {
	if position < 0 {
		return ErrNegativePosition
	}

	f, err := n.file(h)
	if err != nil {
		return err
	}

	_, err = f.Seek(position, io.SeekStart)
	return err
}

// QueryInfo reports size or current position.
func (n *OSNative) QueryInfo(h Handle, class InfoClass) (FileInfo, error) {
	f, err := n.file(h)
	if err != nil {
		return FileInfo{}, err
	}

	switch class {
	case InfoStandard:
		fi, err := f.Stat()
		if err != nil {
			return FileInfo{}, err
		}

		return FileInfo{Class: class, Size: fi.Size()}, nil
	case InfoPosition:
		pos, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return FileInfo{}, err
		}

		return FileInfo{Class: class, Position: pos}, nil
	default:
		return FileInfo{}, fmt.Errorf("%w: %d", ErrUnsupportedInfoClass, class)
	}
}

// Close closes the file and frees the handle.
func (n *OSNative) Close(h Handle) error {
	n.mu.Lock()
	f, ok := n.files[h]
	delete(n.files, h)
	n.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}

	return f.Close()
}

// Len returns number of live handles.
func (n *OSNative) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.files)
}

// file resolves a live handle.
func (n *OSNative) file(h Handle) (*os.File, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	f, ok := n.files[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}

	return f, nil
}

// openFlags maps access and disposition to os.OpenFile flags.
// Share modes have no POSIX equivalent and are ignored.
func openFlags(req OpenRequest) int {
	var flags int
	switch {
	case req.Access&AccessRead != 0 && req.Access&AccessWrite != 0:
		flags = os.O_RDWR
	case req.Access&AccessWrite != 0:
		flags = os.O_WRONLY
	default:
		flags = os.O_RDONLY
	}

	switch req.Disposition {
	case OpenAlways:
		flags |= os.O_CREATE
	case CreateNew:
		flags |= os.O_CREATE | os.O_EXCL
	case CreateAlways:
		flags |= os.O_CREATE | os.O_TRUNC
	case TruncateExisting:
		flags |= os.O_TRUNC
	}

	return flags
}
