// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package overlay

// Native is the real implementation of the intercepted calls.
// Filters call it for pass-through; the dispatcher calls it for unclaimed files.
type Native interface {
	// Open opens path and returns a new handle.
	Open(path string, req OpenRequest) (Handle, error)
	// Read reads into p at *offset, or at the handle position when offset is nil.
	// It returns io.EOF only when no bytes could be read.
	Read(h Handle, p []byte, offset *int64) (int, error)
	// SetPosition moves the handle position.
	SetPosition(h Handle, position int64) error
	// QueryInfo reports handle information of the given class.
	QueryInfo(h Handle, class InfoClass) (FileInfo, error)
	// Close releases the handle.
	Close(h Handle) error
}

// Hooks is what a filter receives when it is registered.
type Hooks interface {
	Native
	// Suspend stops new opens from being claimed by any filter until
	// resume is called, so files the filter opens itself are not routed
	// back into it. Calls on handles already claimed still reach their filter.
	// Suspensions nest.
	Suspend() (resume func())
}

// Filter is a format-specific redirector.
// Handlers that do not need to intercept a call delegate to Hooks.
type Filter interface {
	// Bind hands the filter its hooks. Called on registration with nil on removal.
	Bind(hooks Hooks)
	// AcceptPath reports whether the filter owns opens of the canonical path.
	AcceptPath(path string) bool
	// AcceptHandle reports whether the filter owns calls on the handle.
	AcceptHandle(h Handle) bool

	Open(path string, req OpenRequest) (Handle, error)
	Read(h Handle, p []byte, offset *int64) (int, error)
	SetPosition(h Handle, position int64) error
	QueryInfo(h Handle, class InfoClass) (FileInfo, error)
	Close(h Handle) error
}
