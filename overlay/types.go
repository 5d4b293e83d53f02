// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package overlay

// Handle identifies an open file in the host process.
type Handle uint64

// InvalidHandle is never returned by a successful open.
const InvalidHandle Handle = 0

// Access is the requested access mask for open.
type Access uint32

// Access bits.
const (
	AccessRead Access = 1 << iota
	AccessWrite
)

// Share is the requested share mode for open.
type Share uint32

// Share bits.
const (
	ShareRead Share = 1 << iota
	ShareWrite
	ShareDelete
)

// Disposition controls what open does when the file exists or is missing.
type Disposition uint32

// Open dispositions.
const (
	// OpenExisting fails when the file is missing.
	OpenExisting Disposition = iota
	// OpenAlways creates the file when missing.
	OpenAlways
	// CreateNew fails when the file exists.
	CreateNew
	// CreateAlways creates or truncates.
	CreateAlways
	// TruncateExisting truncates an existing file and fails when missing.
	TruncateExisting
)

// OpenRequest carries the original arguments of an intercepted open call.
type OpenRequest struct {
	Access      Access
	Share       Share
	Disposition Disposition
}

// ReadOnly returns the request a reader of existing archives issues.
func ReadOnly() OpenRequest {
	return OpenRequest{
		Access:      AccessRead,
		Share:       ShareRead,
		Disposition: OpenExisting,
	}
}

// InfoClass selects what a query-info or set-position call addresses.
type InfoClass uint32

// Info classes.
const (
	// InfoStandard reports file size.
	InfoStandard InfoClass = iota + 1
	// InfoPosition reports current handle position.
	InfoPosition
)

// String returns info class name for logs.
func (c InfoClass) String() string {
	switch c {
	case InfoStandard:
		return "standard"
	case InfoPosition:
		return "position"
	default:
		return "unknown"
	}
}

// FileInfo is the result of a query-info call.
type FileInfo struct {
	// Size is end-of-file offset in bytes.
	Size int64 `json:"size" yaml:"size"`
	// Position is current handle position.
	Position int64 `json:"position" yaml:"position"`
	// Class is the info class that produced this value.
	Class InfoClass `json:"class" yaml:"class"`
}
