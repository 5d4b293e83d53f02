// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

/*
Package fusehost exposes a game data directory through a read-only FUSE
mount whose file I/O is routed through an overlay.Dispatcher.

Files are opened with direct I/O so every read the game issues reaches the
dispatcher with its original offset and length. Attributes are taken from the
source files, so archive sizes are reported as stored on disk.
*/
package fusehost
