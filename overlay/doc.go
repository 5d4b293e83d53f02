// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

/*
Package overlay routes intercepted synchronous file calls to format filters.

A hook host (an OS-level hook installer, or the FUSE mirror in fusehost)
forwards every open, read, set-position, query-info and close call to a
Dispatcher. The dispatcher asks registered filters, in registration order,
whether they accept the path (on open) or handle (afterwards) and hands the
call to the first match. Calls nobody accepts go to the Native
implementation unchanged.

	native := overlay.NewOSNative()
	d := overlay.NewDispatcher(native, overlay.DispatcherOptions{Logger: logger})
	if err := d.AddFilter(redirector); err != nil {
	    return err
	}
	d.Activate()

	h, err := d.Open("data/chara00001.pac", overlay.ReadOnly())
	n, err := d.Read(h, buf, nil)

Each call category is serialized by its own lock, so a read never runs
concurrently with another read but may overlap a set-position call.
A panicking filter is recovered at the dispatcher and the call falls back to
the native implementation.
*/
package overlay
