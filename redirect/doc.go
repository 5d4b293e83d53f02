// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

/*
Package redirect implements the DW_PACK overlay filter.

The Redirector watches reads against accepted archives and classifies each
one by its offset and length:
  - header read: offset 0, length dwpack.HeaderSize;
  - entry read: inside the entry table, length dwpack.EntrySize;
  - data read: at or past the data start.

The header and every entry record are cached on first read and served from
the cache afterwards, so repeated probes observe identical bytes. When an
entry record is first read, the redirector looks for an override file at
<root>/<archive base name>/<entry path>. If one exists, the record handed to
the caller reports the override size with compression flags cleared, and
later data reads inside that entry are served from the override file.

	r, err := redirect.New(redirect.Options{
	    OverrideRoots: []string{"mods/data"},
	    Logger:        logger,
	})
	if err != nil {
	    return err
	}
	if err := dispatcher.AddFilter(r); err != nil {
	    return err
	}
*/
package redirect
