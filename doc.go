// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

/*
Package dwpack describes the DW_PACK (PAC) packed-archive layout and provides
the building blocks of a transparent override overlay for it.

An archive is a fixed 0x14-byte header, a table of fixed 0x118-byte entry
records, and concatenated entry payloads. All integers are little-endian.
Payload of an entry lives at DataStart()+DataOffset and spans CompressedSize
bytes.

The overlay itself lives in subpackages:
  - overlay: filter contract and the dispatcher that routes intercepted
    open/read/set-position/query-info/close calls;
  - redirect: the DW_PACK filter that patches entry metadata and splices
    loose override files into data reads;
  - fusehost: a FUSE mirror that feeds a directory of archives through the
    dispatcher.

# Records

Decode and encode fixed records with bounds-checked helpers:

	h, err := dwpack.DecodeHeader(buf)
	if err != nil {
	    return err
	}
	e, err := dwpack.DecodeEntry(table[:dwpack.EntrySize])
	if err != nil {
	    return err
	}
	start, end := e.Span(h.DataStart())

# Reading

Open an archive and read stored payloads:

	r, err := dwpack.Open("chara00001.pac")
	if err != nil {
	    return err
	}
	defer r.Close()
	for _, e := range r.Entries() {
	    data, _ := r.ReadEntry(e.Path)
	    // use data
	}

# Packing

Build an uncompressed archive:

	_, err := dwpack.PackFile("chara00001.pac", []dwpack.Input{
	    {Path: "face/001.tex", Data: tex},
	}, dwpack.PackOptions{Index: 1})

# Overrides

Override files live at <root>/<archive base name>/<entry path>:

	p, ok := dwpack.OverridePath("mods/data", dwpack.ArchiveBaseName(archive), e.Path)
*/
package dwpack
