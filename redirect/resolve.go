// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package redirect

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/woozymasta/dwpack"
)

// resolve looks up an override file for entry and redirects it when found.
func (r *Redirector) resolve(pack *packedArchive, entry *archiveEntry) {
	for _, root := range r.roots {
		candidate, ok := dwpack.OverridePath(root, pack.name, entry.original.Path)
		if !ok {
			return
		}

		fi, err := os.Stat(candidate)
		if err != nil || !fi.Mode().IsRegular() {
			r.logger.Debug("no redirection",
				"archive", pack.name,
				"entry", entry.original.Path,
				"candidate", candidate,
			)
			continue
		}

		if fi.Size() > math.MaxUint32 {
			r.logger.Error("override too large for DW_PACK entry",
				"archive", pack.name,
				"entry", entry.original.Path,
				"override", candidate,
				"size", fi.Size(),
			)
			continue
		}

		entry.redirect(candidate, uint32(fi.Size()))
		r.logger.Debug("redirected entry",
			"archive", pack.name,
			"entry", entry.original.Path,
			"override", candidate,
			"size", fi.Size(),
		)
		return
	}
}

// dump writes buf to DumpDir with interception suspended.
func (r *Redirector) dump(pack *packedArchive, offset int64, buf []byte) {
	if r.dumpDir == "" {
		return
	}

	resume := r.hooks.Suspend()
	defer resume()

	if err := os.MkdirAll(r.dumpDir, 0o755); err != nil {
		r.logger.Warn("create dump directory failed", "dir", r.dumpDir, "error", err)
		return
	}

	name := fmt.Sprintf("%s_%08X_%08X.bin", pack.name, offset, len(buf))
	if err := os.WriteFile(filepath.Join(r.dumpDir, name), buf, 0o644); err != nil {
		r.logger.Warn("write dump failed", "file", name, "error", err)
	}
}
