package redirect

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/woozymasta/dwpack"
	"github.com/woozymasta/dwpack/overlay"
)

// testArchive is the two-entry archive used across redirector tests.
type testArchive struct {
	path         string
	overrideRoot string
	face1        []byte
	face2        []byte
	override     []byte
}

// patternBytes returns n bytes of a non-repeating-looking pattern seeded by seed.
func patternBytes(n int, seed byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i%251) ^ seed
	}

	return out
}

// newTestArchive writes chara00001.pac with face/001.tex (no override)
// and face/002.tex (compressed flag set, 9000-byte override present).
func newTestArchive(t *testing.T) *testArchive {
	t.Helper()

	dir := t.TempDir()
	ta := &testArchive{
		path:         filepath.Join(dir, "data", "chara00001.pac"),
		overrideRoot: filepath.Join(dir, "mods"),
		face1:        bytes.Repeat([]byte{0x11}, 4096),
		face2:        bytes.Repeat([]byte{0x22}, 100),
		override:     patternBytes(9000, 0x5A),
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(ta.path), 0o755))
	_, err := dwpack.PackFile(ta.path, []dwpack.Input{
		{Path: "face/001.tex", Data: ta.face1},
		{Path: "face/002.tex", Data: ta.face2},
	}, dwpack.PackOptions{Index: 1})
	require.NoError(t, err)

	setEntryFlags(t, ta.path, 1, 1)
	writeOverride(t, ta.overrideRoot, "chara00001", "face/002.tex", ta.override)
	return ta
}

// setEntryFlags rewrites flags of one entry record on disk.
func setEntryFlags(t *testing.T, archivePath string, index int, flags uint32) {
	t.Helper()

	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)

	record := data[dwpack.HeaderSize+index*dwpack.EntrySize:][:dwpack.EntrySize]
	entry, err := dwpack.DecodeEntry(record)
	require.NoError(t, err)
	entry.Flags = flags
	require.NoError(t, dwpack.PatchEntry(record, entry))
	require.NoError(t, os.WriteFile(archivePath, data, 0o644))
}

// writeOverride places an override file under root.
func writeOverride(t *testing.T, root string, archiveName string, entryPath string, data []byte) string {
	t.Helper()

	path := filepath.Join(root, archiveName, filepath.FromSlash(entryPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// newTestDispatcher wires a redirector into an active dispatcher over OS files.
func newTestDispatcher(t *testing.T, opts Options) (*overlay.Dispatcher, *Redirector, *overlay.OSNative) {
	t.Helper()

	r, err := New(opts)
	require.NoError(t, err)

	native := overlay.NewOSNative()
	d := overlay.NewDispatcher(native, overlay.DispatcherOptions{})
	require.NoError(t, d.AddFilter(r))
	d.Activate()
	return d, r, native
}

// readAt issues a read with an explicit offset and requires success.
func readAt(t *testing.T, d *overlay.Dispatcher, h overlay.Handle, offset int64, length int) []byte {
	t.Helper()

	buf := make([]byte, length)
	n, err := d.Read(h, buf, &offset)
	require.NoError(t, err)
	require.Equal(t, length, n)
	return buf
}

// entryOffset returns absolute table offset of entry index.
func entryOffset(index int) int64 {
	return int64(dwpack.HeaderSize + index*dwpack.EntrySize)
}
