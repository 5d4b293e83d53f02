package dwpack

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createExtractPack writes an archive with one compressed-flagged entry.
func createExtractPack(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "chara00001.pac")
	_, err := PackFile(path, []Input{
		{Path: "face/001.tex", Data: []byte("first face")},
		{Path: "face/002.tex", Data: []byte("second face")},
		{Path: "body/001.tex", Data: []byte("packed body")},
	}, PackOptions{})
	if err != nil {
		t.Fatalf("PackFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	record := data[HeaderSize+2*EntrySize:][:EntrySize]
	entry, err := DecodeEntry(record)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	entry.Flags = 1
	if err := PatchEntry(record, entry); err != nil {
		t.Fatalf("PatchEntry: %v", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	return path
}

func TestExtract(t *testing.T) {
	t.Parallel()

	r, err := Open(createExtractPack(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	outDir := t.TempDir()
	var (
		mu   sync.Mutex
		done []string
	)
	err = r.Extract(context.Background(), outDir, ExtractOptions{
		MaxWorkers: 2,
		OnEntryDone: func(entry Entry, _ int64, _ string) {
			mu.Lock()
			done = append(done, entry.Path)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(done) != 3 {
		t.Fatalf("len(done)=%d, want 3", len(done))
	}

	got, err := os.ReadFile(filepath.Join(outDir, "face", "002.tex"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, []byte("second face")) {
		t.Fatalf("face/002.tex=%q, want %q", got, "second face")
	}
}

func TestExtractPrefixSkipCompressed(t *testing.T) {
	t.Parallel()

	r, err := Open(createExtractPack(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	outDir := t.TempDir()
	if err := r.Extract(context.Background(), outDir, ExtractOptions{SkipCompressed: true}); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outDir, "body", "001.tex")); !os.IsNotExist(err) {
		t.Fatalf("compressed entry extracted, stat err=%v", err)
	}

	prefixDir := t.TempDir()
	if err := r.Extract(context.Background(), prefixDir, ExtractOptions{Prefix: "body"}); err != nil {
		t.Fatalf("Extract prefix: %v", err)
	}

	entries, err := os.ReadDir(prefixDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "body" {
		t.Fatalf("prefix extract produced %v, want only body", entries)
	}
}

func TestExtractClosedReader(t *testing.T) {
	t.Parallel()

	r, err := Open(createExtractPack(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = r.Close()

	err = r.Extract(context.Background(), t.TempDir(), ExtractOptions{})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("Extract after Close err=%v, want ErrClosed", err)
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	t.Parallel()

	r, err := Open(createExtractPack(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	err = r.Extract(context.Background(), t.TempDir(), ExtractOptions{
		Entries: []Entry{{Path: "../escape.tex", CompressedSize: 1}},
	})
	if !errors.Is(err, ErrInvalidExtractPath) {
		t.Fatalf("Extract traversal err=%v, want ErrInvalidExtractPath", err)
	}
}

func TestExtractRelPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "face/001.tex", want: "face/001.tex"},
		{in: `face\sub\.\002.tex`, want: "face/sub/002.tex"},
		{in: "/abs.tex", wantErr: true},
		{in: "C:/abs.tex", wantErr: true},
		{in: "a/../b.tex", wantErr: true},
		{in: "  ", wantErr: true},
		{in: "d:face.tex", wantErr: true},
	}

	for _, tc := range tests {
		got, err := extractRelPath(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("extractRelPath(%q) expected error", tc.in)
			}
			continue
		}

		if err != nil {
			t.Fatalf("extractRelPath(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("extractRelPath(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtractOverrideLayout(t *testing.T) {
	t.Parallel()

	r, err := Open(createExtractPack(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	root := t.TempDir()
	if err := r.Extract(context.Background(), root, ExtractOptions{OverrideLayout: true, SkipCompressed: true}); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	overridePath, ok := OverridePath(root, "chara00001", "face/001.tex")
	if !ok {
		t.Fatal("OverridePath returned false")
	}
	got, err := os.ReadFile(overridePath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "first face" {
		t.Fatalf("override=%q, want %q", got, "first face")
	}

	var buf bytes.Buffer
	if _, err := Pack(&buf, []Input{{Path: "a.tex", Data: []byte("a")}}, PackOptions{}); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	memReader, err := NewReaderFromReaderAt(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("NewReaderFromReaderAt: %v", err)
	}

	err = memReader.Extract(context.Background(), root, ExtractOptions{OverrideLayout: true})
	if !errors.Is(err, ErrInvalidExtractPath) {
		t.Fatalf("Extract without archive name err=%v, want ErrInvalidExtractPath", err)
	}
}
