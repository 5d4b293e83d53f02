package dwpack

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHeader(t *testing.T) {
	t.Parallel()

	raw := []byte{
		'D', 'W', '_', 'P', 'A', 'C', 'K', 0,
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x07, 0x00, 0x00, 0x00,
	}
	require.Len(t, raw, HeaderSize)

	h, err := DecodeHeader(raw)
	require.NoError(t, err)
	assert.True(t, h.Valid())
	assert.Equal(t, uint32(1), h.Field08)
	assert.Equal(t, uint32(2), h.FileCount)
	assert.Equal(t, uint32(7), h.Index)
	assert.Equal(t, int64(HeaderSize+2*EntrySize), h.DataStart())

	out := make([]byte, HeaderSize)
	require.NoError(t, EncodeHeader(out, h))
	assert.Equal(t, raw, out)
}

func TestDecodeHeader_ShortBuffer(t *testing.T) {
	t.Parallel()

	_, err := DecodeHeader(make([]byte, HeaderSize-1))
	require.ErrorIs(t, err, ErrShortBuffer)
	require.ErrorIs(t, EncodeHeader(make([]byte, 3), Header{}), ErrShortBuffer)
}

func TestEntry_EncodeDecode(t *testing.T) {
	t.Parallel()

	want := Entry{
		Path:             "face/002.tex",
		Field00:          3,
		ID:               9,
		Field104:         0xABCD,
		CompressedSize:   100,
		UncompressedSize: 400,
		Flags:            1,
		DataOffset:       4096,
	}

	buf := make([]byte, EntrySize)
	require.NoError(t, EncodeEntry(buf, want))
	assert.Equal(t, []byte("face/002.tex\x00"), buf[entryPathOffset:entryPathOffset+len(want.Path)+1])

	got, err := DecodeEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, got.IsCompressed())

	start, end := got.Span(1000)
	assert.Equal(t, int64(5096), start)
	assert.Equal(t, int64(5196), end)
}

func TestEncodeEntry_PathTooLong(t *testing.T) {
	t.Parallel()

	err := EncodeEntry(make([]byte, EntrySize), Entry{Path: string(bytes.Repeat([]byte{'a'}, EntryPathSize))})
	require.ErrorIs(t, err, ErrFileNameTooLong)
}

func TestPatchEntry_KeepsOpaqueBytes(t *testing.T) {
	t.Parallel()

	buf := make([]byte, EntrySize)
	require.NoError(t, EncodeEntry(buf, Entry{Path: "a.bin", ID: 4, CompressedSize: 10, UncompressedSize: 20, Flags: 1}))
	// garbage after the path terminator must survive patching
	buf[entryPathOffset+10] = 0xEE
	before := bytes.Clone(buf)

	require.NoError(t, PatchEntry(buf, Entry{CompressedSize: 9000, UncompressedSize: 9000}))

	assert.Equal(t, before[:entryCompressedSizeOffset], buf[:entryCompressedSizeOffset])
	got, err := DecodeEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, "a.bin", got.Path)
	assert.Equal(t, uint32(9000), got.CompressedSize)
	assert.Equal(t, uint32(9000), got.UncompressedSize)
	assert.Zero(t, got.Flags)
}

func TestEntryIndex(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		offset int64
		want   int
		ok     bool
	}{
		{name: "first", offset: HeaderSize, want: 0, ok: true},
		{name: "third", offset: HeaderSize + 2*EntrySize, want: 2, ok: true},
		{name: "inside header", offset: 4, ok: false},
		{name: "misaligned", offset: HeaderSize + 8, ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := EntryIndex(tc.offset)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}
