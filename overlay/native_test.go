package overlay

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSNative_ReadSemantics(t *testing.T) {
	t.Parallel()

	n := NewOSNative()
	h, err := n.Open(writeTempFile(t, "f.bin", "abcdef"), ReadOnly())
	require.NoError(t, err)
	defer func() { _ = n.Close(h) }()

	buf := make([]byte, 4)
	offset := int64(4)
	read, err := n.Read(h, buf, &offset)
	require.NoError(t, err, "short read at end must not report EOF")
	assert.Equal(t, "ef", string(buf[:read]))

	info, err := n.QueryInfo(h, InfoPosition)
	require.NoError(t, err)
	assert.Equal(t, int64(6), info.Position)

	read, err = n.Read(h, buf, nil)
	assert.Zero(t, read)
	require.ErrorIs(t, err, io.EOF)

	require.NoError(t, n.SetPosition(h, 1))
	read, err = n.Read(h, buf, nil)
	require.NoError(t, err)
	assert.Equal(t, "bcde", string(buf[:read]))

	require.ErrorIs(t, n.SetPosition(h, -1), ErrNegativePosition)
	_, err = n.QueryInfo(h, InfoClass(99))
	require.ErrorIs(t, err, ErrUnsupportedInfoClass)
}

func TestOSNative_InvalidHandle(t *testing.T) {
	t.Parallel()

	n := NewOSNative()
	_, err := n.Read(42, make([]byte, 1), nil)
	require.ErrorIs(t, err, ErrInvalidHandle)
	require.ErrorIs(t, n.Close(42), ErrInvalidHandle)

	h, err := n.Open("", ReadOnly())
	require.ErrorIs(t, err, ErrInvalidPath)
	assert.Equal(t, InvalidHandle, h)
}

func TestOSNative_OpenDispositions(t *testing.T) {
	t.Parallel()

	n := NewOSNative()
	path := filepath.Join(t.TempDir(), "new.bin")

	_, err := n.Open(path, ReadOnly())
	require.ErrorIs(t, err, os.ErrNotExist)

	h, err := n.Open(path, OpenRequest{Access: AccessRead | AccessWrite, Disposition: CreateNew})
	require.NoError(t, err)
	require.NoError(t, n.Close(h))

	_, err = n.Open(path, OpenRequest{Access: AccessWrite, Disposition: CreateNew})
	require.ErrorIs(t, err, os.ErrExist)
	assert.Zero(t, n.Len())
}

func TestCanonicalPath(t *testing.T) {
	t.Parallel()

	abs := filepath.Join(t.TempDir(), "data", "a.pac")

	got, ok := CanonicalPath(`\??\` + abs)
	require.True(t, ok)
	assert.Equal(t, abs, got)

	got, ok = CanonicalPath(abs + string(filepath.Separator) + ".")
	require.True(t, ok)
	assert.Equal(t, abs, got)

	_, ok = CanonicalPath("")
	assert.False(t, ok)
	_, ok = CanonicalPath(`\??\`)
	assert.False(t, ok)
}
