package overlay

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingFilter claims paths with a suffix and counts calls.
type recordingFilter struct {
	hooks   Hooks
	suffix  string
	owned   map[Handle]bool
	opens   int
	reads   int
	panicOn string
	fill    byte
}

func newRecordingFilter(suffix string) *recordingFilter {
	return &recordingFilter{suffix: suffix, owned: make(map[Handle]bool)}
}

func (f *recordingFilter) Bind(hooks Hooks) { f.hooks = hooks }

func (f *recordingFilter) AcceptPath(path string) bool { return strings.HasSuffix(path, f.suffix) }

func (f *recordingFilter) AcceptHandle(h Handle) bool { return f.owned[h] }

func (f *recordingFilter) Open(path string, req OpenRequest) (Handle, error) {
	f.opens++
	if f.panicOn == "open" {
		panic("open exploded")
	}

	h, err := f.hooks.Open(path, req)
	if err == nil && f.panicOn == "after-open" {
		panic("open exploded after native open")
	}
	if err == nil {
		f.owned[h] = true
	}
	return h, err
}

func (f *recordingFilter) Read(h Handle, p []byte, offset *int64) (int, error) {
	f.reads++
	if f.panicOn == "read" {
		panic("read exploded")
	}
	if f.fill != 0 {
		for i := range p {
			p[i] = f.fill
		}
		return len(p), nil
	}

	return f.hooks.Read(h, p, offset)
}

func (f *recordingFilter) SetPosition(h Handle, position int64) error {
	return f.hooks.SetPosition(h, position)
}

func (f *recordingFilter) QueryInfo(h Handle, class InfoClass) (FileInfo, error) {
	return f.hooks.QueryInfo(h, class)
}

func (f *recordingFilter) Close(h Handle) error {
	delete(f.owned, h)
	return f.hooks.Close(h)
}

func writeTempFile(t *testing.T, name string, data string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestDispatcher_RegistrationAfterActivationFails(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(NewOSNative(), DispatcherOptions{})
	f := newRecordingFilter(".pac")
	require.NoError(t, d.AddFilter(f))
	require.NotNil(t, f.hooks)
	require.ErrorIs(t, d.AddFilter(nil), ErrNilFilter)

	d.Activate()
	require.ErrorIs(t, d.AddFilter(newRecordingFilter(".xwb")), ErrActivated)
	require.ErrorIs(t, d.RemoveFilter(f), ErrActivated)
}

func TestDispatcher_RemoveFilterBeforeActivation(t *testing.T) {
	t.Parallel()

	native := NewOSNative()
	d := NewDispatcher(native, DispatcherOptions{})
	f := newRecordingFilter(".pac")
	require.NoError(t, d.AddFilter(f))
	require.NoError(t, d.RemoveFilter(f))
	assert.Nil(t, f.hooks)
	d.Activate()

	h, err := d.Open(writeTempFile(t, "a.pac", "x"), ReadOnly())
	require.NoError(t, err)
	assert.Zero(t, f.opens)
	require.NoError(t, d.Close(h))
}

func TestDispatcher_FirstMatchingFilterWins(t *testing.T) {
	t.Parallel()

	native := NewOSNative()
	d := NewDispatcher(native, DispatcherOptions{})
	first := newRecordingFilter(".pac")
	second := newRecordingFilter(".pac")
	require.NoError(t, d.AddFilter(first))
	require.NoError(t, d.AddFilter(second))
	d.Activate()

	path := writeTempFile(t, "chara00001.pac", "archive-bytes")
	h, err := d.Open(path, ReadOnly())
	require.NoError(t, err)
	assert.Equal(t, 1, first.opens)
	assert.Zero(t, second.opens)

	buf := make([]byte, 7)
	n, err := d.Read(h, buf, nil)
	require.NoError(t, err)
	assert.Equal(t, "archive", string(buf[:n]))
	assert.Equal(t, 1, first.reads)

	gotPath, pos, ok := d.Lookup(h)
	require.True(t, ok)
	assert.Equal(t, path, gotPath)
	assert.Equal(t, int64(7), pos)

	require.NoError(t, d.Close(h))
	assert.Zero(t, d.Tracked())
	assert.Zero(t, native.Len())
}

func TestDispatcher_PassThroughUnclaimedPath(t *testing.T) {
	t.Parallel()

	native := NewOSNative()
	d := NewDispatcher(native, DispatcherOptions{})
	f := newRecordingFilter(".pac")
	require.NoError(t, d.AddFilter(f))
	d.Activate()

	h, err := d.Open(writeTempFile(t, "sound.xwb", "0123456789"), ReadOnly())
	require.NoError(t, err)
	assert.Zero(t, f.opens)

	offset := int64(4)
	buf := make([]byte, 3)
	n, err := d.Read(h, buf, &offset)
	require.NoError(t, err)
	assert.Equal(t, "456", string(buf[:n]))
	assert.Zero(t, f.reads)

	_, pos, ok := d.Lookup(h)
	require.True(t, ok)
	assert.Equal(t, int64(7), pos)

	require.NoError(t, d.SetPosition(h, 1))
	_, pos, _ = d.Lookup(h)
	assert.Equal(t, int64(1), pos)

	info, err := d.QueryInfo(h, InfoPosition)
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.Position)

	info, err = d.QueryInfo(h, InfoStandard)
	require.NoError(t, err)
	assert.Equal(t, int64(10), info.Size)

	require.NoError(t, d.Close(h))
}

func TestDispatcher_ReadPanicFallsBackToNative(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(NewOSNative(), DispatcherOptions{})
	f := newRecordingFilter(".pac")
	require.NoError(t, d.AddFilter(f))
	d.Activate()

	h, err := d.Open(writeTempFile(t, "a.pac", "real"), ReadOnly())
	require.NoError(t, err)

	f.panicOn = "read"
	buf := make([]byte, 4)
	n, err := d.Read(h, buf, nil)
	require.NoError(t, err)
	assert.Equal(t, "real", string(buf[:n]))
	assert.Equal(t, 1, f.reads)
}

func TestDispatcher_OpenPanicFallsBackToNative(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(NewOSNative(), DispatcherOptions{})
	f := newRecordingFilter(".pac")
	f.panicOn = "open"
	require.NoError(t, d.AddFilter(f))
	d.Activate()

	h, err := d.Open(writeTempFile(t, "a.pac", "real"), ReadOnly())
	require.NoError(t, err)
	assert.NotEqual(t, InvalidHandle, h)
	assert.False(t, f.AcceptHandle(h))
	require.NoError(t, d.Close(h))
}

func TestDispatcher_InactiveAndSuspendedPassThrough(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(NewOSNative(), DispatcherOptions{})
	f := newRecordingFilter(".pac")
	f.fill = 'Z'
	require.NoError(t, d.AddFilter(f))

	path := writeTempFile(t, "a.pac", "real")

	// not activated yet
	h, err := d.Open(path, ReadOnly())
	require.NoError(t, err)
	assert.Zero(t, f.opens)
	assert.Zero(t, d.Tracked())
	require.NoError(t, d.Close(h))

	d.Activate()
	h, err = d.Open(path, ReadOnly())
	require.NoError(t, err)

	buf := make([]byte, 4)
	_, err = d.Read(h, buf, nil)
	require.NoError(t, err)
	assert.Equal(t, "ZZZZ", string(buf))

	resume := f.hooks.Suspend()
	assert.True(t, d.Suspended())

	// new opens are not claimed while suspended
	raw, err := d.Open(path, ReadOnly())
	require.NoError(t, err)
	assert.Equal(t, 1, f.opens)
	_, err = d.Read(raw, buf, nil)
	require.NoError(t, err)
	assert.Equal(t, "real", string(buf))
	require.NoError(t, d.Close(raw))

	// owned handles still reach the filter
	offset := int64(0)
	_, err = d.Read(h, buf, &offset)
	require.NoError(t, err)
	assert.Equal(t, "ZZZZ", string(buf))

	resume()
	resume()
	assert.False(t, d.Suspended())
	assert.True(t, d.Enabled())

	d.Disable()
	assert.False(t, d.Enabled())
	d.Enable()
	assert.True(t, d.Enabled())
	require.NoError(t, d.Close(h))
}

func TestDispatcher_OpenMissingFile(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(NewOSNative(), DispatcherOptions{})
	require.NoError(t, d.AddFilter(newRecordingFilter(".pac")))
	d.Activate()

	_, err := d.Open(filepath.Join(t.TempDir(), "missing.pac"), ReadOnly())
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Zero(t, d.Tracked())
}

func TestDispatcher_SuspensionsNest(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(NewOSNative(), DispatcherOptions{})
	f := newRecordingFilter(".pac")
	require.NoError(t, d.AddFilter(f))
	d.Activate()

	outer := f.hooks.Suspend()
	inner := f.hooks.Suspend()
	inner()
	assert.True(t, d.Suspended())
	outer()
	assert.False(t, d.Suspended())
}

func TestDispatcher_CloseReachesFilterWhileSuspended(t *testing.T) {
	t.Parallel()

	native := NewOSNative()
	d := NewDispatcher(native, DispatcherOptions{})
	f := newRecordingFilter(".pac")
	require.NoError(t, d.AddFilter(f))
	d.Activate()

	h, err := d.Open(writeTempFile(t, "a.pac", "real"), ReadOnly())
	require.NoError(t, err)
	require.True(t, f.AcceptHandle(h))

	resume := f.hooks.Suspend()
	require.NoError(t, d.Close(h))
	resume()

	assert.False(t, f.AcceptHandle(h))
	assert.Zero(t, native.Len())
	assert.Zero(t, d.Tracked())
}

func TestDispatcher_CloseReachesFilterWhileDisabled(t *testing.T) {
	t.Parallel()

	native := NewOSNative()
	d := NewDispatcher(native, DispatcherOptions{})
	f := newRecordingFilter(".pac")
	require.NoError(t, d.AddFilter(f))
	d.Activate()

	h, err := d.Open(writeTempFile(t, "a.pac", "real"), ReadOnly())
	require.NoError(t, err)

	d.Disable()
	require.NoError(t, d.Close(h))
	d.Enable()

	assert.False(t, f.AcceptHandle(h))
	assert.Zero(t, native.Len())
}

func TestDispatcher_OpenPanicAfterNativeOpenReleasesHandle(t *testing.T) {
	t.Parallel()

	native := NewOSNative()
	d := NewDispatcher(native, DispatcherOptions{})
	f := newRecordingFilter(".pac")
	f.panicOn = "after-open"
	require.NoError(t, d.AddFilter(f))
	d.Activate()

	h, err := d.Open(writeTempFile(t, "a.pac", "real"), ReadOnly())
	require.NoError(t, err)
	assert.Equal(t, 1, native.Len())

	buf := make([]byte, 4)
	_, err = d.Read(h, buf, nil)
	require.NoError(t, err)
	assert.Equal(t, "real", string(buf))

	require.NoError(t, d.Close(h))
	assert.Zero(t, native.Len())
}
