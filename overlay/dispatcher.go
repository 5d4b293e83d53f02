// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dwpack

package overlay

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	// Logger receives diagnostic messages. If nil, messages are discarded.
	Logger *slog.Logger
}

// openScope collects native handles opened through hooks while a filter Open runs.
type openScope struct {
	handles []Handle
}

// handleRecord is the dispatcher's own view of an open handle.
type handleRecord struct {
	path     string
	position int64
}

// Dispatcher routes intercepted calls to the first accepting filter.
type Dispatcher struct {
	native  Native
	logger  *slog.Logger
	filters []Filter
	handles map[Handle]*handleRecord

	// one lock per call category
	openMu     sync.Mutex
	readMu     sync.Mutex
	positionMu sync.Mutex
	queryMu    sync.Mutex
	closeMu    sync.Mutex

	// filtersMu guards filter registration.
	filtersMu sync.Mutex
	// handlesMu guards the handle table shared by all categories.
	handlesMu sync.Mutex

	// scopeMu guards scope.
	scopeMu sync.Mutex
	scope   *openScope

	activated atomic.Bool
	enabled   atomic.Bool
	// suspended counts outstanding Hooks.Suspend calls.
	suspended atomic.Int32
}

// NewDispatcher creates an inactive dispatcher over native.
func NewDispatcher(native Native, opts DispatcherOptions) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Dispatcher{
		native:  native,
		logger:  logger.With("component", "dispatcher"),
		handles: make(map[Handle]*handleRecord),
	}
}

// AddFilter registers f after all previously registered filters.
func (d *Dispatcher) AddFilter(f Filter) error {
	if f == nil {
		return ErrNilFilter
	}

	d.filtersMu.Lock()
	defer d.filtersMu.Unlock()

	if d.activated.Load() {
		return ErrActivated
	}

	f.Bind(&dispatcherHooks{native: d.native, dispatcher: d})
	d.filters = append(d.filters, f)
	return nil
}

// RemoveFilter unregisters f.
func (d *Dispatcher) RemoveFilter(f Filter) error {
	d.filtersMu.Lock()
	defer d.filtersMu.Unlock()

	if d.activated.Load() {
		return ErrActivated
	}

	for i := range d.filters {
		if d.filters[i] == f {
			f.Bind(nil)
			d.filters = append(d.filters[:i], d.filters[i+1:]...)
			return nil
		}
	}

	return nil
}

// Activate freezes the filter list and starts routing calls to filters.
func (d *Dispatcher) Activate() {
	d.filtersMu.Lock()
	defer d.filtersMu.Unlock()

	d.activated.Store(true)
	d.enabled.Store(true)
}

// Enable resumes routing after Disable.
func (d *Dispatcher) Enable() {
	if d.activated.Load() {
		d.enabled.Store(true)
	}
}

// Disable sends every call straight to the native implementation.
func (d *Dispatcher) Disable() {
	d.enabled.Store(false)
}

// Enabled reports whether calls are routed to filters.
func (d *Dispatcher) Enabled() bool {
	return d.enabled.Load()
}

// Suspended reports whether a filter has suspended claiming of new opens.
func (d *Dispatcher) Suspended() bool {
	return d.suspended.Load() > 0
}

// Open handles an intercepted open call.
func (d *Dispatcher) Open(rawPath string, req OpenRequest) (Handle, error) {
	d.openMu.Lock()
	defer d.openMu.Unlock()

	if !d.enabled.Load() || d.suspended.Load() > 0 {
		return d.native.Open(rawPath, req)
	}

	path, ok := CanonicalPath(rawPath)
	if !ok {
		return d.native.Open(rawPath, req)
	}

	var (
		h   Handle
		err error
	)
	if f := d.filterForPath(path); f != nil {
		h, err = d.openFiltered(f, path, req)
	} else {
		h, err = d.native.Open(path, req)
	}
	if err != nil {
		return h, err
	}

	d.handlesMu.Lock()
	d.handles[h] = &handleRecord{path: path}
	d.handlesMu.Unlock()

	return h, nil
}

// Read handles an intercepted read call. A nil offset reads at the handle position.
func (d *Dispatcher) Read(h Handle, p []byte, offset *int64) (int, error) {
	d.readMu.Lock()
	defer d.readMu.Unlock()

	if !d.enabled.Load() {
		return d.native.Read(h, p, offset)
	}

	var (
		n   int
		err error
	)
	if f := d.filterForHandle(h); f != nil {
		n, err = guard(d, "read", h,
			func() (int, error) { return f.Read(h, p, offset) },
			func() (int, error) { return d.native.Read(h, p, offset) },
		)
	} else {
		n, err = d.native.Read(h, p, offset)
	}

	if n > 0 {
		d.handlesMu.Lock()
		if rec, ok := d.handles[h]; ok {
			if offset != nil {
				rec.position = *offset
			}
			rec.position += int64(n)
		}
		d.handlesMu.Unlock()
	}

	return n, err
}

// SetPosition handles an intercepted set-position call.
func (d *Dispatcher) SetPosition(h Handle, position int64) error {
	d.positionMu.Lock()
	defer d.positionMu.Unlock()

	if !d.enabled.Load() {
		return d.native.SetPosition(h, position)
	}

	d.handlesMu.Lock()
	if rec, ok := d.handles[h]; ok && position >= 0 {
		rec.position = position
	}
	d.handlesMu.Unlock()

	if f := d.filterForHandle(h); f != nil {
		_, err := guard(d, "set-position", h,
			func() (struct{}, error) { return struct{}{}, f.SetPosition(h, position) },
			func() (struct{}, error) { return struct{}{}, d.native.SetPosition(h, position) },
		)
		return err
	}

	return d.native.SetPosition(h, position)
}

// QueryInfo handles an intercepted query-info call.
func (d *Dispatcher) QueryInfo(h Handle, class InfoClass) (FileInfo, error) {
	d.queryMu.Lock()
	defer d.queryMu.Unlock()

	if !d.enabled.Load() {
		return d.native.QueryInfo(h, class)
	}

	if f := d.filterForHandle(h); f != nil {
		return guard(d, "query-info", h,
			func() (FileInfo, error) { return f.QueryInfo(h, class) },
			func() (FileInfo, error) { return d.native.QueryInfo(h, class) },
		)
	}

	return d.native.QueryInfo(h, class)
}

// Close handles an intercepted close call and forgets the handle.
// Once activated, the owning filter sees every close, even while disabled.
func (d *Dispatcher) Close(h Handle) error {
	d.closeMu.Lock()
	defer d.closeMu.Unlock()

	defer func() {
		d.handlesMu.Lock()
		delete(d.handles, h)
		d.handlesMu.Unlock()
	}()

	if !d.activated.Load() {
		return d.native.Close(h)
	}

	if f := d.filterForHandle(h); f != nil {
		_, err := guard(d, "close", h,
			func() (struct{}, error) { return struct{}{}, f.Close(h) },
			func() (struct{}, error) { return struct{}{}, d.native.Close(h) },
		)
		return err
	}

	return d.native.Close(h)
}

// Lookup returns the canonical path and last known position of a tracked handle.
func (d *Dispatcher) Lookup(h Handle) (string, int64, bool) {
	d.handlesMu.Lock()
	defer d.handlesMu.Unlock()

	rec, ok := d.handles[h]
	if !ok {
		return "", 0, false
	}

	return rec.path, rec.position, true
}

// Tracked returns number of tracked handles.
func (d *Dispatcher) Tracked() int {
	d.handlesMu.Lock()
	defer d.handlesMu.Unlock()

	return len(d.handles)
}

// openFiltered runs f.Open. If f panics, handles it already opened
// through hooks are closed before the native fallback.
func (d *Dispatcher) openFiltered(f Filter, path string, req OpenRequest) (Handle, error) {
	scope := &openScope{}

	d.scopeMu.Lock()
	d.scope = scope
	d.scopeMu.Unlock()

	defer func() {
		d.scopeMu.Lock()
		d.scope = nil
		d.scopeMu.Unlock()
	}()

	return guard(d, "open", InvalidHandle,
		func() (Handle, error) { return f.Open(path, req) },
		func() (Handle, error) {
			d.releaseScope(scope)
			return d.native.Open(path, req)
		},
	)
}

// trackOpen records h in the running open scope, if any.
func (d *Dispatcher) trackOpen(h Handle) {
	d.scopeMu.Lock()
	defer d.scopeMu.Unlock()

	if d.scope != nil {
		d.scope.handles = append(d.scope.handles, h)
	}
}

// releaseScope closes handles leaked by a panicking filter Open.
func (d *Dispatcher) releaseScope(scope *openScope) {
	d.scopeMu.Lock()
	handles := scope.handles
	scope.handles = nil
	d.scopeMu.Unlock()

	for _, h := range handles {
		if err := d.native.Close(h); err != nil {
			d.logger.Warn("close leaked handle failed", "handle", h, "error", err)
		}
	}
}

// filterForPath returns the first filter accepting path.
func (d *Dispatcher) filterForPath(path string) Filter {
	for _, f := range d.filters {
		if f.AcceptPath(path) {
			return f
		}
	}

	return nil
}

// filterForHandle returns the first filter accepting h.
func (d *Dispatcher) filterForHandle(h Handle) Filter {
	for _, f := range d.filters {
		if f.AcceptHandle(h) {
			return f
		}
	}

	return nil
}

// guard runs a filter call and falls back to the native call when it panics.
func guard[T any](d *Dispatcher, op string, h Handle, call func() (T, error), fallback func() (T, error)) (T, error) {
	var (
		result   T
		err      error
		panicked bool
	)

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				panicked = true
				d.logger.Error("filter panicked, falling back to native call",
					"op", op,
					"handle", h,
					"panic", fmt.Sprint(rec),
				)
			}
		}()

		result, err = call()
	}()

	if panicked {
		return fallback()
	}

	return result, err
}

// dispatcherHooks is the Hooks view handed to filters.
type dispatcherHooks struct {
	native     Native
	dispatcher *Dispatcher
}

func (h *dispatcherHooks) Open(path string, req OpenRequest) (Handle, error) {
	handle, err := h.native.Open(path, req)
	if err == nil {
		h.dispatcher.trackOpen(handle)
	}

	return handle, err
}

func (h *dispatcherHooks) Read(handle Handle, p []byte, offset *int64) (int, error) {
	return h.native.Read(handle, p, offset)
}

func (h *dispatcherHooks) SetPosition(handle Handle, position int64) error {
	return h.native.SetPosition(handle, position)
}

func (h *dispatcherHooks) QueryInfo(handle Handle, class InfoClass) (FileInfo, error) {
	return h.native.QueryInfo(handle, class)
}

func (h *dispatcherHooks) Close(handle Handle) error {
	return h.native.Close(handle)
}

// Suspend stops filters from claiming new opens until the returned func is called.
// Calls on handles a filter already owns keep reaching it.
func (h *dispatcherHooks) Suspend() func() {
	h.dispatcher.suspended.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() { h.dispatcher.suspended.Add(-1) })
	}
}
