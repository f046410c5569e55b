package subclass

import "menukit/internal/winapi"

// Record is the bookkeeping for one attached window. The menu behind
// AttachedMenu is borrowed, never owned; the record only compares the handle,
// it does not extend the menu's lifetime.
type Record struct {
	Window       winapi.HWND
	PrevProc     uintptr
	Handler      Handler
	AttachedMenu winapi.HMENU
	Installed    bool
}

// Registry tracks which window handles currently carry a subclass. At most
// one record exists per live handle. Access is single-threaded by the
// package contract, so there is no lock.
type Registry struct {
	records map[winapi.HWND]*Record
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[winapi.HWND]*Record)}
}

// Register stores the record for its window, replacing nothing: callers
// check Lookup first, and Attach guarantees uniqueness.
func (r *Registry) Register(hwnd winapi.HWND, rec *Record) {
	r.records[hwnd] = rec
}

// Lookup returns the record for hwnd, or nil.
func (r *Registry) Lookup(hwnd winapi.HWND) *Record {
	return r.records[hwnd]
}

// Unregister removes the record for hwnd. Removing a handle that has no
// record is a no-op: explicit detach and window-destruction cleanup can both
// try to remove the same entry.
func (r *Registry) Unregister(hwnd winapi.HWND) {
	delete(r.records, hwnd)
}

// Len returns the number of attached windows.
func (r *Registry) Len() int {
	return len(r.records)
}
