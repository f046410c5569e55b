// Package winapi is the native call boundary for menukit's Windows
// integration. Every user32/dwmapi call the library makes goes through the
// API interface so the core packages stay testable off-Windows.
//
// Handle types are opaque newtypes over uintptr. menukit never creates or
// destroys the window behind an HWND; callers own the handle and must keep
// it valid for as long as the library holds it. That contract is documented,
// not runtime-checked.
package winapi

import "errors"

// HWND identifies a native window. The zero value is never a valid window.
type HWND uintptr

// IsZero reports whether the handle is the zero (invalid) handle.
func (h HWND) IsZero() bool { return h == 0 }

// HMENU identifies a native menu object. Menus built by menukit are owned by
// menukit; menus passed in by the caller are only borrowed for the duration
// of a call.
type HMENU uintptr

// IsZero reports whether the menu handle is the zero (invalid) handle.
func (m HMENU) IsZero() bool { return m == 0 }

// Point is a coordinate pair. Whether it is client- or screen-relative
// depends on the call it is passed to.
type Point struct {
	X int32
	Y int32
}

// Window messages the subclass layer interprets. Everything not listed here
// is forwarded unchanged to the window's original procedure.
const (
	WMSettingChange = 0x001A // theme resync trigger ("ImmersiveColorSet")
	WMNCDestroy     = 0x0082 // final cleanup for a dying window
	WMContextMenu   = 0x007B // show the attached menu
	WMCommand       = 0x0111
)

// AppendMenu flags.
const (
	MFString    = 0x0000
	MFGrayed    = 0x0001
	MFChecked   = 0x0008
	MFPopup     = 0x0010
	MFSeparator = 0x0800
)

// TrackPopupMenu flags.
const (
	TPMLeftAlign   = 0x0000
	TPMLeftButton  = 0x0000
	TPMRightButton = 0x0002
	TPMCenterAlign = 0x0004
	TPMRightAlign  = 0x0008
	TPMTopAlign    = 0x0000
	TPMReturnCmd   = 0x0100
)

// ErrUnsupported is returned by every native call on platforms without a
// real implementation.
var ErrUnsupported = errors.New("winapi: not supported on this platform")

// WndProc is a window procedure installed by the subclass layer. The return
// value is the message result handed back to the OS.
type WndProc func(hwnd HWND, msg uint32, wparam, lparam uintptr) uintptr

// API is the set of native operations menukit needs. The real implementation
// lives in winapi_windows.go; tests use winapitest.Fake.
//
// All methods must be called from the thread that owns the target window's
// message queue. The interface provides no locking.
type API interface {
	// IsWindow reports whether hwnd identifies an existing window.
	IsWindow(hwnd HWND) bool

	// SetWindowProc replaces the window's procedure with proc and returns
	// an opaque reference to the previous procedure for later restore and
	// forwarding.
	SetWindowProc(hwnd HWND, proc WndProc) (prev uintptr, err error)

	// RestoreWindowProc reinstates a procedure previously returned by
	// SetWindowProc.
	RestoreWindowProc(hwnd HWND, prev uintptr) error

	// CallPrevProc forwards a message to a procedure previously returned by
	// SetWindowProc, preserving default behavior for unhandled messages.
	CallPrevProc(hwnd HWND, prev uintptr, msg uint32, wparam, lparam uintptr) uintptr

	// CreatePopupMenu creates an empty popup menu owned by the caller.
	CreatePopupMenu() (HMENU, error)

	// DestroyMenu destroys a menu created by CreatePopupMenu.
	DestroyMenu(menu HMENU) error

	// AppendMenu appends an item. For MFPopup items, id carries the submenu
	// handle; for MFSeparator, id and label are ignored.
	AppendMenu(menu HMENU, flags uint32, id uintptr, label string) error

	// TrackPopupMenu shows the menu modally at a screen point and blocks
	// until selection or dismissal. With TPMReturnCmd set, the selected
	// command identifier is returned directly; zero means dismissed.
	TrackPopupMenu(menu HMENU, flags uint32, pt Point, owner HWND) (cmd uint32, err error)

	// ClientToScreen converts a client-relative point on hwnd to screen
	// coordinates.
	ClientToScreen(hwnd HWND, pt Point) (Point, error)

	// ForegroundWindow returns the current foreground window, which may be
	// the zero handle.
	ForegroundWindow() HWND

	// SetForegroundWindow brings hwnd to the foreground. Required before
	// TrackPopupMenu or the menu will not dismiss on outside clicks.
	SetForegroundWindow(hwnd HWND) bool

	// PostNullMessage posts a no-op message to hwnd. Worked around: after
	// TrackPopupMenu returns, the menu sometimes lingers until the owner
	// processes one more message.
	PostNullMessage(hwnd HWND)

	// SetWindowDarkMode switches the window's non-client chrome between
	// dark and light rendering.
	SetWindowDarkMode(hwnd HWND, dark bool) error
}
