//go:build windows

package winapi

import (
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	dwmapi   = windows.NewLazySystemDLL("dwmapi.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procIsWindow            = user32.NewProc("IsWindow")
	procSetWindowLongPtrW   = user32.NewProc("SetWindowLongPtrW") // 64-bit
	procSetWindowLongW      = user32.NewProc("SetWindowLongW")    // 32-bit fallback
	procCallWindowProcW     = user32.NewProc("CallWindowProcW")
	procDefWindowProcW      = user32.NewProc("DefWindowProcW")
	procCreatePopupMenu     = user32.NewProc("CreatePopupMenu")
	procDestroyMenu         = user32.NewProc("DestroyMenu")
	procAppendMenuW         = user32.NewProc("AppendMenuW")
	procTrackPopupMenu      = user32.NewProc("TrackPopupMenu")
	procClientToScreen      = user32.NewProc("ClientToScreen")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
	procPostMessageW        = user32.NewProc("PostMessageW")

	procDwmSetWindowAttribute = dwmapi.NewProc("DwmSetWindowAttribute")

	procSetLastError = kernel32.NewProc("SetLastError")
)

const (
	// GWLP_WNDPROC is -4; written as a bit pattern so it converts cleanly
	// to the unsigned uintptr the syscall layer wants.
	gwlpWndProc = ^uintptr(3)

	// DWMWA_USE_IMMERSIVE_DARK_MODE. Builds before 20H1 used 19.
	dwmwaUseImmersiveDarkMode    = 20
	dwmwaUseImmersiveDarkModeOld = 19
)

// Real is the production implementation of API backed by user32/dwmapi.
//
// Window procedures for all subclassed windows share a single
// syscall.NewCallback trampoline; per-window procedures are dispatched from
// the procs map. The map is only touched from the UI thread, per the
// package contract.
type Real struct {
	once       sync.Once
	trampoline uintptr
	procs      map[HWND]WndProc
}

// New returns the native API implementation.
func New() *Real {
	return &Real{procs: make(map[HWND]WndProc)}
}

func (r *Real) IsWindow(hwnd HWND) bool {
	ret, _, _ := procIsWindow.Call(uintptr(hwnd))
	return ret != 0
}

func (r *Real) ensureTrampoline() {
	r.once.Do(func() {
		// NewCallback requires uintptr-sized arguments; msg is narrowed
		// after the fact.
		r.trampoline = syscall.NewCallback(func(hwnd, msg, wparam, lparam uintptr) uintptr {
			proc, ok := r.procs[HWND(hwnd)]
			if !ok {
				ret, _, _ := procDefWindowProcW.Call(hwnd, msg, wparam, lparam)
				return ret
			}
			ret := proc(HWND(hwnd), uint32(msg), wparam, lparam)
			if msg == WMNCDestroy {
				// Final message for a dying window; the dispatch entry must
				// not pin the closure after the handle is gone.
				delete(r.procs, HWND(hwnd))
			}
			return ret
		})
	})
}

func (r *Real) SetWindowProc(hwnd HWND, proc WndProc) (uintptr, error) {
	r.ensureTrampoline()
	r.procs[hwnd] = proc
	prev, err := setWindowLongPtr(uintptr(hwnd), gwlpWndProc, r.trampoline)
	if err != nil {
		delete(r.procs, hwnd)
		return 0, fmt.Errorf("SetWindowLongPtr: %w", err)
	}
	return prev, nil
}

func (r *Real) RestoreWindowProc(hwnd HWND, prev uintptr) error {
	delete(r.procs, hwnd)
	if _, err := setWindowLongPtr(uintptr(hwnd), gwlpWndProc, prev); err != nil {
		return fmt.Errorf("SetWindowLongPtr: %w", err)
	}
	return nil
}

func (r *Real) CallPrevProc(hwnd HWND, prev uintptr, msg uint32, wparam, lparam uintptr) uintptr {
	ret, _, _ := procCallWindowProcW.Call(prev, uintptr(hwnd), uintptr(msg), wparam, lparam)
	return ret
}

// setWindowLongPtr calls SetWindowLongPtrW on 64-bit, SetWindowLongW on
// 32-bit where the Ptr variant does not exist in user32.
func setWindowLongPtr(hwnd, index, value uintptr) (uintptr, error) {
	p := procSetWindowLongPtrW
	if p.Find() != nil {
		p = procSetWindowLongW
	}
	ret, _, errno := p.Call(hwnd, index, value)
	if ret == 0 {
		if e, ok := errno.(syscall.Errno); ok && e != 0 {
			return 0, e
		}
	}
	return ret, nil
}

func (r *Real) CreatePopupMenu() (HMENU, error) {
	ret, _, errno := procCreatePopupMenu.Call()
	if ret == 0 {
		return 0, fmt.Errorf("CreatePopupMenu: %w", errno)
	}
	return HMENU(ret), nil
}

func (r *Real) DestroyMenu(menu HMENU) error {
	ret, _, errno := procDestroyMenu.Call(uintptr(menu))
	if ret == 0 {
		return fmt.Errorf("DestroyMenu: %w", errno)
	}
	return nil
}

func (r *Real) AppendMenu(menu HMENU, flags uint32, id uintptr, label string) error {
	var labelPtr *uint16
	if flags&MFSeparator == 0 {
		p, err := windows.UTF16PtrFromString(label)
		if err != nil {
			return fmt.Errorf("menu label %q: %w", label, err)
		}
		labelPtr = p
	}
	ret, _, errno := procAppendMenuW.Call(
		uintptr(menu),
		uintptr(flags),
		id,
		uintptr(unsafe.Pointer(labelPtr)),
	)
	if ret == 0 {
		return fmt.Errorf("AppendMenuW: %w", errno)
	}
	return nil
}

func (r *Real) TrackPopupMenu(menu HMENU, flags uint32, pt Point, owner HWND) (uint32, error) {
	// Zero from TrackPopupMenu is ambiguous under TPM_RETURNCMD; clear the
	// thread error first so a stale value from an earlier call is not read
	// as failure.
	procSetLastError.Call(0)
	ret, _, errno := procTrackPopupMenu.Call(
		uintptr(menu),
		uintptr(flags),
		uintptr(pt.X), uintptr(pt.Y),
		0,
		uintptr(owner),
		0,
	)
	if ret == 0 {
		// With TPM_RETURNCMD a zero return is either dismissal or failure;
		// the last error distinguishes the two.
		if e, ok := errno.(syscall.Errno); ok && e != 0 {
			return 0, fmt.Errorf("TrackPopupMenu: %w", e)
		}
	}
	return uint32(ret), nil
}

func (r *Real) ClientToScreen(hwnd HWND, pt Point) (Point, error) {
	ret, _, errno := procClientToScreen.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return Point{}, fmt.Errorf("ClientToScreen: %w", errno)
	}
	return pt, nil
}

func (r *Real) ForegroundWindow() HWND {
	ret, _, _ := procGetForegroundWindow.Call()
	return HWND(ret)
}

func (r *Real) SetForegroundWindow(hwnd HWND) bool {
	ret, _, _ := procSetForegroundWindow.Call(uintptr(hwnd))
	return ret != 0
}

func (r *Real) PostNullMessage(hwnd HWND) {
	procPostMessageW.Call(uintptr(hwnd), 0, 0, 0)
}

func (r *Real) SetWindowDarkMode(hwnd HWND, dark bool) error {
	var value int32
	if dark {
		value = 1
	}
	ret, _, _ := procDwmSetWindowAttribute.Call(
		uintptr(hwnd),
		dwmwaUseImmersiveDarkMode,
		uintptr(unsafe.Pointer(&value)),
		unsafe.Sizeof(value),
	)
	if ret != 0 { // S_OK is 0; retry with the pre-20H1 attribute id
		ret, _, _ = procDwmSetWindowAttribute.Call(
			uintptr(hwnd),
			dwmwaUseImmersiveDarkModeOld,
			uintptr(unsafe.Pointer(&value)),
			unsafe.Sizeof(value),
		)
		if ret != 0 {
			return fmt.Errorf("DwmSetWindowAttribute: HRESULT 0x%08x", uint32(ret))
		}
	}
	return nil
}
