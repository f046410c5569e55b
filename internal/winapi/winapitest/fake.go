// Package winapitest provides an in-memory winapi.API for tests. It models
// just enough of the native side to exercise attach/detach, menu display,
// and theming without a window system.
package winapitest

import (
	"fmt"

	"menukit/internal/winapi"
)

// TrackCall records one TrackPopupMenu invocation.
type TrackCall struct {
	Menu  winapi.HMENU
	Flags uint32
	Pt    winapi.Point
	Owner winapi.HWND
}

// DarkModeCall records one SetWindowDarkMode invocation.
type DarkModeCall struct {
	Hwnd winapi.HWND
	Dark bool
}

// MenuItem records one AppendMenu invocation on a fake menu.
type MenuItem struct {
	Flags uint32
	ID    uintptr
	Label string
}

// Menu is the fake's view of a native popup menu.
type Menu struct {
	Items     []MenuItem
	Destroyed bool
}

type procEntry struct {
	proc winapi.WndProc
	prev uintptr
}

// Fake implements winapi.API against in-memory state.
type Fake struct {
	windows map[winapi.HWND]bool
	procs   map[winapi.HWND]procEntry
	menus   map[winapi.HMENU]*Menu

	nextMenu winapi.HMENU
	nextPrev uintptr

	// Foreground is the simulated foreground window; SetForegroundWindow
	// and the controller's restore path mutate it.
	Foreground winapi.HWND

	// NextTrackCmd is returned by the next TrackPopupMenu call; zero means
	// dismissal. TrackErr takes precedence.
	NextTrackCmd uint32
	TrackErr     error

	// OnTrack, when set, runs while the fake menu is "showing" so tests can
	// observe mid-show state or provoke re-entrancy.
	OnTrack func()

	// ScreenOffset is added by ClientToScreen so tests can verify the
	// coordinate conversion happened.
	ScreenOffset winapi.Point

	TrackCalls    []TrackCall
	DarkModeCalls []DarkModeCall
	NullPosts     []winapi.HWND
	PrevForwards  int
}

// NewFake returns an empty fake with no windows.
func NewFake() *Fake {
	return &Fake{
		windows:  make(map[winapi.HWND]bool),
		procs:    make(map[winapi.HWND]procEntry),
		menus:    make(map[winapi.HMENU]*Menu),
		nextMenu: 0x5000,
		nextPrev: 0x1000,
	}
}

// AddWindow registers hwnd as a live window.
func (f *Fake) AddWindow(hwnd winapi.HWND) {
	f.windows[hwnd] = true
}

// DestroyWindow simulates native destruction: the installed procedure (if
// any) receives WM_NCDESTROY, then the handle stops being a window.
func (f *Fake) DestroyWindow(hwnd winapi.HWND) {
	if entry, ok := f.procs[hwnd]; ok {
		entry.proc(hwnd, winapi.WMNCDestroy, 0, 0)
	}
	delete(f.windows, hwnd)
	delete(f.procs, hwnd)
}

// ForgetWindow makes hwnd stop being a window without dispatching any
// messages, simulating destruction the hook never observed.
func (f *Fake) ForgetWindow(hwnd winapi.HWND) {
	delete(f.windows, hwnd)
	delete(f.procs, hwnd)
}

// SendMessage delivers a message to the window's installed procedure,
// returning the procedure's result. Windows without an installed procedure
// swallow the message.
func (f *Fake) SendMessage(hwnd winapi.HWND, msg uint32, wparam, lparam uintptr) uintptr {
	entry, ok := f.procs[hwnd]
	if !ok {
		return 0
	}
	return entry.proc(hwnd, msg, wparam, lparam)
}

// InstalledProc reports whether a subclass procedure is currently installed
// on hwnd.
func (f *Fake) InstalledProc(hwnd winapi.HWND) bool {
	_, ok := f.procs[hwnd]
	return ok
}

// MenuState returns the fake state for a menu handle.
func (f *Fake) MenuState(menu winapi.HMENU) *Menu {
	return f.menus[menu]
}

func (f *Fake) IsWindow(hwnd winapi.HWND) bool {
	return f.windows[hwnd]
}

func (f *Fake) SetWindowProc(hwnd winapi.HWND, proc winapi.WndProc) (uintptr, error) {
	if !f.windows[hwnd] {
		return 0, fmt.Errorf("winapitest: %v is not a window", hwnd)
	}
	f.nextPrev++
	prev := f.nextPrev
	f.procs[hwnd] = procEntry{proc: proc, prev: prev}
	return prev, nil
}

func (f *Fake) RestoreWindowProc(hwnd winapi.HWND, prev uintptr) error {
	entry, ok := f.procs[hwnd]
	if !ok {
		return fmt.Errorf("winapitest: no procedure installed on %v", hwnd)
	}
	if entry.prev != prev {
		return fmt.Errorf("winapitest: restoring %#x but installed prev is %#x", prev, entry.prev)
	}
	delete(f.procs, hwnd)
	return nil
}

func (f *Fake) CallPrevProc(hwnd winapi.HWND, prev uintptr, msg uint32, wparam, lparam uintptr) uintptr {
	f.PrevForwards++
	return 0
}

func (f *Fake) CreatePopupMenu() (winapi.HMENU, error) {
	f.nextMenu++
	f.menus[f.nextMenu] = &Menu{}
	return f.nextMenu, nil
}

func (f *Fake) DestroyMenu(menu winapi.HMENU) error {
	m, ok := f.menus[menu]
	if !ok {
		return fmt.Errorf("winapitest: %v is not a menu", menu)
	}
	m.Destroyed = true
	return nil
}

func (f *Fake) AppendMenu(menu winapi.HMENU, flags uint32, id uintptr, label string) error {
	m, ok := f.menus[menu]
	if !ok {
		return fmt.Errorf("winapitest: %v is not a menu", menu)
	}
	m.Items = append(m.Items, MenuItem{Flags: flags, ID: id, Label: label})
	return nil
}

func (f *Fake) TrackPopupMenu(menu winapi.HMENU, flags uint32, pt winapi.Point, owner winapi.HWND) (uint32, error) {
	f.TrackCalls = append(f.TrackCalls, TrackCall{Menu: menu, Flags: flags, Pt: pt, Owner: owner})
	if f.OnTrack != nil {
		f.OnTrack()
	}
	if f.TrackErr != nil {
		return 0, f.TrackErr
	}
	return f.NextTrackCmd, nil
}

func (f *Fake) ClientToScreen(hwnd winapi.HWND, pt winapi.Point) (winapi.Point, error) {
	if !f.windows[hwnd] {
		return winapi.Point{}, fmt.Errorf("winapitest: %v is not a window", hwnd)
	}
	return winapi.Point{X: pt.X + f.ScreenOffset.X, Y: pt.Y + f.ScreenOffset.Y}, nil
}

func (f *Fake) ForegroundWindow() winapi.HWND {
	return f.Foreground
}

func (f *Fake) SetForegroundWindow(hwnd winapi.HWND) bool {
	if !f.windows[hwnd] {
		return false
	}
	f.Foreground = hwnd
	return true
}

func (f *Fake) PostNullMessage(hwnd winapi.HWND) {
	f.NullPosts = append(f.NullPosts, hwnd)
}

func (f *Fake) SetWindowDarkMode(hwnd winapi.HWND, dark bool) error {
	if !f.windows[hwnd] {
		return fmt.Errorf("winapitest: %v is not a window", hwnd)
	}
	f.DarkModeCalls = append(f.DarkModeCalls, DarkModeCall{Hwnd: hwnd, Dark: dark})
	return nil
}
