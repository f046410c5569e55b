//go:build !windows

package winapi

// Real is a placeholder on non-Windows platforms so that callers can be
// compiled everywhere. Every operation fails with ErrUnsupported.
type Real struct{}

// New returns the stub implementation.
func New() *Real {
	return &Real{}
}

func (r *Real) IsWindow(HWND) bool { return false }

func (r *Real) SetWindowProc(HWND, WndProc) (uintptr, error) {
	return 0, ErrUnsupported
}

func (r *Real) RestoreWindowProc(HWND, uintptr) error { return ErrUnsupported }

func (r *Real) CallPrevProc(HWND, uintptr, uint32, uintptr, uintptr) uintptr { return 0 }

func (r *Real) CreatePopupMenu() (HMENU, error) { return 0, ErrUnsupported }

func (r *Real) DestroyMenu(HMENU) error { return ErrUnsupported }

func (r *Real) AppendMenu(HMENU, uint32, uintptr, string) error { return ErrUnsupported }

func (r *Real) TrackPopupMenu(HMENU, uint32, Point, HWND) (uint32, error) {
	return 0, ErrUnsupported
}

func (r *Real) ClientToScreen(HWND, Point) (Point, error) { return Point{}, ErrUnsupported }

func (r *Real) ForegroundWindow() HWND { return 0 }

func (r *Real) SetForegroundWindow(HWND) bool { return false }

func (r *Real) PostNullMessage(HWND) {}

func (r *Real) SetWindowDarkMode(HWND, bool) error { return ErrUnsupported }
