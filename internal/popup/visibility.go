package popup

import "menukit/internal/winapi"

// Visibility is the per-window menu display state.
type Visibility int

const (
	// VisibilityUnknown means no show/hide has happened for the window, or
	// the window was detached.
	VisibilityUnknown Visibility = iota
	// VisibilityHidden means a menu was shown for the window and has since
	// closed.
	VisibilityHidden
	// VisibilityShown means the window's menu is on screen right now.
	VisibilityShown
)

// String returns the lowercase name of the state.
func (v Visibility) String() string {
	switch v {
	case VisibilityHidden:
		return "hidden"
	case VisibilityShown:
		return "shown"
	default:
		return "unknown"
	}
}

// visibilityMap holds display state per window. Mutated only by the
// controller's show/hide lifecycle and by Forget, all on the UI thread, so
// queries are consistent the moment any show/hide call returns.
type visibilityMap struct {
	states map[winapi.HWND]Visibility
}

func newVisibilityMap() *visibilityMap {
	return &visibilityMap{states: make(map[winapi.HWND]Visibility)}
}

func (m *visibilityMap) get(hwnd winapi.HWND) Visibility {
	return m.states[hwnd]
}

func (m *visibilityMap) set(hwnd winapi.HWND, v Visibility) {
	m.states[hwnd] = v
}

// setIfTracked updates the state only while the window is still tracked.
// A detach during a modal show forgets the window; the show's unwind must
// not resurrect it as hidden.
func (m *visibilityMap) setIfTracked(hwnd winapi.HWND, v Visibility) {
	if _, ok := m.states[hwnd]; ok {
		m.states[hwnd] = v
	}
}

func (m *visibilityMap) forget(hwnd winapi.HWND) {
	delete(m.states, hwnd)
}
