// Package popup shows context menus for subclassed windows and tracks
// per-window visibility.
//
// ShowAt is a modal, blocking call: the native menu loop runs inside it and
// dispatches messages (re-entrantly, on the same thread) until the user
// selects an item or dismisses the menu. The same single-UI-thread contract
// as package subclass applies.
package popup

import (
	"errors"
	"fmt"
	"log/slog"

	"menukit/internal/subclass"
	"menukit/internal/winapi"
)

var (
	// ErrAlreadyShowing is returned when ShowAt is re-entered for a window
	// whose menu is currently on screen.
	ErrAlreadyShowing = errors.New("popup: menu already showing for window")

	// ErrOSRejected is returned when the native show call itself fails.
	ErrOSRejected = errors.New("popup: OS rejected menu display")
)

// Controller shows menus relative to attached windows. Display requires an
// explicit prior Attach: ShowAt never installs a subclass implicitly.
type Controller struct {
	api   winapi.API
	reg   *subclass.Registry
	log   *slog.Logger
	vis   *visibilityMap
	flags uint32
}

// NewController returns a controller reading attachments from reg.
func NewController(api winapi.API, reg *subclass.Registry, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		api:   api,
		reg:   reg,
		log:   log,
		vis:   newVisibilityMap(),
		flags: winapi.TPMLeftAlign | winapi.TPMTopAlign | winapi.TPMRightButton,
	}
}

// SetTrackFlags overrides the TrackPopupMenu alignment/button flags.
// TPM_RETURNCMD is always added.
func (c *Controller) SetTrackFlags(flags uint32) {
	c.flags = flags
}

// ShowAt displays menu at a window-client-relative point and blocks until
// the user selects an item or dismisses the menu. It returns the selected
// command identifier and true, or zero and false on dismissal.
//
// The window must have an active subclass record (ErrNotAttached otherwise),
// and only one menu may be showing per window at a time (ErrAlreadyShowing).
// Foreground/activation state is restored on every exit path.
func (c *Controller) ShowAt(hwnd winapi.HWND, menu winapi.HMENU, pt winapi.Point) (cmd uint32, selected bool, err error) {
	if c.reg.Lookup(hwnd) == nil {
		return 0, false, fmt.Errorf("%w: %#x", subclass.ErrNotAttached, uintptr(hwnd))
	}
	screenPt, err := c.api.ClientToScreen(hwnd, pt)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrOSRejected, err)
	}
	return c.ShowAtScreen(hwnd, menu, screenPt)
}

// ShowAtScreen is ShowAt for a point already in screen coordinates, as
// delivered by WM_CONTEXTMENU.
func (c *Controller) ShowAtScreen(hwnd winapi.HWND, menu winapi.HMENU, screenPt winapi.Point) (cmd uint32, selected bool, err error) {
	rec := c.reg.Lookup(hwnd)
	if rec == nil {
		return 0, false, fmt.Errorf("%w: %#x", subclass.ErrNotAttached, uintptr(hwnd))
	}
	if c.vis.get(hwnd) == VisibilityShown {
		return 0, false, fmt.Errorf("%w: %#x", ErrAlreadyShowing, uintptr(hwnd))
	}
	if menu.IsZero() {
		return 0, false, fmt.Errorf("%w: zero menu handle", subclass.ErrInvalidHandle)
	}

	prevForeground := c.api.ForegroundWindow()
	c.api.SetForegroundWindow(hwnd)
	c.vis.set(hwnd, VisibilityShown)

	defer func() {
		c.vis.setIfTracked(hwnd, VisibilityHidden)
		// Dismissal quirk: the menu can linger until the owner pumps one
		// more message.
		c.api.PostNullMessage(hwnd)
		if !prevForeground.IsZero() && prevForeground != hwnd {
			c.api.SetForegroundWindow(prevForeground)
		}
	}()

	cmd, err = c.api.TrackPopupMenu(menu, c.flags|winapi.TPMReturnCmd, screenPt, hwnd)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrOSRejected, err)
	}
	if cmd == 0 {
		c.log.Debug("menu dismissed without selection", "hwnd", uintptr(hwnd))
		return 0, false, nil
	}
	return cmd, true, nil
}

// Visibility reports the menu visibility for hwnd. Windows never shown
// through this controller, and windows after Forget, report
// VisibilityUnknown.
func (c *Controller) Visibility(hwnd winapi.HWND) Visibility {
	return c.vis.get(hwnd)
}

// IsVisible reports whether a menu is currently showing for hwnd.
func (c *Controller) IsVisible(hwnd winapi.HWND) bool {
	return c.vis.get(hwnd) == VisibilityShown
}

// Forget drops visibility state for hwnd, forcing VisibilityUnknown. Called
// on detach and on window destruction.
func (c *Controller) Forget(hwnd winapi.HWND) {
	c.vis.forget(hwnd)
}
