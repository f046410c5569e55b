// Package menukit attaches native context menus to windows the host
// application owns. It subclasses the window procedure to intercept the
// messages it needs (context menu requests, OS theme broadcasts, window
// destruction) and forwards everything else untouched.
//
// All attach, detach, and show calls must run on the thread that owns the
// target window's message queue. ShowAt is modal and blocks until the user
// selects an item or dismisses the menu.
package menukit

import (
	"errors"
	"fmt"
	"log/slog"

	"menukit/internal/config"
	"menukit/internal/popup"
	"menukit/internal/subclass"
	"menukit/internal/theme"
	"menukit/internal/winapi"
)

// WindowHandle identifies a native window owned by the host application.
type WindowHandle uintptr

// MenuHandle identifies a native menu. Menus returned by BuildMenu are owned
// by the library; menus supplied by the caller are borrowed.
type MenuHandle uintptr

// CommandID is the identifier of a selected menu item.
type CommandID uint32

// Theme modes, re-exported for callers.
const (
	ThemeSystem = theme.ModeSystem
	ThemeLight  = theme.ModeLight
	ThemeDark   = theme.ModeDark
)

// Visibility states, re-exported for callers.
const (
	VisibilityUnknown = popup.VisibilityUnknown
	VisibilityHidden  = popup.VisibilityHidden
	VisibilityShown   = popup.VisibilityShown
)

// Errors callers are expected to test for.
var (
	ErrInvalidHandle   = subclass.ErrInvalidHandle
	ErrAlreadyAttached = subclass.ErrAlreadyAttached
	ErrNotAttached     = subclass.ErrNotAttached
	ErrAlreadyShowing  = popup.ErrAlreadyShowing
	ErrOSRejected      = popup.ErrOSRejected
)

// SelectionHandler is invoked when the user picks an item from a menu shown
// through the message hook. It runs on the window's UI thread, inside the
// message dispatch.
type SelectionHandler func(w WindowHandle, cmd CommandID)

// attachment is the per-window state held alongside the subclass record.
type attachment struct {
	token    subclass.Token
	menu     winapi.HMENU
	onSelect SelectionHandler
}

// ContextMenu is the top-level entry point: one instance manages attachments,
// menu display, and theme synchronization for a process.
type ContextMenu struct {
	api    winapi.API
	log    *slog.Logger
	cfg    *config.Config
	reg    *subclass.Registry
	sub    *subclass.Subclasser
	ctrl   *popup.Controller
	themes *theme.Synchronizer

	defaultMode theme.Mode
	attachments map[winapi.HWND]*attachment
	built       map[winapi.HMENU]*builtMenu
}

type options struct {
	api winapi.API
	det theme.Detector
	log *slog.Logger
	cfg *config.Config
}

// Option configures New.
type Option func(*options)

// WithAPI overrides the native call boundary. Tests use this to substitute
// an in-memory implementation.
func WithAPI(api winapi.API) Option {
	return func(o *options) { o.api = api }
}

// WithDetector overrides the system theme source.
func WithDetector(det theme.Detector) Option {
	return func(o *options) { o.det = det }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithConfig supplies a validated configuration. Defaults to
// config.DefaultConfig().
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// New builds a ContextMenu. With no options it talks to the real OS and uses
// default configuration.
func New(opts ...Option) (*ContextMenu, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.api == nil {
		o.api = winapi.New()
	}
	if o.det == nil {
		o.det = theme.NewDetector()
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	if o.cfg == nil {
		o.cfg = config.DefaultConfig()
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	defaultMode, err := theme.ParseMode(o.cfg.Theme.Default)
	if err != nil {
		return nil, err
	}

	reg := subclass.NewRegistry()
	ctrl := popup.NewController(o.api, reg, o.log)
	ctrl.SetTrackFlags(trackFlags(&o.cfg.Popup))

	themes := theme.NewSynchronizer(o.api, o.det, o.log)
	if o.cfg.Theme.WatchSystem {
		if err := themes.Start(); err != nil {
			o.log.Warn("system theme watch unavailable", "error", err)
		}
	}

	return &ContextMenu{
		api:         o.api,
		log:         o.log,
		cfg:         o.cfg,
		reg:         reg,
		sub:         subclass.New(o.api, reg),
		ctrl:        ctrl,
		themes:      themes,
		defaultMode: defaultMode,
		attachments: make(map[winapi.HWND]*attachment),
		built:       make(map[winapi.HMENU]*builtMenu),
	}, nil
}

// trackFlags maps popup config to native TrackPopupMenu flags.
func trackFlags(p *config.PopupConfig) uint32 {
	flags := uint32(winapi.TPMTopAlign)
	switch p.Align {
	case "center":
		flags |= winapi.TPMCenterAlign
	case "right":
		flags |= winapi.TPMRightAlign
	default:
		flags |= winapi.TPMLeftAlign
	}
	if p.Button == "left" {
		flags |= winapi.TPMLeftButton
	} else {
		flags |= winapi.TPMRightButton
	}
	return flags
}

// Attach installs the message hook on w and associates menu with it. After a
// successful Attach, right-clicks (WM_CONTEXTMENU) on the window show the
// menu and report selections through onSelect.
//
// Attach never happens implicitly: ShowAt and the message hook both require
// it. Fails with ErrAlreadyAttached if the window already has a hook and
// ErrInvalidHandle if the OS does not recognize the handle or the menu is
// zero.
func (c *ContextMenu) Attach(w WindowHandle, menu MenuHandle, onSelect SelectionHandler) error {
	hwnd := winapi.HWND(w)
	hmenu := winapi.HMENU(menu)
	if hmenu.IsZero() {
		return fmt.Errorf("%w: zero menu handle", ErrInvalidHandle)
	}

	att := &attachment{menu: hmenu, onSelect: onSelect}
	token, err := c.sub.Attach(hwnd, c.hook(att))
	if err != nil {
		return err
	}
	att.token = token
	c.attachments[hwnd] = att
	c.reg.Lookup(hwnd).AttachedMenu = hmenu

	// New attachments start on the configured default theme.
	if err := c.themes.SetWindowTheme(hwnd, c.defaultMode); err != nil {
		c.log.Warn("initial theme apply failed", "hwnd", uintptr(hwnd), "error", err)
	}

	c.log.Debug("window attached", "hwnd", uintptr(hwnd), "menu", uintptr(hmenu))
	return nil
}

// Detach removes the hook from w and restores the original window procedure.
// Per-window menu visibility state is dropped, so Visibility reports
// VisibilityUnknown afterwards even if a menu was on screen. Returns
// ErrNotAttached if the window has no hook.
func (c *ContextMenu) Detach(w WindowHandle) error {
	hwnd := winapi.HWND(w)
	att, ok := c.attachments[hwnd]
	if !ok {
		return fmt.Errorf("%w: %#x", ErrNotAttached, uintptr(hwnd))
	}

	err := c.sub.Detach(att.token)
	c.forget(hwnd)
	if err != nil {
		return err
	}

	c.log.Debug("window detached", "hwnd", uintptr(hwnd))
	return nil
}

// forget drops all root-level state for a window.
func (c *ContextMenu) forget(hwnd winapi.HWND) {
	delete(c.attachments, hwnd)
	c.ctrl.Forget(hwnd)
	c.themes.ForgetWindow(hwnd)
}

// hook builds the subclass handler for one attachment.
func (c *ContextMenu) hook(att *attachment) subclass.Handler {
	return func(hwnd winapi.HWND, msg uint32, wparam, lparam uintptr) (bool, uintptr) {
		switch msg {
		case winapi.WMContextMenu:
			c.showFromMessage(hwnd, att, lparam)
			return true, 0

		case winapi.WMSettingChange:
			// OS theme broadcast. Resync, then let the window's own
			// procedure see the message too.
			c.themes.Refresh()
			return false, 0

		case winapi.WMNCDestroy:
			// Forwarded by the subclass layer, which also drops its
			// registry entry. Only root-level state is cleaned here.
			c.forget(hwnd)
			return false, 0
		}
		return false, 0
	}
}

// showFromMessage shows the attached menu at the position carried by a
// WM_CONTEXTMENU message and dispatches the selection.
func (c *ContextMenu) showFromMessage(hwnd winapi.HWND, att *attachment, lparam uintptr) {
	var (
		cmd      uint32
		selected bool
		err      error
	)
	if lparam == ^uintptr(0) {
		// Keyboard-initiated (Shift+F10): no cursor position, anchor to
		// the window origin.
		cmd, selected, err = c.showAt(hwnd, att.menu, winapi.Point{})
	} else {
		pt := winapi.Point{
			X: int32(int16(lparam & 0xFFFF)),
			Y: int32(int16((lparam >> 16) & 0xFFFF)),
		}
		cmd, selected, err = c.showAtScreen(hwnd, att.menu, pt)
	}
	if err != nil {
		c.log.Warn("context menu display failed", "hwnd", uintptr(hwnd), "error", err)
		return
	}
	if selected && att.onSelect != nil {
		att.onSelect(WindowHandle(hwnd), CommandID(cmd))
	}
}

// ShowAt displays the menu attached to w at a client-relative point and
// blocks until selection or dismissal. The selected command and true are
// returned on selection; zero and false on dismissal. Configured popup
// offsets are applied to the point.
func (c *ContextMenu) ShowAt(w WindowHandle, x, y int) (CommandID, bool, error) {
	hwnd := winapi.HWND(w)
	att, ok := c.attachments[hwnd]
	if !ok {
		return 0, false, fmt.Errorf("%w: %#x", ErrNotAttached, uintptr(hwnd))
	}
	pt := winapi.Point{
		X: int32(x + c.cfg.Popup.OffsetX),
		Y: int32(y + c.cfg.Popup.OffsetY),
	}
	cmd, selected, err := c.showAt(hwnd, att.menu, pt)
	return CommandID(cmd), selected, err
}

func (c *ContextMenu) showAt(hwnd winapi.HWND, menu winapi.HMENU, pt winapi.Point) (uint32, bool, error) {
	if done := c.pushMenuTheme(hwnd, menu); done != nil {
		defer done()
	}
	return c.ctrl.ShowAt(hwnd, menu, pt)
}

func (c *ContextMenu) showAtScreen(hwnd winapi.HWND, menu winapi.HMENU, pt winapi.Point) (uint32, bool, error) {
	if done := c.pushMenuTheme(hwnd, menu); done != nil {
		defer done()
	}
	return c.ctrl.ShowAtScreen(hwnd, menu, pt)
}

// pushMenuTheme applies the menu's effective theme to the owner window for
// the duration of a show; the returned func puts the window's own theme
// back. Returns nil while a menu is already on screen: the rejected
// re-entrant show must not disturb the active menu's theme.
func (c *ContextMenu) pushMenuTheme(hwnd winapi.HWND, menu winapi.HMENU) func() {
	if c.ctrl.IsVisible(hwnd) {
		return nil
	}
	if err := c.themes.ApplyForMenu(menu, hwnd); err != nil {
		c.log.Warn("menu theme apply failed", "hwnd", uintptr(hwnd), "menu", uintptr(menu), "error", err)
	}
	return func() {
		// A detach during the show dropped the window's theme state; leave
		// the window alone.
		if _, ok := c.attachments[hwnd]; !ok {
			return
		}
		if err := c.themes.Apply(hwnd); err != nil {
			c.log.Warn("window theme restore failed", "hwnd", uintptr(hwnd), "error", err)
		}
	}
}

// Visibility reports the menu visibility for w: VisibilityShown while a menu
// is on screen, VisibilityHidden after it closes, and VisibilityUnknown for
// windows never shown through this instance or already detached.
func (c *ContextMenu) Visibility(w WindowHandle) popup.Visibility {
	return c.ctrl.Visibility(winapi.HWND(w))
}

// IsVisible reports whether a menu is currently on screen for w.
func (c *ContextMenu) IsVisible(w WindowHandle) bool {
	return c.ctrl.IsVisible(winapi.HWND(w))
}

// IsAttached reports whether w currently has a message hook.
func (c *ContextMenu) IsAttached(w WindowHandle) bool {
	return c.reg.Lookup(winapi.HWND(w)) != nil
}

// SetWindowTheme overrides the theme for an attached window and applies it
// immediately.
func (c *ContextMenu) SetWindowTheme(w WindowHandle, mode theme.Mode) error {
	return c.themes.SetWindowTheme(winapi.HWND(w), mode)
}

// SetMenuTheme overrides the theme for a menu. The override takes effect the
// next time the menu is shown.
func (c *ContextMenu) SetMenuTheme(m MenuHandle, mode theme.Mode) error {
	return c.themes.SetMenuTheme(winapi.HMENU(m), mode)
}

// EffectiveTheme resolves the concrete light/dark theme for a window under
// the current system state.
func (c *ContextMenu) EffectiveTheme(w WindowHandle) theme.Mode {
	return c.themes.EffectiveWindowTheme(winapi.HWND(w))
}

// Close detaches every window, destroys every menu built by this instance,
// and stops the system theme watch. Errors are aggregated; Close keeps going
// past individual failures.
func (c *ContextMenu) Close() error {
	var errs []error
	for hwnd, att := range c.attachments {
		if err := c.sub.Detach(att.token); err != nil && !errors.Is(err, ErrNotAttached) {
			errs = append(errs, err)
		}
		c.ctrl.Forget(hwnd)
		c.themes.ForgetWindow(hwnd)
	}
	c.attachments = make(map[winapi.HWND]*attachment)

	for menu := range c.built {
		if err := c.destroyBuilt(menu); err != nil {
			errs = append(errs, err)
		}
	}

	c.themes.Stop()
	return errors.Join(errs...)
}
