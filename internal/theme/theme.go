// Package theme applies light/dark/system rendering modes to windows that
// carry menus, and keeps system-mode targets in step with the OS theme.
//
// Unlike the subclass/popup path, the synchronizer carries a lock: OS theme
// notifications arrive on a watcher goroutine while set calls arrive on the
// UI thread.
package theme

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"menukit/internal/subclass"
	"menukit/internal/winapi"
)

// Mode is a menu/window rendering mode.
type Mode int

const (
	// ModeSystem follows the OS-wide theme and re-applies on OS broadcasts.
	ModeSystem Mode = iota
	// ModeLight forces light rendering.
	ModeLight
	// ModeDark forces dark rendering.
	ModeDark
)

// String returns the lowercase name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeLight:
		return "light"
	case ModeDark:
		return "dark"
	default:
		return "system"
	}
}

// ParseMode parses a mode name as found in config files.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "light":
		return ModeLight, nil
	case "dark":
		return ModeDark, nil
	case "system", "":
		return ModeSystem, nil
	default:
		return ModeSystem, fmt.Errorf("unknown theme mode: %q", s)
	}
}

// Detector reports the OS-wide dark/light state and watches for changes.
// Platform implementations live in detect_*.go; tests supply their own.
type Detector interface {
	// Dark reports whether the OS theme is currently dark.
	Dark() (bool, error)

	// Watch invokes onChange whenever the OS theme flips, until the
	// returned stop function is called. onChange may run on a watcher
	// goroutine.
	Watch(onChange func(dark bool)) (stop func(), err error)
}

// Synchronizer tracks per-window and per-menu mode overrides and pushes the
// effective theme to the native side. The effective theme for a menu shown
// on a window resolves as: window override > menu override > system default.
type Synchronizer struct {
	api winapi.API
	det Detector
	log *slog.Logger

	mu         sync.Mutex
	windows    map[winapi.HWND]Mode
	menus      map[winapi.HMENU]Mode
	applied    map[winapi.HWND]bool // last dark flag pushed natively
	systemDark bool
	stopWatch  func()
}

// NewSynchronizer returns a synchronizer seeded with the detector's current
// state. A detector failure degrades to light mode and is logged, never
// fatal.
func NewSynchronizer(api winapi.API, det Detector, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.Default()
	}
	s := &Synchronizer{
		api:     api,
		det:     det,
		log:     log,
		windows: make(map[winapi.HWND]Mode),
		menus:   make(map[winapi.HMENU]Mode),
		applied: make(map[winapi.HWND]bool),
	}
	dark, err := det.Dark()
	if err != nil {
		log.Warn("system theme detection failed, assuming light", "error", err)
	}
	s.systemDark = dark
	return s
}

// Start subscribes to OS theme-change notifications. Stop releases the
// subscription.
func (s *Synchronizer) Start() error {
	stop, err := s.det.Watch(func(dark bool) {
		s.onSystemChange(dark)
	})
	if err != nil {
		return fmt.Errorf("watch system theme: %w", err)
	}
	s.mu.Lock()
	s.stopWatch = stop
	s.mu.Unlock()
	return nil
}

// Stop ends the OS theme subscription started by Start.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	stop := s.stopWatch
	s.stopWatch = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// SetWindowTheme sets the mode override for a window and applies it. A dead
// handle yields ErrInvalidHandle; the caller may log and carry on.
func (s *Synchronizer) SetWindowTheme(hwnd winapi.HWND, mode Mode) error {
	if !s.api.IsWindow(hwnd) {
		return fmt.Errorf("%w: %#x", subclass.ErrInvalidHandle, uintptr(hwnd))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[hwnd] = mode
	return s.applyLocked(hwnd)
}

// SetMenuTheme sets the mode override for a menu. Menus have no native
// theme call of their own; the override participates in effective-theme
// resolution and is pushed through the owning window at attach/show time.
func (s *Synchronizer) SetMenuTheme(menu winapi.HMENU, mode Mode) error {
	if menu.IsZero() {
		return fmt.Errorf("%w: zero menu handle", subclass.ErrInvalidHandle)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menus[menu] = mode
	return nil
}

// EffectiveWindowTheme resolves the concrete (light/dark) theme for a
// window under the current system state.
func (s *Synchronizer) EffectiveWindowTheme(hwnd winapi.HWND) Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return concrete(s.windows[hwnd], s.systemDark)
}

// EffectiveMenuTheme resolves the concrete theme for a menu shown on owner:
// window override wins, then the menu override, then the system default.
func (s *Synchronizer) EffectiveMenuTheme(menu winapi.HMENU, owner winapi.HWND) Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effectiveMenuLocked(menu, owner)
}

func (s *Synchronizer) effectiveMenuLocked(menu winapi.HMENU, owner winapi.HWND) Mode {
	if m, ok := s.windows[owner]; ok && m != ModeSystem {
		return m
	}
	if m, ok := s.menus[menu]; ok && m != ModeSystem {
		return m
	}
	return concrete(ModeSystem, s.systemDark)
}

// SystemDark reports the synchronizer's view of the OS theme.
func (s *Synchronizer) SystemDark() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.systemDark
}

// Refresh re-reads the detector and re-applies system-mode windows if the
// OS theme changed underneath us. Wired to WM_SETTINGCHANGE by the
// integration layer.
func (s *Synchronizer) Refresh() {
	dark, err := s.det.Dark()
	if err != nil {
		s.log.Warn("theme refresh failed", "error", err)
		return
	}
	s.onSystemChange(dark)
}

// ForgetWindow drops all state for a window, on detach or destruction.
func (s *Synchronizer) ForgetWindow(hwnd winapi.HWND) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, hwnd)
	delete(s.applied, hwnd)
}

// ForgetMenu drops the override for a menu.
func (s *Synchronizer) ForgetMenu(menu winapi.HMENU) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.menus, menu)
}

// Apply pushes the effective theme for hwnd natively, skipping the call
// when the cached state already matches (no flicker on repeated sets).
func (s *Synchronizer) Apply(hwnd winapi.HWND) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(hwnd)
}

// ApplyForMenu pushes the effective theme for a menu about to be shown on
// owner, light or dark. The push shares Apply's cache so later window-level
// sets see the real native state; callers put the window's own theme back
// with Apply once the menu closes.
func (s *Synchronizer) ApplyForMenu(menu winapi.HMENU, owner winapi.HWND) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushLocked(owner, s.effectiveMenuLocked(menu, owner) == ModeDark)
}

func (s *Synchronizer) applyLocked(hwnd winapi.HWND) error {
	return s.pushLocked(hwnd, concrete(s.windows[hwnd], s.systemDark) == ModeDark)
}

func (s *Synchronizer) pushLocked(hwnd winapi.HWND, dark bool) error {
	if prev, ok := s.applied[hwnd]; ok && prev == dark {
		return nil
	}
	if err := s.api.SetWindowDarkMode(hwnd, dark); err != nil {
		s.log.Warn("applying window theme failed", "hwnd", uintptr(hwnd), "dark", dark, "error", err)
		return fmt.Errorf("apply theme to %#x: %w", uintptr(hwnd), err)
	}
	s.applied[hwnd] = dark
	return nil
}

func (s *Synchronizer) onSystemChange(dark bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.systemDark == dark {
		return
	}
	s.systemDark = dark
	s.log.Debug("system theme changed", "dark", dark)
	for hwnd, mode := range s.windows {
		if mode != ModeSystem {
			continue
		}
		if !s.api.IsWindow(hwnd) {
			// Stale handle; recoverable, cleaned up on the next detach.
			continue
		}
		_ = s.applyLocked(hwnd)
	}
}

// concrete collapses a mode to light or dark under the given system state.
func concrete(m Mode, systemDark bool) Mode {
	switch m {
	case ModeLight, ModeDark:
		return m
	default:
		if systemDark {
			return ModeDark
		}
		return ModeLight
	}
}
