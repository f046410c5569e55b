// Package subclass installs and removes window-procedure hooks on windows
// menukit does not own.
//
// Safety contract: the caller guarantees that an attached handle remains a
// valid window for the lifetime of the attachment, and that Attach, Detach,
// and every message delivered to the hook run on the thread that owns the
// window's message queue. Neither condition is enforced at runtime; the
// package holds no locks.
package subclass

import (
	"errors"
	"fmt"

	"menukit/internal/winapi"
)

var (
	// ErrAlreadyAttached is returned by Attach when the window already has
	// a subclass record.
	ErrAlreadyAttached = errors.New("subclass: window already attached")

	// ErrInvalidHandle is returned when the OS rejects a handle as not
	// being a window.
	ErrInvalidHandle = errors.New("subclass: invalid window handle")

	// ErrNotAttached is returned by Detach when no record exists for the
	// token's window.
	ErrNotAttached = errors.New("subclass: window not attached")
)

// Handler sees every message delivered to an attached window before the
// original procedure does. Returning handled=true consumes the message and
// result is handed back to the OS; otherwise the message is forwarded
// unchanged to the original procedure.
type Handler func(hwnd winapi.HWND, msg uint32, wparam, lparam uintptr) (handled bool, result uintptr)

// Token identifies one successful Attach. It is required for Detach so a
// stale caller cannot detach an attachment it does not hold.
type Token struct {
	hwnd winapi.HWND
}

// Window returns the window the token refers to.
func (t Token) Window() winapi.HWND { return t.hwnd }

// Subclasser owns the attach/detach lifecycle for all windows in a process.
type Subclasser struct {
	api winapi.API
	reg *Registry
}

// New returns a Subclasser recording attachments in reg.
func New(api winapi.API, reg *Registry) *Subclasser {
	return &Subclasser{api: api, reg: reg}
}

// Attach installs a hook on hwnd so every message passes through handler
// first. Fails with ErrAlreadyAttached when a record exists for the handle
// and ErrInvalidHandle when the OS does not recognize it as a window.
//
// On WM_NCDESTROY the hook forwards the message, then removes the registry
// entry itself; no Detach is needed for a window the OS has torn down.
func (s *Subclasser) Attach(hwnd winapi.HWND, handler Handler) (Token, error) {
	if s.reg.Lookup(hwnd) != nil {
		return Token{}, fmt.Errorf("%w: %#x", ErrAlreadyAttached, uintptr(hwnd))
	}
	if !s.api.IsWindow(hwnd) {
		return Token{}, fmt.Errorf("%w: %#x", ErrInvalidHandle, uintptr(hwnd))
	}

	rec := &Record{Window: hwnd, Handler: handler}
	prev, err := s.api.SetWindowProc(hwnd, s.dispatch(rec))
	if err != nil {
		return Token{}, fmt.Errorf("subclass %#x: %w", uintptr(hwnd), err)
	}
	rec.PrevProc = prev
	rec.Installed = true
	s.reg.Register(hwnd, rec)

	return Token{hwnd: hwnd}, nil
}

// Detach restores the window's original procedure and removes the registry
// entry. Detaching a window the OS has already destroyed is a no-op that
// still removes the entry. Returns ErrNotAttached when no record exists.
func (s *Subclasser) Detach(tok Token) error {
	rec := s.reg.Lookup(tok.hwnd)
	if rec == nil {
		return fmt.Errorf("%w: %#x", ErrNotAttached, uintptr(tok.hwnd))
	}

	// The entry goes away regardless of whether the window still exists;
	// restore only makes sense while it does.
	defer s.reg.Unregister(tok.hwnd)

	if !s.api.IsWindow(tok.hwnd) {
		return nil
	}
	if err := s.api.RestoreWindowProc(tok.hwnd, rec.PrevProc); err != nil {
		return fmt.Errorf("restore %#x: %w", uintptr(tok.hwnd), err)
	}
	return nil
}

// dispatch builds the window procedure installed for one record. Unhandled
// messages are forwarded to the original procedure so default behavior is
// preserved.
func (s *Subclasser) dispatch(rec *Record) winapi.WndProc {
	return func(hwnd winapi.HWND, msg uint32, wparam, lparam uintptr) uintptr {
		if rec.Handler != nil {
			if handled, result := rec.Handler(hwnd, msg, wparam, lparam); handled {
				return result
			}
		}
		result := s.api.CallPrevProc(hwnd, rec.PrevProc, msg, wparam, lparam)
		if msg == winapi.WMNCDestroy {
			// Last message the window will ever see. The handle is dead
			// after this returns, so the record must not outlive it.
			s.reg.Unregister(hwnd)
		}
		return result
	}
}
