package subclass

import (
	"errors"
	"testing"

	"menukit/internal/winapi"
	"menukit/internal/winapi/winapitest"
)

const testWindow = winapi.HWND(0x1234)

func newTestSubclasser() (*Subclasser, *Registry, *winapitest.Fake) {
	fake := winapitest.NewFake()
	fake.AddWindow(testWindow)
	reg := NewRegistry()
	return New(fake, reg), reg, fake
}

func TestAttachRegistersWindow(t *testing.T) {
	s, reg, fake := newTestSubclasser()

	tok, err := s.Attach(testWindow, nil)
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if tok.Window() != testWindow {
		t.Errorf("token window = %#x, want %#x", uintptr(tok.Window()), uintptr(testWindow))
	}

	rec := reg.Lookup(testWindow)
	if rec == nil {
		t.Fatal("expected a registry record after Attach")
	}
	if !rec.Installed {
		t.Error("record not marked installed")
	}
	if !fake.InstalledProc(testWindow) {
		t.Error("no procedure installed on the window")
	}
}

func TestAttachTwiceFails(t *testing.T) {
	s, _, _ := newTestSubclasser()

	if _, err := s.Attach(testWindow, nil); err != nil {
		t.Fatalf("first Attach failed: %v", err)
	}
	_, err := s.Attach(testWindow, nil)
	if !errors.Is(err, ErrAlreadyAttached) {
		t.Errorf("second Attach error = %v, want ErrAlreadyAttached", err)
	}
}

func TestAttachInvalidHandle(t *testing.T) {
	s, reg, _ := newTestSubclasser()

	_, err := s.Attach(winapi.HWND(0xdead), nil)
	if !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Attach error = %v, want ErrInvalidHandle", err)
	}
	if reg.Len() != 0 {
		t.Errorf("registry has %d entries after failed attach, want 0", reg.Len())
	}
}

func TestDetachRestoresProcedure(t *testing.T) {
	s, reg, fake := newTestSubclasser()

	tok, err := s.Attach(testWindow, nil)
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := s.Detach(tok); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if fake.InstalledProc(testWindow) {
		t.Error("procedure still installed after Detach")
	}
	if reg.Lookup(testWindow) != nil {
		t.Error("registry record survived Detach")
	}
}

func TestDetachTwice(t *testing.T) {
	s, _, _ := newTestSubclasser()

	tok, err := s.Attach(testWindow, nil)
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := s.Detach(tok); err != nil {
		t.Fatalf("first Detach failed: %v", err)
	}
	// Fixed policy: the second detach reports ErrNotAttached, the registry
	// stays empty either way.
	if err := s.Detach(tok); !errors.Is(err, ErrNotAttached) {
		t.Errorf("second Detach error = %v, want ErrNotAttached", err)
	}
}

func TestDetachAfterWindowDestroyed(t *testing.T) {
	s, reg, fake := newTestSubclasser()

	tok, err := s.Attach(testWindow, nil)
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	// WM_NCDESTROY removes the record on its own.
	fake.DestroyWindow(testWindow)
	if reg.Lookup(testWindow) != nil {
		t.Fatal("registry record survived WM_NCDESTROY")
	}

	if err := s.Detach(tok); !errors.Is(err, ErrNotAttached) {
		t.Errorf("Detach after destroy error = %v, want ErrNotAttached", err)
	}
}

func TestDetachDeadWindowWithLiveRecord(t *testing.T) {
	// A window can die without its WM_NCDESTROY reaching us (hook removed
	// by a third party). Detach must still be safe and drop the entry.
	fake := winapitest.NewFake()
	fake.AddWindow(testWindow)
	reg := NewRegistry()
	s := New(fake, reg)

	tok, err := s.Attach(testWindow, nil)
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	// Simulate the handle dying behind our back.
	fake.ForgetWindow(testWindow)

	if err := s.Detach(tok); err != nil {
		t.Fatalf("Detach on dead window failed: %v", err)
	}
	if reg.Lookup(testWindow) != nil {
		t.Error("registry record survived Detach on dead window")
	}
}

func TestHandlerConsumesMessage(t *testing.T) {
	s, _, fake := newTestSubclasser()

	var got uint32
	handler := func(hwnd winapi.HWND, msg uint32, wparam, lparam uintptr) (bool, uintptr) {
		got = msg
		if msg == winapi.WMContextMenu {
			return true, 7
		}
		return false, 0
	}
	if _, err := s.Attach(testWindow, handler); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	if ret := fake.SendMessage(testWindow, winapi.WMContextMenu, 0, 0); ret != 7 {
		t.Errorf("handled message returned %d, want 7", ret)
	}
	if got != winapi.WMContextMenu {
		t.Errorf("handler saw msg %#x, want WM_CONTEXTMENU", got)
	}
	if fake.PrevForwards != 0 {
		t.Errorf("handled message was forwarded %d times, want 0", fake.PrevForwards)
	}
}

func TestUnhandledMessageForwarded(t *testing.T) {
	s, _, fake := newTestSubclasser()

	handler := func(winapi.HWND, uint32, uintptr, uintptr) (bool, uintptr) {
		return false, 0
	}
	if _, err := s.Attach(testWindow, handler); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	fake.SendMessage(testWindow, 0x0200 /* WM_MOUSEMOVE */, 0, 0)
	if fake.PrevForwards != 1 {
		t.Errorf("unhandled message forwarded %d times, want 1", fake.PrevForwards)
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	reg := NewRegistry()
	reg.Register(testWindow, &Record{Window: testWindow})

	reg.Unregister(testWindow)
	reg.Unregister(testWindow) // no panic, no error

	if reg.Len() != 0 {
		t.Errorf("registry length = %d, want 0", reg.Len())
	}
}
