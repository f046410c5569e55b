package theme

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menukit/internal/subclass"
	"menukit/internal/winapi"
	"menukit/internal/winapi/winapitest"
)

const (
	testWindow = winapi.HWND(0x4444)
	testMenu   = winapi.HMENU(0x5001)
)

// fakeDetector is a scriptable system theme source.
type fakeDetector struct {
	dark     bool
	err      error
	onChange func(dark bool)
}

func (d *fakeDetector) Dark() (bool, error) { return d.dark, d.err }

func (d *fakeDetector) Watch(onChange func(dark bool)) (func(), error) {
	d.onChange = onChange
	return func() { d.onChange = nil }, nil
}

// broadcast simulates an OS theme-change notification.
func (d *fakeDetector) broadcast(dark bool) {
	d.dark = dark
	if d.onChange != nil {
		d.onChange(dark)
	}
}

func newTestSync(t *testing.T, systemDark bool) (*Synchronizer, *winapitest.Fake, *fakeDetector) {
	t.Helper()
	fake := winapitest.NewFake()
	fake.AddWindow(testWindow)
	det := &fakeDetector{dark: systemDark}
	s := NewSynchronizer(fake, det, nil)
	require.NoError(t, s.Start())
	return s, fake, det
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"light", ModeLight, false},
		{"Dark", ModeDark, false},
		{"system", ModeSystem, false},
		{"", ModeSystem, false},
		{"solarized", ModeSystem, true},
	}
	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestSetWindowThemeRoundTrip(t *testing.T) {
	s, fake, _ := newTestSync(t, false)

	require.NoError(t, s.SetWindowTheme(testWindow, ModeDark))
	assert.Equal(t, ModeDark, s.EffectiveWindowTheme(testWindow))

	require.Len(t, fake.DarkModeCalls, 1)
	assert.True(t, fake.DarkModeCalls[0].Dark)
}

func TestSetWindowThemeIdempotent(t *testing.T) {
	s, fake, _ := newTestSync(t, false)

	require.NoError(t, s.SetWindowTheme(testWindow, ModeDark))
	require.NoError(t, s.SetWindowTheme(testWindow, ModeDark))

	// Cached state matched, so the second set made no native call.
	assert.Len(t, fake.DarkModeCalls, 1)
}

func TestSetWindowThemeInvalidHandle(t *testing.T) {
	s, _, _ := newTestSync(t, false)

	err := s.SetWindowTheme(winapi.HWND(0xdead), ModeDark)
	assert.ErrorIs(t, err, subclass.ErrInvalidHandle)
}

func TestSystemBroadcastUpdatesSystemWindows(t *testing.T) {
	s, fake, det := newTestSync(t, false)

	require.NoError(t, s.SetWindowTheme(testWindow, ModeSystem))
	assert.Equal(t, ModeLight, s.EffectiveWindowTheme(testWindow))

	det.broadcast(true)
	assert.Equal(t, ModeDark, s.EffectiveWindowTheme(testWindow))

	// The broadcast re-applied the window natively.
	last := fake.DarkModeCalls[len(fake.DarkModeCalls)-1]
	assert.True(t, last.Dark)
}

func TestSystemBroadcastLeavesOverriddenWindows(t *testing.T) {
	s, fake, det := newTestSync(t, false)

	require.NoError(t, s.SetWindowTheme(testWindow, ModeLight))
	calls := len(fake.DarkModeCalls)

	det.broadcast(true)
	assert.Equal(t, ModeLight, s.EffectiveWindowTheme(testWindow))
	assert.Len(t, fake.DarkModeCalls, calls, "forced-light window must not be re-applied")
}

func TestEffectiveMenuThemeResolution(t *testing.T) {
	s, _, det := newTestSync(t, false)

	// System default only.
	assert.Equal(t, ModeLight, s.EffectiveMenuTheme(testMenu, testWindow))

	// Menu override beats the system default.
	require.NoError(t, s.SetMenuTheme(testMenu, ModeDark))
	assert.Equal(t, ModeDark, s.EffectiveMenuTheme(testMenu, testWindow))

	// Window override beats the menu override.
	require.NoError(t, s.SetWindowTheme(testWindow, ModeLight))
	assert.Equal(t, ModeLight, s.EffectiveMenuTheme(testMenu, testWindow))

	// Window back to system: menu override applies again, regardless of
	// the system flipping.
	require.NoError(t, s.SetWindowTheme(testWindow, ModeSystem))
	det.broadcast(true)
	assert.Equal(t, ModeDark, s.EffectiveMenuTheme(testMenu, testWindow))
}

func TestApplyForMenuBothDirections(t *testing.T) {
	s, fake, _ := newTestSync(t, true)

	// Seed the cache with the window's own (dark) theme.
	require.NoError(t, s.SetWindowTheme(testWindow, ModeSystem))
	require.Len(t, fake.DarkModeCalls, 1)
	require.True(t, fake.DarkModeCalls[0].Dark)

	// A light menu override pushes light through the owner.
	require.NoError(t, s.SetMenuTheme(testMenu, ModeLight))
	require.NoError(t, s.ApplyForMenu(testMenu, testWindow))
	require.Len(t, fake.DarkModeCalls, 2)
	assert.False(t, fake.DarkModeCalls[1].Dark)

	// Restoring the window sees the real native state, not a stale skip.
	require.NoError(t, s.Apply(testWindow))
	require.Len(t, fake.DarkModeCalls, 3)
	assert.True(t, fake.DarkModeCalls[2].Dark)
}

func TestApplyForMenuWindowOverrideWins(t *testing.T) {
	s, fake, _ := newTestSync(t, false)

	require.NoError(t, s.SetWindowTheme(testWindow, ModeDark))
	require.NoError(t, s.SetMenuTheme(testMenu, ModeLight))

	calls := len(fake.DarkModeCalls)
	require.NoError(t, s.ApplyForMenu(testMenu, testWindow))

	// The window's dark override beats the menu's light one; the native
	// state already matches, so no call is made.
	assert.Len(t, fake.DarkModeCalls, calls)
}

func TestRefreshPicksUpDetectorState(t *testing.T) {
	s, _, det := newTestSync(t, false)
	require.NoError(t, s.SetWindowTheme(testWindow, ModeSystem))

	// Change the OS state without a broadcast, then refresh (the
	// WM_SETTINGCHANGE path).
	det.dark = true
	s.Refresh()

	assert.True(t, s.SystemDark())
	assert.Equal(t, ModeDark, s.EffectiveWindowTheme(testWindow))
}

func TestDetectorFailureDegradesToLight(t *testing.T) {
	fake := winapitest.NewFake()
	det := &fakeDetector{err: errors.New("no theme source")}
	s := NewSynchronizer(fake, det, nil)
	assert.False(t, s.SystemDark())
}

func TestForgetWindowDropsState(t *testing.T) {
	s, fake, _ := newTestSync(t, false)

	require.NoError(t, s.SetWindowTheme(testWindow, ModeDark))
	s.ForgetWindow(testWindow)

	// Effective theme falls back to system.
	assert.Equal(t, ModeLight, s.EffectiveWindowTheme(testWindow))

	// The applied cache was dropped too, so a re-set pushes natively again.
	calls := len(fake.DarkModeCalls)
	require.NoError(t, s.SetWindowTheme(testWindow, ModeDark))
	assert.Len(t, fake.DarkModeCalls, calls+1)
}
