package popup

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
	testWindow = winapi.HWND(0x2222)
	otherWin   = winapi.HWND(0x3333)
)

type fixture struct {
	fake *winapitest.Fake
	reg  *subclass.Registry
	sub  *subclass.Subclasser
	ctrl *Controller
	menu winapi.HMENU
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := winapitest.NewFake()
	fake.AddWindow(testWindow)
	reg := subclass.NewRegistry()
	menu, err := fake.CreatePopupMenu()
	require.NoError(t, err)
	return &fixture{
		fake: fake,
		reg:  reg,
		sub:  subclass.New(fake, reg),
		ctrl: NewController(fake, reg, nil),
		menu: menu,
	}
}

func (f *fixture) attach(t *testing.T) subclass.Token {
	t.Helper()
	tok, err := f.sub.Attach(testWindow, nil)
	require.NoError(t, err)
	return tok
}

func TestShowAtRequiresAttach(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.ctrl.ShowAt(testWindow, f.menu, winapi.Point{X: 10, Y: 10})
	assert.ErrorIs(t, err, subclass.ErrNotAttached)
	assert.False(t, f.ctrl.IsVisible(testWindow))
	assert.Equal(t, VisibilityUnknown, f.ctrl.Visibility(testWindow))
}

func TestShowAtReturnsSelection(t *testing.T) {
	f := newFixture(t)
	f.attach(t)
	f.fake.NextTrackCmd = 42

	cmd, selected, err := f.ctrl.ShowAt(testWindow, f.menu, winapi.Point{X: 10, Y: 10})
	require.NoError(t, err)
	assert.True(t, selected)
	assert.Equal(t, uint32(42), cmd)

	// Visibility settles before ShowAt returns.
	assert.False(t, f.ctrl.IsVisible(testWindow))
	assert.Equal(t, VisibilityHidden, f.ctrl.Visibility(testWindow))
}

func TestShowAtDismissal(t *testing.T) {
	f := newFixture(t)
	f.attach(t)
	f.fake.NextTrackCmd = 0

	cmd, selected, err := f.ctrl.ShowAt(testWindow, f.menu, winapi.Point{})
	require.NoError(t, err)
	assert.False(t, selected)
	assert.Zero(t, cmd)
	assert.Equal(t, VisibilityHidden, f.ctrl.Visibility(testWindow))
}

func TestShowAtConvertsToScreenCoordinates(t *testing.T) {
	f := newFixture(t)
	f.attach(t)
	f.fake.ScreenOffset = winapi.Point{X: 100, Y: 200}

	_, _, err := f.ctrl.ShowAt(testWindow, f.menu, winapi.Point{X: 10, Y: 10})
	require.NoError(t, err)

	require.Len(t, f.fake.TrackCalls, 1)
	call := f.fake.TrackCalls[0]
	assert.Equal(t, winapi.Point{X: 110, Y: 210}, call.Pt)
	assert.Equal(t, testWindow, call.Owner)
	assert.NotZero(t, call.Flags&winapi.TPMReturnCmd, "TPM_RETURNCMD must be set")
}

func TestShowAtZeroMenu(t *testing.T) {
	f := newFixture(t)
	f.attach(t)

	_, _, err := f.ctrl.ShowAt(testWindow, 0, winapi.Point{})
	assert.ErrorIs(t, err, subclass.ErrInvalidHandle)
	assert.False(t, f.ctrl.IsVisible(testWindow))
}

func TestShowAtOSFailure(t *testing.T) {
	f := newFixture(t)
	f.attach(t)
	f.fake.TrackErr = errors.New("native failure")

	_, _, err := f.ctrl.ShowAt(testWindow, f.menu, winapi.Point{})
	assert.ErrorIs(t, err, ErrOSRejected)

	// Visibility and foreground restoration run on the error path too.
	assert.Equal(t, VisibilityHidden, f.ctrl.Visibility(testWindow))
	assert.NotEmpty(t, f.fake.NullPosts)
}

func TestShowAtReentrancyGuard(t *testing.T) {
	f := newFixture(t)
	f.attach(t)
	f.fake.NextTrackCmd = 1

	// The native menu loop dispatches messages re-entrantly; a handler that
	// calls back into ShowAt must be rejected while the menu is up.
	var reentrantErr error
	f.fake.OnTrack = func() {
		assert.True(t, f.ctrl.IsVisible(testWindow), "menu should be visible mid-show")
		_, _, reentrantErr = f.ctrl.ShowAt(testWindow, f.menu, winapi.Point{})
	}

	_, _, err := f.ctrl.ShowAt(testWindow, f.menu, winapi.Point{})
	require.NoError(t, err)
	assert.ErrorIs(t, reentrantErr, ErrAlreadyShowing)
}

func TestShowAtRestoresForeground(t *testing.T) {
	f := newFixture(t)
	f.attach(t)
	f.fake.AddWindow(otherWin)
	f.fake.Foreground = otherWin
	f.fake.NextTrackCmd = 5

	_, _, err := f.ctrl.ShowAt(testWindow, f.menu, winapi.Point{})
	require.NoError(t, err)
	assert.Equal(t, otherWin, f.fake.Foreground, "previous foreground window not restored")
}

func TestForgetForcesUnknown(t *testing.T) {
	f := newFixture(t)
	f.attach(t)
	f.fake.NextTrackCmd = 9

	_, _, err := f.ctrl.ShowAt(testWindow, f.menu, winapi.Point{})
	require.NoError(t, err)
	require.Equal(t, VisibilityHidden, f.ctrl.Visibility(testWindow))

	f.ctrl.Forget(testWindow)
	assert.Equal(t, VisibilityUnknown, f.ctrl.Visibility(testWindow))
	assert.False(t, f.ctrl.IsVisible(testWindow))
}

func TestVisibilityString(t *testing.T) {
	assert.Equal(t, "unknown", VisibilityUnknown.String())
	assert.Equal(t, "hidden", VisibilityHidden.String())
	assert.Equal(t, "shown", VisibilityShown.String())
}
