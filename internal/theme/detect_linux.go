//go:build linux

package theme

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	portalBusName   = "org.freedesktop.portal.Desktop"
	portalPath      = "/org/freedesktop/portal/desktop"
	settingsIface   = "org.freedesktop.portal.Settings"
	appearanceNS    = "org.freedesktop.appearance"
	colorSchemeKey  = "color-scheme"
	schemeDarkValue = uint32(1)
)

// portalDetector reads the color-scheme preference from the desktop
// settings portal over the session bus.
type portalDetector struct{}

// NewDetector returns the Linux system theme detector.
func NewDetector() Detector {
	return portalDetector{}
}

func (portalDetector) Dark() (bool, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return false, fmt.Errorf("session bus: %w", err)
	}

	obj := conn.Object(portalBusName, portalPath)
	var value dbus.Variant
	if err := obj.Call(settingsIface+".Read", 0, appearanceNS, colorSchemeKey).Store(&value); err != nil {
		return false, fmt.Errorf("read color-scheme: %w", err)
	}

	// Read wraps the setting in a nested variant.
	inner, ok := value.Value().(dbus.Variant)
	if !ok {
		return schemeIsDark(value.Value()), nil
	}
	return schemeIsDark(inner.Value()), nil
}

func (portalDetector) Watch(onChange func(dark bool)) (func(), error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("session bus: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(portalPath),
		dbus.WithMatchInterface(settingsIface),
		dbus.WithMatchMember("SettingChanged"),
	); err != nil {
		return nil, fmt.Errorf("match SettingChanged: %w", err)
	}

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				conn.RemoveSignal(signals)
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if len(sig.Body) != 3 {
					continue
				}
				ns, _ := sig.Body[0].(string)
				key, _ := sig.Body[1].(string)
				if ns != appearanceNS || key != colorSchemeKey {
					continue
				}
				if v, ok := sig.Body[2].(dbus.Variant); ok {
					onChange(schemeIsDark(v.Value()))
				}
			}
		}
	}()

	return func() { close(done) }, nil
}

func schemeIsDark(v any) bool {
	switch n := v.(type) {
	case uint32:
		return n == schemeDarkValue
	case uint64:
		return n == uint64(schemeDarkValue)
	case int32:
		return n == int32(schemeDarkValue)
	default:
		return false
	}
}
