//go:build windows

package theme

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/windows/registry"
)

const (
	personalizeKey = `Software\Microsoft\Windows\CurrentVersion\Themes\Personalize`
	appsUseLight   = "AppsUseLightTheme"

	// REG_NOTIFY_CHANGE_NAME | REG_NOTIFY_CHANGE_LAST_SET
	regNotifyFilter = 0x00000001 | 0x00000004
)

// registryDetector reads the per-user app theme from the Personalize key
// and watches it with RegNotifyChangeKeyValue.
type registryDetector struct{}

// NewDetector returns the Windows system theme detector.
func NewDetector() Detector {
	return registryDetector{}
}

func (registryDetector) Dark() (bool, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, personalizeKey, registry.QUERY_VALUE)
	if err != nil {
		// Older Windows has no Personalize key; that means light.
		if err == registry.ErrNotExist {
			return false, nil
		}
		return false, fmt.Errorf("open theme key: %w", err)
	}
	defer k.Close()

	useLight, _, err := k.GetIntegerValue(appsUseLight)
	if err != nil {
		if err == registry.ErrNotExist {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", appsUseLight, err)
	}
	return useLight == 0, nil
}

func (d registryDetector) Watch(onChange func(dark bool)) (func(), error) {
	advapi32, err := syscall.LoadDLL("Advapi32.dll")
	if err != nil {
		return nil, fmt.Errorf("load advapi32: %w", err)
	}
	regNotify, err := advapi32.FindProc("RegNotifyChangeKeyValue")
	if err != nil {
		return nil, fmt.Errorf("find RegNotifyChangeKeyValue: %w", err)
	}

	k, err := registry.OpenKey(registry.CURRENT_USER, personalizeKey, syscall.KEY_NOTIFY|registry.QUERY_VALUE)
	if err != nil {
		return nil, fmt.Errorf("open theme key for notify: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer k.Close()
		last, _, _ := k.GetIntegerValue(appsUseLight)
		for {
			// Blocks until any value under the key changes.
			regNotify.Call(uintptr(k), 0, regNotifyFilter, 0, 0)
			select {
			case <-done:
				return
			default:
			}
			val, _, err := k.GetIntegerValue(appsUseLight)
			if err != nil {
				continue
			}
			if val != last {
				last = val
				onChange(val == 0)
			}
		}
	}()

	return func() { close(done) }, nil
}
