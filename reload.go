package menukit

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"menukit/internal/watcher"
	"menukit/internal/winapi"
	"menukit/pkg/menudef"
)

// ReloadMenu builds a new menu from def and swaps it into w's attachment.
// The previous menu is destroyed if this instance built it; borrowed menus
// are left alone. Must run on the window's UI thread, like every other menu
// call.
func (c *ContextMenu) ReloadMenu(w WindowHandle, def *menudef.Definition) (MenuHandle, error) {
	hwnd := winapi.HWND(w)
	att, ok := c.attachments[hwnd]
	if !ok {
		return 0, fmt.Errorf("%w: %#x", ErrNotAttached, uintptr(hwnd))
	}

	menu, err := c.BuildMenu(def)
	if err != nil {
		return 0, err
	}

	old := att.menu
	att.menu = winapi.HMENU(menu)
	c.reg.Lookup(hwnd).AttachedMenu = att.menu

	if _, builtHere := c.built[old]; builtHere {
		if err := c.destroyBuilt(old); err != nil {
			c.log.Warn("destroying replaced menu failed", "menu", uintptr(old), "error", err)
		}
	}

	c.log.Debug("menu reloaded", "hwnd", uintptr(hwnd), "menu", uintptr(menu))
	return menu, nil
}

// WatchDefinition watches a JSON or YAML definition file and delivers each
// parsed revision to onChange; parse and validation failures are delivered
// as the error argument so a broken edit never tears down the watch.
//
// onChange runs on a watcher goroutine. Marshal to the window's UI thread
// before calling ReloadMenu or any other menu operation.
func (c *ContextMenu) WatchDefinition(path string, onChange func(*menudef.Definition, error)) (stop func(), err error) {
	w, err := watcher.New(path, 200*time.Millisecond)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case ev := <-w.Events():
				def, perr := parseDefinitionFile(ev.Path)
				onChange(def, perr)
			case werr := <-w.Errors():
				onChange(nil, werr)
			}
		}
	}()

	return func() {
		close(done)
		w.Stop()
	}, nil
}

// parseDefinitionFile loads and validates a definition, picking the format
// by extension. Anything but .yaml/.yml is treated as JSON.
func parseDefinitionFile(path string) (*menudef.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu definition: %w", err)
	}

	var def *menudef.Definition
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		def, err = menudef.ParseYAML(data)
	default:
		def, err = menudef.Parse(data)
	}
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}
