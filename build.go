package menukit

import (
	"fmt"

	"menukit/internal/winapi"
	"menukit/pkg/menudef"
)

// builtMenu tracks native state for a menu constructed from a definition:
// the command-to-item mapping and every handle created, so a failed or
// finished build can be torn down completely.
type builtMenu struct {
	root    winapi.HMENU
	handles []winapi.HMENU
	items   map[uint32]string // native command id -> definition item id
}

// BuildMenu constructs a native popup menu from a validated definition.
// Selectable items get sequential native command identifiers starting at the
// configured base; ItemID maps a selection back to the definition's item id.
// The returned menu is owned by this instance and destroyed on Close or
// DestroyMenu.
func (c *ContextMenu) BuildMenu(def *menudef.Definition) (MenuHandle, error) {
	if err := def.Validate(); err != nil {
		return 0, err
	}

	b := &builtMenu{items: make(map[uint32]string)}
	next := uint32(c.cfg.Menu.BaseCommandID)

	root, err := c.buildLevel(def.Items, b, &next)
	if err != nil {
		// Partial builds leak otherwise.
		for _, h := range b.handles {
			_ = c.api.DestroyMenu(h)
		}
		return 0, err
	}

	b.root = root
	c.built[root] = b
	c.log.Debug("menu built", "menu", uintptr(root), "items", len(b.items))
	return MenuHandle(root), nil
}

// BuildMenuFromFile loads, validates, and builds a JSON or YAML menu
// definition. The format is chosen by file extension; anything but .yaml and
// .yml is treated as JSON.
func (c *ContextMenu) BuildMenuFromFile(path string) (MenuHandle, error) {
	def, err := parseDefinitionFile(path)
	if err != nil {
		return 0, err
	}
	return c.BuildMenu(def)
}

func (c *ContextMenu) buildLevel(items []menudef.Item, b *builtMenu, next *uint32) (winapi.HMENU, error) {
	menu, err := c.api.CreatePopupMenu()
	if err != nil {
		return 0, fmt.Errorf("create menu: %w", err)
	}
	b.handles = append(b.handles, menu)

	for _, it := range items {
		switch {
		case it.Separator:
			if err := c.api.AppendMenu(menu, winapi.MFSeparator, 0, ""); err != nil {
				return 0, fmt.Errorf("append separator: %w", err)
			}

		case it.IsSubmenu():
			sub, err := c.buildLevel(it.Items, b, next)
			if err != nil {
				return 0, err
			}
			if err := c.api.AppendMenu(menu, winapi.MFPopup, uintptr(sub), it.Label); err != nil {
				return 0, fmt.Errorf("append submenu %q: %w", it.Label, err)
			}

		default:
			flags := uint32(winapi.MFString)
			if it.Disabled {
				flags |= winapi.MFGrayed
			}
			if it.Checked {
				flags |= winapi.MFChecked
			}
			id := *next
			*next++
			if err := c.api.AppendMenu(menu, flags, uintptr(id), it.Label); err != nil {
				return 0, fmt.Errorf("append item %q: %w", it.Label, err)
			}
			itemID := it.ID
			if itemID == "" {
				itemID = it.Label
			}
			b.items[id] = itemID
		}
	}
	return menu, nil
}

// ItemID maps a selected command back to the definition item id (or label,
// for items without one). Only meaningful for menus built by BuildMenu.
func (c *ContextMenu) ItemID(menu MenuHandle, cmd CommandID) (string, bool) {
	b, ok := c.built[winapi.HMENU(menu)]
	if !ok {
		return "", false
	}
	id, ok := b.items[uint32(cmd)]
	return id, ok
}

// DestroyMenu destroys a menu built by BuildMenu and drops its state,
// including any theme override. Fails with ErrInvalidHandle for menus this
// instance did not build.
func (c *ContextMenu) DestroyMenu(menu MenuHandle) error {
	hmenu := winapi.HMENU(menu)
	if _, ok := c.built[hmenu]; !ok {
		return fmt.Errorf("%w: menu %#x not built here", ErrInvalidHandle, uintptr(hmenu))
	}
	return c.destroyBuilt(hmenu)
}

func (c *ContextMenu) destroyBuilt(menu winapi.HMENU) error {
	b := c.built[menu]
	delete(c.built, menu)
	c.themes.ForgetMenu(menu)
	// Destroying the root takes submenus with it natively.
	if err := c.api.DestroyMenu(b.root); err != nil {
		return fmt.Errorf("destroy menu %#x: %w", uintptr(b.root), err)
	}
	return nil
}
