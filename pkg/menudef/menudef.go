// Package menudef parses and validates declarative menu definitions.
//
// Definitions are JSON (or YAML, converted before validation) documents
// describing a context menu tree: labels, item identifiers, enabled/checked
// state, separators, and nested submenus. Every definition is validated
// against the embedded JSON Schema before it is accepted.
package menudef

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

var schema = jsonschema.MustCompileString("menukit/menu-definition.schema.json", string(schemaJSON))

// Definition is a complete context menu.
type Definition struct {
	// Label names the menu for logs and tooling; it is not rendered.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// Tooltip is advisory text for hosts that surface one.
	Tooltip string `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`

	// Items are the top-level entries in display order.
	Items []Item `json:"items" yaml:"items"`
}

// Item is one menu entry. A separator has Separator set and everything else
// ignored; a submenu has nested Items; everything else is a selectable item.
type Item struct {
	// ID is the consumer-facing identifier returned on selection. Optional
	// for submenus and separators.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	Label     string `json:"label,omitempty" yaml:"label,omitempty"`
	Disabled  bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Checked   bool   `json:"checked,omitempty" yaml:"checked,omitempty"`
	Separator bool   `json:"separator,omitempty" yaml:"separator,omitempty"`

	// Items, when non-empty, makes this entry a submenu.
	Items []Item `json:"items,omitempty" yaml:"items,omitempty"`
}

// IsSubmenu reports whether the item opens a nested menu.
func (it Item) IsSubmenu() bool { return len(it.Items) > 0 }

// Parse validates and decodes a JSON menu definition.
func Parse(data []byte) (*Definition, error) {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("menudef: not valid JSON: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("menudef: definition rejected: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("menudef: decode: %w", err)
	}
	return &def, nil
}

// ParseYAML validates and decodes a YAML menu definition. The document is
// converted to JSON so the same schema applies.
func ParseYAML(data []byte) (*Definition, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("menudef: not valid YAML: %w", err)
	}
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("menudef: convert YAML: %w", err)
	}
	return Parse(jsonData)
}

// ItemCount returns the number of selectable (non-separator, non-submenu)
// items in the whole tree.
func (d *Definition) ItemCount() int {
	return countSelectable(d.Items)
}

func countSelectable(items []Item) int {
	n := 0
	for _, it := range items {
		switch {
		case it.Separator:
		case it.IsSubmenu():
			n += countSelectable(it.Items)
		default:
			n++
		}
	}
	return n
}

// Validate applies the semantic checks the schema cannot express: item IDs
// must be unique across the tree.
func (d *Definition) Validate() error {
	seen := make(map[string]bool)
	var dups []string
	var walk func(items []Item)
	walk = func(items []Item) {
		for _, it := range items {
			if it.ID != "" {
				if seen[it.ID] {
					dups = append(dups, it.ID)
				}
				seen[it.ID] = true
			}
			walk(it.Items)
		}
	}
	walk(d.Items)
	if len(dups) > 0 {
		return fmt.Errorf("menudef: duplicate item ids: %s", strings.Join(dups, ", "))
	}
	return nil
}
