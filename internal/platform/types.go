package platform

import (
	"fmt"
	"strings"
)

// MouseButton represents a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// String returns the lowercase button name.
func (b MouseButton) String() string {
	switch b {
	case MouseRight:
		return "right"
	case MouseMiddle:
		return "middle"
	default:
		return "left"
	}
}

// ParseMouseButton converts a string flag value to MouseButton. An empty
// string selects the left button.
func ParseMouseButton(s string) (MouseButton, error) {
	switch strings.ToLower(s) {
	case "", "left":
		return MouseLeft, nil
	case "right":
		return MouseRight, nil
	case "middle":
		return MouseMiddle, nil
	default:
		return MouseLeft, fmt.Errorf("unknown mouse button: %q (expected left, right, or middle)", s)
	}
}

var knownModifiers = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"shift":   "shift",
	"alt":     "alt",
	"win":     "win",
	"meta":    "win",
}

// ParseModifiers parses a comma- or plus-separated modifier list such as
// "ctrl+shift" into canonical names.
func ParseModifiers(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '+' })
	var mods []string
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		name, ok := knownModifiers[strings.ToLower(strings.TrimSpace(f))]
		if !ok {
			return nil, fmt.Errorf("unknown modifier: %q (expected ctrl, shift, alt, or win)", f)
		}
		if !seen[name] {
			seen[name] = true
			mods = append(mods, name)
		}
	}
	return mods, nil
}

// ParseKeyCombo splits a key chord such as "ctrl+a" into its keys.
func ParseKeyCombo(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, "+") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
