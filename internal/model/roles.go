package model

import "strings"

// ControlTypes lists the UI Automation control type names the engine knows
// about. Native bindings report these names verbatim.
var ControlTypes = []string{
	"AppBar", "Button", "Calendar", "CheckBox", "ComboBox", "Custom",
	"DataGrid", "DataItem", "Document", "Edit", "Group", "Header",
	"HeaderItem", "Hyperlink", "Image", "List", "ListItem", "Menu",
	"MenuBar", "MenuItem", "Pane", "ProgressBar", "RadioButton",
	"ScrollBar", "SemanticZoom", "Separator", "Slider", "Spinner",
	"SplitButton", "StatusBar", "Tab", "TabItem", "Table", "Text",
	"Thumb", "TitleBar", "ToolBar", "ToolTip", "Tree", "TreeItem", "Window",
}

// RoleAliases maps compact role codes to control type names, so callers can
// write "btn" or "input" instead of "Button" or "Edit".
var RoleAliases = map[string]string{
	"btn":      "Button",
	"txt":      "Text",
	"lnk":      "Hyperlink",
	"img":      "Image",
	"input":    "Edit",
	"chk":      "CheckBox",
	"radio":    "RadioButton",
	"combo":    "ComboBox",
	"menu":     "Menu",
	"menuitem": "MenuItem",
	"tab":      "Tab",
	"tabitem":  "TabItem",
	"list":     "List",
	"item":     "ListItem",
	"tree":     "Tree",
	"treeitem": "TreeItem",
	"group":    "Group",
	"pane":     "Pane",
	"toolbar":  "ToolBar",
	"doc":      "Document",
	"window":   "Window",
}

var controlTypeIndex = func() map[string]string {
	m := make(map[string]string, len(ControlTypes))
	for _, ct := range ControlTypes {
		m[strings.ToLower(ct)] = ct
	}
	return m
}()

// NormalizeControlType converts a caller-supplied control type or role code
// to its canonical control type name. Known names are matched
// case-insensitively; unknown values are passed through unchanged so that
// framework-specific control types can still be matched exactly.
func NormalizeControlType(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if ct, ok := RoleAliases[lower]; ok {
		return ct
	}
	if ct, ok := controlTypeIndex[lower]; ok {
		return ct
	}
	return s
}

// textEntryTypes are control types that usually accept typed text.
var textEntryTypes = map[string]bool{
	"Edit":     true,
	"Document": true,
	"ComboBox": true,
}

// IsTextEntryType reports whether the control type usually accepts typed text.
// Bindings that can query the value pattern directly should prefer that.
func IsTextEntryType(controlType string) bool {
	return textEntryTypes[controlType]
}
