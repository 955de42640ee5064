package model

// Element is a snapshot of a matched accessibility node as returned to callers.
// It never holds a live reference; ID is the lookup key used to re-resolve it.
type Element struct {
	ID           string `yaml:"id"              json:"id"`              // Opaque element identity
	Index        int    `yaml:"i"               json:"i"`               // 1-based position in the returned slice
	ControlType  string `yaml:"ct"              json:"ct"`              // Control type (Button, Edit, ...)
	Name         string `yaml:"n,omitempty"     json:"n,omitempty"`     // Accessible name
	AutomationID string `yaml:"aid,omitempty"   json:"aid,omitempty"`   // Developer-assigned automation id
	ClassName    string `yaml:"cls,omitempty"   json:"cls,omitempty"`   // Native class name
	Value        string `yaml:"v,omitempty"     json:"v,omitempty"`     // Current value (text fields)
	Bounds       [4]int `yaml:"b"               json:"b"`               // [x, y, width, height]
	ClickPoint   [2]int `yaml:"click"           json:"click"`           // Center of Bounds
	Enabled      *bool  `yaml:"e,omitempty"     json:"e,omitempty"`     // nil = enabled (omit); false = disabled
	Focused      bool   `yaml:"f,omitempty"     json:"f,omitempty"`     // Has keyboard focus
	Depth        int    `yaml:"depth,omitempty" json:"depth,omitempty"` // Hops from the window root
}

// IsEnabled reports whether the element was enabled when it was captured.
func (e Element) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}
