package model

// Window represents a top-level application window.
type Window struct {
	Handle  int64  `yaml:"handle"            json:"handle"`
	App     string `yaml:"app"               json:"app"`
	PID     int    `yaml:"pid"               json:"pid"`
	Title   string `yaml:"title"             json:"title"`
	Bounds  [4]int `yaml:"bounds"            json:"bounds"`
	Focused bool   `yaml:"focused,omitempty" json:"focused,omitempty"`
}
