package model

// Diagnostics describes how a query or action was carried out. It is
// populated on success and on not-found/not-actionable failures so callers can
// tell "scanned 400 nodes, 0 matched" apart from other failures.
type Diagnostics struct {
	ElementsScanned   int    `yaml:"elements_scanned"    json:"elements_scanned"`
	Matched           int    `yaml:"matched"             json:"matched"`
	DurationMs        int64  `yaml:"duration_ms"         json:"duration_ms"`
	DetectedFramework string `yaml:"framework"           json:"framework"`
	Truncated         bool   `yaml:"truncated,omitempty" json:"truncated,omitempty"`
	Skipped           int    `yaml:"skipped,omitempty"   json:"skipped,omitempty"`
}

// QueryResult is the outcome of a successful query.
type QueryResult struct {
	Elements    []Element   `yaml:"elements"    json:"elements"`
	Diagnostics Diagnostics `yaml:"diagnostics" json:"diagnostics"`
}

// ActionOutcome is the outcome of an action. Failures are reported here,
// never as a panic.
type ActionOutcome struct {
	OK          bool         `yaml:"ok"                    json:"ok"`
	Action      string       `yaml:"action"                json:"action"`
	ID          string       `yaml:"id,omitempty"          json:"id,omitempty"`
	Kind        string       `yaml:"error_kind,omitempty"  json:"error_kind,omitempty"`
	Message     string       `yaml:"message,omitempty"     json:"message,omitempty"`
	Text        string       `yaml:"text,omitempty"        json:"text,omitempty"`
	Point       *Point       `yaml:"point,omitempty"       json:"point,omitempty"`
	Target      *Element     `yaml:"target,omitempty"      json:"target,omitempty"`
	Elements    []Element    `yaml:"elements,omitempty"    json:"elements,omitempty"`
	Diagnostics *Diagnostics `yaml:"diagnostics,omitempty" json:"diagnostics,omitempty"`
}
