package model

import (
	"errors"
	"fmt"
)

// ElementQuery describes which elements of a window to return. All supplied
// filters are combined with AND. The zero value of an optional field means
// the filter is not applied.
type ElementQuery struct {
	WindowHandle int64  `yaml:"window_handle"           json:"window_handle"`
	AutomationID string `yaml:"automation_id,omitempty" json:"automation_id,omitempty"`
	Name         string `yaml:"name,omitempty"          json:"name,omitempty"`
	NameContains string `yaml:"name_contains,omitempty" json:"name_contains,omitempty"`
	NamePattern  string `yaml:"name_pattern,omitempty"  json:"name_pattern,omitempty"`
	ControlType  string `yaml:"control_type,omitempty"  json:"control_type,omitempty"`
	ClassName    string `yaml:"class_name,omitempty"    json:"class_name,omitempty"`
	// ExactDepth restricts matches to nodes exactly this many hops from the
	// root. nil means any depth.
	ExactDepth *int `yaml:"exact_depth,omitempty" json:"exact_depth,omitempty"`
	// FoundIndex is the 1-based position of the first match to return. It
	// also acts as the window size when MaxElements is unset.
	FoundIndex  int `yaml:"found_index,omitempty"  json:"found_index,omitempty"`
	MaxElements int `yaml:"max_elements,omitempty" json:"max_elements,omitempty"`
}

// ErrMissingWindow is returned by Validate when no window handle is set.
var ErrMissingWindow = errors.New("window handle is required")

// Validate checks the query for missing or out-of-range fields. Filters that
// contradict each other are detected by the engine, which knows how names
// are compared.
func (q ElementQuery) Validate() error {
	if q.WindowHandle == 0 {
		return ErrMissingWindow
	}
	if q.FoundIndex < 0 {
		return fmt.Errorf("found index must be >= 1, got %d", q.FoundIndex)
	}
	if q.MaxElements < 0 {
		return fmt.Errorf("max elements must be >= 1, got %d", q.MaxElements)
	}
	if q.ExactDepth != nil && *q.ExactDepth < 0 {
		return fmt.Errorf("exact depth must be >= 0, got %d", *q.ExactDepth)
	}
	return nil
}

// Start returns the effective 1-based start offset.
func (q ElementQuery) Start() int {
	if q.FoundIndex < 1 {
		return 1
	}
	return q.FoundIndex
}

// Limit returns the effective window size. When MaxElements is unset the
// window size equals the start offset, so FoundIndex=n alone returns up to n
// elements starting at the n-th match.
func (q ElementQuery) Limit() int {
	if q.MaxElements > 0 {
		return q.MaxElements
	}
	return q.Start()
}

// HasFilters reports whether any node predicate is set.
func (q ElementQuery) HasFilters() bool {
	return q.AutomationID != "" || q.Name != "" || q.NameContains != "" ||
		q.NamePattern != "" || q.ControlType != "" || q.ClassName != "" ||
		q.ExactDepth != nil
}

// Depth is a convenience for building queries with ExactDepth.
func Depth(d int) *int {
	return &d
}
