package model

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestElement_JSONKeys(t *testing.T) {
	el := Element{
		ID:          "1a2b|0.1|1",
		Index:       1,
		ControlType: "Button",
		Name:        "OK",
		Bounds:      [4]int{10, 20, 100, 30},
	}
	data, err := json.Marshal(el)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	// Must have compact keys
	for _, key := range []string{"id", "i", "ct", "n", "b", "click"} {
		if _, ok := m[key]; !ok {
			t.Errorf("expected key %q in JSON output", key)
		}
	}
	// Must NOT have verbose keys
	for _, key := range []string{"index", "control_type", "name", "bounds"} {
		if _, ok := m[key]; ok {
			t.Errorf("unexpected verbose key %q in JSON output", key)
		}
	}
}

func TestElement_OmitEmpty(t *testing.T) {
	el := Element{ID: "x", Index: 1, ControlType: "Pane"}
	data, err := yaml.Marshal(el)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"n", "aid", "cls", "v", "e", "f", "depth"} {
		if _, ok := m[key]; ok {
			t.Errorf("empty field %q should be omitted", key)
		}
	}
}

func TestElement_IsEnabled(t *testing.T) {
	f := false
	tr := true
	tests := []struct {
		enabled *bool
		want    bool
	}{
		{nil, true},
		{&tr, true},
		{&f, false},
	}
	for _, tt := range tests {
		el := Element{Enabled: tt.enabled}
		if got := el.IsEnabled(); got != tt.want {
			t.Errorf("IsEnabled() with %v = %v, want %v", tt.enabled, got, tt.want)
		}
	}
}
