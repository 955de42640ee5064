package server

import (
	"fmt"
	"math"
	"strings"

	"github.com/mj1618/desktop-uia/internal/engine"
	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/platform"
)

// StringParam returns a string argument or def when it is absent.
func StringParam(params map[string]interface{}, key, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}

// IntParam returns a numeric argument or def when it is absent. JSON numbers
// arrive as float64.
func IntParam(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case float64:
		return int(math.Round(v))
	case int:
		return v
	case int64:
		return int(v)
	}
	return def
}

// Int64Param is IntParam for window handles.
func Int64Param(params map[string]interface{}, key string, def int64) int64 {
	switch v := params[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	}
	return def
}

// BoolParam returns a boolean argument or def when it is absent.
func BoolParam(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

func hasParam(params map[string]interface{}, key string) bool {
	_, ok := params[key]
	return ok
}

// queryKeys are the arguments that make up an element query.
var queryKeys = []string{"automation_id", "name", "name_contains", "name_pattern", "control_type", "class_name", "exact_depth"}

// hasQuery reports whether any query filter argument is present.
func hasQuery(params map[string]interface{}) bool {
	for _, k := range queryKeys {
		if hasParam(params, k) {
			return true
		}
	}
	return false
}

// queryFromParams builds an element query from tool arguments.
func queryFromParams(params map[string]interface{}) model.ElementQuery {
	q := model.ElementQuery{
		WindowHandle: Int64Param(params, "window", 0),
		AutomationID: StringParam(params, "automation_id", ""),
		Name:         StringParam(params, "name", ""),
		NameContains: StringParam(params, "name_contains", ""),
		NamePattern:  StringParam(params, "name_pattern", ""),
		ControlType:  StringParam(params, "control_type", ""),
		ClassName:    StringParam(params, "class_name", ""),
		FoundIndex:   IntParam(params, "found_index", 0),
		MaxElements:  IntParam(params, "max_elements", 0),
	}
	if hasParam(params, "exact_depth") {
		q.ExactDepth = model.Depth(IntParam(params, "exact_depth", 0))
	}
	return q
}

// clickParams reads the button and modifier arguments of a click.
func clickParams(params map[string]interface{}) (platform.MouseButton, []string, error) {
	button, err := platform.ParseMouseButton(StringParam(params, "button", ""))
	if err != nil {
		return 0, nil, err
	}
	mods, err := platform.ParseModifiers(StringParam(params, "modifiers", ""))
	if err != nil {
		return 0, nil, err
	}
	return button, mods, nil
}

// requireString returns a mandatory string argument.
func requireString(params map[string]interface{}, key string) (string, error) {
	v := strings.TrimSpace(StringParam(params, key, ""))
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// Step converts the arguments of one action into an engine target and its
// parameters. It accepts the same keys as the element tools and is used by
// batch execution.
func Step(action engine.Action, params map[string]interface{}) (engine.Target, engine.ActionParams, error) {
	t, err := target(params)
	if err != nil {
		return engine.Target{}, engine.ActionParams{}, err
	}
	p := engine.ActionParams{
		Text:       StringParam(params, "text", ""),
		ClearFirst: BoolParam(params, "clear_first", false),
		Ancestors: engine.AncestorOptions{
			MaxLevels:   IntParam(params, "max_levels", 0),
			IncludeSelf: BoolParam(params, "include_self", false),
		},
	}
	switch action {
	case engine.ActionClick, engine.ActionDoubleClick:
		if p.Button, p.Modifiers, err = clickParams(params); err != nil {
			return engine.Target{}, engine.ActionParams{}, err
		}
	case engine.ActionType:
		if !hasParam(params, "text") {
			return engine.Target{}, engine.ActionParams{}, fmt.Errorf("text is required")
		}
	}
	return t, p, nil
}
