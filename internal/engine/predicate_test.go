package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/platform"
	"github.com/stretchr/testify/assert"
)

func TestMatcher(t *testing.T) {
	submit := platform.NodeInfo{ControlType: "Button", Name: "Submit", AutomationID: "SubmitButton", ClassName: "WindowsForms10.BUTTON"}

	tests := []struct {
		name  string
		query model.ElementQuery
		want  bool
	}{
		{"empty query matches", model.ElementQuery{}, true},
		{"automation id", model.ElementQuery{AutomationID: "SubmitButton"}, true},
		{"automation id is case sensitive", model.ElementQuery{AutomationID: "submitbutton"}, false},
		{"exact name", model.ElementQuery{Name: "Submit"}, true},
		{"exact name is case sensitive", model.ElementQuery{Name: "submit"}, false},
		{"contains folds case", model.ElementQuery{NameContains: "SUBM"}, true},
		{"contains miss", model.ElementQuery{NameContains: "cancel"}, false},
		{"pattern ignores case", model.ElementQuery{NamePattern: "^sub"}, true},
		{"pattern lookahead", model.ElementQuery{NamePattern: `^(?=.*mit)S`}, true},
		{"invalid pattern", model.ElementQuery{NamePattern: "(["}, false},
		{"control type alias", model.ElementQuery{ControlType: "btn"}, true},
		{"control type mismatch", model.ElementQuery{ControlType: "Edit"}, false},
		{"class name", model.ElementQuery{ClassName: "WindowsForms10.BUTTON"}, true},
		{"conjunction", model.ElementQuery{ControlType: "Button", NameContains: "mit", AutomationID: "Other"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := compileQuery(tt.query, 100*time.Millisecond)
			assert.Equal(t, tt.want, m.match(submit))
		})
	}
}

func TestMatcher_PatternValid(t *testing.T) {
	assert.True(t, compileQuery(model.ElementQuery{}, time.Second).patternValid())
	assert.True(t, compileQuery(model.ElementQuery{NamePattern: "a+"}, time.Second).patternValid())
	assert.False(t, compileQuery(model.ElementQuery{NamePattern: "(["}, time.Second).patternValid())
}

func TestMatcher_PatternTimeoutIsNoMatch(t *testing.T) {
	m := compileQuery(model.ElementQuery{NamePattern: `^(a+)+$`}, time.Millisecond)
	name := strings.Repeat("a", 40) + "!"
	assert.False(t, m.match(platform.NodeInfo{Name: name}))
}

func TestMatcher_Focused(t *testing.T) {
	m := compileQuery(model.ElementQuery{}, time.Second)
	m.focused = true
	assert.False(t, m.match(platform.NodeInfo{Name: "x"}))
	assert.True(t, m.match(platform.NodeInfo{Name: "x", Focused: true}))
}
