package engine

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/platform"
	"golang.org/x/text/cases"
)

// matcher is an ElementQuery compiled for evaluation against node attributes.
// It is built per call and is not safe for concurrent use.
type matcher struct {
	automationID string
	name         string
	controlType  string
	className    string

	fold         cases.Caser
	nameContains string // case-folded

	hasPattern bool
	pattern    *regexp2.Regexp // nil when the pattern failed to compile

	// focused restricts matches to the element with keyboard focus.
	focused bool
}

// compileQuery builds a matcher. An invalid name pattern does not fail: the
// matcher then rejects every node, so the query completes as "no match".
func compileQuery(q model.ElementQuery, regexTimeout time.Duration) *matcher {
	m := &matcher{
		automationID: q.AutomationID,
		name:         q.Name,
		controlType:  model.NormalizeControlType(q.ControlType),
		className:    q.ClassName,
		fold:         cases.Fold(),
	}
	if q.NameContains != "" {
		m.nameContains = m.fold.String(q.NameContains)
	}
	if q.NamePattern != "" {
		m.hasPattern = true
		if re, err := regexp2.Compile(q.NamePattern, regexp2.IgnoreCase); err == nil {
			re.MatchTimeout = regexTimeout
			m.pattern = re
		}
	}
	return m
}

// patternValid reports whether the name pattern, if any, compiled.
func (m *matcher) patternValid() bool {
	return !m.hasPattern || m.pattern != nil
}

// matchName evaluates only the name predicates against s.
func (m *matcher) matchName(s string) bool {
	if m.name != "" && s != m.name {
		return false
	}
	if m.nameContains != "" && !strings.Contains(m.fold.String(s), m.nameContains) {
		return false
	}
	if m.hasPattern {
		if m.pattern == nil {
			return false
		}
		// A timed-out match returns an error and counts as a non-match.
		ok, err := m.pattern.MatchString(s)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// contradiction returns InvalidQuery when the exact name of q fails its own
// substring or pattern filter, using the same comparison as matching. Such a
// query can never match anything.
func (m *matcher) contradiction(q model.ElementQuery) error {
	if q.Name == "" || m.matchName(q.Name) {
		return nil
	}
	if m.nameContains != "" && !strings.Contains(m.fold.String(q.Name), m.nameContains) {
		return newError(KindInvalidQuery, "name %q can never contain %q", q.Name, q.NameContains)
	}
	if m.pattern != nil {
		return newError(KindInvalidQuery, "name %q can never match pattern %q", q.Name, q.NamePattern)
	}
	return nil
}

// match evaluates the conjunction of all predicates.
func (m *matcher) match(info platform.NodeInfo) bool {
	if m.automationID != "" && info.AutomationID != m.automationID {
		return false
	}
	if m.controlType != "" && info.ControlType != m.controlType {
		return false
	}
	if m.className != "" && info.ClassName != m.className {
		return false
	}
	if m.focused && !info.Focused {
		return false
	}
	return m.matchName(info.Name)
}
