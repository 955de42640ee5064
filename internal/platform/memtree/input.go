package memtree

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/platform"
)

// Event is a recorded input call.
type Event struct {
	Kind      string // "click", "type", "keys", "focus"
	Point     model.Point
	Button    platform.MouseButton
	Modifiers []string
	Count     int
	Text      string
	Keys      []string
}

// Input implements platform.InputPort against a Tree. Focus, select-all and
// typing update the tree the way a real text field would react.
type Input struct {
	tree *Tree

	mu        sync.Mutex
	events    []Event
	selectAll bool
}

var _ platform.InputPort = (*Input)(nil)

// NewInput returns an input recorder bound to t.
func NewInput(t *Tree) *Input {
	return &Input{tree: t}
}

// Events returns a copy of the recorded events.
func (in *Input) Events() []Event {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]Event(nil), in.events...)
}

func (in *Input) record(e Event) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.events = append(in.events, e)
}

func (in *Input) MoveAndClick(p model.Point, button platform.MouseButton, modifiers []string, count int) error {
	in.record(Event{Kind: "click", Point: p, Button: button, Modifiers: modifiers, Count: count})
	in.setSelectAll(false)
	return nil
}

func (in *Input) TypeText(text string) error {
	in.record(Event{Kind: "type", Text: text})
	overwrite := in.setSelectAll(false)

	t := in.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	var target *Element
	for _, w := range t.windows {
		if el := findIn(w.Root, func(el *Element) bool { return el.focused }); el != nil {
			target = el
			break
		}
	}
	if target == nil || target.ReadOnly {
		return nil
	}
	if overwrite {
		target.Value = text
	} else {
		target.Value += text
	}
	return nil
}

func (in *Input) PressKeys(keys []string) error {
	in.record(Event{Kind: "keys", Keys: keys})
	combo := strings.ToLower(strings.Join(keys, "+"))
	in.setSelectAll(combo == "ctrl+a")
	return nil
}

func (in *Input) SetFocus(n platform.Node) error {
	mn, ok := n.(*node)
	if !ok {
		return fmt.Errorf("memtree: foreign node %T", n)
	}
	in.record(Event{Kind: "focus"})
	in.setSelectAll(false)

	t := in.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	if mn.el.detached {
		return platform.ErrNodeGone
	}
	t.setFocusLocked(mn.el)
	return nil
}

// setSelectAll stores v and returns the previous value.
func (in *Input) setSelectAll(v bool) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	prev := in.selectAll
	in.selectAll = v
	return prev
}
