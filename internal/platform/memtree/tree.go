// Package memtree implements the platform ports over an in-memory
// accessibility tree. It backs the test suites and lets the CLI and server run
// against a recorded tree loaded from a YAML fixture.
package memtree

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/platform"
)

// Element is a node of the in-memory tree. Exported fields double as the
// YAML fixture schema.
type Element struct {
	ControlType  string     `yaml:"control_type"`
	Name         string     `yaml:"name,omitempty"`
	AutomationID string     `yaml:"automation_id,omitempty"`
	ClassName    string     `yaml:"class_name,omitempty"`
	FrameworkID  string     `yaml:"framework_id,omitempty"`
	Bounds       [4]int     `yaml:"bounds,omitempty"`
	Disabled     bool       `yaml:"disabled,omitempty"`
	Offscreen    bool       `yaml:"offscreen,omitempty"`
	Value        string     `yaml:"value,omitempty"`
	TextEntry    bool       `yaml:"text_entry,omitempty"`
	ReadOnly     bool       `yaml:"read_only,omitempty"`
	Children     []*Element `yaml:"children,omitempty"`

	// Fault, when set, is returned by every Info call on this element to
	// simulate a failing native call.
	Fault error `yaml:"-"`

	parent    *Element
	runtimeID int
	handle    platform.Handle
	detached  bool
	focused   bool
}

// Window is a top-level window of the tree.
type Window struct {
	Handle   int64    `yaml:"handle"`
	App      string   `yaml:"app,omitempty"`
	PID      int      `yaml:"pid,omitempty"`
	Title    string   `yaml:"title,omitempty"`
	Elevated bool     `yaml:"elevated,omitempty"`
	Root     *Element `yaml:"root"`
}

// Tree is a mutable in-memory desktop. It is safe for concurrent use: tests
// mutate it while the engine worker reads it.
type Tree struct {
	mu          sync.Mutex
	windows     map[platform.Handle]*Window
	foreground  platform.Handle
	monitors    []model.Rect
	nextRuntime int

	// OnInfo, if set, is called (without the tree lock held) at the start of
	// every Node.Info call. Tests use it to mutate the tree mid-walk.
	OnInfo func(el *Element)
}

// New returns an empty tree with a single 1920x1080 monitor.
func New() *Tree {
	return &Tree{
		windows:  make(map[platform.Handle]*Window),
		monitors: []model.Rect{{X: 0, Y: 0, Width: 1920, Height: 1080}},
	}
}

// AddWindow attaches a window and assigns runtime ids to its elements. The
// first window added becomes the foreground window.
func (t *Tree) AddWindow(w *Window) error {
	if w == nil || w.Root == nil {
		return fmt.Errorf("window has no root element")
	}
	if w.Handle == 0 {
		return fmt.Errorf("window %q has no handle", w.Title)
	}
	h := platform.Handle(w.Handle)

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.windows[h]; ok {
		return fmt.Errorf("duplicate window handle %d", w.Handle)
	}
	w.Root.parent = nil
	w.Root.handle = h
	t.attachLocked(w.Root)
	t.windows[h] = w
	if t.foreground == 0 {
		t.foreground = h
	}
	return nil
}

// CloseWindow removes a window; its elements become detached.
func (t *Tree) CloseWindow(h int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.windows[platform.Handle(h)]
	if !ok {
		return
	}
	detach(w.Root)
	delete(t.windows, platform.Handle(h))
	if t.foreground == platform.Handle(h) {
		t.foreground = 0
	}
}

// SetForeground marks the window with the given handle as focused.
func (t *Tree) SetForeground(h int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.foreground = platform.Handle(h)
}

// SetMonitors replaces the monitor layout.
func (t *Tree) SetMonitors(rects []model.Rect) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.monitors = append([]model.Rect(nil), rects...)
}

// attachLocked assigns parents and fresh runtime ids to el's subtree.
func (t *Tree) attachLocked(el *Element) {
	t.nextRuntime++
	el.runtimeID = t.nextRuntime
	el.detached = false
	for _, c := range el.Children {
		c.parent = el
		t.attachLocked(c)
	}
}

func detach(el *Element) {
	el.detached = true
	for _, c := range el.Children {
		detach(c)
	}
}

// Remove detaches el (and its subtree) from its parent.
func (t *Tree) Remove(el *Element) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if el.parent != nil {
		el.parent.Children = without(el.parent.Children, el)
		el.parent = nil
	}
	detach(el)
}

// Insert adds el as a child of parent at position idx (clamped). el gets
// fresh runtime ids, as a newly created native element would.
func (t *Tree) Insert(parent, el *Element, idx int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx > len(parent.Children) {
		idx = len(parent.Children)
	}
	parent.Children = append(parent.Children, nil)
	copy(parent.Children[idx+1:], parent.Children[idx:])
	parent.Children[idx] = el
	el.parent = parent
	t.attachLocked(el)
}

// Move reparents el under newParent at position idx, keeping its runtime id.
func (t *Tree) Move(el, newParent *Element, idx int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if el.parent != nil {
		el.parent.Children = without(el.parent.Children, el)
	}
	if idx < 0 || idx > len(newParent.Children) {
		idx = len(newParent.Children)
	}
	newParent.Children = append(newParent.Children, nil)
	copy(newParent.Children[idx+1:], newParent.Children[idx:])
	newParent.Children[idx] = el
	el.parent = newParent
}

// Update runs fn with the tree locked, for attribute changes.
func (t *Tree) Update(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn()
}

// Find returns the first element in pre-order across all windows (in handle
// order) that satisfies match.
func (t *Tree) Find(match func(*Element) bool) *Element {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, h := range t.handlesLocked() {
		if el := findIn(t.windows[h].Root, match); el != nil {
			return el
		}
	}
	return nil
}

// ByAutomationID returns the first element with the given automation id.
func (t *Tree) ByAutomationID(id string) *Element {
	return t.Find(func(el *Element) bool { return el.AutomationID == id })
}

// ByName returns the first element with the given name.
func (t *Tree) ByName(name string) *Element {
	return t.Find(func(el *Element) bool { return el.Name == name })
}

// Value returns the element's current value.
func (t *Tree) Value(el *Element) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return el.Value
}

// Focused returns the element holding keyboard focus, if any.
func (t *Tree) Focused() *Element {
	return t.Find(func(el *Element) bool { return el.focused })
}

func findIn(el *Element, match func(*Element) bool) *Element {
	if match(el) {
		return el
	}
	for _, c := range el.Children {
		if found := findIn(c, match); found != nil {
			return found
		}
	}
	return nil
}

func (t *Tree) handlesLocked() []platform.Handle {
	handles := make([]platform.Handle, 0, len(t.windows))
	for h := range t.windows {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}

func (t *Tree) setFocusLocked(target *Element) {
	for _, w := range t.windows {
		clearFocus(w.Root)
	}
	target.focused = true
	for el := target; el != nil; el = el.parent {
		if el.handle != 0 {
			t.foreground = el.handle
		}
	}
}

func clearFocus(el *Element) {
	el.focused = false
	for _, c := range el.Children {
		clearFocus(c)
	}
}

func without(list []*Element, el *Element) []*Element {
	out := list[:0:0]
	for _, c := range list {
		if c != el {
			out = append(out, c)
		}
	}
	return out
}
