package memtree

import (
	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/platform"
)

// node is a live reference to an Element, mirroring how a native binding
// hands out element pointers that may go stale.
type node struct {
	tree *Tree
	el   *Element
}

var _ platform.Node = (*node)(nil)

func (n *node) Info() (platform.NodeInfo, error) {
	if hook := n.tree.OnInfo; hook != nil {
		hook(n.el)
	}
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if n.el.detached {
		return platform.NodeInfo{}, platform.ErrNodeGone
	}
	if n.el.Fault != nil {
		return platform.NodeInfo{}, n.el.Fault
	}
	el := n.el
	return platform.NodeInfo{
		ControlType:  el.ControlType,
		Name:         el.Name,
		AutomationID: el.AutomationID,
		ClassName:    el.ClassName,
		FrameworkID:  el.FrameworkID,
		Bounds:       model.RectFromBounds(el.Bounds),
		Enabled:      !el.Disabled,
		Offscreen:    el.Offscreen,
		Focused:      el.focused,
		Value:        el.Value,
		TextEntry:    el.TextEntry || model.IsTextEntryType(el.ControlType),
		ReadOnly:     el.ReadOnly,
		RuntimeID:    []int{42, el.runtimeID},
		WindowHandle: el.handle,
	}, nil
}

func (n *node) Children() ([]platform.Node, error) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if n.el.detached {
		return nil, platform.ErrNodeGone
	}
	out := make([]platform.Node, len(n.el.Children))
	for i, c := range n.el.Children {
		out[i] = &node{tree: n.tree, el: c}
	}
	return out, nil
}

func (n *node) Parent() (platform.Node, error) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if n.el.detached {
		return nil, platform.ErrNodeGone
	}
	if n.el.parent == nil {
		return nil, nil
	}
	return &node{tree: n.tree, el: n.el.parent}, nil
}

// Resolve implements platform.WindowPort.
func (t *Tree) Resolve(h platform.Handle) (platform.Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.windows[h]
	if !ok {
		return nil, platform.ErrWindowNotFound
	}
	return &node{tree: t, el: w.Root}, nil
}

// Foreground implements platform.WindowPort.
func (t *Tree) Foreground() (platform.Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.windows[t.foreground]; !ok {
		return 0, platform.ErrWindowNotFound
	}
	return t.foreground, nil
}

// List implements platform.WindowPort.
func (t *Tree) List() ([]model.Window, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	windows := make([]model.Window, 0, len(t.windows))
	for _, h := range t.handlesLocked() {
		w := t.windows[h]
		windows = append(windows, model.Window{
			Handle:  w.Handle,
			App:     w.App,
			PID:     w.PID,
			Title:   w.Title,
			Bounds:  w.Root.Bounds,
			Focused: h == t.foreground,
		})
	}
	return windows, nil
}

// Monitors implements platform.MonitorPort.
func (t *Tree) Monitors() ([]model.Rect, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.Rect(nil), t.monitors...), nil
}

// IsElevated implements platform.ElevationPort.
func (t *Tree) IsElevated(h platform.Handle) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.windows[h]
	if !ok {
		return false, platform.ErrWindowNotFound
	}
	return w.Elevated, nil
}
