package platform

import (
	"errors"

	"github.com/mj1618/desktop-uia/internal/model"
)

// Handle identifies a top-level native window.
type Handle int64

var (
	// ErrNodeGone is returned by Node methods when the underlying element no
	// longer exists in the accessibility tree.
	ErrNodeGone = errors.New("accessibility node no longer exists")

	// ErrWindowNotFound is returned by WindowPort.Resolve when no window has
	// the given handle.
	ErrWindowNotFound = errors.New("window not found")
)

// NodeInfo is a point-in-time copy of a node's attributes.
type NodeInfo struct {
	ControlType  string
	Name         string
	AutomationID string
	ClassName    string
	FrameworkID  string // e.g. "Win32", "WinForm", "WPF"
	Bounds       model.Rect
	Enabled      bool
	Offscreen    bool
	Focused      bool
	Value        string
	TextEntry    bool // exposes an editable value or text pattern
	ReadOnly     bool
	RuntimeID    []int
	WindowHandle Handle // native handle when the node is itself a window, else 0
}

// Node is a live, volatile reference into an OS-owned accessibility tree.
// Any method may fail with ErrNodeGone once the element disappears.
// Implementations are only ever called from the engine's worker goroutine.
type Node interface {
	// Info reads the node's current attributes.
	Info() (NodeInfo, error)

	// Children returns the node's children in native navigation order.
	Children() ([]Node, error)

	// Parent returns the node's parent, or nil for a window root.
	Parent() (Node, error)
}

// WindowPort resolves native windows to accessibility roots.
type WindowPort interface {
	// Resolve returns the root node for a window handle, or ErrWindowNotFound.
	Resolve(h Handle) (Node, error)

	// Foreground returns the handle of the window that has input focus.
	Foreground() (Handle, error)

	// List returns all top-level windows.
	List() ([]model.Window, error)
}

// InputPort injects pointer and keyboard input.
type InputPort interface {
	MoveAndClick(p model.Point, button MouseButton, modifiers []string, count int) error
	TypeText(text string) error
	PressKeys(keys []string) error
	SetFocus(n Node) error
}

// MonitorPort reports the virtual screen layout.
type MonitorPort interface {
	Monitors() ([]model.Rect, error)
}

// ElevationPort reports whether a window belongs to a process running at a
// higher integrity level than ours, which blocks injected input.
type ElevationPort interface {
	IsElevated(h Handle) (bool, error)
}
