package memtree

import (
	"errors"
	"strings"
	"testing"

	"github.com/mj1618/desktop-uia/internal/platform"
)

func loadLogin(t *testing.T) *Tree {
	t.Helper()
	tree, err := LoadFile("testdata/login.yaml")
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestLoadFile_BuildsWindows(t *testing.T) {
	tree := loadLogin(t)
	windows, err := tree.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	if windows[0].Handle != 4097 || !windows[0].Focused {
		t.Errorf("expected focused login window first, got %+v", windows[0])
	}
	if windows[1].App != "Notepad" {
		t.Errorf("expected Notepad second, got %q", windows[1].App)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("windows:\n  - handle: 1\n    bogus: true\n    root: {control_type: Window}\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestAddWindow_DuplicateHandle(t *testing.T) {
	tree := New()
	if err := tree.AddWindow(&Window{Handle: 1, Root: &Element{ControlType: "Window"}}); err != nil {
		t.Fatal(err)
	}
	if err := tree.AddWindow(&Window{Handle: 1, Root: &Element{ControlType: "Window"}}); err == nil {
		t.Fatal("expected duplicate handle error")
	}
}

func TestResolve_UnknownWindow(t *testing.T) {
	tree := loadLogin(t)
	_, err := tree.Resolve(platform.Handle(12345))
	if !errors.Is(err, platform.ErrWindowNotFound) {
		t.Fatalf("expected ErrWindowNotFound, got %v", err)
	}
}

func TestNode_ChildrenInOrder(t *testing.T) {
	tree := loadLogin(t)
	root, err := tree.Resolve(4097)
	if err != nil {
		t.Fatal(err)
	}
	kids, err := root.Children()
	if err != nil {
		t.Fatal(err)
	}
	if len(kids) != 2 {
		t.Fatalf("expected 2 children, got %d", len(kids))
	}
	buttons, err := kids[1].Children()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, b := range buttons {
		info, err := b.Info()
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, info.Name)
	}
	if strings.Join(names, ",") != "Submit,Cancel,Disabled" {
		t.Errorf("unexpected order: %v", names)
	}
}

func TestNode_RemovedReportsGone(t *testing.T) {
	tree := loadLogin(t)
	root, _ := tree.Resolve(4097)
	kids, _ := root.Children()
	pane := kids[1]

	tree.Remove(tree.ByName("Buttons"))

	if _, err := pane.Info(); !errors.Is(err, platform.ErrNodeGone) {
		t.Errorf("Info on removed node: expected ErrNodeGone, got %v", err)
	}
	if _, err := pane.Children(); !errors.Is(err, platform.ErrNodeGone) {
		t.Errorf("Children on removed node: expected ErrNodeGone, got %v", err)
	}
	kids, _ = root.Children()
	if len(kids) != 1 {
		t.Errorf("expected 1 remaining child, got %d", len(kids))
	}
}

func TestNode_RootInfo(t *testing.T) {
	tree := loadLogin(t)
	root, _ := tree.Resolve(4097)
	info, err := root.Info()
	if err != nil {
		t.Fatal(err)
	}
	if info.WindowHandle != 4097 {
		t.Errorf("expected root window handle 4097, got %d", info.WindowHandle)
	}
	if info.FrameworkID != "WinForm" {
		t.Errorf("expected WinForm framework, got %q", info.FrameworkID)
	}
	parent, err := root.Parent()
	if err != nil || parent != nil {
		t.Errorf("root parent should be nil, got %v, %v", parent, err)
	}
}

func TestInsert_AssignsFreshRuntimeID(t *testing.T) {
	tree := loadLogin(t)
	submit := tree.ByName("Submit")
	before := submit.runtimeID
	pane := tree.ByName("Buttons")
	tree.Remove(submit)
	tree.Insert(pane, submit, 0)
	if submit.runtimeID == before {
		t.Error("re-inserted element should get a new runtime id")
	}
}

func TestMove_KeepsRuntimeID(t *testing.T) {
	tree := loadLogin(t)
	cancel := tree.ByName("Cancel")
	before := cancel.runtimeID
	root := tree.ByName("Sign in")
	tree.Move(cancel, root, 0)
	if cancel.runtimeID != before {
		t.Error("moved element should keep its runtime id")
	}
	if root.Children[0] != cancel {
		t.Error("expected cancel to be first child of root")
	}
}

func TestCloseWindow_DetachesNodes(t *testing.T) {
	tree := loadLogin(t)
	root, _ := tree.Resolve(8193)
	tree.CloseWindow(8193)
	if _, err := root.Info(); !errors.Is(err, platform.ErrNodeGone) {
		t.Errorf("expected ErrNodeGone after close, got %v", err)
	}
	if _, err := tree.Resolve(8193); !errors.Is(err, platform.ErrWindowNotFound) {
		t.Errorf("expected ErrWindowNotFound after close, got %v", err)
	}
}
