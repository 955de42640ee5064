package engine

import (
	"errors"
	"testing"

	"github.com/mj1618/desktop-uia/internal/platform"
	"github.com/stretchr/testify/assert"
)

// fakeNode is a hand-built Node for tests that need shapes memtree cannot
// express, such as cycles or panicking providers.
type fakeNode struct {
	info     platform.NodeInfo
	infoErr  error
	kids     []platform.Node
	kidsErr  error
	parent   platform.Node
	panicMsg string
}

func (n *fakeNode) Info() (platform.NodeInfo, error) {
	if n.panicMsg != "" {
		panic(n.panicMsg)
	}
	return n.info, n.infoErr
}

func (n *fakeNode) Children() ([]platform.Node, error) { return n.kids, n.kidsErr }

func (n *fakeNode) Parent() (platform.Node, error) { return n.parent, nil }

func leaf(frameworkID, class string) *fakeNode {
	return &fakeNode{info: platform.NodeInfo{FrameworkID: frameworkID, ClassName: class}}
}

func TestDetectFramework(t *testing.T) {
	tests := []struct {
		name string
		root platform.Node
		want Framework
	}{
		{"framework id", leaf("WPF", ""), detected(FrameworkWPF)},
		{"winforms id", leaf("WinForm", ""), detected(FrameworkWinForms)},
		{"xaml is uwp", leaf("XAML", ""), detected(FrameworkUWP)},
		{"win32 refined by class", leaf("Win32", "HwndWrapper[App.exe;;abc]"), detected(FrameworkWPF)},
		{"plain win32", leaf("Win32", "Notepad"), detected(FrameworkWin32)},
		{"class only", leaf("", "Chrome_WidgetWin_1"), detected(FrameworkChromium)},
		{"java class", leaf("", "SunAwtFrame"), detected(FrameworkJava)},
		{"children vote", &fakeNode{kids: []platform.Node{leaf("Qt", ""), leaf("Qt", ""), leaf("Win32", "")}}, detected(FrameworkQt)},
		{"children tie", &fakeNode{kids: []platform.Node{leaf("Qt", ""), leaf("WPF", "")}}, Unknown},
		{"no evidence", &fakeNode{kids: []platform.Node{leaf("", "")}}, Unknown},
		{"root read fails", &fakeNode{infoErr: errors.New("E_FAIL")}, Unknown},
		{"children fail", &fakeNode{kidsErr: platform.ErrNodeGone}, Unknown},
		{"panic", &fakeNode{panicMsg: "boom"}, Unknown},
		{"nil root", nil, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFramework(tt.root))
		})
	}
}
