package engine

import (
	"strings"

	"github.com/mj1618/desktop-uia/internal/platform"
)

// Framework labels reported in diagnostics.
const (
	FrameworkWin32    = "win32"
	FrameworkWinForms = "winforms"
	FrameworkWPF      = "wpf"
	FrameworkUWP      = "uwp"
	FrameworkChromium = "chromium"
	FrameworkJava     = "java"
	FrameworkQt       = "qt"
	FrameworkDirectUI = "directui"
	FrameworkUnknown  = "unknown"
)

// Framework is the result of framework detection. Detected is false when the
// heuristics were inconclusive, in which case Label is FrameworkUnknown.
type Framework struct {
	Label    string
	Detected bool
}

// Unknown is the inconclusive detection result.
var Unknown = Framework{Label: FrameworkUnknown}

func detected(label string) Framework {
	return Framework{Label: label, Detected: true}
}

// frameworkIDs maps UI Automation FrameworkId values to labels.
var frameworkIDs = map[string]string{
	"win32":    FrameworkWin32,
	"winform":  FrameworkWinForms,
	"wpf":      FrameworkWPF,
	"xaml":     FrameworkUWP,
	"directui": FrameworkDirectUI,
	"chrome":   FrameworkChromium,
	"qt":       FrameworkQt,
	"java":     FrameworkJava,
}

// classPrefixes maps well-known window class name prefixes to labels.
// Ordered: more specific prefixes first.
var classPrefixes = []struct {
	prefix string
	label  string
}{
	{"WindowsForms10.", FrameworkWinForms},
	{"HwndWrapper[", FrameworkWPF},
	{"ApplicationFrameWindow", FrameworkUWP},
	{"Windows.UI.Core.CoreWindow", FrameworkUWP},
	{"Chrome_WidgetWin_", FrameworkChromium},
	{"Chrome_RenderWidgetHostHWND", FrameworkChromium},
	{"SunAwt", FrameworkJava},
	{"Qt5", FrameworkQt},
	{"Qt6", FrameworkQt},
	{"QWidget", FrameworkQt},
	{"DirectUIHWND", FrameworkDirectUI},
	{"#32770", FrameworkWin32},
}

// DetectFramework labels the UI toolkit of a window from its root node. It
// never fails: read errors, panics and ambiguous evidence all yield Unknown.
// The result is advisory and must not drive engine behavior.
func DetectFramework(root platform.Node) (fw Framework) {
	defer func() {
		if recover() != nil {
			fw = Unknown
		}
	}()
	if root == nil {
		return Unknown
	}
	info, err := root.Info()
	if err != nil {
		return Unknown
	}
	if fw, ok := classify(info); ok {
		return fw
	}

	// Inconclusive root: fall back to a majority vote over direct children.
	kids, err := root.Children()
	if err != nil {
		return Unknown
	}
	votes := make(map[string]int)
	for _, k := range kids {
		ki, err := k.Info()
		if err != nil {
			continue
		}
		if fw, ok := classify(ki); ok {
			votes[fw.Label]++
		}
	}
	best, bestVotes, tie := "", 0, false
	for label, n := range votes {
		switch {
		case n > bestVotes:
			best, bestVotes, tie = label, n, false
		case n == bestVotes:
			tie = true
		}
	}
	if best == "" || tie {
		return Unknown
	}
	return detected(best)
}

func classify(info platform.NodeInfo) (Framework, bool) {
	if label, ok := frameworkIDs[strings.ToLower(info.FrameworkID)]; ok {
		// Win32 hosts report "Win32" even when the class name reveals a
		// managed toolkit underneath, so let the class name refine it.
		if label == FrameworkWin32 {
			if fw, ok := classifyClass(info.ClassName); ok {
				return fw, true
			}
		}
		return detected(label), true
	}
	return classifyClass(info.ClassName)
}

func classifyClass(class string) (Framework, bool) {
	if class == "" {
		return Unknown, false
	}
	for _, cp := range classPrefixes {
		if strings.HasPrefix(class, cp.prefix) {
			return detected(cp.label), true
		}
	}
	return Unknown, false
}
