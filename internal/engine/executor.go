package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/platform"
	"go.uber.org/zap"
)

// Action names an operation on a single element.
type Action string

const (
	ActionClick        Action = "click"
	ActionDoubleClick  Action = "double_click"
	ActionFocus        Action = "focus"
	ActionType         Action = "type"
	ActionGetText      Action = "get_text"
	ActionGetAncestors Action = "get_ancestors"
)

var actions = map[string]Action{
	string(ActionClick):        ActionClick,
	string(ActionDoubleClick):  ActionDoubleClick,
	string(ActionFocus):        ActionFocus,
	string(ActionType):         ActionType,
	string(ActionGetText):      ActionGetText,
	string(ActionGetAncestors): ActionGetAncestors,
}

// ParseAction converts an action name such as "double_click" to an Action.
func ParseAction(s string) (Action, error) {
	a, ok := actions[s]
	if !ok {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

func (a Action) injectsInput() bool {
	switch a {
	case ActionClick, ActionDoubleClick, ActionFocus, ActionType:
		return true
	}
	return false
}

// Target selects the element an action applies to: an identity returned by
// an earlier call, or a query whose first result is used.
type Target struct {
	ID    string
	Query *model.ElementQuery
}

// ClickOptions controls a click.
type ClickOptions struct {
	Button    platform.MouseButton
	Modifiers []string
	Double    bool
}

// AncestorOptions controls GetAncestors. MaxLevels of 0 means up to the root.
type AncestorOptions struct {
	MaxLevels   int
	IncludeSelf bool
}

// ActionParams carries the per-action arguments of Execute.
type ActionParams struct {
	Button     platform.MouseButton
	Modifiers  []string
	Text       string
	ClearFirst bool
	Ancestors  AncestorOptions
}

// execute runs an action on the worker thread. Query targets are found and
// acted on within the same job.
func (e *Engine) execute(ctx context.Context, target Target, action Action, p ActionParams) (model.ActionOutcome, error) {
	if _, ok := actions[string(action)]; !ok {
		return model.ActionOutcome{}, newError(KindInvalidQuery, "unknown action %q", action)
	}

	var diag *model.Diagnostics
	id := target.ID
	switch {
	case target.Query != nil:
		q := *target.Query
		q.MaxElements = 1
		res, err := e.find(q)
		if err != nil {
			return model.ActionOutcome{}, err
		}
		id = res.Elements[0].ID
		diag = &res.Diagnostics
	case id == "":
		return model.ActionOutcome{}, newError(KindInvalidQuery, "target needs an element id or a query")
	}

	out, err := e.act(ctx, id, action, p)
	if diag == nil {
		return out, err
	}
	// The query walk says more than the resolution that followed it.
	if err != nil {
		var ee *Error
		if errors.As(err, &ee) {
			ee.Diagnostics = diag
		}
		return model.ActionOutcome{}, err
	}
	out.Diagnostics = diag
	return out, nil
}

// act resolves id and performs action on it. The outcome and any *Error carry
// diagnostics of the resolution.
func (e *Engine) act(ctx context.Context, id string, action Action, p ActionParams) (model.ActionOutcome, error) {
	d := beginDiagnostics()
	r, err := e.registry.Resolve(e.windows, id)
	d.stats.scanned = r.visited
	if r.root != nil {
		d.framework = DetectFramework(r.root)
	}
	if err != nil {
		return model.ActionOutcome{}, withDiagnostics(err, d.finish(0))
	}
	out, err := e.actOn(ctx, r, id, action, p)
	diag := d.finish(1)
	if err != nil {
		return model.ActionOutcome{}, withDiagnostics(err, diag)
	}
	out.Diagnostics = &diag
	return out, nil
}

// withDiagnostics attaches diag to err when it is an *Error without any.
func withDiagnostics(err error, diag model.Diagnostics) error {
	var ee *Error
	if errors.As(err, &ee) && ee.Diagnostics == nil {
		ee.Diagnostics = &diag
	}
	return err
}

func (e *Engine) actOn(ctx context.Context, r resolved, id string, action Action, p ActionParams) (model.ActionOutcome, error) {
	var err error
	out := model.ActionOutcome{Action: string(action), ID: id}
	info := r.info

	switch action {
	case ActionGetText:
		out.Text = textOf(info)

	case ActionGetAncestors:
		res, err := e.ancestors(r, p.Ancestors)
		if err != nil {
			return model.ActionOutcome{}, err
		}
		out.Elements = res.Elements

	case ActionClick, ActionDoubleClick:
		if info, err = e.prepareInput(ctx, r, action); err != nil {
			return model.ActionOutcome{}, err
		}
		pt := info.Bounds.Center()
		count := 1
		if action == ActionDoubleClick {
			count = 2
		}
		if err := e.input.MoveAndClick(pt, p.Button, p.Modifiers, count); err != nil {
			return model.ActionOutcome{}, inputError(err, id)
		}
		out.Point = &pt

	case ActionFocus:
		if info, err = e.prepareInput(ctx, r, action); err != nil {
			return model.ActionOutcome{}, err
		}
		if err := e.input.SetFocus(r.node); err != nil {
			return model.ActionOutcome{}, inputError(err, id)
		}

	case ActionType:
		if info, err = e.prepareInput(ctx, r, action); err != nil {
			return model.ActionOutcome{}, err
		}
		if err := e.typeInto(r.node, p.Text, p.ClearFirst); err != nil {
			return model.ActionOutcome{}, inputError(err, id)
		}
		if after, err := r.node.Info(); err == nil {
			info = after
			out.Text = after.Value
		}
	}

	target := toElement(r.id, r.id.Seq, candidate{info: info, path: r.id.Path, depth: len(r.id.Path)})
	out.Target = &target
	out.OK = true
	return out, nil
}

func (e *Engine) typeInto(n platform.Node, text string, clearFirst bool) error {
	if err := e.input.SetFocus(n); err != nil {
		return err
	}
	if clearFirst {
		if err := e.input.PressKeys(e.selectAll); err != nil {
			return err
		}
	}
	return e.input.TypeText(text)
}

// prepareInput checks preconditions, waits for the input limiter and then
// re-reads the node so the checks apply to its current state.
func (e *Engine) prepareInput(ctx context.Context, r resolved, action Action) (platform.NodeInfo, error) {
	if err := checkActionable(r.info, action); err != nil {
		return platform.NodeInfo{}, err
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return platform.NodeInfo{}, ctx.Err()
			}
			return platform.NodeInfo{}, wrapNative(err, "input throttle")
		}
	}
	info, err := r.node.Info()
	if err != nil {
		if errors.Is(err, platform.ErrNodeGone) {
			return platform.NodeInfo{}, newError(KindElementNotFound, "element %s vanished before input", r.id)
		}
		return platform.NodeInfo{}, wrapNative(err, "re-read element %s", r.id)
	}
	if err := checkActionable(info, action); err != nil {
		return platform.NodeInfo{}, err
	}
	if err := e.checkReachable(r.id.Window, info, action); err != nil {
		return platform.NodeInfo{}, err
	}
	return info, nil
}

// checkActionable verifies that info can receive action.
func checkActionable(info platform.NodeInfo, action Action) error {
	if !action.injectsInput() {
		return nil
	}
	if !info.Enabled {
		return newError(KindElementNotActionable, "%s %q is disabled", info.ControlType, info.Name)
	}
	if info.Bounds.Degenerate() {
		return newError(KindElementNotActionable, "%s %q has no on-screen area", info.ControlType, info.Name)
	}
	switch action {
	case ActionClick, ActionDoubleClick:
		if info.Offscreen {
			return newError(KindElementNotActionable, "%s %q is scrolled out of view", info.ControlType, info.Name)
		}
	case ActionType:
		if !info.TextEntry {
			return newError(KindElementNotActionable, "%s %q does not accept text input", info.ControlType, info.Name)
		}
		if info.ReadOnly {
			return newError(KindElementNotActionable, "%s %q is read-only", info.ControlType, info.Name)
		}
	}
	return nil
}

// checkReachable rejects input that the OS would drop: windows of elevated
// processes, and click points that fall outside every monitor. info must be
// the state the input will be aimed at.
func (e *Engine) checkReachable(window platform.Handle, info platform.NodeInfo, action Action) error {
	if e.elevation != nil {
		elevated, err := e.elevation.IsElevated(window)
		if err != nil {
			e.log.Debug("elevation check failed", zap.Error(err))
		} else if elevated {
			return newError(KindElementNotActionable, "window %#x belongs to an elevated process; input would be blocked", int64(window))
		}
	}
	if e.monitors == nil || (action != ActionClick && action != ActionDoubleClick) {
		return nil
	}
	rects, err := e.monitors.Monitors()
	if err != nil || len(rects) == 0 {
		return nil
	}
	pt := info.Bounds.Center()
	for _, m := range rects {
		if m.Contains(pt) {
			return nil
		}
	}
	return newError(KindElementNotActionable, "click point (%d, %d) is outside every monitor", pt.X, pt.Y)
}

func inputError(err error, id string) error {
	if errors.Is(err, platform.ErrNodeGone) {
		return newError(KindElementNotFound, "element %s vanished during input", id)
	}
	return wrapNative(err, "input to %s", id)
}

// textOf returns an element's value when it has one, otherwise its name.
func textOf(info platform.NodeInfo) string {
	if info.Value != "" {
		return info.Value
	}
	return info.Name
}

// ancestors walks parent links from r, nearest first with the window root
// last.
func (e *Engine) ancestors(r resolved, opts AncestorOptions) (*model.QueryResult, error) {
	d := beginDiagnostics()
	var out []candidate
	if opts.IncludeSelf {
		out = append(out, candidate{node: r.node, info: r.info, path: r.id.Path, depth: len(r.id.Path)})
	}

	node, path, levels := r.node, r.id.Path, 0
	for len(path) > 0 {
		if opts.MaxLevels > 0 && levels >= opts.MaxLevels {
			break
		}
		parent, err := node.Parent()
		if err != nil {
			return nil, ancestorError(err, r.id)
		}
		if parent == nil {
			break
		}
		info, err := parent.Info()
		if err != nil {
			return nil, ancestorError(err, r.id)
		}
		path = path[:len(path)-1]
		out = append(out, candidate{node: parent, info: info, path: path, depth: len(path)})
		node = parent
		levels++
	}
	if len(path) == 0 {
		d.framework = DetectFramework(node)
	}
	d.stats.scanned = len(out)
	diag := d.finish(len(out))

	if len(out) == 0 {
		return nil, &Error{
			Kind:        KindElementNotFound,
			Message:     fmt.Sprintf("element %s is a window root and has no ancestors", r.id),
			Diagnostics: &diag,
		}
	}
	return &model.QueryResult{Elements: e.registerAll(r.id.Window, out), Diagnostics: diag}, nil
}

func ancestorError(err error, id Identity) error {
	if errors.Is(err, platform.ErrNodeGone) {
		return newError(KindElementNotFound, "element %s vanished while reading ancestors", id)
	}
	return wrapNative(err, "read ancestors of %s", id)
}
