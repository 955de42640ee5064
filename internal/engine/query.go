package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/platform"
)

// candidate is a node that satisfied the predicates during a walk.
type candidate struct {
	node  platform.Node
	info  platform.NodeInfo
	path  []int
	depth int
}

// walkStats counts what a walk visited.
type walkStats struct {
	scanned   int
	skipped   int
	truncated bool
	// startGone is set when the start node vanished after its attributes
	// were read.
	startGone bool
}

// walkOptions bounds a walk. When exactDepth is set only nodes at that depth
// are evaluated and nothing deeper is visited; otherwise nodes down to
// maxDepth are evaluated.
type walkOptions struct {
	exactDepth *int
	maxDepth   int
	maxNodes   int
}

func (o walkOptions) evaluate(depth int) bool {
	return o.exactDepth == nil || depth == *o.exactDepth
}

func (o walkOptions) descend(depth int) bool {
	if o.exactDepth != nil {
		return depth < *o.exactDepth
	}
	return depth < o.maxDepth
}

type frame struct {
	node  platform.Node
	path  []int
	depth int
}

// walk performs a depth-first pre-order traversal from start, whose
// attributes the caller already read. Children are visited in native order.
// Nodes that vanish mid-walk are skipped along with their subtrees. Nodes
// whose runtime id was already seen are skipped to survive cyclic trees.
func walk(start platform.Node, startInfo platform.NodeInfo, startPath []int, m *matcher, opts walkOptions) ([]candidate, walkStats) {
	var (
		stats   walkStats
		matches []candidate
		seen    = make(map[string]bool)
		stack   = []frame{{node: start, path: startPath, depth: 0}}
	)
	for len(stack) > 0 {
		if stats.scanned >= opts.maxNodes {
			stats.truncated = true
			break
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var info platform.NodeInfo
		if f.depth == 0 {
			info = startInfo
		} else {
			var err error
			info, err = f.node.Info()
			if err != nil {
				stats.skipped++
				continue
			}
		}
		if key := runtimeKey(info); key != "" {
			if seen[key] {
				stats.skipped++
				continue
			}
			seen[key] = true
		}
		stats.scanned++

		if opts.evaluate(f.depth) && m.match(info) {
			matches = append(matches, candidate{node: f.node, info: info, path: f.path, depth: f.depth})
		}
		if !opts.descend(f.depth) {
			continue
		}
		kids, err := f.node.Children()
		if err != nil {
			if !errors.Is(err, platform.ErrNodeGone) {
				stats.skipped++
			} else if f.depth == 0 {
				stats.startGone = true
			}
			continue
		}
		// Push in reverse so the first child is popped first.
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: kids[i], path: childPath(f.path, i), depth: f.depth + 1})
		}
	}
	return matches, stats
}

func runtimeKey(info platform.NodeInfo) string {
	if len(info.RuntimeID) == 0 {
		return ""
	}
	var b strings.Builder
	for i, v := range info.RuntimeID {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

// paginate applies the 1-based start offset and window size to the full
// candidate list. ok is false when the offset is past the end.
func paginate(cands []candidate, start, limit int) ([]candidate, bool) {
	if start < 1 {
		start = 1
	}
	if start > len(cands) {
		return nil, false
	}
	end := start - 1 + limit
	if end > len(cands) {
		end = len(cands)
	}
	return cands[start-1 : end], true
}

// toElement converts a registered candidate to its caller-facing snapshot.
func toElement(id Identity, index int, c candidate) model.Element {
	center := c.info.Bounds.Center()
	el := model.Element{
		ID:           id.String(),
		Index:        index,
		ControlType:  c.info.ControlType,
		Name:         c.info.Name,
		AutomationID: c.info.AutomationID,
		ClassName:    c.info.ClassName,
		Value:        c.info.Value,
		Bounds:       c.info.Bounds.Bounds(),
		ClickPoint:   [2]int{center.X, center.Y},
		Focused:      c.info.Focused,
		Depth:        c.depth,
	}
	if !c.info.Enabled {
		disabled := false
		el.Enabled = &disabled
	}
	return el
}

// registerAll registers cands under window and returns their snapshots
// indexed from 1.
func (e *Engine) registerAll(window platform.Handle, cands []candidate) []model.Element {
	elements := make([]model.Element, len(cands))
	for i, c := range cands {
		id := e.registry.Register(window, c.path, i+1, c.info)
		elements[i] = toElement(id, i+1, c)
	}
	return elements
}

// find runs a query on the worker thread.
func (e *Engine) find(q model.ElementQuery) (*model.QueryResult, error) {
	if err := q.Validate(); err != nil {
		return nil, &Error{Kind: KindInvalidQuery, Message: "invalid query", Err: err}
	}
	m := compileQuery(q, e.cfg.Engine.RegexTimeout)
	if err := m.contradiction(q); err != nil {
		return nil, err
	}
	return e.search(platform.Handle(q.WindowHandle), m, q.ExactDepth, q.Start(), q.Limit())
}

// search walks a window's tree with m and returns the requested page of
// matches.
func (e *Engine) search(window platform.Handle, m *matcher, exactDepth *int, start, limit int) (*model.QueryResult, error) {
	d := beginDiagnostics()
	root, rootInfo, err := e.root(window)
	if err != nil {
		return nil, err
	}
	d.framework = DetectFramework(root)

	cands, stats := walk(root, rootInfo, nil, m, walkOptions{
		exactDepth: exactDepth,
		maxDepth:   e.cfg.Engine.MaxDepth,
		maxNodes:   e.cfg.Engine.MaxNodes,
	})
	d.stats = stats
	diag := d.finish(len(cands))
	if err := e.checkWindowAfterWalk(window, stats, &diag); err != nil {
		return nil, err
	}

	if len(cands) == 0 {
		msg := "no element matched the query"
		if !m.patternValid() {
			msg = "no element matched the query (name pattern is not a valid regular expression)"
		}
		return nil, &Error{Kind: KindElementNotFound, Message: msg, Diagnostics: &diag}
	}
	page, ok := paginate(cands, start, limit)
	if !ok {
		return nil, &Error{
			Kind:        KindElementNotFound,
			Message:     fmt.Sprintf("found index %d is past the last of %d matches", start, len(cands)),
			Diagnostics: &diag,
		}
	}
	return &model.QueryResult{
		Elements:    e.registerAll(window, page),
		Diagnostics: diag,
	}, nil
}

// focused returns the element with keyboard focus in the foreground window.
// When several nodes report focus the deepest one in pre-order wins.
func (e *Engine) focused() (*model.QueryResult, error) {
	h, err := e.windows.Foreground()
	if err != nil {
		if errors.Is(err, platform.ErrWindowNotFound) {
			return nil, newError(KindWindowNotFound, "no foreground window")
		}
		return nil, wrapNative(err, "read foreground window")
	}
	m := compileQuery(model.ElementQuery{}, e.cfg.Engine.RegexTimeout)
	m.focused = true

	d := beginDiagnostics()
	root, rootInfo, err := e.root(h)
	if err != nil {
		return nil, err
	}
	d.framework = DetectFramework(root)
	cands, stats := walk(root, rootInfo, nil, m, walkOptions{
		maxDepth: e.cfg.Engine.MaxDepth,
		maxNodes: e.cfg.Engine.MaxNodes,
	})
	d.stats = stats
	diag := d.finish(len(cands))
	if err := e.checkWindowAfterWalk(h, stats, &diag); err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, &Error{
			Kind:        KindElementNotFound,
			Message:     fmt.Sprintf("no focused element in window %#x", int64(h)),
			Diagnostics: &diag,
		}
	}
	last := cands[len(cands)-1]
	diag.Matched = 1
	return &model.QueryResult{
		Elements:    e.registerAll(h, []candidate{last}),
		Diagnostics: diag,
	}, nil
}

// DefaultTreeDepth is the depth used by GetTree when none is requested.
const DefaultTreeDepth = 5

// TreeRequest selects a subtree to dump. RootID, when set, starts the walk
// at a previously returned element instead of the window root. Filter, when
// set, keeps only matching nodes; its window and pagination fields are
// ignored.
type TreeRequest struct {
	WindowHandle int64
	RootID       string
	MaxDepth     int
	Filter       *model.ElementQuery
}

// tree returns every node of the requested subtree down to MaxDepth hops
// below its start, in pre-order with depths relative to the start.
func (e *Engine) tree(req TreeRequest) (*model.QueryResult, error) {
	if req.MaxDepth < 0 {
		return nil, newError(KindInvalidQuery, "max depth must be >= 0, got %d", req.MaxDepth)
	}
	depth := req.MaxDepth
	if depth == 0 {
		depth = DefaultTreeDepth
	}
	if depth > e.cfg.Engine.MaxDepth {
		depth = e.cfg.Engine.MaxDepth
	}

	var (
		window platform.Handle
		start  platform.Node
		info   platform.NodeInfo
		path   []int
	)
	switch {
	case req.RootID != "":
		r, err := e.registry.Resolve(e.windows, req.RootID)
		if err != nil {
			return nil, err
		}
		if req.WindowHandle != 0 && int64(r.id.Window) != req.WindowHandle {
			return nil, newError(KindInvalidQuery, "element %s does not belong to window %#x", req.RootID, req.WindowHandle)
		}
		window, start, info, path = r.id.Window, r.node, r.info, r.id.Path
	case req.WindowHandle != 0:
		window = platform.Handle(req.WindowHandle)
		root, rootInfo, err := e.root(window)
		if err != nil {
			return nil, err
		}
		start, info = root, rootInfo
	default:
		return nil, &Error{Kind: KindInvalidQuery, Message: "invalid tree request", Err: model.ErrMissingWindow}
	}

	var filter model.ElementQuery
	if req.Filter != nil {
		filter = *req.Filter
		filter.WindowHandle = int64(window)
		filter.FoundIndex, filter.MaxElements = 0, 0
		if err := filter.Validate(); err != nil {
			return nil, &Error{Kind: KindInvalidQuery, Message: "invalid tree filter", Err: err}
		}
		if filter.ExactDepth != nil && *filter.ExactDepth > depth {
			return nil, newError(KindInvalidQuery, "filter depth %d is below the tree depth limit %d", *filter.ExactDepth, depth)
		}
	}
	m := compileQuery(filter, e.cfg.Engine.RegexTimeout)
	if err := m.contradiction(filter); err != nil {
		return nil, err
	}

	d := beginDiagnostics()
	if root, err := resolveRoot(e.windows, window); err == nil {
		d.framework = DetectFramework(root)
	}
	cands, stats := walk(start, info, path, m, walkOptions{
		exactDepth: filter.ExactDepth,
		maxDepth:   depth,
		maxNodes:   e.cfg.Engine.MaxNodes,
	})
	d.stats = stats
	diag := d.finish(len(cands))
	if err := e.checkWindowAfterWalk(window, stats, &diag); err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, &Error{Kind: KindElementNotFound, Message: "no node in the subtree matched the filter", Diagnostics: &diag}
	}
	return &model.QueryResult{Elements: e.registerAll(window, cands), Diagnostics: diag}, nil
}

// checkWindowAfterWalk turns a walk that lost nodes into WindowNotFound when
// the window itself is gone. A closed window makes every remaining node fail
// as if it had been removed, which must not read as "no match".
func (e *Engine) checkWindowAfterWalk(h platform.Handle, stats walkStats, diag *model.Diagnostics) error {
	if stats.skipped == 0 && !stats.startGone {
		return nil
	}
	if _, _, err := e.root(h); KindOf(err) == KindWindowNotFound {
		return &Error{
			Kind:        KindWindowNotFound,
			Message:     fmt.Sprintf("window %#x closed during the walk", int64(h)),
			Diagnostics: diag,
		}
	}
	return nil
}

// root resolves a window and reads its root attributes.
func (e *Engine) root(h platform.Handle) (platform.Node, platform.NodeInfo, error) {
	root, err := resolveRoot(e.windows, h)
	if err != nil {
		return nil, platform.NodeInfo{}, err
	}
	info, err := root.Info()
	if err != nil {
		if errors.Is(err, platform.ErrNodeGone) {
			return nil, platform.NodeInfo{}, newError(KindWindowNotFound, "window %#x closed", int64(h))
		}
		return nil, platform.NodeInfo{}, wrapNative(err, "read window %#x", int64(h))
	}
	return root, info, nil
}

// listWindows returns the top-level windows.
func (e *Engine) listWindows() ([]model.Window, error) {
	windows, err := e.windows.List()
	if err != nil {
		return nil, wrapNative(err, "list windows")
	}
	return windows, nil
}
