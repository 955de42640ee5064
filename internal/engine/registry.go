package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mj1618/desktop-uia/internal/platform"
)

// Identity locates an element by window, child-index path and the position
// it was returned at. It is a lookup key, never a handle.
type Identity struct {
	Window platform.Handle
	Path   []int
	Seq    int
}

// String renders the identity as "<window hex>|<path>|<seq>", with the path
// written as dot-joined child indices or "r" for the window root.
func (id Identity) String() string {
	return id.key() + "|" + strconv.Itoa(id.Seq)
}

// key identifies the element location without the sequence index.
func (id Identity) key() string {
	return strconv.FormatInt(int64(id.Window), 16) + "|" + formatPath(id.Path)
}

func formatPath(path []int) string {
	if len(path) == 0 {
		return "r"
	}
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}

// ParseIdentity parses the string form produced by Identity.String.
func ParseIdentity(s string) (Identity, error) {
	parts := strings.Split(strings.TrimSpace(s), "|")
	if len(parts) != 3 {
		return Identity{}, fmt.Errorf("malformed element id %q", s)
	}
	h, err := strconv.ParseInt(parts[0], 16, 64)
	if err != nil || h == 0 {
		return Identity{}, fmt.Errorf("malformed element id %q: bad window token", s)
	}
	var path []int
	if parts[1] != "r" {
		for _, p := range strings.Split(parts[1], ".") {
			idx, err := strconv.Atoi(p)
			if err != nil || idx < 0 {
				return Identity{}, fmt.Errorf("malformed element id %q: bad path", s)
			}
			path = append(path, idx)
		}
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil || seq < 0 {
		return Identity{}, fmt.Errorf("malformed element id %q: bad sequence", s)
	}
	return Identity{Window: platform.Handle(h), Path: path, Seq: seq}, nil
}

// childPath returns a copy of path extended with idx.
func childPath(path []int, idx int) []int {
	out := make([]int, len(path)+1)
	copy(out, path)
	out[len(path)] = idx
	return out
}

// fingerprint distinguishes the element that was registered from a
// different element that later occupies the same path.
func fingerprint(info platform.NodeInfo) string {
	if len(info.RuntimeID) > 0 {
		parts := make([]string, len(info.RuntimeID))
		for i, v := range info.RuntimeID {
			parts[i] = strconv.Itoa(v)
		}
		return info.ControlType + "#" + strings.Join(parts, ".")
	}
	return info.ControlType + "#" + info.AutomationID + "#" + info.ClassName
}

type registryEntry struct {
	fingerprint string
	expires     time.Time
}

// sweepEvery is the number of registrations between expiry sweeps.
const sweepEvery = 256

// Registry remembers the fingerprint of every element it handed out so a
// later Resolve can tell a removed element from one that was replaced.
// Nodes themselves are never stored.
type Registry struct {
	mu         sync.Mutex
	entries    map[string]registryEntry
	ttl        time.Duration
	generation string
	sinceSweep int

	now    func() time.Time
	onSize func(int)
}

// NewRegistry returns a registry whose fingerprints expire after ttl.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		entries:    make(map[string]registryEntry),
		ttl:        ttl,
		generation: uuid.NewString(),
		now:        time.Now,
	}
}

// Generation identifies the current set of registrations.
func (r *Registry) Generation() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

// Register records the element found at path and returns its identity.
func (r *Registry) Register(window platform.Handle, path []int, seq int, info platform.NodeInfo) Identity {
	id := Identity{Window: window, Path: path, Seq: seq}

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.entries[id.key()] = registryEntry{fingerprint: fingerprint(info), expires: now.Add(r.ttl)}
	r.sinceSweep++
	if r.sinceSweep >= sweepEvery {
		r.sweepLocked(now)
	}
	r.reportSizeLocked()
	return id
}

// Reset drops every registration and starts a new generation.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]registryEntry)
	r.generation = uuid.NewString()
	r.reportSizeLocked()
}

// InvalidateWindow drops registrations for one window.
func (r *Registry) InvalidateWindow(h platform.Handle) {
	prefix := strconv.FormatInt(int64(h), 16) + "|"
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.entries {
		if strings.HasPrefix(k, prefix) {
			delete(r.entries, k)
		}
	}
	r.reportSizeLocked()
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) sweepLocked(now time.Time) {
	for k, e := range r.entries {
		if now.After(e.expires) {
			delete(r.entries, k)
		}
	}
	r.sinceSweep = 0
}

func (r *Registry) reportSizeLocked() {
	if r.onSize != nil {
		r.onSize(len(r.entries))
	}
}

func (r *Registry) lookup(id Identity) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id.key()]
	if !ok || r.now().After(e.expires) {
		return "", false
	}
	return e.fingerprint, true
}

// resolved is a live node found by Resolve together with the attributes read
// while resolving it. root and visited are also filled in when Resolve fails
// part way, for diagnostics.
type resolved struct {
	id   Identity
	node platform.Node
	info platform.NodeInfo

	root    platform.Node
	visited int
}

// Resolve re-walks the identity's path against the live tree. It never
// returns a cached node.
func (r *Registry) Resolve(windows platform.WindowPort, s string) (resolved, error) {
	id, err := ParseIdentity(s)
	if err != nil {
		return resolved{}, newError(KindElementNotFound, "%v", err)
	}
	root, err := resolveRoot(windows, id.Window)
	if err != nil {
		return resolved{}, err
	}
	partial := resolved{root: root, visited: 1}

	node := root
	for depth, idx := range id.Path {
		kids, err := node.Children()
		if err != nil {
			if errors.Is(err, platform.ErrNodeGone) {
				if depth == 0 {
					return partial, newError(KindWindowNotFound, "window %#x closed", int64(id.Window))
				}
				return partial, newError(KindElementNotFound, "element %s no longer exists", s)
			}
			return partial, wrapNative(err, "read children while resolving %s", s)
		}
		if idx >= len(kids) {
			return partial, newError(KindElementNotFound, "element %s no longer exists", s)
		}
		node = kids[idx]
		partial.visited++
	}

	info, err := node.Info()
	if err != nil {
		if errors.Is(err, platform.ErrNodeGone) {
			if len(id.Path) == 0 {
				return partial, newError(KindWindowNotFound, "window %#x closed", int64(id.Window))
			}
			return partial, newError(KindElementNotFound, "element %s no longer exists", s)
		}
		return partial, wrapNative(err, "read element %s", s)
	}
	if want, ok := r.lookup(id); ok && want != fingerprint(info) {
		return partial, newError(KindStaleIdentity, "element %s was replaced by a different %s", s, info.ControlType)
	}
	return resolved{id: id, node: node, info: info, root: root, visited: partial.visited}, nil
}

// resolveRoot maps a window handle to its live root node.
func resolveRoot(windows platform.WindowPort, h platform.Handle) (platform.Node, error) {
	root, err := windows.Resolve(h)
	if err != nil {
		if errors.Is(err, platform.ErrWindowNotFound) {
			return nil, newError(KindWindowNotFound, "no window with handle %#x", int64(h))
		}
		return nil, wrapNative(err, "resolve window %#x", int64(h))
	}
	if root == nil {
		return nil, newError(KindWindowNotFound, "no window with handle %#x", int64(h))
	}
	return root, nil
}
