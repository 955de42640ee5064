package server

import (
	"context"
	"sync"
	"time"

	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/platform"
)

// windowTracker remembers the top-level windows seen at the last refresh
// and drops the registered identities of windows that have since closed, so
// a recycled window handle never validates against stale fingerprints.
type windowTracker struct {
	mu        sync.Mutex
	known     map[int64]struct{}
	refreshed time.Time
	ttl       time.Duration

	list       func(ctx context.Context) ([]model.Window, error)
	invalidate func(h platform.Handle)
	now        func() time.Time
}

// newWindowTracker creates a tracker. A ttl of 0 refreshes on every call.
func newWindowTracker(ttl time.Duration, list func(context.Context) ([]model.Window, error), invalidate func(platform.Handle)) *windowTracker {
	return &windowTracker{
		known:      make(map[int64]struct{}),
		ttl:        ttl,
		list:       list,
		invalidate: invalidate,
		now:        time.Now,
	}
}

// Windows lists the current windows and invalidates closed ones.
func (w *windowTracker) Windows(ctx context.Context) ([]model.Window, error) {
	windows, err := w.list(ctx)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	current := make(map[int64]struct{}, len(windows))
	for _, win := range windows {
		current[win.Handle] = struct{}{}
	}
	for h := range w.known {
		if _, ok := current[h]; !ok {
			w.invalidate(platform.Handle(h))
		}
	}
	w.known = current
	w.refreshed = w.now()
	return windows, nil
}

// Refresh re-lists windows when the last refresh is older than the ttl.
func (w *windowTracker) Refresh(ctx context.Context) error {
	w.mu.Lock()
	fresh := w.ttl > 0 && !w.refreshed.IsZero() && w.now().Sub(w.refreshed) < w.ttl
	w.mu.Unlock()
	if fresh {
		return nil
	}
	_, err := w.Windows(ctx)
	return err
}
