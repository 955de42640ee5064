package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// ErrWorkerClosed is returned when a job is submitted after Close.
var ErrWorkerClosed = errors.New("engine worker is closed")

type job struct {
	ctx  context.Context
	fn   func()
	done chan struct{}
}

// Worker runs every accessibility call on one OS thread. Native
// accessibility APIs are apartment-threaded, so jobs are serialized through
// a channel instead of guarded by a lock.
type Worker struct {
	jobs   chan job
	quit   chan struct{}
	exited chan struct{}
	once   sync.Once
	log    *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewWorker starts the worker goroutine and runs init on its locked thread.
// If init fails the worker is stopped and the error returned.
func NewWorker(queueSize int, init func() error, exit func(), log *zap.Logger) (*Worker, error) {
	if log == nil {
		log = zap.NewNop()
	}
	w := &Worker{
		jobs:   make(chan job, queueSize),
		quit:   make(chan struct{}),
		exited: make(chan struct{}),
		log:    log,
	}
	started := make(chan error, 1)
	go w.loop(init, exit, started)
	if err := <-started; err != nil {
		<-w.exited
		return nil, fmt.Errorf("worker thread init: %w", err)
	}
	return w, nil
}

func (w *Worker) loop(init func() error, exit func(), started chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.exited)

	if init != nil {
		if err := init(); err != nil {
			started <- err
			return
		}
	}
	if exit != nil {
		defer exit()
	}
	started <- nil

	for {
		select {
		case j := <-w.jobs:
			w.run(j)
		case <-w.quit:
			// Drain jobs that were accepted before Close.
			for {
				select {
				case j := <-w.jobs:
					w.run(j)
				default:
					return
				}
			}
		}
	}
}

func (w *Worker) run(j job) {
	defer close(j.done)
	// Skip jobs whose caller gave up while they were queued.
	if j.ctx.Err() != nil {
		return
	}
	j.fn()
}

// Do runs fn on the worker thread and waits for it. If ctx ends first, Do
// returns ctx.Err(); a job that already started still runs to completion
// and its result is discarded by the caller.
func (w *Worker) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j := job{ctx: ctx, fn: fn, done: make(chan struct{})}

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return ErrWorkerClosed
	}
	select {
	case w.jobs <- j:
		w.mu.RUnlock()
	case <-ctx.Done():
		w.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		w.log.Debug("caller abandoned in-flight job", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// Close stops accepting jobs, runs the ones already queued and waits for the
// worker thread to exit.
func (w *Worker) Close() {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.quit)
	})
	<-w.exited
}

// call runs fn on w and returns its result. Panics inside fn are recovered
// and reported as native API failures.
func call[T any](ctx context.Context, w *Worker, fn func() (T, error)) (T, error) {
	var (
		out T
		err error
	)
	runErr := w.Do(ctx, func() {
		defer func() {
			if r := recover(); r != nil {
				err = newError(KindNativeAPIFailure, "panic in accessibility call: %v", r)
			}
		}()
		out, err = fn()
	})
	if runErr != nil {
		var zero T
		return zero, runErr
	}
	return out, err
}
