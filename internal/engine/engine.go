// Package engine finds and acts on UI elements of native desktop windows
// through an accessibility tree. All tree access is serialized onto one
// worker thread; element identities are re-resolved against the live tree on
// every use.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mj1618/desktop-uia/internal/config"
	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/platform"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const instrumentationName = "github.com/mj1618/desktop-uia/internal/engine"

// Engine is the transport-agnostic entry point used by the CLI and the MCP
// server. It is safe for concurrent use.
type Engine struct {
	cfg       config.Config
	windows   platform.WindowPort
	input     platform.InputPort
	monitors  platform.MonitorPort
	elevation platform.ElevationPort

	worker    *Worker
	registry  *Registry
	limiter   *rate.Limiter
	selectAll []string

	metrics *Metrics
	tracer  trace.Tracer
	log     *zap.Logger
}

type options struct {
	log        *zap.Logger
	registerer prometheus.Registerer
	tracer     trace.Tracer
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the engine logger. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithRegisterer registers engine metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithTracer overrides the tracer taken from the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// New starts an engine over p. A nil cfg uses the defaults.
func New(p *platform.Provider, cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(instrumentationName)
	}

	worker, err := NewWorker(cfg.Engine.QueueSize, p.ThreadInit, p.ThreadExit, o.log.Named("worker"))
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       *cfg,
		windows:   p.Windows,
		input:     p.Input,
		monitors:  p.Monitors,
		elevation: p.Elevation,
		worker:    worker,
		registry:  NewRegistry(cfg.Engine.IdentityTTL),
		selectAll: platform.ParseKeyCombo(cfg.Input.SelectAllKeys),
		metrics:   NewMetrics("desktop_uia", o.registerer),
		tracer:    o.tracer,
		log:       o.log,
	}
	e.registry.onSize = e.metrics.SetIdentities
	if cfg.Input.RatePerSecond > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.Input.RatePerSecond), cfg.Input.Burst)
	}
	e.log.Debug("engine started",
		zap.Int("max_nodes", cfg.Engine.MaxNodes),
		zap.Int("max_depth", cfg.Engine.MaxDepth),
		zap.String("generation", e.registry.Generation()))
	return e, nil
}

// Close stops the worker after the queued requests finish.
func (e *Engine) Close() {
	e.worker.Close()
	e.log.Debug("engine closed")
}

// Registry exposes the identity registry, e.g. to reset it when windows
// change.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Find returns the elements of a window matching q.
func (e *Engine) Find(ctx context.Context, q model.ElementQuery) (*model.QueryResult, error) {
	ctx, s := e.begin(ctx, "find", attribute.Int64("uia.window", q.WindowHandle))
	res, err := call(ctx, e.worker, func() (*model.QueryResult, error) {
		return e.find(q)
	})
	return res, s.end(err, resultDiagnostics(res))
}

// FindAndClick clicks the first element matching q.
func (e *Engine) FindAndClick(ctx context.Context, q model.ElementQuery, opts ClickOptions) model.ActionOutcome {
	return e.Execute(ctx, Target{Query: &q}, clickAction(opts), ActionParams{Button: opts.Button, Modifiers: opts.Modifiers})
}

// FindAndType types text into the first element matching q. With clearFirst
// the existing content is selected first so the text replaces it.
func (e *Engine) FindAndType(ctx context.Context, q model.ElementQuery, text string, clearFirst bool) model.ActionOutcome {
	return e.Execute(ctx, Target{Query: &q}, ActionType, ActionParams{Text: text, ClearFirst: clearFirst})
}

// Focus gives keyboard focus to the element with the given identity.
func (e *Engine) Focus(ctx context.Context, id string) model.ActionOutcome {
	return e.Execute(ctx, Target{ID: id}, ActionFocus, ActionParams{})
}

// Click clicks the element with the given identity.
func (e *Engine) Click(ctx context.Context, id string, opts ClickOptions) model.ActionOutcome {
	return e.Execute(ctx, Target{ID: id}, clickAction(opts), ActionParams{Button: opts.Button, Modifiers: opts.Modifiers})
}

// GetText reads an element's value, or its name when it has no value.
func (e *Engine) GetText(ctx context.Context, id string) model.ActionOutcome {
	return e.Execute(ctx, Target{ID: id}, ActionGetText, ActionParams{})
}

// GetAncestors returns the ancestors of an element, nearest first.
func (e *Engine) GetAncestors(ctx context.Context, id string, opts AncestorOptions) (*model.QueryResult, error) {
	ctx, s := e.begin(ctx, "get_ancestors", attribute.String("uia.element", id))
	res, err := call(ctx, e.worker, func() (*model.QueryResult, error) {
		r, err := e.registry.Resolve(e.windows, id)
		if err != nil {
			return nil, err
		}
		return e.ancestors(r, opts)
	})
	return res, s.end(err, resultDiagnostics(res))
}

// GetFocusedElement returns the element with keyboard focus.
func (e *Engine) GetFocusedElement(ctx context.Context) (*model.QueryResult, error) {
	ctx, s := e.begin(ctx, "get_focused")
	res, err := call(ctx, e.worker, e.focused)
	return res, s.end(err, resultDiagnostics(res))
}

// GetTree returns a depth-annotated pre-order dump of a subtree. Use
// model.NestElements to rebuild the hierarchy.
func (e *Engine) GetTree(ctx context.Context, req TreeRequest) (*model.QueryResult, error) {
	ctx, s := e.begin(ctx, "get_tree", attribute.Int64("uia.window", req.WindowHandle))
	res, err := call(ctx, e.worker, func() (*model.QueryResult, error) {
		return e.tree(req)
	})
	return res, s.end(err, resultDiagnostics(res))
}

// Windows lists the top-level windows.
func (e *Engine) Windows(ctx context.Context) ([]model.Window, error) {
	ctx, s := e.begin(ctx, "list_windows")
	windows, err := call(ctx, e.worker, e.listWindows)
	return windows, s.end(err, nil)
}

// Execute performs action on target. Failures are reported in the outcome.
func (e *Engine) Execute(ctx context.Context, target Target, action Action, p ActionParams) model.ActionOutcome {
	ctx, s := e.begin(ctx, string(action), attribute.String("uia.element", target.ID))
	out, err := call(ctx, e.worker, func() (model.ActionOutcome, error) {
		return e.execute(ctx, target, action, p)
	})
	if err = s.end(err, out.Diagnostics); err != nil {
		out := FailureOutcome(string(action), err)
		out.ID = target.ID
		return out
	}
	return out
}

func clickAction(opts ClickOptions) Action {
	if opts.Double {
		return ActionDoubleClick
	}
	return ActionClick
}

// FailureOutcome renders err as an unsuccessful ActionOutcome for the named
// operation.
func FailureOutcome(action string, err error) model.ActionOutcome {
	out := model.ActionOutcome{
		Action:  action,
		Kind:    string(KindOf(err)),
		Message: err.Error(),
	}
	var ee *Error
	if errors.As(err, &ee) {
		out.Message = ee.Message
		out.Diagnostics = ee.Diagnostics
	}
	return out
}

func resultDiagnostics(res *model.QueryResult) *model.Diagnostics {
	if res == nil {
		return nil
	}
	return &res.Diagnostics
}

// opScope tracks one public operation for logging, metrics and tracing.
type opScope struct {
	e         *Engine
	op        string
	requestID string
	start     time.Time
	span      trace.Span
}

func (e *Engine) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, *opScope) {
	id := uuid.NewString()
	attrs = append(attrs, attribute.String("uia.request_id", id))
	ctx, span := e.tracer.Start(ctx, "uia."+op, trace.WithAttributes(attrs...))
	return ctx, &opScope{e: e, op: op, requestID: id, start: time.Now(), span: span}
}

// end finishes the operation and returns err converted for the engine
// boundary.
func (s *opScope) end(err error, diag *model.Diagnostics) error {
	defer s.span.End()
	err = boundary(err)
	if diag == nil {
		var ee *Error
		if errors.As(err, &ee) {
			diag = ee.Diagnostics
		}
	}

	kind := KindOf(err)
	elapsed := time.Since(s.start)
	s.e.metrics.RecordOperation(s.op, kind, elapsed, diag)

	fields := []zap.Field{
		zap.String("op", s.op),
		zap.String("request_id", s.requestID),
		zap.Duration("duration", elapsed),
	}
	if diag != nil {
		fields = append(fields,
			zap.Int("scanned", diag.ElementsScanned),
			zap.Int("matched", diag.Matched),
			zap.String("framework", diag.DetectedFramework))
		s.span.SetAttributes(
			attribute.Int("uia.scanned", diag.ElementsScanned),
			attribute.Int("uia.matched", diag.Matched),
			attribute.String("uia.framework", diag.DetectedFramework))
	}
	if err == nil {
		s.span.SetStatus(codes.Ok, "")
		s.e.log.Debug("operation succeeded", fields...)
		return nil
	}

	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, string(kind))
	fields = append(fields, zap.String("kind", string(kind)), zap.Error(err))
	if kind == KindNativeAPIFailure {
		s.e.log.Warn("operation failed", fields...)
	} else {
		s.e.log.Debug("operation failed", fields...)
	}
	return err
}

// boundary converts errors leaving the engine to *Error. Context errors stay
// reachable through Unwrap.
func boundary(err error) error {
	var ee *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ee):
		return ee
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindCanceled, Message: "operation canceled", Err: err}
	case errors.Is(err, ErrWorkerClosed):
		return &Error{Kind: KindNativeAPIFailure, Message: "engine is closed", Err: err}
	}
	return asEngineError(err)
}
