package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/metrics/prometheus"
	"github.com/cyberwithvishal/riyu/runtime/types"
)

const tracerName = "github.com/cyberwithvishal/riyu/runtime/tools"

// Dispatcher answers function calls from the model. Every call yields exactly
// one result carrying the call's ID, whatever happens while handling it.
type Dispatcher struct {
	registry *Registry
	tracer   trace.Tracer
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry, tracer: otel.Tracer(tracerName)}
}

// Registry returns the dispatcher's registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch answers calls in order.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []types.ToolInvocation) []types.ToolResult {
	results := make([]types.ToolResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, d.Call(ctx, call))
	}
	return results
}

// Call answers one invocation. Unknown names and handler failures never
// escape: the former get GenericResult, the latter an error-flagged result.
func (d *Dispatcher) Call(ctx context.Context, call types.ToolInvocation) (result types.ToolResult) {
	ctx = logger.WithToolCallID(ctx, call.ID)
	ctx, span := d.tracer.Start(ctx, "riyu.tool.dispatch", trace.WithAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("tool.call_id", call.ID),
	))
	start := time.Now()

	result = types.ToolResult{ID: call.ID, Name: call.Name}
	defer func() {
		if r := recover(); r != nil {
			result.Result = fmt.Sprintf("tool %s failed", call.Name)
			result.IsError = true
			logger.ErrorContext(ctx, "tool handler panicked", "tool", call.Name, "panic", r)
		}
		status := prometheus.StatusSuccess
		if result.IsError {
			status = prometheus.StatusError
			span.SetStatus(codes.Error, result.Result)
		}
		prometheus.RecordToolCall(call.Name, status, time.Since(start).Seconds())
		logger.ToolDispatch(ctx, call.Name, call.ID, result.IsError)
		span.End()
	}()

	text, err := d.handle(ctx, call)
	switch {
	case errors.Is(err, ErrUnhandledTool):
		logger.WarnContext(ctx, "unhandled tool answered with generic result", "tool", call.Name)
		result.Result = GenericResult
	case err != nil:
		span.RecordError(err)
		result.Result = err.Error()
		result.IsError = true
	default:
		result.Result = text
	}
	return result
}

func (d *Dispatcher) handle(ctx context.Context, call types.ToolInvocation) (string, error) {
	e, ok := d.registry.lookup(call.Name)
	if !ok || e.handler == nil {
		return "", fmt.Errorf("%w: %s", ErrUnhandledTool, call.Name)
	}
	if err := d.registry.validator.ValidateArgs(e.descriptor, call.Args); err != nil {
		return "", err
	}
	args := call.Args
	if len(args) == 0 {
		args = []byte("{}")
	}
	return e.handler.Handle(ctx, args)
}
