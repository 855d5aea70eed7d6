package telemetry

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/cyberwithvishal/riyu/runtime/logger"
)

// traceContextKey is a private type for the trace context key to avoid collisions.
type traceContextKey struct{}

// traceparentRe validates the W3C Trace Context traceparent header format:
// version-trace_id-parent_id-trace_flags (e.g., 00-<32 hex>-<16 hex>-<2 hex>).
var traceparentRe = regexp.MustCompile(`^[0-9a-f]{2}-[0-9a-f]{32}-[0-9a-f]{16}-[0-9a-f]{2}$`)

// TraceContext holds distributed trace headers extracted from an inbound HTTP request.
type TraceContext struct {
	Traceparent string // W3C traceparent header
	XRayTraceID string // AWS X-Ray X-Amzn-Trace-Id header
}

// IsEmpty returns true when no trace data is present.
func (tc TraceContext) IsEmpty() bool {
	return tc.Traceparent == "" && tc.XRayTraceID == ""
}

// TraceID is the W3C trace id, or the X-Ray Root value when only X-Ray is present.
func (tc TraceContext) TraceID() string {
	if tc.Traceparent != "" {
		return strings.Split(tc.Traceparent, "-")[1]
	}
	for _, field := range strings.Split(tc.XRayTraceID, ";") {
		if root, ok := strings.CutPrefix(strings.TrimSpace(field), "Root="); ok {
			return root
		}
	}
	return ""
}

// ExtractTraceContext reads trace headers from an inbound HTTP request.
// Invalid traceparent values are silently discarded.
func ExtractTraceContext(r *http.Request) TraceContext {
	tc := TraceContext{XRayTraceID: r.Header.Get("X-Amzn-Trace-Id")}
	if tp := r.Header.Get("traceparent"); traceparentRe.MatchString(tp) {
		tc.Traceparent = tp
	}
	return tc
}

// ContextWithTrace stores a TraceContext in a Go context.
func ContextWithTrace(ctx context.Context, tc TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, tc)
}

// TraceContextFromContext retrieves a TraceContext from a Go context.
// Returns an empty TraceContext if none is stored.
func TraceContextFromContext(ctx context.Context) TraceContext {
	tc, _ := ctx.Value(traceContextKey{}).(TraceContext)
	return tc
}

// TraceMiddleware stores inbound trace headers in the request context and
// tags request logs with the caller's trace id.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc := ExtractTraceContext(r)
		if !tc.IsEmpty() {
			ctx := ContextWithTrace(r.Context(), tc)
			if id := tc.TraceID(); id != "" {
				ctx = logger.WithRequestID(ctx, id)
			}
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}
