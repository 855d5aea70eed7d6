package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cyberwithvishal/riyu/runtime/logger"
)

const testTraceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func TestExtractTraceContext(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    TraceContext
		traceID string
	}{
		{
			name:    "w3c",
			headers: map[string]string{"traceparent": testTraceparent},
			want:    TraceContext{Traceparent: testTraceparent},
			traceID: "4bf92f3577b34da6a3ce929d0e0e4736",
		},
		{
			name:    "xray",
			headers: map[string]string{"X-Amzn-Trace-Id": "Root=1-5759e988-bd862e3fe1be46a994272793;Parent=53995c3f42cd8ad8;Sampled=1"},
			want:    TraceContext{XRayTraceID: "Root=1-5759e988-bd862e3fe1be46a994272793;Parent=53995c3f42cd8ad8;Sampled=1"},
			traceID: "1-5759e988-bd862e3fe1be46a994272793",
		},
		{
			name:    "invalid traceparent",
			headers: map[string]string{"traceparent": "not-a-valid-traceparent"},
			want:    TraceContext{},
		},
		{
			name: "none",
			want: TraceContext{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			tc := ExtractTraceContext(r)
			assert.Equal(t, tt.want, tc)
			assert.Equal(t, tt.traceID, tc.TraceID())
			assert.Equal(t, tt.traceID == "", tc.IsEmpty())
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	tc := TraceContext{Traceparent: testTraceparent}
	ctx := ContextWithTrace(context.Background(), tc)
	assert.Equal(t, tc, TraceContextFromContext(ctx))
	assert.True(t, TraceContextFromContext(context.Background()).IsEmpty())
}

func TestTraceMiddleware(t *testing.T) {
	var (
		gotTC     TraceContext
		requestID string
	)
	handler := TraceMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotTC = TraceContextFromContext(r.Context())
		requestID = logger.ExtractLoggingFields(r.Context()).RequestID
	}))

	r := httptest.NewRequest(http.MethodPost, "/chat", http.NoBody)
	r.Header.Set("traceparent", testTraceparent)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, testTraceparent, gotTC.Traceparent)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", requestID)
}

func TestTraceMiddlewareNoHeaders(t *testing.T) {
	var gotTC TraceContext
	handler := TraceMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotTC = TraceContextFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.True(t, gotTC.IsEmpty())
}
