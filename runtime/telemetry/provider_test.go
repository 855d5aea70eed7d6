package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestTracer(t *testing.T) {
	assert.NotNil(t, Tracer(nil, "test"))
	assert.NotNil(t, Tracer(noop.NewTracerProvider(), "test"))
}

func TestSetupPropagation(t *testing.T) {
	orig := otel.GetTextMapPropagator()
	defer otel.SetTextMapPropagator(orig)

	SetupPropagation()

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
	assert.Contains(t, fields, "X-Amzn-Trace-Id")
}

func TestNewTracerProvider(t *testing.T) {
	// Exporting is lazy; an unreachable endpoint is not an error here.
	tp, err := NewTracerProvider(t.Context(), "http://localhost:0/v1/traces", "test-service", "v0.0.1")
	require.NoError(t, err)
	defer func() { _ = tp.Shutdown(t.Context()) }()

	var _ trace.TracerProvider = tp
}

func TestSetupWithoutEndpointKeepsGlobalProvider(t *testing.T) {
	origProp := otel.GetTextMapPropagator()
	defer otel.SetTextMapPropagator(origProp)
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), Config{})
	require.NoError(t, err)
	assert.Equal(t, before, otel.GetTracerProvider())
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupWithEndpoint(t *testing.T) {
	origProp := otel.GetTextMapPropagator()
	origTP := otel.GetTracerProvider()
	defer func() {
		otel.SetTextMapPropagator(origProp)
		otel.SetTracerProvider(origTP)
	}()

	shutdown, err := Setup(context.Background(), Config{Endpoint: "http://localhost:0/v1/traces"})
	require.NoError(t, err)
	assert.NotEqual(t, origTP, otel.GetTracerProvider())
	_ = shutdown(context.Background())
}
