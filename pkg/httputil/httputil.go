// Package httputil builds the outbound HTTP clients used by riyu.
package httputil

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultChatTimeout bounds one turn-based chat request, tool rounds
// included.
const DefaultChatTimeout = 60 * time.Second

// NewTracedClient returns a client whose requests are recorded as client
// spans and carry the current trace context.
func NewTracedClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
