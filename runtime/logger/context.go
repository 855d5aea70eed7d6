package logger

import (
	"context"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// Context keys for common logging fields.
// Values stored under these keys are copied onto every record logged with the context.
const (
	// ContextKeySessionID identifies the live session.
	ContextKeySessionID contextKey = "session_id"

	// ContextKeyAgent identifies the active agent persona.
	ContextKeyAgent contextKey = "agent"

	// ContextKeyToolCallID identifies the remote function call being answered.
	ContextKeyToolCallID contextKey = "tool_call_id"

	// ContextKeyRequestID identifies an HTTP request.
	ContextKeyRequestID contextKey = "request_id"

	// ContextKeyVisualMode identifies the visual capture mode of the session.
	ContextKeyVisualMode contextKey = "visual_mode"
)

var allContextKeys = []contextKey{
	ContextKeySessionID,
	ContextKeyAgent,
	ContextKeyToolCallID,
	ContextKeyRequestID,
	ContextKeyVisualMode,
}

// WithSessionID returns a new context with the session ID set.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, sessionID)
}

// WithAgent returns a new context with the agent ID set.
func WithAgent(ctx context.Context, agent string) context.Context {
	return context.WithValue(ctx, ContextKeyAgent, agent)
}

// WithToolCallID returns a new context with the tool call ID set.
func WithToolCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyToolCallID, id)
}

// WithRequestID returns a new context with the request ID set.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// WithVisualMode returns a new context with the visual mode set.
func WithVisualMode(ctx context.Context, mode string) context.Context {
	return context.WithValue(ctx, ContextKeyVisualMode, mode)
}

// LoggingFields holds all standard logging context fields.
type LoggingFields struct {
	SessionID  string
	Agent      string
	ToolCallID string
	RequestID  string
	VisualMode string
}

// ExtractLoggingFields extracts all logging fields from a context.
func ExtractLoggingFields(ctx context.Context) LoggingFields {
	str := func(k contextKey) string {
		s, _ := ctx.Value(k).(string)
		return s
	}
	return LoggingFields{
		SessionID:  str(ContextKeySessionID),
		Agent:      str(ContextKeyAgent),
		ToolCallID: str(ContextKeyToolCallID),
		RequestID:  str(ContextKeyRequestID),
		VisualMode: str(ContextKeyVisualMode),
	}
}
