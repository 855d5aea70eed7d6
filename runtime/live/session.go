// Package live bridges a realtime model session to local audio devices and
// the tool dispatcher.
package live

import (
	"context"

	"github.com/cyberwithvishal/riyu/runtime/providers/gemini"
	"github.com/cyberwithvishal/riyu/runtime/types"
)

// Session is an open realtime connection. gemini.StreamSession implements it.
type Session interface {
	ID() string
	Events() <-chan types.LiveEvent
	SendAudio(ctx context.Context, pcm []byte) error
	SendToolResponses(ctx context.Context, results []types.ToolResult) error
	Close() error
}

// SessionConfig is what the bridge decides per session.
type SessionConfig struct {
	SystemInstruction string
	Tools             []types.ToolDef
}

// Dialer opens sessions.
type Dialer interface {
	Dial(ctx context.Context, cfg SessionConfig) (Session, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, cfg SessionConfig) (Session, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, cfg SessionConfig) (Session, error) {
	return f(ctx, cfg)
}

// GeminiDialer opens Gemini Live sessions. Base carries the endpoint, key,
// model and voice; instruction and tools are filled in per session.
type GeminiDialer struct {
	Base gemini.StreamSessionConfig
}

// Dial implements Dialer.
func (d GeminiDialer) Dial(ctx context.Context, cfg SessionConfig) (Session, error) {
	sc := d.Base
	sc.SystemInstruction = cfg.SystemInstruction
	sc.Tools = cfg.Tools
	return gemini.NewStreamSession(ctx, &sc)
}
