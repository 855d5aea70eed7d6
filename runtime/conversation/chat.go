package conversation

import (
	"context"

	"github.com/cyberwithvishal/riyu/runtime/agents"
	"github.com/cyberwithvishal/riyu/runtime/providers/gemini"
	"github.com/cyberwithvishal/riyu/runtime/tools"
	"github.com/cyberwithvishal/riyu/runtime/types"
)

// ChatSender sends one user turn and returns the reply text.
type ChatSender interface {
	Send(ctx context.Context, text string) (string, error)
}

// ChatOpener creates a chat for an agent.
type ChatOpener interface {
	Open(ctx context.Context, agent agents.Agent, history []types.Message) (ChatSender, error)
	Model() string
}

// GeminiChat opens genai chat sessions whose function calls are answered by
// Dispatcher.
type GeminiChat struct {
	Client     *gemini.ChatClient
	Dispatcher *tools.Dispatcher
}

// Model implements ChatOpener.
func (g GeminiChat) Model() string { return g.Client.Model() }

// Open implements ChatOpener.
func (g GeminiChat) Open(ctx context.Context, agent agents.Agent, history []types.Message) (ChatSender, error) {
	cfg := gemini.ChatSessionConfig{
		SystemInstruction: agent.Instruction,
		History:           history,
	}
	if g.Dispatcher != nil {
		cfg.Tools = g.Dispatcher.Registry().Defs()
		cfg.OnToolCalls = g.Dispatcher.Dispatch
	}
	session, err := g.Client.NewSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return session, nil
}
