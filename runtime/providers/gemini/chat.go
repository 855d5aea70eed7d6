package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/cyberwithvishal/riyu/runtime/types"
)

// maxToolRounds bounds how many function-call round trips one chat turn may take.
const maxToolRounds = 4

// ChatConfig configures the turn-based chat client.
type ChatConfig struct {
	APIKey string
	Model  string

	// BaseURL overrides the API endpoint; used by tests.
	BaseURL    string
	HTTPClient *http.Client
}

// ChatClient creates chat sessions against the genai SDK.
type ChatClient struct {
	client *genai.Client
	model  string
}

// NewChatClient builds a client for the Gemini Developer API backend.
func NewChatClient(ctx context.Context, cfg ChatConfig) (*ChatClient, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	return &ChatClient{client: client, model: cfg.Model}, nil
}

// Model returns the configured chat model name.
func (c *ChatClient) Model() string {
	return c.model
}

// ToolHandler answers the function calls a chat reply asks for.
type ToolHandler func(ctx context.Context, calls []types.ToolInvocation) []types.ToolResult

// ChatSessionConfig configures one chat session.
type ChatSessionConfig struct {
	SystemInstruction string
	Tools             []types.ToolDef
	// History seeds the conversation; AI messages become "model" turns.
	History []types.Message
	// OnToolCalls is consulted when the model replies with function calls.
	// Without it such replies yield an empty text.
	OnToolCalls ToolHandler
}

// ChatSession is a stateful conversation; the SDK accumulates history between sends.
type ChatSession struct {
	chat   *genai.Chat
	onTool ToolHandler
}

// NewSession opens a chat with the given persona and tools.
func (c *ChatClient) NewSession(ctx context.Context, cfg ChatSessionConfig) (*ChatSession, error) {
	tools, err := genaiTools(cfg.Tools)
	if err != nil {
		return nil, err
	}
	gc := &genai.GenerateContentConfig{Tools: tools}
	if cfg.SystemInstruction != "" {
		gc.SystemInstruction = genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser)
	}

	history := make([]*genai.Content, 0, len(cfg.History))
	for _, m := range cfg.History {
		role := genai.Role(genai.RoleUser)
		if m.Sender == types.SenderAI {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(m.Text, role))
	}

	chat, err := c.client.Chats.Create(ctx, c.model, gc, history)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	return &ChatSession{chat: chat, onTool: cfg.OnToolCalls}, nil
}

// Send delivers one user message and returns the reply text. Function calls in
// the reply are answered through OnToolCalls before the final text is returned.
// Every transport or API failure wraps ErrRemoteUnavailable.
func (s *ChatSession) Send(ctx context.Context, text string) (string, error) {
	resp, err := s.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}

	for round := 0; round < maxToolRounds && s.onTool != nil; round++ {
		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			break
		}
		invocations := make([]types.ToolInvocation, 0, len(calls))
		for _, fc := range calls {
			args, _ := json.Marshal(fc.Args)
			invocations = append(invocations, types.ToolInvocation{ID: fc.ID, Name: fc.Name, Args: args})
		}

		results := s.onTool(ctx, invocations)
		parts := make([]genai.Part, 0, len(results))
		for _, r := range results {
			parts = append(parts, genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       r.ID,
				Name:     r.Name,
				Response: map[string]any{"result": r.Result},
			}})
		}
		resp, err = s.chat.SendMessage(ctx, parts...)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
		}
	}
	return resp.Text(), nil
}
