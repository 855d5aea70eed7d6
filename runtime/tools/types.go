// Package tools declares the assistant's callable capabilities and answers
// the model's function calls.
package tools

import (
	"context"
	"encoding/json"

	"github.com/cyberwithvishal/riyu/runtime/types"
)

// ToolDescriptor is a tool announced to the model.
type ToolDescriptor struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	InputSchema json.RawMessage `json:"input_schema" yaml:"input_schema"` // JSON Schema Draft-07
}

// Def converts the descriptor to the provider-neutral declaration.
func (d *ToolDescriptor) Def() types.ToolDef {
	return types.ToolDef{Name: d.Name, Description: d.Description, Parameters: d.InputSchema}
}

// Handler computes the textual result of one call. Arguments have already
// been validated against the descriptor's schema.
type Handler interface {
	Handle(ctx context.Context, args json.RawMessage) (string, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, args json.RawMessage) (string, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, args json.RawMessage) (string, error) {
	return f(ctx, args)
}

// Launcher opens a URL on the host, e.g. in the default browser.
type Launcher interface {
	Open(ctx context.Context, url string) error
}

// CommandRunner executes a shell command on the host and returns its output.
type CommandRunner interface {
	Run(ctx context.Context, command string) (string, error)
}
