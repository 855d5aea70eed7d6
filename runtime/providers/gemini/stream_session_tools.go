package gemini

import (
	"context"

	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/types"
)

// SendToolResponses answers function calls. Each result keeps the ID of the
// call it answers and is wrapped as {"result": ...}.
func (s *StreamSession) SendToolResponses(ctx context.Context, results []types.ToolResult) error {
	if len(results) == 0 {
		return nil
	}
	responses := make([]functionResponse, 0, len(results))
	for _, r := range results {
		resp := map[string]any{"result": r.Result}
		if r.IsError {
			resp["error"] = true
		}
		responses = append(responses, functionResponse{ID: r.ID, Name: r.Name, Response: resp})
	}

	logger.DebugContext(ctx, "gemini sending tool responses", "session_id", s.id, "count", len(responses))
	return s.send(toolResponseMessage{ToolResponse: toolResponse{FunctionResponses: responses}})
}
