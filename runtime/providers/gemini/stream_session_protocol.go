package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/providers/internal/streaming"
	"github.com/cyberwithvishal/riyu/runtime/types"
)

// receiveLoop translates server messages into events until the connection ends.
func (s *StreamSession) receiveLoop() {
	var closeErr error
	defer func() {
		s.emitClosed(closeErr)
		close(s.events)
	}()

	for {
		data, err := s.conn.Receive(s.ctx)
		if err != nil {
			if s.isClosed() || errors.Is(err, streaming.ErrClosed) {
				logger.Debug("gemini receive loop exiting", "session_id", s.id)
				return
			}
			closeErr = fmt.Errorf("%w: %w", ErrTransportClosed, err)
			logger.Warn("gemini websocket receive error", "session_id", s.id, "error", err)
			return
		}

		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("gemini: unparseable server message", "session_id", s.id, "error", err)
			continue
		}
		logger.Debug("gemini message", "session_id", s.id, "content", messageSummary(data))

		if msg.Error != nil {
			closeErr = msg.Error
			return
		}
		for _, ev := range translate(&msg, s.encoder) {
			if !s.emit(ev) {
				return
			}
		}
	}
}

// translate maps one server message to zero or more events, in the order the
// caller should observe them: tool calls, interruption, transcripts, audio, turn end.
func translate(msg *ServerMessage, enc *AudioEncoder) []types.LiveEvent {
	var out []types.LiveEvent

	if msg.GoAway != nil {
		logger.Info("gemini server going away", "time_left", msg.GoAway.TimeLeft)
	}

	if msg.ToolCall != nil && len(msg.ToolCall.FunctionCalls) > 0 {
		calls := make([]types.ToolInvocation, 0, len(msg.ToolCall.FunctionCalls))
		for _, fc := range msg.ToolCall.FunctionCalls {
			args, err := json.Marshal(fc.Args)
			if err != nil || fc.Args == nil {
				args = []byte("{}")
			}
			calls = append(calls, types.ToolInvocation{ID: fc.ID, Name: fc.Name, Args: args})
		}
		out = append(out, types.ToolCallEvent{Calls: calls})
	}

	sc := msg.ServerContent
	if sc == nil {
		return out
	}
	if sc.Interrupted {
		out = append(out, types.InterruptedEvent{})
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		out = append(out, types.TranscriptEvent{Text: sc.OutputTranscription.Text, IsUser: false})
	}
	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		out = append(out, types.TranscriptEvent{Text: sc.InputTranscription.Text, IsUser: true})
	}
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData == nil || !strings.HasPrefix(p.InlineData.MimeType, "audio/") {
				continue
			}
			pcm, err := enc.DecodePCM(p.InlineData.Data)
			if err != nil {
				logger.Warn("gemini: dropping undecodable audio part", "error", err)
				continue
			}
			out = append(out, types.AudioEvent{PCM: pcm, SampleRate: SampleRateFromMime(p.InlineData.MimeType)})
		}
	}
	if sc.TurnComplete {
		out = append(out, types.TurnCompleteEvent{})
	}
	return out
}

func (s *StreamSession) emit(ev types.LiveEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *StreamSession) emitClosed(err error) {
	select {
	case s.events <- types.ClosedEvent{Err: err}:
		return
	default:
	}
	select {
	case s.events <- types.ClosedEvent{Err: err}:
	case <-s.ctx.Done():
	}
}

// messageSummary defers summarizeForLog until a handler formats the record,
// so server messages are not re-parsed while debug logging is off.
type messageSummary []byte

func (m messageSummary) LogValue() slog.Value {
	return slog.StringValue(summarizeForLog(m))
}

// summarizeForLog replaces large base64 payloads so debug logs stay readable.
func summarizeForLog(raw []byte) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	truncateInlineData(v)
	out, _ := json.Marshal(v)
	return string(out)
}

func truncateInlineData(v any) {
	switch val := v.(type) {
	case map[string]any:
		if data, ok := val["data"].(string); ok && len(data) > 100 {
			val["data"] = fmt.Sprintf("[%d bytes base64]", len(data))
		}
		for _, child := range val {
			truncateInlineData(child)
		}
	case []any:
		for _, item := range val {
			truncateInlineData(item)
		}
	}
}
