package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberwithvishal/riyu/runtime/types"
)

// mockWebSocketServer is a Live endpoint driven by a per-test handler.
type mockWebSocketServer struct {
	server   *httptest.Server
	upgrader websocket.Upgrader
}

func newMockWebSocketServer(t *testing.T, handler func(*websocket.Conn)) *mockWebSocketServer {
	t.Helper()
	mws := &mockWebSocketServer{}
	mws.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := mws.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(mws.server.Close)
	return mws
}

func (mws *mockWebSocketServer) URL() string {
	return "ws" + strings.TrimPrefix(mws.server.URL, "http")
}

// acceptSetup reads the setup message and acknowledges it.
func acceptSetup(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil
	}
	var setup map[string]any
	_ = json.Unmarshal(data, &setup)
	_ = conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})
	return setup
}

func readJSON(conn *websocket.Conn) (map[string]any, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	return m, json.Unmarshal(data, &m)
}

func testConfig(url string) *StreamSessionConfig {
	return &StreamSessionConfig{
		URL:               url,
		APIKey:            "test-key",
		Model:             "gemini-live-test",
		SystemInstruction: "be brief",
		Tools: []types.ToolDef{{
			Name:        "analyzeEnvironment",
			Description: "look around",
			Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
		}},
		SetupTimeout: 2 * time.Second,
	}
}

func nextEvent(t *testing.T, s *StreamSession) types.LiveEvent {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		require.True(t, ok, "event channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestNewStreamSessionSendsSetup(t *testing.T) {
	setupCh := make(chan map[string]any, 1)
	srv := newMockWebSocketServer(t, func(conn *websocket.Conn) {
		setupCh <- acceptSetup(t, conn)
		_, _, _ = conn.ReadMessage()
	})

	s, err := NewStreamSession(context.Background(), testConfig(srv.URL()))
	require.NoError(t, err)
	defer s.Close()
	assert.NotEmpty(t, s.ID())

	setup := (<-setupCh)["setup"].(map[string]any)
	assert.Equal(t, "models/gemini-live-test", setup["model"])
	gen := setup["generationConfig"].(map[string]any)
	assert.Equal(t, []any{"AUDIO"}, gen["responseModalities"])
	assert.Contains(t, setup, "inputAudioTranscription")
	assert.Contains(t, setup, "outputAudioTranscription")

	instr := setup["systemInstruction"].(map[string]any)["parts"].([]any)[0].(map[string]any)
	assert.Equal(t, "be brief", instr["text"])

	decl := setup["tools"].([]any)[0].(map[string]any)["functionDeclarations"].([]any)[0].(map[string]any)
	assert.Equal(t, "analyzeEnvironment", decl["name"])
	assert.Equal(t, "OBJECT", decl["parameters"].(map[string]any)["type"])
}

func TestNewStreamSessionSetupRejected(t *testing.T) {
	srv := newMockWebSocketServer(t, func(conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
		_ = conn.WriteJSON(map[string]any{"error": map[string]any{"code": 403, "message": "bad key", "status": "PERMISSION_DENIED"}})
	})

	_, err := NewStreamSession(context.Background(), testConfig(srv.URL()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsAuthError())
}

func TestNewStreamSessionDialFailure(t *testing.T) {
	cfg := testConfig("ws://127.0.0.1:1/live")
	_, err := NewStreamSession(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
}

func TestStreamSessionSendAudio(t *testing.T) {
	got := make(chan map[string]any, 1)
	srv := newMockWebSocketServer(t, func(conn *websocket.Conn) {
		acceptSetup(t, conn)
		msg, err := readJSON(conn)
		if err == nil {
			got <- msg
		}
		_, _, _ = conn.ReadMessage()
	})

	s, err := NewStreamSession(context.Background(), testConfig(srv.URL()))
	require.NoError(t, err)
	defer s.Close()

	pcm := []byte{0x01, 0x00, 0xff, 0x7f}
	require.NoError(t, s.SendAudio(context.Background(), pcm))

	msg := <-got
	chunk := msg["realtimeInput"].(map[string]any)["mediaChunks"].([]any)[0].(map[string]any)
	assert.Equal(t, "audio/pcm;rate=16000", chunk["mimeType"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(pcm), chunk["data"])
}

func TestStreamSessionToolResponsesKeepIDs(t *testing.T) {
	got := make(chan map[string]any, 1)
	srv := newMockWebSocketServer(t, func(conn *websocket.Conn) {
		acceptSetup(t, conn)
		if msg, err := readJSON(conn); err == nil {
			got <- msg
		}
		_, _, _ = conn.ReadMessage()
	})

	s, err := NewStreamSession(context.Background(), testConfig(srv.URL()))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SendToolResponses(context.Background(), []types.ToolResult{
		{ID: "a", Name: "analyzeEnvironment", Result: "Success"},
		{ID: "b", Name: "executeLinuxCommand", Result: "bad args", IsError: true},
	}))

	frs := (<-got)["toolResponse"].(map[string]any)["functionResponses"].([]any)
	require.Len(t, frs, 2)
	first := frs[0].(map[string]any)
	assert.Equal(t, "a", first["id"])
	assert.Equal(t, "analyzeEnvironment", first["name"])
	assert.Equal(t, map[string]any{"result": "Success"}, first["response"])
	second := frs[1].(map[string]any)
	assert.Equal(t, "b", second["id"])
	assert.Equal(t, true, second["response"].(map[string]any)["error"])
}

func TestStreamSessionEvents(t *testing.T) {
	audio := base64.StdEncoding.EncodeToString([]byte{0, 0, 0x10, 0x00})
	srv := newMockWebSocketServer(t, func(conn *websocket.Conn) {
		acceptSetup(t, conn)
		_ = conn.WriteJSON(map[string]any{"toolCall": map[string]any{"functionCalls": []any{
			map[string]any{"id": "fc1", "name": "controlWebAndMedia", "args": map[string]any{"action": "search", "query": "cats"}},
		}}})
		_ = conn.WriteJSON(map[string]any{"serverContent": map[string]any{
			"inputTranscription":  map[string]any{"text": "play lofi"},
			"outputTranscription": map[string]any{"text": "Okay"},
			"modelTurn": map[string]any{"parts": []any{
				map[string]any{"inlineData": map[string]any{"mimeType": "audio/pcm;rate=24000", "data": audio}},
			}},
			"turnComplete": true,
		}})
		_ = conn.WriteJSON(map[string]any{"serverContent": map[string]any{"interrupted": true}})
		_, _, _ = conn.ReadMessage()
	})

	s, err := NewStreamSession(context.Background(), testConfig(srv.URL()))
	require.NoError(t, err)
	defer s.Close()

	tc, ok := nextEvent(t, s).(types.ToolCallEvent)
	require.True(t, ok)
	require.Len(t, tc.Calls, 1)
	assert.Equal(t, "fc1", tc.Calls[0].ID)
	assert.JSONEq(t, `{"action":"search","query":"cats"}`, string(tc.Calls[0].Args))

	assert.Equal(t, types.TranscriptEvent{Text: "Okay", IsUser: false}, nextEvent(t, s))
	assert.Equal(t, types.TranscriptEvent{Text: "play lofi", IsUser: true}, nextEvent(t, s))
	assert.Equal(t, types.AudioEvent{PCM: []byte{0, 0, 0x10, 0x00}, SampleRate: 24000}, nextEvent(t, s))
	assert.Equal(t, types.TurnCompleteEvent{}, nextEvent(t, s))
	assert.Equal(t, types.InterruptedEvent{}, nextEvent(t, s))
}

func TestStreamSessionRemoteCloseEndsStream(t *testing.T) {
	srv := newMockWebSocketServer(t, func(conn *websocket.Conn) {
		acceptSetup(t, conn)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
		time.Sleep(50 * time.Millisecond)
	})

	s, err := NewStreamSession(context.Background(), testConfig(srv.URL()))
	require.NoError(t, err)
	defer s.Close()

	closed, ok := nextEvent(t, s).(types.ClosedEvent)
	require.True(t, ok)
	assert.NoError(t, closed.Err)

	_, open := <-s.Events()
	assert.False(t, open)
}

func TestStreamSessionCloseIsIdempotentAndStopsSends(t *testing.T) {
	srv := newMockWebSocketServer(t, func(conn *websocket.Conn) {
		acceptSetup(t, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	s, err := NewStreamSession(context.Background(), testConfig(srv.URL()))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.SendAudio(context.Background(), []byte{0, 0}), ErrTransportClosed)
	assert.ErrorIs(t, s.SendToolResponses(context.Background(), []types.ToolResult{{ID: "x"}}), ErrTransportClosed)
}

func TestTranslateIgnoresNonAudioParts(t *testing.T) {
	msg := &ServerMessage{ServerContent: &ServerContent{ModelTurn: &ModelTurn{Parts: []Part{
		{Text: "thinking"},
		{InlineData: &InlineData{MimeType: "image/png", Data: "AAAA"}},
		{InlineData: &InlineData{MimeType: "audio/pcm", Data: "not base64!"}},
	}}}}
	assert.Empty(t, translate(msg, NewAudioEncoder(0)))
}

func TestSummarizeForLogTruncatesAudio(t *testing.T) {
	big := strings.Repeat("A", 400)
	out := summarizeForLog([]byte(`{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"data":"` + big + `"}}]}}}`))
	assert.Contains(t, out, "[400 bytes base64]")
	assert.NotContains(t, out, big)
}

func TestMessageSummaryResolvesOnlyWhenLogged(t *testing.T) {
	big := strings.Repeat("A", 400)
	raw := []byte(`{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"data":"` + big + `"}}]}}}`)
	assert.Equal(t, slog.KindLogValuer, slog.AnyValue(messageSummary(raw)).Kind())

	var buf bytes.Buffer
	quiet := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	quiet.Debug("gemini message", "content", messageSummary(raw))
	assert.Empty(t, buf.String())

	verbose := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	verbose.Debug("gemini message", "content", messageSummary(raw))
	assert.Contains(t, buf.String(), "[400 bytes base64]")
	assert.NotContains(t, buf.String(), big)
}
