package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	a := NewMessage(SenderUser, "hello")
	b := NewMessage(SenderAI, "hi")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Timestamp.IsZero())
	assert.Equal(t, "USER: hello", a.HistoryLine())
	assert.Equal(t, "AI: hi", b.HistoryLine())
}

func TestMessageJSONShape(t *testing.T) {
	raw, err := json.Marshal(NewMessage(SenderAI, "ok"))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "ai", m["sender"])
	assert.Contains(t, m, "id")
	assert.Contains(t, m, "timestamp")
}

func TestParseVisualMode(t *testing.T) {
	for in, want := range map[string]VisualMode{"": VisualNone, "none": VisualNone, "camera": VisualCamera, "screen": VisualScreen} {
		got, err := ParseVisualMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseVisualMode("hologram")
	assert.Error(t, err)
}
