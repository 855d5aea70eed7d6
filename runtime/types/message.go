// Package types holds the value types shared by the live bridge, the tool
// dispatcher and the conversation controller.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who produced a Message.
type Sender string

// Message senders.
const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is one persisted chat entry.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a fresh ID stamped at now.
func NewMessage(sender Sender, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// HistoryLine renders the message as "SENDER: text", the form used in memory context.
func (m Message) HistoryLine() string {
	return fmt.Sprintf("%s: %s", strings.ToUpper(string(m.Sender)), m.Text)
}

// ToolInvocation is a function call requested by the remote model.
type ToolInvocation struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ToolResult answers exactly one ToolInvocation, carrying its ID back.
type ToolResult struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Result  string `json:"result"`
	IsError bool   `json:"is_error,omitempty"`
}

// ToolDef declares a tool to the remote model. Parameters is a JSON Schema object.
type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}
