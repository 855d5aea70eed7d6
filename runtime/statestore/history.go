package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/types"
)

// Fixed keys shared with earlier builds of the assistant.
const (
	HistoryKey = "CWV_MEMORY_VAULT"
	NotesKey   = "CWV_MEMORY_NOTES"
)

// History stores the message list and free-form memory notes in a KV.
type History struct {
	kv KV
}

// NewHistory wraps kv.
func NewHistory(kv KV) *History {
	return &History{kv: kv}
}

// Load returns the saved messages. A missing or undecodable entry yields an
// empty list; only backend failures are returned as errors.
func (h *History) Load(ctx context.Context) ([]types.Message, error) {
	data, err := h.kv.Get(ctx, HistoryKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	var msgs []types.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		logger.WarnContext(ctx, "stored history is corrupt, starting empty", "key", HistoryKey, "error", err)
		return nil, nil
	}
	return msgs, nil
}

// Save replaces the stored messages.
func (h *History) Save(ctx context.Context, msgs []types.Message) error {
	if msgs == nil {
		msgs = []types.Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := h.kv.Set(ctx, HistoryKey, data); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Clear removes the stored messages.
func (h *History) Clear(ctx context.Context) error {
	return h.kv.Delete(ctx, HistoryKey)
}

// Notes returns the memory notes, or "" when none are saved.
func (h *History) Notes(ctx context.Context) (string, error) {
	data, err := h.kv.Get(ctx, NotesKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load notes: %w", err)
	}
	return string(data), nil
}

// SaveNotes replaces the memory notes.
func (h *History) SaveNotes(ctx context.Context, notes string) error {
	if err := h.kv.Set(ctx, NotesKey, []byte(notes)); err != nil {
		return fmt.Errorf("save notes: %w", err)
	}
	return nil
}
