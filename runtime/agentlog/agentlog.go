// Package agentlog records what each agent did, newest first on read.
package agentlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/cyberwithvishal/riyu/runtime/logger"
)

// DefaultLimit is the page size used by the HTTP log endpoint.
const DefaultLimit = 50

// Entry kinds.
const (
	KindUserMessage  = "user_message"
	KindAgentMessage = "agent_message"
	KindToolCall     = "tool_call"
	KindLiveStarted  = "live_started"
	KindLiveStopped  = "live_stopped"
	KindAgentSwitch  = "agent_switch"
	KindOffline      = "offline_command"
)

// Entry is one logged activity.
type Entry struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is implemented by agent log backends.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Recent(ctx context.Context, agentID string, limit int) ([]Entry, error)
}

// ErrAgentRequired is returned when an entry or query has no agent ID.
var ErrAgentRequired = errors.New("agentlog: agent id required")

// SQLiteStore keeps the log in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens or creates the database at path. Use ":memory:" for a private
// in-memory log.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open agent log: %w", err)
	}
	// SQLite serializes writers, and each ":memory:" connection is its own database.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("agent log opened", "path", path)
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS agent_logs (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			text TEXT NOT NULL,
			timestamp INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS agent_logs_agent_ts ON agent_logs(agent_id, timestamp DESC);`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("migrate agent log: %w", err)
		}
	}
	return nil
}

// Append stores e. Missing IDs and timestamps are filled in.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	if e.AgentID == "" {
		return ErrAgentRequired
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agent_logs(id, agent_id, kind, text, timestamp) VALUES(?,?,?,?,?)`,
		e.ID, e.AgentID, e.Kind, e.Text, e.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("append agent log: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for agentID, newest first. A
// non-positive limit uses DefaultLimit.
func (s *SQLiteStore) Recent(ctx context.Context, agentID string, limit int) ([]Entry, error) {
	if agentID == "" {
		return nil, ErrAgentRequired
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, agent_id, kind, text, timestamp FROM agent_logs
		 WHERE agent_id = ? ORDER BY timestamp DESC, rowid DESC LIMIT ?`,
		agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("query agent log: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e  Entry
			ts int64
		)
		if err := rows.Scan(&e.ID, &e.AgentID, &e.Kind, &e.Text, &ts); err != nil {
			return nil, fmt.Errorf("scan agent log: %w", err)
		}
		e.Timestamp = time.Unix(0, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
