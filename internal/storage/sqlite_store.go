package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/stockpilot-agent/stockpilot/internal/config"
	"github.com/stockpilot-agent/stockpilot/models"
	"github.com/stockpilot-agent/stockpilot/pkg/sqlite"
)

// SQLiteStore keeps sessions and messages in a single database file
// under the configured data directory.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(cfg *config.Config) (*SQLiteStore, error) {
	db, err := sqlite.Open(filepath.Join(cfg.DataDir, "agent.db"))
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.initTables(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initTables() error {
	const query = `
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		thread_id TEXT NOT NULL,
		run_id TEXT NOT NULL,
		prompt TEXT,
		status TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES sessions(id),
		message_role TEXT NOT NULL,
		content TEXT,
		tool_calls_json TEXT,
		tool_call_id TEXT,
		status TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, rec *models.SessionRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (thread_id, run_id, prompt, status) VALUES (?, ?, ?, ?)`,
		rec.ThreadID, rec.RunID, rec.Prompt, rec.Status,
	)
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("session id: %w", err)
	}
	rec.ID = id
	return id, nil
}

func (s *SQLiteStore) UpdateSessionStatus(ctx context.Context, sessionID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ? WHERE id = ?`, status, sessionID)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *models.MessageRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, message_role, content, tool_calls_json, tool_call_id, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.SessionID, msg.Role, msg.Content, msg.ToolCalls, msg.ToolCallID, msg.Status,
	)
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, sessionID int64) (*models.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, thread_id, run_id, prompt, status, created_at FROM sessions WHERE id = ?`, sessionID)

	rec := &models.SessionRecord{}
	if err := row.Scan(&rec.ID, &rec.ThreadID, &rec.RunID, &rec.Prompt, &rec.Status, &rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("get session %d: %w", sessionID, err)
	}
	return rec, nil
}

func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID int64) ([]*models.MessageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, message_role, content, tool_calls_json, tool_call_id, status, created_at
		 FROM messages WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []*models.MessageRecord
	for rows.Next() {
		msg := &models.MessageRecord{}
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content,
			&msg.ToolCalls, &msg.ToolCallID, &msg.Status, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
