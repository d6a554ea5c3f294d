package models

import "time"

// SessionRecord is one stored agent run.
type SessionRecord struct {
	ID        int64     `json:"id"`
	ThreadID  string    `json:"thread_id"`
	RunID     string    `json:"run_id"`
	Prompt    string    `json:"prompt"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageRecord is one stored conversation turn within a session.
type MessageRecord struct {
	ID         int64     `json:"id"`
	SessionID  int64     `json:"session_id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	ToolCalls  string    `json:"tool_calls_json,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
