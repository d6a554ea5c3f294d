// Package storage records agent runs and their conversation turns.
// Recording is best effort: a storage failure is logged by the caller
// and never fails a request.
package storage

import (
	"context"

	"github.com/stockpilot-agent/stockpilot/models"
)

// Session lifecycle states.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

// Store persists sessions and messages across requests.
type Store interface {
	CreateSession(ctx context.Context, rec *models.SessionRecord) (int64, error)
	UpdateSessionStatus(ctx context.Context, sessionID int64, status string) error
	SaveMessage(ctx context.Context, msg *models.MessageRecord) error
	GetSession(ctx context.Context, sessionID int64) (*models.SessionRecord, error)
	ListMessages(ctx context.Context, sessionID int64) ([]*models.MessageRecord, error)
	Close() error
}
