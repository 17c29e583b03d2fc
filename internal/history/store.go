// Package history keeps an append-only audit trail of pipeline runs in SQLite:
// one row per run/stage event plus a projected summary row per run.
package history

import (
	"context"
	"encoding/json"
	"time"
)

// EventType names an audit event.
type EventType string

const (
	EventRunStarted     EventType = "run.started"
	EventStageCompleted EventType = "stage.completed"
	EventRunCompleted   EventType = "run.completed"
)

// Event is one audit record.
type Event struct {
	ID        int64
	RunID     string
	Type      EventType
	Stage     string
	Result    string
	Timestamp time.Time
	Payload   json.RawMessage
}

// RunSummary is the projection of a finished run.
type RunSummary struct {
	RunID     string
	Status    string
	Terminal  string
	Started   time.Time
	Finished  time.Time
	Pages     int
	Errors    int
	Warnings  int
	Fallbacks int
	Score     *float64
}

// Store persists run history.
type Store interface {
	Append(ctx context.Context, e Event) error
	RecordRun(ctx context.Context, s RunSummary) error
	Events(ctx context.Context, runID string) ([]Event, error)
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)
	Close() error
}
