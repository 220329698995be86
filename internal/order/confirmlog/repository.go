package confirmlog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no log entry exists for a pipeline ID.
var ErrNotFound = errors.New("confirmlog: no entries for pipeline")

// Repository is the port (interface) for persisting confirmation log entries.
// The pipeline depends on this abstraction, not on SQLite directly, so you
// can swap the implementation for Postgres, in-memory (tests), etc.
type Repository interface {
	// Save persists a new log entry. Each call appends a row; the table is
	// an append-only audit log, not an upsert.
	Save(ctx context.Context, entry *Entry) error
}

// Reader is the query side of the log: status endpoints and crash recovery
// ask for the most recent entry of a run.
type Reader interface {
	// GetLatest returns the newest entry for a pipeline ID, or ErrNotFound.
	GetLatest(ctx context.Context, pipelineID string) (*Entry, error)
}
