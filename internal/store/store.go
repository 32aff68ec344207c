// Package store records pipeline runs in a local SQLite database so status
// can show what happened to a dataset or model across invocations.
package store

import (
	"errors"
	"time"
)

// DefaultDBPath is the default relative path for the SQLite DB. Open()
// creates the parent dir (.splatpipe).
const DefaultDBPath = ".splatpipe/runs.db"

// Run kinds, one per pipeline stage.
const (
	KindPrepare = "prepare"
	KindTrain   = "train"
	KindRender  = "render"
	KindMetrics = "metrics"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = errors.New("run not found")

// Run is one recorded pipeline invocation.
type Run struct {
	ID          int64
	Kind        string
	DatasetPath string
	ModelPath   string
	Args        []string // the flags the stage ran with, for reproduction
	Status      string
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time // zero while running
}

// Duration returns the run's wall time, or time since start while running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store is the run-history facade. CLI and MCP server use only this
// interface; implementation is SQLite or in-memory.
type Store interface {
	// StartRun inserts a running run and returns its ID.
	StartRun(run *Run) (int64, error)
	// FinishRun marks a run finished with the given status and error text.
	FinishRun(id int64, status, errText string) error
	// GetRun returns one run by ID, or ErrNotFound.
	GetRun(id int64) (*Run, error)
	// RecentRuns returns up to limit runs, newest first.
	RecentRuns(limit int) ([]Run, error)
	// Close releases the underlying resources.
	Close() error
}
