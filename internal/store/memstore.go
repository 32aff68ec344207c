package store

import (
	"fmt"
	"sync"
	"time"
)

// MemStore is the in-memory Store used by tests and the MCP server's
// ephemeral sessions.
type MemStore struct {
	mu     sync.Mutex
	nextID int64
	runs   map[int64]*Run
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{nextID: 1, runs: map[int64]*Run{}}
}

// StartRun implements Store.
func (m *MemStore) StartRun(run *Run) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	cp := *run
	cp.ID = id
	cp.Status = StatusRunning
	cp.StartedAt = time.Now().UTC()
	m.runs[id] = &cp
	return id, nil
}

// FinishRun implements Store.
func (m *MemStore) FinishRun(id int64, status, errText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return fmt.Errorf("finish run %d: %w", id, ErrNotFound)
	}
	run.Status = status
	run.Error = errText
	run.FinishedAt = time.Now().UTC()
	return nil
}

// GetRun implements Store.
func (m *MemStore) GetRun(id int64) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	cp := *run
	return &cp, nil
}

// RecentRuns implements Store.
func (m *MemStore) RecentRuns(limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	for id := m.nextID - 1; id >= 1 && len(runs) < limit; id-- {
		if run, ok := m.runs[id]; ok {
			runs = append(runs, *run)
		}
	}
	return runs, nil
}

// Close implements Store.
func (m *MemStore) Close() error { return nil }
