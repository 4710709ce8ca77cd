// Package store persists export job status. The in-memory store is the
// default; a Redis-backed store is available when jobs should survive
// process restarts or be visible to other instances.
package store

import (
	"context"
	"sync"
	"time"
)

// Status is the externally visible state of one export job.
type Status struct {
	Status   string                 `json:"status"`
	Progress int                    `json:"progress"`
	Message  string                 `json:"message"`
	Start    *time.Time             `json:"start_time,omitempty"`
	End      *time.Time             `json:"end_time,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// StatusStore records and retrieves job status by job ID.
type StatusStore interface {
	Set(ctx context.Context, jobID string, st Status) error
	Get(ctx context.Context, jobID string) (Status, bool, error)
}

// MemoryStatus is a process-local status store.
type MemoryStatus struct {
	mu   sync.RWMutex
	jobs map[string]Status
}

// NewMemoryStatus creates an empty in-memory store.
func NewMemoryStatus() *MemoryStatus {
	return &MemoryStatus{jobs: make(map[string]Status)}
}

func (s *MemoryStatus) Set(ctx context.Context, jobID string, st Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[jobID] = st
	return nil
}

func (s *MemoryStatus) Get(ctx context.Context, jobID string) (Status, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.jobs[jobID]
	return st, ok, nil
}
