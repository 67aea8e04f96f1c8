// Package checkpoint implements the in-memory Checkpoint Manager, Error
// Journal, Retry Audit, and Replay Service: the resumability and
// observability ports the Pipeline Orchestrator writes to on every run.
package checkpoint

import (
	"context"
	"sync"

	domaincheckpoint "github.com/flowforge/streamline/internal/domain/checkpoint"
	"github.com/flowforge/streamline/internal/ports"
)

// Store is a process-wide, mutex-guarded CheckpointStore keyed by
// pipeline id. Each Save overwrites the prior checkpoint atomically
// under the lock, matching the "replaced atomically on each save"
// invariant of the Checkpoint value object.
type Store struct {
	mu    sync.Mutex
	byPID map[string]domaincheckpoint.Checkpoint
}

// NewStore builds an empty checkpoint store.
func NewStore() *Store {
	return &Store{byPID: make(map[string]domaincheckpoint.Checkpoint)}
}

func (s *Store) Load(_ context.Context, pipelineID string) (domaincheckpoint.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cp, ok := s.byPID[pipelineID]; ok {
		return cp, nil
	}
	return domaincheckpoint.Checkpoint{PipelineID: pipelineID}, nil
}

func (s *Store) Save(_ context.Context, cp domaincheckpoint.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPID[cp.PipelineID] = cp
	return nil
}

func (s *Store) Clear(_ context.Context, pipelineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byPID, pipelineID)
	return nil
}

var _ ports.CheckpointStore = (*Store)(nil)
