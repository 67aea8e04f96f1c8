package checkpoint

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/flowforge/streamline/internal/domain/envelope"
	"github.com/flowforge/streamline/internal/ports"
)

// ErrorJournal is the append-only, in-memory per-run record error log:
// every failed record a LOAD or TRANSFORM step reports lands here with
// a stable id the Replay Service and CLI `replay` subcommand address it
// by.
type ErrorJournal struct {
	mu      sync.Mutex
	entries map[string]ports.JournalEntry
	byRun   map[string][]string
}

// NewErrorJournal builds an empty error journal.
func NewErrorJournal() *ErrorJournal {
	return &ErrorJournal{
		entries: make(map[string]ports.JournalEntry),
		byRun:   make(map[string][]string),
	}
}

func (j *ErrorJournal) Append(_ context.Context, runID string, recErr envelope.RecordError) (string, error) {
	id := uuid.NewString()

	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[id] = ports.JournalEntry{ID: id, RunID: runID, RecordError: recErr}
	j.byRun[runID] = append(j.byRun[runID], id)
	return id, nil
}

func (j *ErrorJournal) List(_ context.Context, runID string) ([]ports.JournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	ids := j.byRun[runID]
	out := make([]ports.JournalEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, j.entries[id])
	}
	return out, nil
}

func (j *ErrorJournal) Get(_ context.Context, errorID string) (ports.JournalEntry, bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	entry, ok := j.entries[errorID]
	return entry, ok, nil
}

var _ ports.ErrorJournal = (*ErrorJournal)(nil)
