package checkpoint

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/diff"
)

// RetryAudit is the immutable, append-only, in-memory log of retry
// attempts keyed by the error id they replayed. Diff renders the
// previous and resulting payloads as a human-readable unified diff, the
// same library the teacher's plan-vs-actual diff view uses for step
// drift.
type RetryAudit struct {
	mu      sync.Mutex
	byError map[string][]ports.RetryAuditRecord
}

// NewRetryAudit builds an empty retry audit log.
func NewRetryAudit() *RetryAudit {
	return &RetryAudit{byError: make(map[string][]ports.RetryAuditRecord)}
}

func (a *RetryAudit) Record(_ context.Context, rec ports.RetryAuditRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byError[rec.ErrorID] = append(a.byError[rec.ErrorID], rec)
	return nil
}

func (a *RetryAudit) List(_ context.Context, errorID string) ([]ports.RetryAuditRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ports.RetryAuditRecord, len(a.byError[errorID]))
	copy(out, a.byError[errorID])
	return out, nil
}

// DiffPayloads renders the JSON forms of previous and resulting payloads
// as a unified text diff for the RetryAuditRecord.Diff field.
func DiffPayloads(previous, resulting map[string]any) string {
	prevJSON, _ := json.MarshalIndent(previous, "", "  ")
	nextJSON, _ := json.MarshalIndent(resulting, "", "  ")
	return diff.GenerateUnifiedDiff(prevJSON, nextJSON, "previous", "resulting")
}

var _ ports.RetryAudit = (*RetryAudit)(nil)
