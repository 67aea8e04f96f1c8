package ports

import (
	"context"

	"github.com/flowforge/streamline/internal/domain/checkpoint"
	"github.com/flowforge/streamline/internal/domain/envelope"
	"github.com/flowforge/streamline/internal/domain/rollback"
)

// CheckpointStore is the checkpoint manager: load, save (overwrite),
// clear.
type CheckpointStore interface {
	Load(ctx context.Context, pipelineID string) (checkpoint.Checkpoint, error)
	Save(ctx context.Context, cp checkpoint.Checkpoint) error
	Clear(ctx context.Context, pipelineID string) error
}

// ErrorJournal is the append-only per-run record error log.
type ErrorJournal interface {
	Append(ctx context.Context, runID string, recErr envelope.RecordError) (string, error)
	List(ctx context.Context, runID string) ([]JournalEntry, error)
	Get(ctx context.Context, errorID string) (JournalEntry, bool, error)
}

// JournalEntry pairs a stable error ID with the RecordError it wraps.
type JournalEntry struct {
	ID    string
	RunID string
	envelope.RecordError
}

// ReplayService re-runs one or more payloads from an arbitrary stepKey.
// Errors raised by the replayed records are appended to the error journal
// again, like those of any other run; duplicate capture is not suppressed.
type ReplayService interface {
	Replay(ctx context.Context, errorIDs []string, patch map[string]any) (RetryResult, error)
}

// RetryResult is the outcome of one replay invocation.
type RetryResult struct {
	Attempted int
	Succeeded int
	Failed    int
	Audits    []RetryAuditRecord
}

// RetryAuditRecord is the immutable append-only Retry Audit entry.
type RetryAuditRecord struct {
	ErrorID          string
	UserID           string
	PreviousPayload  map[string]any
	Patch            map[string]any
	ResultingPayload map[string]any
	Diff             string
	CreatedAt        int64
}

// RetryAudit persists RetryAuditRecords.
type RetryAudit interface {
	Record(ctx context.Context, rec RetryAuditRecord) error
	List(ctx context.Context, errorID string) ([]RetryAuditRecord, error)
}

// RollbackJournal is the process-wide batch-transaction service: begin,
// append, commit, rollback, partialRollback, and the stale-transaction
// sweeper.
type RollbackJournal interface {
	Begin(ctx context.Context) (txID string)
	Append(ctx context.Context, txID string, entry rollback.Entry) error
	Commit(ctx context.Context, txID string) error
	Rollback(ctx context.Context, txID string) (rolled int, err error)
	PartialRollback(ctx context.Context, txID string, fromIndex int) (rolled int, err error)
	Transaction(ctx context.Context, txID string) (rollback.Transaction, bool)
}
