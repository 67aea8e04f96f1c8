package pipeline

import (
	"time"

	"github.com/flowforge/streamline/internal/domain/checkpoint"
	"github.com/flowforge/streamline/internal/domain/envelope"
)

// RunStatus is the pipeline run's state machine:
// PENDING → RUNNING → {COMPLETED | FAILED | CANCELLED | PAUSED}.
// PAUSED transitions back to RUNNING on a resume call.
type RunStatus string

const (
	RunPending   RunStatus = "PENDING"
	RunRunning   RunStatus = "RUNNING"
	RunPaused    RunStatus = "PAUSED"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
	RunCancelled RunStatus = "CANCELLED"
)

// LogPersistenceLevel throttles which logger callbacks carry record
// samples.
type LogPersistenceLevel string

const (
	LogErrorOnly LogPersistenceLevel = "ERROR_ONLY"
	LogPipeline  LogPersistenceLevel = "PIPELINE"
	LogStep      LogPersistenceLevel = "STEP"
	LogDebug     LogPersistenceLevel = "DEBUG"
)

// StepExecution records one step's outcome within a run.
type StepExecution struct {
	StepKey    string
	Type       StepType
	RecordsIn  int
	RecordsOut int
	Succeeded  int
	Failed     int
	Skipped    int
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

// Run is the Pipeline Run aggregate: created on each invocation.
type Run struct {
	ID         string
	PipelineID string
	Status     RunStatus

	Channel             string
	Language            string
	LogPersistenceLevel LogPersistenceLevel

	StartedAt  time.Time
	FinishedAt time.Time

	Steps []StepExecution

	CurrentCheckpoint checkpoint.Checkpoint

	PausedAtStep string
}

// Summary is returned from Execute/ReplayFromStep: the processed/
// succeeded/failed/details aggregate plus pause info.
type Summary struct {
	RunID        string
	Processed    int
	Succeeded    int
	Failed       int
	Skipped      int
	Details      []StepExecution
	Paused       bool
	PausedAtStep string
	Status       RunStatus
}

// Batch is a slice of envelopes flowing between two steps, the unit the
// orchestrator schedules and checkpoints at.
type Batch struct {
	Sequence  int64
	Envelopes []envelope.Envelope
}
