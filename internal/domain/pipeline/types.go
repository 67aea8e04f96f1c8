// Package pipeline defines the pipeline/step/run data model driven by the
// orchestrator. It plays the role the teacher repo's
// internal/domain/pipeline package plays for its declarative reconciliation
// engine: the DAG-shaped data model the rest of the system operates on.
package pipeline

import "time"

// StepType discriminates the tagged Step record.
type StepType string

const (
	StepExtract   StepType = "EXTRACT"
	StepTransform StepType = "TRANSFORM"
	StepLoad      StepType = "LOAD"
	StepGate      StepType = "GATE"
	StepBranch    StepType = "BRANCH"
	StepMerge     StepType = "MERGE"
)

// ErrorHandlingMode controls whether a step failure aborts the run.
type ErrorHandlingMode string

const (
	FailFast ErrorHandlingMode = "FAIL_FAST"
	Continue ErrorHandlingMode = "CONTINUE"
)

// ConfigValidationPolicy controls what happens when a step's adapter
// config fails schema validation before the run starts.
type ConfigValidationPolicy string

const (
	PolicyStrict  ConfigValidationPolicy = "strict"
	PolicyLenient ConfigValidationPolicy = "lenient"
)

// CheckpointAfter controls when the orchestrator persists a checkpoint.
type CheckpointAfter string

const (
	CheckpointAfterStep  CheckpointAfter = "STEP"
	CheckpointAfterBatch CheckpointAfter = "BATCH"
)

// Status is the pipeline definition's publication lifecycle.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusReview    Status = "REVIEW"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
)

// ContextOverride carries the channel/language the run resolves against,
// overriding any pipeline-level default.
type ContextOverride struct {
	Channel         string `json:"channel,omitempty" yaml:"channel,omitempty"`
	ContentLanguage string `json:"contentLanguage,omitempty" yaml:"contentLanguage,omitempty"`
}

// ErrorHandlingPolicy configures per-pipeline failure propagation.
type ErrorHandlingPolicy struct {
	Mode             ErrorHandlingMode      `json:"mode" yaml:"mode" validate:"omitempty,oneof=FAIL_FAST CONTINUE"`
	ConfigValidation ConfigValidationPolicy `json:"configValidation" yaml:"configValidation" validate:"omitempty,oneof=strict lenient"`
}

// CheckpointingPolicy configures when checkpoints are persisted.
type CheckpointingPolicy struct {
	Enabled bool            `json:"enabled" yaml:"enabled"`
	After   CheckpointAfter `json:"after" yaml:"after" validate:"omitempty,oneof=STEP BATCH"`
}

// ParallelExecutionPolicy bounds intra-step concurrency (§5).
type ParallelExecutionPolicy struct {
	MaxConcurrent int `json:"maxConcurrent" yaml:"maxConcurrent" validate:"omitempty,min=1"`
}

// Hooks name external callbacks run at run boundaries; the orchestrator
// only knows their identifiers, dispatch is an infrastructure concern.
type Hooks struct {
	OnCompleted string `json:"onCompleted,omitempty" yaml:"onCompleted,omitempty"`
	OnFailed    string `json:"onFailed,omitempty" yaml:"onFailed,omitempty"`
}

// Trigger binds an external event name to this pipeline; the runtime does
// not schedule triggers itself (non-goal), it only records the binding.
type Trigger struct {
	Name string `json:"name" yaml:"name"`
}

// StepDefinition is a tagged record with discriminator Type.
type StepDefinition struct {
	Key         string         `json:"key" yaml:"key" validate:"required"`
	Type        StepType       `json:"type" yaml:"type" validate:"required,oneof=EXTRACT TRANSFORM LOAD GATE BRANCH MERGE"`
	AdapterCode string         `json:"adapterCode" yaml:"adapterCode" validate:"required"`
	Config      map[string]any `json:"config" yaml:"config"`

	// BranchTargets and MergeSources carry the explicit edges BRANCH and
	// MERGE steps add on top of sequence-implied edges.
	BranchTargets []string `json:"branchTargets,omitempty" yaml:"branchTargets,omitempty"`
	MergeSources  []string `json:"mergeSources,omitempty" yaml:"mergeSources,omitempty"`
}

// Definition is the immutable (once published) Pipeline Definition.
type Definition struct {
	ID      string `json:"id" yaml:"id" validate:"required"`
	Code    string `json:"code" yaml:"code" validate:"required"`
	Name    string `json:"name" yaml:"name" validate:"required"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Status  Status `json:"status" yaml:"status" validate:"required,oneof=DRAFT REVIEW PUBLISHED ARCHIVED"`
	Version int    `json:"version" yaml:"version"`

	PublishedAt *time.Time `json:"publishedAt,omitempty" yaml:"publishedAt,omitempty"`

	Steps    []StepDefinition `json:"steps" yaml:"steps" validate:"required,dive"`
	Triggers []Trigger        `json:"triggers,omitempty" yaml:"triggers,omitempty"`
	Context  *ContextOverride `json:"context,omitempty" yaml:"context,omitempty"`

	ErrorHandling     ErrorHandlingPolicy     `json:"errorHandling" yaml:"errorHandling"`
	Checkpointing     CheckpointingPolicy     `json:"checkpointing" yaml:"checkpointing"`
	ParallelExecution ParallelExecutionPolicy `json:"parallelExecution" yaml:"parallelExecution"`
	Hooks             Hooks                   `json:"hooks" yaml:"hooks"`
}

// StepByKey returns the step definition with the given key, if any.
func (d Definition) StepByKey(key string) (StepDefinition, bool) {
	for _, s := range d.Steps {
		if s.Key == key {
			return s, true
		}
	}
	return StepDefinition{}, false
}

// Executable reports whether the definition may be run: only PUBLISHED
// pipelines that are also Enabled are executable.
func (d Definition) Executable() bool {
	return d.Status == StatusPublished && d.Enabled
}
