package ports

import (
	"context"

	domain "github.com/flowforge/streamline/internal/domain/pipeline"
)

// Orchestrator drives step execution against a pipeline definition: the
// spec's Pipeline Orchestrator public contract.
type Orchestrator interface {
	// Execute prepares a run context, clears or loads the checkpoint
	// depending on Resume, runs the steps level by level in dependency
	// order (the steps of one level concurrently), and finalizes. See
	// pipeline.Summary for the returned shape.
	Execute(ctx context.Context, def domain.Definition, opts ExecuteOptions) (domain.Summary, error)

	// ReplayFromStep starts execution at stepKey using payloads as the
	// incoming record stream, skipping earlier extract work.
	ReplayFromStep(ctx context.Context, def domain.Definition, stepKey string, payloads []map[string]any) (domain.Summary, error)

	// Cancel marks runID for cancellation; the flag is checked before each
	// execution level and, during extraction, via ExtractorContext.IsCancelled.
	Cancel(runID string) error
}

// ExecuteOptions parameterize one Execute call.
type ExecuteOptions struct {
	PipelineID string
	RunID      string
	Resume     bool
	DryRun     bool
}

// DAGBuilder constructs a dependency graph from a pipeline's step
// definitions: sequence-implied edges plus explicit BRANCH/MERGE edges.
// It is responsible for cycle detection and stepKey-reference resolution.
type DAGBuilder interface {
	Build(ctx context.Context, steps []domain.StepDefinition) (*ExecutionGraph, error)
}

// ExecutionPlanner turns a dependency graph into an ordered list of
// concurrency levels (topological batches) the executor dispatches.
type ExecutionPlanner interface {
	GeneratePlan(ctx context.Context, graph *ExecutionGraph) ([][]string, error)
}

// ExecutionGraph is a directed acyclic graph of step dependencies.
type ExecutionGraph struct {
	Nodes map[string]*ExecutionNode
	Roots []string
}

// ExecutionNode captures one step's dependency relationships.
type ExecutionNode struct {
	Step       domain.StepDefinition
	DependsOn  []string
	Dependents []string
}
