// Package orchestrator coordinates pipeline lookup, executability
// checks, and run dispatch against ports.Orchestrator, the way the
// teacher's apply/prepare use cases sit in front of its plugin executor.
package orchestrator

import (
	"context"

	domain "github.com/flowforge/streamline/internal/domain/pipeline"
	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/pipelineerr"
)

// ExecuteUseCase looks up a published pipeline definition by code and
// drives one run of it through the orchestrator.
type ExecuteUseCase struct {
	Store        ports.PipelineStore
	Orchestrator ports.Orchestrator
	Logger       ports.Logger
	Events       ports.EventPublisher
}

// NewExecuteUseCase wires an execute use case from its collaborating ports.
func NewExecuteUseCase(store ports.PipelineStore, orch ports.Orchestrator, logger ports.Logger, events ports.EventPublisher) *ExecuteUseCase {
	return &ExecuteUseCase{Store: store, Orchestrator: orch, Logger: logger, Events: events}
}

// Run looks up pipelineCode, verifies it is executable, and executes it
// with the given run options.
func (u *ExecuteUseCase) Run(ctx context.Context, pipelineCode string, opts ports.ExecuteOptions) (domain.Summary, error) {
	if u.Logger != nil {
		u.Logger.Info(ctx, "resolving pipeline for run", "pipeline_code", pipelineCode, "resume", opts.Resume, "dry_run", opts.DryRun)
	}

	def, ok, err := u.Store.GetPipeline(ctx, pipelineCode)
	if err != nil {
		return domain.Summary{}, err
	}
	if !ok {
		err := pipelineerr.Newf(pipelineerr.ConfigInvalid, "unknown pipeline code %q", pipelineCode)
		publishEvent(ctx, u.Events, u.Logger, ports.EventPipelineFailed, map[string]any{"pipeline_code": pipelineCode, "error": err.Error()})
		return domain.Summary{}, err
	}
	if !def.Executable() && !opts.DryRun {
		err := pipelineerr.Newf(pipelineerr.ConfigInvalid, "pipeline %q is not published and enabled", pipelineCode)
		publishEvent(ctx, u.Events, u.Logger, ports.EventPipelineFailed, map[string]any{"pipeline_code": pipelineCode, "error": err.Error()})
		return domain.Summary{}, err
	}

	opts.PipelineID = def.ID
	summary, err := u.Orchestrator.Execute(ctx, def, opts)
	if err != nil {
		if u.Logger != nil {
			u.Logger.Error(ctx, "pipeline run failed", "pipeline_code", pipelineCode, "error", err.Error())
		}
		return summary, err
	}

	if u.Logger != nil {
		u.Logger.Info(ctx, "pipeline run finished", "pipeline_code", pipelineCode, "status", string(summary.Status), "succeeded", summary.Succeeded, "failed", summary.Failed)
	}
	return summary, nil
}

// Resume re-enters a paused run at its checkpointed step.
func (u *ExecuteUseCase) Resume(ctx context.Context, pipelineCode, runID string) (domain.Summary, error) {
	return u.Run(ctx, pipelineCode, ports.ExecuteOptions{RunID: runID, Resume: true})
}
