package orchestrator

import (
	"context"

	"github.com/flowforge/streamline/internal/ports"
)

// ReplayUseCase fronts ports.ReplayService with lookup logging and event
// publication, the way ExecuteUseCase fronts ports.Orchestrator.
type ReplayUseCase struct {
	Replay ports.ReplayService
	Logger ports.Logger
	Events ports.EventPublisher
}

// NewReplayUseCase wires a replay use case from its collaborating ports.
func NewReplayUseCase(replay ports.ReplayService, logger ports.Logger, events ports.EventPublisher) *ReplayUseCase {
	return &ReplayUseCase{Replay: replay, Logger: logger, Events: events}
}

// Retry replays errorIDs with an optional payload patch and reports the
// aggregate retry outcome.
func (u *ReplayUseCase) Retry(ctx context.Context, errorIDs []string, patch map[string]any) (ports.RetryResult, error) {
	if u.Logger != nil {
		u.Logger.Info(ctx, "replaying failed records", "error_count", len(errorIDs))
	}

	result, err := u.Replay.Replay(ctx, errorIDs, patch)
	if err != nil {
		if u.Logger != nil {
			u.Logger.Error(ctx, "replay failed", "error", err.Error())
		}
		publishEvent(ctx, u.Events, u.Logger, ports.EventStepFailed, map[string]any{"error": err.Error(), "error_ids": errorIDs})
		return result, err
	}

	if u.Logger != nil {
		u.Logger.Info(ctx, "replay finished", "attempted", result.Attempted, "succeeded", result.Succeeded, "failed", result.Failed)
	}
	return result, nil
}
