package checkpoint

import (
	"context"
	"time"

	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/pipelineerr"
)

// ReplayService re-runs previously failed records from the step that
// failed them, applying an optional per-call patch on top of the
// recorded payload before handing it back to the orchestrator.
type ReplayService struct {
	Errors      ports.ErrorJournal
	Audit       ports.RetryAudit
	Orchestrate func(ctx context.Context, stepKey string, payloads []map[string]any) (attempted, failed int, err error)
	UserID      string
	Now         func() time.Time
}

// NewReplayService wires a ReplayService from its collaborating ports.
// orchestrate adapts a caller's Orchestrator.ReplayFromStep over one
// pipeline definition into the narrow per-stepKey callback this service
// needs, since one ReplayService instance serves every pipeline.
func NewReplayService(errors ports.ErrorJournal, audit ports.RetryAudit, orchestrate func(ctx context.Context, stepKey string, payloads []map[string]any) (int, int, error)) *ReplayService {
	return &ReplayService{Errors: errors, Audit: audit, Orchestrate: orchestrate, Now: time.Now}
}

// Replay groups errorIDs by the step that recorded them (every group
// replays independently, since ReplayFromStep takes a single stepKey),
// applies patch over each recorded payload, and records one audit entry
// per replayed error regardless of outcome.
func (s *ReplayService) Replay(ctx context.Context, errorIDs []string, patch map[string]any) (ports.RetryResult, error) {
	if len(errorIDs) == 0 {
		return ports.RetryResult{}, pipelineerr.New(pipelineerr.ConfigInvalid, "replay requires at least one error id")
	}

	byStep := make(map[string][]ports.JournalEntry)
	for _, id := range errorIDs {
		entry, ok, err := s.Errors.Get(ctx, id)
		if err != nil {
			return ports.RetryResult{}, err
		}
		if !ok {
			return ports.RetryResult{}, pipelineerr.Newf(pipelineerr.LookupMiss, "unknown error id %s", id)
		}
		byStep[entry.StepKey] = append(byStep[entry.StepKey], entry)
	}

	var result ports.RetryResult
	for stepKey, entries := range byStep {
		payloads := make([]map[string]any, len(entries))
		for i, entry := range entries {
			payloads[i] = applyPatch(entry.Payload, patch)
		}

		attempted, failed, err := s.Orchestrate(ctx, stepKey, payloads)
		if err != nil {
			return result, err
		}

		result.Attempted += attempted
		result.Failed += failed
		result.Succeeded += attempted - failed

		for i, entry := range entries {
			audit := ports.RetryAuditRecord{
				ErrorID:          entry.ID,
				UserID:           s.UserID,
				PreviousPayload:  entry.Payload,
				Patch:            patch,
				ResultingPayload: payloads[i],
				Diff:             DiffPayloads(entry.Payload, payloads[i]),
				CreatedAt:        s.Now().Unix(),
			}
			if s.Audit != nil {
				if err := s.Audit.Record(ctx, audit); err != nil {
					return result, err
				}
			}
			result.Audits = append(result.Audits, audit)
		}
	}
	return result, nil
}

// applyPatch overlays patch fields onto a copy of payload without
// mutating either input.
func applyPatch(payload, patch map[string]any) map[string]any {
	out := make(map[string]any, len(payload)+len(patch))
	for k, v := range payload {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

var _ ports.ReplayService = (*ReplayService)(nil)
