// Package events defines the concrete DomainEvent payloads published at
// run/step/record boundaries (§6).
package events

import "github.com/flowforge/streamline/internal/ports"

// Event is a simple ports.DomainEvent backed by a map payload.
type Event struct {
	Type    string
	payload map[string]any
}

func (e Event) EventType() string { return e.Type }
func (e Event) Payload() any      { return e.payload }

func newEvent(eventType, pipelineID, runID string, extra map[string]any) Event {
	payload := map[string]any{
		"pipelineId": pipelineID,
		"runId":      runID,
	}
	for k, v := range extra {
		payload[k] = v
	}
	return Event{Type: eventType, payload: payload}
}

// PipelineStarted builds the PIPELINE_STARTED event.
func PipelineStarted(pipelineID, runID string) Event {
	return newEvent(ports.EventPipelineStarted, pipelineID, runID, nil)
}

// PipelineCompleted builds the PIPELINE_COMPLETED event.
func PipelineCompleted(pipelineID, runID string, processed, succeeded, failed int) Event {
	return newEvent(ports.EventPipelineCompleted, pipelineID, runID, map[string]any{
		"processed": processed,
		"succeeded": succeeded,
		"failed":    failed,
	})
}

// PipelineFailed builds the PIPELINE_FAILED event.
func PipelineFailed(pipelineID, runID string, err error) Event {
	return newEvent(ports.EventPipelineFailed, pipelineID, runID, map[string]any{
		"error": err.Error(),
	})
}

// StepCompleted builds the STEP_COMPLETED event.
func StepCompleted(pipelineID, runID, stepKey string, recordsOut int, durationMs int64) Event {
	return newEvent(ports.EventStepCompleted, pipelineID, runID, map[string]any{
		"stepKey":    stepKey,
		"recordsOut": recordsOut,
		"durationMs": durationMs,
	})
}

// StepFailed builds the STEP_FAILED event.
func StepFailed(pipelineID, runID, stepKey string, err error) Event {
	return newEvent(ports.EventStepFailed, pipelineID, runID, map[string]any{
		"stepKey": stepKey,
		"error":   err.Error(),
	})
}

// RecordFailed builds the RECORD_FAILED event.
func RecordFailed(pipelineID, runID, stepKey, message, code string) Event {
	return newEvent(ports.EventRecordFailed, pipelineID, runID, map[string]any{
		"stepKey": stepKey,
		"message": message,
		"code":    code,
	})
}

var _ ports.DomainEvent = Event{}
