package orchestrator

import (
	"context"

	"github.com/flowforge/streamline/internal/ports"
)

type domainEvent struct {
	eventType string
	payload   any
}

func (e domainEvent) EventType() string { return e.eventType }
func (e domainEvent) Payload() any      { return e.payload }

func publishEvent(ctx context.Context, publisher ports.EventPublisher, logger ports.Logger, eventType string, payload map[string]any) {
	if publisher == nil {
		return
	}
	event := domainEvent{eventType: eventType, payload: payload}
	if err := publisher.Publish(ctx, event); err != nil && logger != nil {
		logger.Warn(ctx, "failed to publish domain event", "event_type", eventType, "error", err.Error())
	}
}
