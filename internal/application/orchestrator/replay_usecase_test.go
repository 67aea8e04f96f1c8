package orchestrator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/streamline/internal/application/orchestrator"
	"github.com/flowforge/streamline/internal/ports"
)

type stubReplayService struct {
	result ports.RetryResult
	err    error
}

func (s stubReplayService) Replay(context.Context, []string, map[string]any) (ports.RetryResult, error) {
	return s.result, s.err
}

func TestReplayUseCase_Retry(t *testing.T) {
	replay := stubReplayService{result: ports.RetryResult{Attempted: 2, Succeeded: 2}}
	uc := orchestrator.NewReplayUseCase(replay, nil, nil)

	result, err := uc.Retry(context.Background(), []string{"e1", "e2"}, map[string]any{"sku": "X-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempted)
}

func TestReplayUseCase_PublishesFailureEvent(t *testing.T) {
	replay := stubReplayService{err: assertErr{}}
	events := &recordingPublisher{}
	uc := orchestrator.NewReplayUseCase(replay, nil, events)

	_, err := uc.Retry(context.Background(), []string{"e1"}, nil)
	assert.Error(t, err)
	assert.Contains(t, events.events, ports.EventStepFailed)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
