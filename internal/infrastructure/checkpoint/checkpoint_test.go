package checkpoint_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domaincheckpoint "github.com/flowforge/streamline/internal/domain/checkpoint"
	"github.com/flowforge/streamline/internal/domain/envelope"
	"github.com/flowforge/streamline/internal/infrastructure/checkpoint"
	"github.com/flowforge/streamline/internal/ports"
)

func TestStore_SaveOverwritesPriorCheckpoint(t *testing.T) {
	store := checkpoint.NewStore()
	ctx := context.Background()

	cp, err := domaincheckpoint.Encode("p1", "extract", domaincheckpoint.Checkpoint{PipelineID: "p1"}, map[string]any{"offset": 1})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, cp))

	next, err := domaincheckpoint.Encode("p1", "extract", cp, map[string]any{"offset": 2})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, next))

	loaded, err := store.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.Sequence)

	require.NoError(t, store.Clear(ctx, "p1"))
	cleared, err := store.Load(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, cleared.Empty())
}

func TestErrorJournal_AppendAndList(t *testing.T) {
	journal := checkpoint.NewErrorJournal()
	ctx := context.Background()

	id, err := journal.Append(ctx, "run-1", envelope.RecordError{StepKey: "load", Message: "boom"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	entries, err := journal.List(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].Message)

	entry, ok, err := journal.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "run-1", entry.RunID)
}

func TestReplayService_AppliesPatchAndRecordsAudit(t *testing.T) {
	journal := checkpoint.NewErrorJournal()
	audit := checkpoint.NewRetryAudit()
	ctx := context.Background()

	id, err := journal.Append(ctx, "run-1", envelope.RecordError{
		StepKey: "load",
		Payload: map[string]any{"sku": "A1", "price": 0},
	})
	require.NoError(t, err)

	svc := checkpoint.NewReplayService(journal, audit, func(_ context.Context, stepKey string, payloads []map[string]any) (int, int, error) {
		assert.Equal(t, "load", stepKey)
		require.Len(t, payloads, 1)
		assert.Equal(t, 10.0, payloads[0]["price"])
		return 1, 0, nil
	})
	svc.Now = func() time.Time { return time.Unix(100, 0) }

	result, err := svc.Replay(ctx, []string{id}, map[string]any{"price": 10.0})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 1, result.Succeeded)
	require.Len(t, result.Audits, 1)
	assert.Equal(t, id, result.Audits[0].ErrorID)
	assert.NotEmpty(t, result.Audits[0].Diff)

	history, err := audit.List(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestReplayService_UnknownErrorID(t *testing.T) {
	journal := checkpoint.NewErrorJournal()
	audit := checkpoint.NewRetryAudit()
	svc := checkpoint.NewReplayService(journal, audit, func(context.Context, string, []map[string]any) (int, int, error) {
		t.Fatal("orchestrate should not be called")
		return 0, 0, nil
	})

	_, err := svc.Replay(context.Background(), []string{"missing"}, nil)
	assert.Error(t, err)
}

var _ ports.ReplayService = (*checkpoint.ReplayService)(nil)
