package configsync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/streamline/internal/application/configsync"
	domain "github.com/flowforge/streamline/internal/domain/pipeline"
	"github.com/flowforge/streamline/internal/ports"
)

type stubSyncer struct {
	result ports.ConfigSource
	err    error
}

func (s stubSyncer) Sync(context.Context, ports.ConfigSource, string) (ports.ConfigSource, error) {
	return s.result, s.err
}

type stubLoader struct {
	validateErr error
}

func (s stubLoader) Load(context.Context, string) (ports.ConfigSource, error) {
	return ports.ConfigSource{}, nil
}
func (s stubLoader) Validate(context.Context, string) error { return s.validateErr }

func TestSyncUseCase_Sync(t *testing.T) {
	syncer := stubSyncer{result: ports.ConfigSource{Pipelines: []domain.Definition{{Code: "widgets"}}}}
	uc := configsync.NewSyncUseCase(syncer, stubLoader{}, nil)

	out, err := uc.Sync(context.Background(), ports.ConfigSource{}, "pipelines.yaml")
	require.NoError(t, err)
	require.Len(t, out.Pipelines, 1)
	assert.Equal(t, "widgets", out.Pipelines[0].Code)
}

func TestSyncUseCase_Validate(t *testing.T) {
	uc := configsync.NewSyncUseCase(stubSyncer{}, stubLoader{}, nil)
	assert.NoError(t, uc.Validate(context.Background(), "pipelines.yaml"))

	uc2 := configsync.NewSyncUseCase(stubSyncer{}, stubLoader{validateErr: assertErr{}}, nil)
	assert.Error(t, uc2.Validate(context.Background(), "pipelines.yaml"))
}

type assertErr struct{}

func (assertErr) Error() string { return "invalid" }
