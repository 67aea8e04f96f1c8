package configsync_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/flowforge/streamline/internal/domain/pipeline"
	"github.com/flowforge/streamline/internal/infrastructure/configsync"
	"github.com/flowforge/streamline/internal/ports"
)

func TestSubstituteEnv_ReplacesNestedPlaceholders(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5432")

	input := map[string]any{
		"host": "${DB_HOST}",
		"nested": map[string]any{
			"port": "${DB_PORT}",
		},
		"tags": []any{"${DB_HOST}"},
	}

	resolved, err := configsync.SubstituteEnv(input)
	require.NoError(t, err)

	out := resolved.(map[string]any)
	assert.Equal(t, "db.internal", out["host"])
	assert.Equal(t, "db.internal", out["tags"].([]any)[0])
	assert.Equal(t, "5432", out["nested"].(map[string]any)["port"])
}

func TestSubstituteEnv_MissingVariableErrors(t *testing.T) {
	_, err := configsync.SubstituteEnv("${DEFINITELY_NOT_SET_VAR}")
	assert.Error(t, err)
}

func TestEnvSecretResolver_ResolvesFromEnvironment(t *testing.T) {
	t.Setenv("API_KEY", "secret-value")
	resolver := configsync.EnvSecretResolver{Lookup: map[string]string{"api-key": "API_KEY"}}

	value, err := resolver.Resolve(context.Background(), "api-key")
	require.NoError(t, err)
	assert.Equal(t, "secret-value", value)

	_, err = resolver.Resolve(context.Background(), "unknown")
	assert.Error(t, err)
}

func TestFileLoader_LoadsYAMLPipelines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipelines.yaml")
	content := `
pipelines:
  - id: p1
    code: widgets
    name: Widgets
    enabled: true
    status: PUBLISHED
    steps:
      - key: extract
        type: EXTRACT
        adapterCode: fixture
secrets:
  - code: api-key
    provider: env
    value: API_KEY
connections:
  - code: db
    type: postgres
    settings:
      host: "${DB_HOST}"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loader := configsync.NewFileLoader(nil)
	source, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, source.Pipelines, 1)
	assert.Equal(t, "widgets", source.Pipelines[0].Code)
	require.Len(t, source.Secrets, 1)
	assert.Equal(t, "api-key", source.Secrets[0].Code)
	require.Len(t, source.Connections, 1)
	assert.Equal(t, "db", source.Connections[0].Code)
}

type memoryStore struct {
	pipelines   map[string]domain.Definition
	secrets     []ports.SecretDefinition
	connections []ports.ConnectionDefinition
}

func newMemoryStore() *memoryStore {
	return &memoryStore{pipelines: make(map[string]domain.Definition)}
}

func (m *memoryStore) UpsertPipeline(_ context.Context, def domain.Definition) error {
	m.pipelines[def.Code] = def
	return nil
}

func (m *memoryStore) UpsertSecret(_ context.Context, s ports.SecretDefinition) error {
	m.secrets = append(m.secrets, s)
	return nil
}

func (m *memoryStore) UpsertConnection(_ context.Context, c ports.ConnectionDefinition) error {
	m.connections = append(m.connections, c)
	return nil
}

func (m *memoryStore) GetPipeline(_ context.Context, code string) (domain.Definition, bool, error) {
	def, ok := m.pipelines[code]
	return def, ok, nil
}

func (m *memoryStore) ListPipelines(_ context.Context) ([]domain.Definition, error) {
	out := make([]domain.Definition, 0, len(m.pipelines))
	for _, def := range m.pipelines {
		out = append(out, def)
	}
	return out, nil
}

func TestSyncer_InlineOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipelines.yaml")
	content := `
pipelines:
  - id: p1
    code: widgets
    name: Widgets (file)
    enabled: false
    status: DRAFT
    steps:
      - key: extract
        type: EXTRACT
        adapterCode: fixture
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loader := configsync.NewFileLoader(nil)
	store := newMemoryStore()
	syncer := configsync.NewSyncer(loader, store, nil)

	inline := ports.ConfigSource{
		Pipelines: []domain.Definition{
			{Code: "widgets", Enabled: true, Status: domain.StatusPublished},
		},
	}

	merged, err := syncer.Sync(context.Background(), inline, path)
	require.NoError(t, err)
	require.Len(t, merged.Pipelines, 1)

	got := merged.Pipelines[0]
	assert.Equal(t, "widgets", got.Code)
	assert.Equal(t, "Widgets (file)", got.Name, "inline left Name zero, file value should survive")
	assert.True(t, got.Enabled, "inline set Enabled=true, should win over file's false")
	assert.Equal(t, domain.StatusPublished, got.Status)

	stored, ok, err := store.GetPipeline(context.Background(), "widgets")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, stored.Enabled)
}
