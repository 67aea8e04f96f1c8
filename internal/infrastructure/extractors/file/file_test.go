package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/streamline/internal/infrastructure/extractors/file"
	"github.com/flowforge/streamline/internal/ports"
)

func TestExtractAll_CSVWithHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte("sku,name\nX-1,Hat\nX-2,Coat\n"), 0o644))

	ext := file.New()
	result, err := ext.ExtractAll(ports.ExtractorContext{Context: context.Background()}, map[string]any{"path": path})
	require.NoError(t, err)
	require.Len(t, result.Envelopes, 2)
	assert.Equal(t, "X-1", result.Envelopes[0].Data["sku"])
	assert.Equal(t, "Coat", result.Envelopes[1].Data["name"])
}

func TestExtractAll_JSONArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"sku":"X-1"},{"sku":"X-2"}]`), 0o644))

	ext := file.New()
	result, err := ext.ExtractAll(ports.ExtractorContext{Context: context.Background()}, map[string]any{"path": path})
	require.NoError(t, err)
	require.Len(t, result.Envelopes, 2)
	assert.Equal(t, "X-2", result.Envelopes[1].Data["sku"])
}

func TestExtractAll_NDJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.ndjson")
	require.NoError(t, os.WriteFile(path, []byte("{\"sku\":\"X-1\"}\n{\"sku\":\"X-2\"}\n"), 0o644))

	ext := file.New()
	result, err := ext.ExtractAll(ports.ExtractorContext{Context: context.Background()}, map[string]any{"path": path})
	require.NoError(t, err)
	require.Len(t, result.Envelopes, 2)
}

func TestExtractAll_MissingFile(t *testing.T) {
	ext := file.New()
	_, err := ext.ExtractAll(ports.ExtractorContext{Context: context.Background()}, map[string]any{"path": "/no/such/file.csv"})
	assert.Error(t, err)
}

func TestValidate_RequiresPath(t *testing.T) {
	ext := file.New()
	assert.Error(t, ext.Validate(map[string]any{}))
	assert.NoError(t, ext.Validate(map[string]any{"path": "x.csv"}))
}
