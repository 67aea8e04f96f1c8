package git_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gitext "github.com/flowforge/streamline/internal/infrastructure/extractors/git"
	"github.com/flowforge/streamline/internal/ports"
)

func initGitRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "products.json"), []byte(`[{"sku":"X-1"}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not data"), 0o644))
	_, err = wt.Add(".")
	require.NoError(t, err)

	_, err = wt.Commit("seed", &gogit.CommitOptions{
		Author: &object.Signature{Name: "streamline", Email: "streamline@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir
}

func TestExtractAll_ClonesAndMatchesPattern(t *testing.T) {
	source := initGitRepo(t)

	ext := gitext.New()
	result, err := ext.ExtractAll(ports.ExtractorContext{Context: context.Background()}, map[string]any{
		"url":         source,
		"pathPrefix":  "data",
		"filePattern": "*.json",
	})
	require.NoError(t, err)
	require.Len(t, result.Envelopes, 1)
	assert.Equal(t, "data/products.json", result.Envelopes[0].Data["path"])
	assert.Contains(t, result.Envelopes[0].Data["content"], "X-1")
}

func TestExtractAll_ReusesCachedWorkDir(t *testing.T) {
	source := initGitRepo(t)
	workDir := t.TempDir()

	ext := gitext.New()
	cfg := map[string]any{"url": source, "workDir": workDir}

	_, err := ext.ExtractAll(ports.ExtractorContext{Context: context.Background()}, cfg)
	require.NoError(t, err)

	result, err := ext.ExtractAll(ports.ExtractorContext{Context: context.Background()}, cfg)
	require.NoError(t, err)
	assert.Len(t, result.Envelopes, 2)
}

func TestGetSchema_IncludesURL(t *testing.T) {
	ext := gitext.New()
	schema := ext.GetSchema()
	assert.Contains(t, schema, "url")
}
