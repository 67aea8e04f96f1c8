package entitystore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/streamline/internal/infrastructure/entitystore"
)

func TestCreateAndFindOne(t *testing.T) {
	s := entitystore.New()
	ctx := context.Background()

	id, err := s.Create(ctx, "product", map[string]any{"sku": "X-1", "name": "Widget"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	found, ok, err := s.FindOne(ctx, "product", "sku", "X-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Widget", found["name"])

	_, ok, err = s.FindOne(ctx, "product", "sku", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateAndDelete(t *testing.T) {
	s := entitystore.New()
	ctx := context.Background()

	id, err := s.Create(ctx, "product", map[string]any{"sku": "X-1", "name": "Widget"})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "product", id, map[string]any{"name": "Widget Pro"}))
	got, ok, err := s.Get(ctx, "product", id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Widget Pro", got["name"])

	require.NoError(t, s.Delete(ctx, "product", id))
	_, ok, err = s.Get(ctx, "product", id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindAllContainsSuffix(t *testing.T) {
	s := entitystore.New()
	ctx := context.Background()

	_, err := s.Create(ctx, "asset", map[string]any{"filename": "hero-banner.png"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "asset", map[string]any{"filename": "logo.svg"})
	require.NoError(t, err)

	matches, err := s.FindAll(ctx, "asset", "filenameContains", "banner")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "hero-banner.png", matches[0]["filename"])
}

func TestLookup(t *testing.T) {
	s := entitystore.New()
	ctx := context.Background()

	_, err := s.Create(ctx, "zone", map[string]any{"code": "US-CA", "name": "California"})
	require.NoError(t, err)

	name, err := s.Lookup(ctx, "zone", "code", "US-CA", "name")
	require.NoError(t, err)
	assert.Equal(t, "California", name)

	miss, err := s.Lookup(ctx, "zone", "code", "US-NY", "name")
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestUpdateUnknownIDErrors(t *testing.T) {
	s := entitystore.New()
	err := s.Update(context.Background(), "product", "no-such-id", map[string]any{"name": "x"})
	assert.Error(t, err)
}
