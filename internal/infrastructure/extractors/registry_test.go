package extractors_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowforge/streamline/internal/domain/envelope"
	"github.com/flowforge/streamline/internal/infrastructure/extractors"
	"github.com/flowforge/streamline/internal/ports"
)

type fakeExtractor struct{}

func (fakeExtractor) Category() string    { return "test" }
func (fakeExtractor) AdapterCode() string { return "fake" }
func (fakeExtractor) ExtractAll(ports.ExtractorContext, map[string]any) (ports.ExtractResult, error) {
	return ports.ExtractResult{Envelopes: []envelope.Envelope{}, Done: true}, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := extractors.NewRegistry()
	_, ok := r.Get("http")
	assert.False(t, ok)

	r.Register("http", fakeExtractor{})
	got, ok := r.Get("http")
	assert.True(t, ok)

	batch, ok := got.(ports.BatchExtractor)
	assert.True(t, ok)
	result, err := batch.ExtractAll(ports.ExtractorContext{Context: context.Background()}, nil)
	assert.NoError(t, err)
	assert.True(t, result.Done)
}
