package extractors

import (
	"github.com/flowforge/streamline/internal/infrastructure/registry"
	"github.com/flowforge/streamline/internal/ports"
)

// Registry wraps a generic string-keyed registry typed to ports.Extractor,
// mirroring transforms.Registry/loaders.Registry.
type Registry struct {
	gen *registry.Generic[ports.Extractor]
}

// NewRegistry builds an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{gen: registry.NewGeneric[ports.Extractor]()}
}

func (r *Registry) Register(adapterCode string, ext ports.Extractor) {
	r.gen.Register(adapterCode, ext)
}

func (r *Registry) Get(adapterCode string) (ports.Extractor, bool) {
	return r.gen.Get(adapterCode)
}

var _ ports.ExtractorRegistry = (*Registry)(nil)
