// Package transforms implements the Transform Engine's registry and
// chain evaluator, plus the built-in transform functions of §4.2.
package transforms

import (
	"github.com/flowforge/streamline/internal/infrastructure/registry"
	"github.com/flowforge/streamline/internal/ports"
)

// Registry wraps a generic string-keyed registry typed to
// ports.TransformFunc.
type Registry struct {
	gen *registry.Generic[ports.TransformFunc]
}

// NewRegistry builds an empty transform registry.
func NewRegistry() *Registry {
	return &Registry{gen: registry.NewGeneric[ports.TransformFunc]()}
}

func (r *Registry) Register(transformType string, fn ports.TransformFunc) {
	r.gen.Register(transformType, fn)
}

func (r *Registry) Get(transformType string) (ports.TransformFunc, bool) {
	return r.gen.Get(transformType)
}

func (r *Registry) Has(transformType string) bool {
	return r.gen.Has(transformType)
}

func (r *Registry) Types() []string {
	return r.gen.Keys()
}

// NewDefaultRegistry builds a registry with every built-in transform
// registered, as process init would at startup.
func NewDefaultRegistry(lookup ports.EntityLookup) *Registry {
	r := NewRegistry()
	registerStringOps(r)
	registerNumericOps(r)
	registerDateOps(r)
	registerBooleanOps(r)
	registerCoercionOps(r)
	registerRecordOps(r)
	registerLookupOps(r, lookup)
	return r
}

var _ ports.TransformRegistry = (*Registry)(nil)
