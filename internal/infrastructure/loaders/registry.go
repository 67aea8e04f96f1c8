package loaders

import (
	"sync"

	domainloader "github.com/flowforge/streamline/internal/domain/loader"
	"github.com/flowforge/streamline/internal/ports"
)

// Registry is the process-wide map entityType → Spec populated at
// startup, grounded on the teacher's plugin registry pattern.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]domainloader.Spec
}

// NewRegistry builds an empty loader registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]domainloader.Spec)}
}

func (r *Registry) Register(spec domainloader.Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.Metadata.EntityType] = spec
}

func (r *Registry) Get(entityType string) (domainloader.Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[entityType]
	return s, ok
}

func (r *Registry) Has(entityType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.specs[entityType]
	return ok
}

func (r *Registry) GetAll() []domainloader.Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainloader.Spec, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, s)
	}
	return out
}

// GetLoadersByCategory groups registered loaders into human-visible
// categories (Products, Customers, Catalog, Commerce, Inventory, Media,
// Configuration, Other), falling back to Other when a spec leaves
// Metadata.Category unset.
func (r *Registry) GetLoadersByCategory() map[string][]domainloader.Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]domainloader.Spec)
	for _, s := range r.specs {
		cat := s.Metadata.Category
		if cat == "" {
			cat = "Other"
		}
		out[cat] = append(out[cat], s)
	}
	return out
}

var _ ports.LoaderRegistry = (*Registry)(nil)
