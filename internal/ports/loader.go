package ports

import (
	"context"

	"github.com/flowforge/streamline/internal/domain/envelope"
	domainloader "github.com/flowforge/streamline/internal/domain/loader"
)

// LoaderEngine runs one batch of envelopes through a loader spec,
// generalizing the BaseEntityLoader-per-entity-type hierarchy into one
// shared function parameterized by data.
type LoaderEngine interface {
	Run(ctx context.Context, spec domainloader.Spec, batch []envelope.Envelope, opts domainloader.Options) (domainloader.Result, error)
}

// LoaderRegistry is the process-wide map entityType → Spec populated at
// startup.
type LoaderRegistry interface {
	Register(spec domainloader.Spec)
	Get(entityType string) (domainloader.Spec, bool)
	Has(entityType string) bool
	GetAll() []domainloader.Spec
	// GetLoadersByCategory groups registered loaders into human-visible
	// categories (Products, Customers, Catalog, Commerce, Inventory,
	// Media, Configuration, Other).
	GetLoadersByCategory() map[string][]domainloader.Spec
}

// EntityService is the abstract capability the loaders depend on instead
// of a concrete domain entity implementation (§1 Non-goals): a narrow
// key/value store keyed by entity type, queryable by field equality.
type EntityService interface {
	FindOne(ctx context.Context, entityType, field string, value any) (map[string]any, bool, error)
	FindAll(ctx context.Context, entityType, field string, value any) ([]map[string]any, error)
	Create(ctx context.Context, entityType string, fields map[string]any) (id string, err error)
	Update(ctx context.Context, entityType, id string, fields map[string]any) error
	Delete(ctx context.Context, entityType, id string) error
	Get(ctx context.Context, entityType, id string) (map[string]any, bool, error)
}
