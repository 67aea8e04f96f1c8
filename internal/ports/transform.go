package ports

import (
	"context"

	domaintransform "github.com/flowforge/streamline/internal/domain/transform"
)

// TransformFunc is the capability trait every registered transform
// implements: a pure (or, for LOOKUP, async) function from a value plus
// optional whole-record context to an output value.
type TransformFunc func(ctx context.Context, value any, cfg map[string]any, record map[string]any) (any, error)

// TransformRegistry is the process-wide, string-keyed, read-only-after-
// init mapping of transform type to implementation.
type TransformRegistry interface {
	Register(transformType string, fn TransformFunc)
	Get(transformType string) (TransformFunc, bool)
	Has(transformType string) bool
	Types() []string
}

// TransformExecutor evaluates a whole chain over one field value.
type TransformExecutor interface {
	Execute(ctx context.Context, value any, chain domaintransform.Chain, record map[string]any) (any, error)
}

// EntityLookup is the narrow capability the LOOKUP transform needs: find
// the first entity of entityType where fromField == value and return
// toField, or nil on miss.
type EntityLookup interface {
	Lookup(ctx context.Context, entityType, fromField string, value any, toField string) (any, error)
}
