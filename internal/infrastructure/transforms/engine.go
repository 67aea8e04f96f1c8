package transforms

import (
	"context"

	domaintransform "github.com/flowforge/streamline/internal/domain/transform"
	"github.com/flowforge/streamline/internal/ports"
)

// Engine evaluates a transform chain over a field value. Each step
// applies independently; a step that errors does not abort the chain —
// its error is logged and the current value propagates. This is a
// deliberate choice (§4.2/§7): resilience over strictness. Validation at
// the loader catches the resulting out-of-spec record.
type Engine struct {
	registry ports.TransformRegistry
	logger   ports.Logger
}

// NewEngine builds a chain evaluator backed by registry. logger may be
// nil, in which case swallowed errors are simply dropped.
func NewEngine(registry ports.TransformRegistry, logger ports.Logger) *Engine {
	return &Engine{registry: registry, logger: logger}
}

// Execute implements ports.TransformExecutor.
func (e *Engine) Execute(ctx context.Context, value any, chain domaintransform.Chain, record map[string]any) (any, error) {
	current := value
	for _, step := range chain {
		fn, ok := e.registry.Get(step.Type)
		if !ok {
			e.warn(ctx, step.Type, errUnknownTransform(step.Type))
			continue
		}
		out, err := fn(ctx, current, step.Config, record)
		if err != nil {
			e.warn(ctx, step.Type, err)
			continue
		}
		current = out
	}
	return current, nil
}

func (e *Engine) warn(ctx context.Context, transformType string, err error) {
	if e.logger == nil {
		return
	}
	e.logger.Warn(ctx, "transform step failed, propagating prior value", "transform_type", transformType, "error", err.Error())
}

type unknownTransformError string

func (e unknownTransformError) Error() string { return "unknown transform type: " + string(e) }

func errUnknownTransform(transformType string) error {
	return unknownTransformError(transformType)
}

var _ ports.TransformExecutor = (*Engine)(nil)
