package ports

import (
	"context"

	"github.com/google/uuid"
)

// Logger is the structured logging contract every other layer depends on
// instead of importing zerolog directly. All log calls are key/value
// pairs and must be safe for concurrent use. Common fields: run_id,
// pipeline_id, step_key, layer (domain|application|infrastructure),
// duration_ms for timed operations.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...any)
	Info(ctx context.Context, msg string, fields ...any)
	Warn(ctx context.Context, msg string, fields ...any)
	Error(ctx context.Context, msg string, fields ...any)
	With(fields ...any) Logger
}

type correlationIDKey struct{}

// WithCorrelationID attaches a run/correlation id to the context so
// downstream layers can emit correlated logs without threading it as an
// explicit parameter everywhere.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID extracts a correlation ID from context, or "" if none
// was set.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GenerateCorrelationID produces a new run/correlation id. CLI entry
// points call this once per invocation unless a run id was supplied
// explicitly (e.g. resume).
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// StepLogger is the narrower set of logger callbacks exposed to step
// implementations (pipeline external interfaces): onStepStart/Complete/
// Failed plus three sample-carrying callbacks, throttled per the run's
// configured log persistence level.
type StepLogger interface {
	OnStepStart(ctx context.Context, stepKey, stepType string, recordsIn int)
	OnStepComplete(ctx context.Context, stepKey string, recordsOut int, durationMs int64)
	OnStepFailed(ctx context.Context, stepKey string, err error)
	OnExtractData(ctx context.Context, stepKey string, sample any)
	OnLoadData(ctx context.Context, stepKey string, sample any)
	OnTransformMapping(ctx context.Context, stepKey, field string, before, after any)
}
