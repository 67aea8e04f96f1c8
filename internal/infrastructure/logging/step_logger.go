package logging

import (
	"context"

	"github.com/flowforge/streamline/internal/ports"
)

// StepLogger implements ports.StepLogger, throttling the sample-carrying
// callbacks (OnExtractData/OnLoadData/OnTransformMapping) against the
// run's configured log persistence level.
type StepLogger struct {
	base  ports.Logger
	level string // ERROR_ONLY|PIPELINE|STEP|DEBUG
}

// NewStepLogger wraps base with level-gated sample logging.
func NewStepLogger(base ports.Logger, level string) *StepLogger {
	if level == "" {
		level = "STEP"
	}
	return &StepLogger{base: base, level: level}
}

func (s *StepLogger) samplesEnabled() bool {
	return s.level == "STEP" || s.level == "DEBUG"
}

func (s *StepLogger) OnStepStart(ctx context.Context, stepKey, stepType string, recordsIn int) {
	s.base.Info(ctx, "step started", "step_key", stepKey, "step_type", stepType, "records_in", recordsIn)
}

func (s *StepLogger) OnStepComplete(ctx context.Context, stepKey string, recordsOut int, durationMs int64) {
	s.base.Info(ctx, "step completed", "step_key", stepKey, "records_out", recordsOut, "duration_ms", durationMs)
}

func (s *StepLogger) OnStepFailed(ctx context.Context, stepKey string, err error) {
	s.base.Error(ctx, "step failed", "step_key", stepKey, "error", err.Error())
}

func (s *StepLogger) OnExtractData(ctx context.Context, stepKey string, sample any) {
	if !s.samplesEnabled() {
		return
	}
	s.base.Debug(ctx, "extract sample", "step_key", stepKey, "sample", sample)
}

func (s *StepLogger) OnLoadData(ctx context.Context, stepKey string, sample any) {
	if !s.samplesEnabled() {
		return
	}
	s.base.Debug(ctx, "load sample", "step_key", stepKey, "sample", sample)
}

func (s *StepLogger) OnTransformMapping(ctx context.Context, stepKey, field string, before, after any) {
	if s.level != "DEBUG" {
		return
	}
	s.base.Debug(ctx, "transform mapping", "step_key", stepKey, "field", field, "before", before, "after", after)
}

var _ ports.StepLogger = (*StepLogger)(nil)
