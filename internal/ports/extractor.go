package ports

import (
	"context"
	"time"

	"github.com/flowforge/streamline/internal/domain/checkpoint"
	"github.com/flowforge/streamline/internal/domain/envelope"
)

// PaginationStrategy names how an extractor paginates a remote source.
type PaginationStrategy string

const (
	PaginationNone       PaginationStrategy = "none"
	PaginationOffset     PaginationStrategy = "offset"
	PaginationCursor     PaginationStrategy = "cursor"
	PaginationPage       PaginationStrategy = "page"
	PaginationLinkHeader PaginationStrategy = "link-header"
)

// PaginationConfig declares pagination parameter names and a dataPath
// selecting the array within a response. MaxPages is mandatory for
// safety.
type PaginationConfig struct {
	Strategy    PaginationStrategy `json:"strategy,omitempty" yaml:"strategy"`
	ParamName   string             `json:"paramName,omitempty" yaml:"paramName,omitempty"`
	CursorField string             `json:"cursorField,omitempty" yaml:"cursorField,omitempty"`
	DataPath    string             `json:"dataPath,omitempty" yaml:"dataPath"`
	PageSize    int                `json:"pageSize,omitempty" yaml:"pageSize,omitempty"`
	MaxPages    int                `json:"maxPages,omitempty" yaml:"maxPages" validate:"required,min=1"`
}

// RetryConfig is the declarative retry policy applied at the HTTP layer.
type RetryConfig struct {
	MaxAttempts          int     `json:"maxAttempts,omitempty" yaml:"maxAttempts"`
	InitialDelayMs       int     `json:"initialDelayMs,omitempty" yaml:"initialDelayMs"`
	MaxDelayMs           int     `json:"maxDelayMs,omitempty" yaml:"maxDelayMs"`
	BackoffMultiplier    float64 `json:"backoffMultiplier,omitempty" yaml:"backoffMultiplier"`
	RetryableStatusCodes []int   `json:"retryableStatusCodes,omitempty" yaml:"retryableStatusCodes,omitempty"`
}

// RateLimitConfig throttles outgoing extractor requests.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requestsPerSecond,omitempty" yaml:"requestsPerSecond"`
	MaxConcurrent     int     `json:"maxConcurrent,omitempty" yaml:"maxConcurrent"`
	BatchDelayMs      int     `json:"batchDelayMs,omitempty" yaml:"batchDelayMs"`
}

// ExtractorContext is the narrow context extractors receive: no access
// to the full run, just what they need.
type ExtractorContext struct {
	Context       context.Context
	RequestToken  string
	PipelineID    string
	RunID         string
	StepKey       string
	Checkpoint    checkpoint.Checkpoint
	SetCheckpoint func(checkpoint.Checkpoint) error
	Logger        Logger
	IsCancelled   func() bool
	Secrets       SecretResolver
	Connections   ConnectionResolver
	Timeout       time.Duration
}

// ExtractResult is what a batch extractor returns in one shot.
type ExtractResult struct {
	Envelopes []envelope.Envelope
	Done      bool
}

// Extractor is the base capability every extractor adapter implements.
// Streaming extractors additionally implement StreamingExtractor; batch
// extractors implement BatchExtractor. Optional capabilities (Validatable,
// SchemaProvider, ConnectionTester, Previewer) are checked via type
// assertion, the way the teacher's plugin interface layers optional
// behaviours on top of a minimal base interface.
type Extractor interface {
	Category() string
	AdapterCode() string
}

// StreamingExtractor produces a lazy sequence of envelopes via a
// callback-driven pull: Next returns one batch at a time until done.
type StreamingExtractor interface {
	Extractor
	Next(ectx ExtractorContext, cfg map[string]any) (ExtractResult, error)
}

// BatchExtractor produces its entire result in one call.
type BatchExtractor interface {
	Extractor
	ExtractAll(ectx ExtractorContext, cfg map[string]any) (ExtractResult, error)
}

// Validatable is an optional capability: extractors that can check their
// own config before a run starts.
type Validatable interface {
	Validate(cfg map[string]any) error
}

// SchemaProvider is an optional capability describing the adapter's
// config fields for editor/CLI tooling.
type SchemaProvider interface {
	GetSchema() map[string]any
}

// ConnectionTester is an optional capability: extractors that can probe
// connectivity without extracting data.
type ConnectionTester interface {
	TestConnection(ectx ExtractorContext, cfg map[string]any) error
}

// Previewer is an optional capability: extractors that can return a
// small sample without committing to a full run.
type Previewer interface {
	Preview(ectx ExtractorContext, cfg map[string]any, limit int) ([]envelope.Envelope, error)
}

// ExtractorRegistry is the process-wide string-keyed registry of
// extractor adapters, mirroring TransformRegistry/LoaderRegistry.
type ExtractorRegistry interface {
	Register(adapterCode string, ext Extractor)
	Get(adapterCode string) (Extractor, bool)
}
