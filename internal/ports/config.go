package ports

import (
	"context"

	pipeline "github.com/flowforge/streamline/internal/domain/pipeline"
)

// ConfigSource is the code-first config file shape (§4.6/§6): pipelines,
// secrets, and connections, merged idempotently into the store on
// startup.
type ConfigSource struct {
	Pipelines   []pipeline.Definition
	Secrets     []SecretDefinition
	Connections []ConnectionDefinition
}

// SecretDefinition names a secret and how to resolve its value.
type SecretDefinition struct {
	Code     string            `yaml:"code"`
	Provider string            `yaml:"provider"` // inline|env
	Value    string            `yaml:"value"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// ConnectionDefinition names a connection whose Settings may contain
// ${VAR} placeholders resolved from the environment.
type ConnectionDefinition struct {
	Code     string         `yaml:"code"`
	Type     string         `yaml:"type"`
	Settings map[string]any `yaml:"settings"`
}

// ConfigLoader loads a code-first config file (YAML or JSON) from the
// filesystem and parses it into a ConfigSource without resolving secrets
// or merging with inline options — that's ConfigSyncer's job.
type ConfigLoader interface {
	Load(ctx context.Context, path string) (ConfigSource, error)
	// Validate performs a lightweight syntactic + schema check without
	// building the full ConfigSource, for `streamline validate`.
	Validate(ctx context.Context, path string) error
}

// ConfigSyncer merges inline options over a file-loaded ConfigSource and
// upserts the result into the pipeline store.
type ConfigSyncer interface {
	Sync(ctx context.Context, inline ConfigSource, filePath string) (ConfigSource, error)
}

// PipelineStore is the opaque store pipelines/secrets/connections are
// upserted into; persistence of pipeline metadata itself is out of scope
// (§1), so this is deliberately the narrowest possible contract.
type PipelineStore interface {
	UpsertPipeline(ctx context.Context, def pipeline.Definition) error
	UpsertSecret(ctx context.Context, s SecretDefinition) error
	UpsertConnection(ctx context.Context, c ConnectionDefinition) error
	GetPipeline(ctx context.Context, code string) (pipeline.Definition, bool, error)
	// ListPipelines returns every upserted pipeline, used to resolve a
	// journaled error's stepKey back to its owning pipeline for replay.
	ListPipelines(ctx context.Context) ([]pipeline.Definition, error)
}
