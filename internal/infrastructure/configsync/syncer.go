package configsync

import (
	"context"

	"dario.cat/mergo"

	domain "github.com/flowforge/streamline/internal/domain/pipeline"
	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/pipelineerr"
)

// Syncer implements ports.ConfigSyncer: it loads filePath, merges inline
// on top field by field (inline wins on any field it sets), and upserts
// every pipeline/secret/connection in the merged result into the store.
type Syncer struct {
	Loader ports.ConfigLoader
	Store  ports.PipelineStore
	Logger ports.Logger
}

// NewSyncer wires a config syncer from its collaborating ports.
func NewSyncer(loader ports.ConfigLoader, store ports.PipelineStore, logger ports.Logger) *Syncer {
	return &Syncer{Loader: loader, Store: store, Logger: logger}
}

func (s *Syncer) Sync(ctx context.Context, inline ports.ConfigSource, filePath string) (ports.ConfigSource, error) {
	file, err := s.Loader.Load(ctx, filePath)
	if err != nil {
		return ports.ConfigSource{}, err
	}

	merged, err := mergeSources(file, inline)
	if err != nil {
		return ports.ConfigSource{}, err
	}

	for _, def := range merged.Pipelines {
		if err := s.Store.UpsertPipeline(ctx, def); err != nil {
			return ports.ConfigSource{}, err
		}
		if s.Logger != nil {
			s.Logger.Info(ctx, "pipeline synced", "code", def.Code, "version", def.Version)
		}
	}
	for _, sec := range merged.Secrets {
		if err := s.Store.UpsertSecret(ctx, sec); err != nil {
			return ports.ConfigSource{}, err
		}
	}
	for _, conn := range merged.Connections {
		if err := s.Store.UpsertConnection(ctx, conn); err != nil {
			return ports.ConfigSource{}, err
		}
	}
	return merged, nil
}

// mergeSources overlays inline's pipelines/secrets/connections onto
// file's by code, so any field inline sets wins over the file-loaded
// value while fields inline leaves zero fall back to the file's, rather
// than inline always replacing a whole record wholesale. Pipelines and
// secrets are merged with mergo.Merge and WithOverride; connections are
// merged field by field by hand, with settings overlaid key by key.
func mergeSources(file, inline ports.ConfigSource) (ports.ConfigSource, error) {
	pipelines, err := mergePipelines(file.Pipelines, inline.Pipelines)
	if err != nil {
		return ports.ConfigSource{}, err
	}
	secrets, err := mergeSecrets(file.Secrets, inline.Secrets)
	if err != nil {
		return ports.ConfigSource{}, err
	}
	connections, err := mergeConnections(file.Connections, inline.Connections)
	if err != nil {
		return ports.ConfigSource{}, err
	}
	return ports.ConfigSource{Pipelines: pipelines, Secrets: secrets, Connections: connections}, nil
}

func mergePipelines(base, overrides []domain.Definition) ([]domain.Definition, error) {
	byCode := make(map[string]domain.Definition, len(base))
	order := make([]string, 0, len(base))
	for _, def := range base {
		byCode[def.Code] = def
		order = append(order, def.Code)
	}
	for _, override := range overrides {
		existing, ok := byCode[override.Code]
		if !ok {
			byCode[override.Code] = override
			order = append(order, override.Code)
			continue
		}
		if err := mergo.Merge(&existing, override, mergo.WithOverride); err != nil {
			return nil, pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "merging inline pipeline override for "+override.Code)
		}
		byCode[override.Code] = existing
	}
	out := make([]domain.Definition, 0, len(order))
	for _, code := range order {
		out = append(out, byCode[code])
	}
	return out, nil
}

func mergeSecrets(base, overrides []ports.SecretDefinition) ([]ports.SecretDefinition, error) {
	byCode := make(map[string]ports.SecretDefinition, len(base))
	order := make([]string, 0, len(base))
	for _, s := range base {
		byCode[s.Code] = s
		order = append(order, s.Code)
	}
	for _, override := range overrides {
		existing, ok := byCode[override.Code]
		if !ok {
			byCode[override.Code] = override
			order = append(order, override.Code)
			continue
		}
		if err := mergo.Merge(&existing, override, mergo.WithOverride); err != nil {
			return nil, pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "merging inline secret override for "+override.Code)
		}
		byCode[override.Code] = existing
	}
	out := make([]ports.SecretDefinition, 0, len(order))
	for _, code := range order {
		out = append(out, byCode[code])
	}
	return out, nil
}

func mergeConnections(base, overrides []ports.ConnectionDefinition) ([]ports.ConnectionDefinition, error) {
	byCode := make(map[string]ports.ConnectionDefinition, len(base))
	order := make([]string, 0, len(base))
	for _, c := range base {
		byCode[c.Code] = c
		order = append(order, c.Code)
	}
	for _, override := range overrides {
		existing, ok := byCode[override.Code]
		if !ok {
			byCode[override.Code] = override
			order = append(order, override.Code)
			continue
		}
		if override.Settings != nil {
			merged := make(map[string]any, len(existing.Settings)+len(override.Settings))
			for k, v := range existing.Settings {
				merged[k] = v
			}
			for k, v := range override.Settings {
				merged[k] = v
			}
			existing.Settings = merged
		}
		if override.Type != "" {
			existing.Type = override.Type
		}
		byCode[override.Code] = existing
	}
	out := make([]ports.ConnectionDefinition, 0, len(order))
	for _, code := range order {
		out = append(out, byCode[code])
	}
	return out, nil
}

var _ ports.ConfigSyncer = (*Syncer)(nil)
