package configsync

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	domain "github.com/flowforge/streamline/internal/domain/pipeline"
	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/pipelineerr"
)

// fileSource is the on-disk shape of one code-first config file: plain
// YAML/JSON, unmarshaled directly into pipeline.Definition since its
// struct tags already carry both json and yaml field names.
type fileSource struct {
	Pipelines   []domain.Definition          `json:"pipelines" yaml:"pipelines"`
	Secrets     []ports.SecretDefinition     `json:"secrets" yaml:"secrets"`
	Connections []ports.ConnectionDefinition `json:"connections" yaml:"connections"`
}

// FileLoader implements ports.ConfigLoader by reading a YAML or JSON
// config file from disk, the way the teacher's YAMLLoader reads its
// declarative pipeline file, generalized to this runtime's three
// top-level collections instead of one step list.
type FileLoader struct {
	Logger ports.Logger
}

// NewFileLoader builds a config file loader.
func NewFileLoader(logger ports.Logger) *FileLoader {
	return &FileLoader{Logger: logger}
}

func (l *FileLoader) Load(ctx context.Context, path string) (ports.ConfigSource, error) {
	if err := ctx.Err(); err != nil {
		return ports.ConfigSource{}, pipelineerr.Wrap(pipelineerr.Infrastructure, err, "load cancelled")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ports.ConfigSource{}, pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "config file not found: "+path)
		}
		return ports.ConfigSource{}, pipelineerr.Wrap(pipelineerr.Infrastructure, err, "reading config file")
	}

	var raw fileSource
	if err := unmarshal(path, data, &raw); err != nil {
		if l.Logger != nil {
			l.Logger.Error(ctx, "failed to parse config file", "path", path, "error", err.Error())
		}
		return ports.ConfigSource{}, pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "parsing config file "+path)
	}

	source := ports.ConfigSource{
		Pipelines:   raw.Pipelines,
		Secrets:     raw.Secrets,
		Connections: raw.Connections,
	}
	for _, def := range source.Pipelines {
		if err := domain.ValidateStructure(def); err != nil {
			return ports.ConfigSource{}, err
		}
	}

	if l.Logger != nil {
		l.Logger.Info(ctx, "config file loaded", "path", path, "pipelines", len(source.Pipelines))
	}
	return source, nil
}

func (l *FileLoader) Validate(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "config path stat failed")
	}
	if info.IsDir() {
		return pipelineerr.New(pipelineerr.ConfigInvalid, "config path is a directory")
	}
	_, err = l.Load(ctx, path)
	return err
}

func unmarshal(path string, data []byte, out *fileSource) error {
	switch filepath.Ext(path) {
	case ".json":
		return json.Unmarshal(data, out)
	default:
		return yaml.Unmarshal(data, out)
	}
}

var _ ports.ConfigLoader = (*FileLoader)(nil)
