// Package configsync implements the code-first config file pipeline:
// loading YAML/JSON pipeline/secret/connection definitions from disk,
// substituting ${NAME} environment placeholders in connection settings,
// and merging inline CLI overrides over the file-loaded source before
// it reaches the pipeline store.
package configsync

import (
	"context"
	"os"
	"regexp"

	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/pipelineerr"
)

var envPlaceholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// SubstituteEnv replaces every ${NAME} placeholder in value with the
// named environment variable, recursing into nested maps and slices so
// a connection's settings tree is fully resolved in one pass.
func SubstituteEnv(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return substituteString(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			resolved, err := SubstituteEnv(child)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			resolved, err := SubstituteEnv(child)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return value, nil
	}
}

func substituteString(s string) (string, error) {
	var firstErr error
	out := envPlaceholder.ReplaceAllStringFunc(s, func(match string) string {
		name := envPlaceholder.FindStringSubmatch(match)[1]
		val, ok := os.LookupEnv(name)
		if !ok {
			if firstErr == nil {
				firstErr = pipelineerr.Newf(pipelineerr.ConfigInvalid, "environment variable %q is not set", name)
			}
			return match
		}
		return val
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// EnvSecretResolver resolves a secret's code by reading the environment
// variable its definition names, the "env" provider kind ConfigSource
// secrets declare. Lookup maps a secret code to the environment variable
// name that carries its value (the definition's Value), populated from
// every SecretDefinition with Provider == "env".
type EnvSecretResolver struct {
	Lookup map[string]string
}

func (r EnvSecretResolver) Resolve(_ context.Context, code string) (string, error) {
	name, ok := r.Lookup[code]
	if !ok {
		return "", pipelineerr.Newf(pipelineerr.LookupMiss, "unknown secret code %q", code)
	}
	val, ok := os.LookupEnv(name)
	if !ok {
		return "", pipelineerr.Newf(pipelineerr.ConfigInvalid, "secret %q: environment variable %q is not set", code, name)
	}
	return val, nil
}

// ConnectionEnvResolver resolves a connection code to its settings with
// every ${NAME} placeholder already substituted from the environment.
type ConnectionEnvResolver struct {
	Settings map[string]map[string]any
}

func (r ConnectionEnvResolver) Resolve(_ context.Context, code string) (map[string]any, error) {
	settings, ok := r.Settings[code]
	if !ok {
		return nil, pipelineerr.Newf(pipelineerr.LookupMiss, "unknown connection code %q", code)
	}
	resolved, err := SubstituteEnv(settings)
	if err != nil {
		return nil, err
	}
	return resolved.(map[string]any), nil
}

var (
	_ ports.SecretResolver     = EnvSecretResolver{}
	_ ports.ConnectionResolver = ConnectionEnvResolver{}
)
