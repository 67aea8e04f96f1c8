package configsync

import (
	"context"
	"sync"

	domain "github.com/flowforge/streamline/internal/domain/pipeline"
	"github.com/flowforge/streamline/internal/ports"
)

// Store is a process-local, concurrency-safe ports.PipelineStore.
// Persisting pipeline/secret/connection metadata durably is out of
// scope; this is the narrowest stand-in a production deployment would
// swap for a real database behind the same interface.
type Store struct {
	mu          sync.RWMutex
	pipelines   map[string]domain.Definition
	secrets     map[string]ports.SecretDefinition
	connections map[string]ports.ConnectionDefinition
}

// NewStore builds an empty pipeline store.
func NewStore() *Store {
	return &Store{
		pipelines:   make(map[string]domain.Definition),
		secrets:     make(map[string]ports.SecretDefinition),
		connections: make(map[string]ports.ConnectionDefinition),
	}
}

func (s *Store) UpsertPipeline(_ context.Context, def domain.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipelines[def.Code] = def
	return nil
}

func (s *Store) UpsertSecret(_ context.Context, sec ports.SecretDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[sec.Code] = sec
	return nil
}

func (s *Store) UpsertConnection(_ context.Context, c ports.ConnectionDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[c.Code] = c
	return nil
}

func (s *Store) GetPipeline(_ context.Context, code string) (domain.Definition, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.pipelines[code]
	return def, ok, nil
}

func (s *Store) ListPipelines(_ context.Context) ([]domain.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Definition, 0, len(s.pipelines))
	for _, def := range s.pipelines {
		out = append(out, def)
	}
	return out, nil
}

// Secrets returns an EnvSecretResolver lookup populated from every
// env-provider secret registered so far.
func (s *Store) Secrets() EnvSecretResolver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lookup := make(map[string]string, len(s.secrets))
	for code, sec := range s.secrets {
		if sec.Provider == "env" {
			lookup[code] = sec.Value
		}
	}
	return EnvSecretResolver{Lookup: lookup}
}

// Connections returns a ConnectionEnvResolver populated from every
// connection registered so far.
func (s *Store) Connections() ConnectionEnvResolver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings := make(map[string]map[string]any, len(s.connections))
	for code, c := range s.connections {
		settings[code] = c.Settings
	}
	return ConnectionEnvResolver{Settings: settings}
}

var _ ports.PipelineStore = (*Store)(nil)
