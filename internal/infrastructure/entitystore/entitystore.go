// Package entitystore is a minimal in-memory ports.EntityService/
// ports.EntityLookup implementation, generalizing the registry package's
// concurrency-safe string-keyed map pattern into a two-level
// entityType -> id -> fields store. The loaders, rollback journal, and
// LOOKUP transform treat concrete entity storage as an external
// collaborator reached only through these two narrow interfaces; this
// package is the default collaborator the command-line composition root
// wires in when no external store is configured.
package entitystore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/flowforge/streamline/internal/ports"
)

// Store is a process-local, concurrency-safe entity store keyed by
// entityType then by generated id.
type Store struct {
	mu      sync.RWMutex
	tables  map[string]map[string]map[string]any
	nextIDs map[string]int
}

// New constructs an empty store.
func New() *Store {
	return &Store{
		tables:  make(map[string]map[string]map[string]any),
		nextIDs: make(map[string]int),
	}
}

func (s *Store) table(entityType string) map[string]map[string]any {
	t, ok := s.tables[entityType]
	if !ok {
		t = make(map[string]map[string]any)
		s.tables[entityType] = t
	}
	return t
}

// matches reports whether fields[field] satisfies value, using a
// case-insensitive substring test when field ends in "Contains" (per the
// asset loader's "filenameContains" lookup) and exact equality otherwise.
func matches(fields map[string]any, field string, value any) bool {
	actual, ok := fields[strings.TrimSuffix(field, "Contains")]
	if !ok {
		return false
	}
	if strings.HasSuffix(field, "Contains") {
		as, aok := actual.(string)
		vs, vok := value.(string)
		return aok && vok && strings.Contains(strings.ToLower(as), strings.ToLower(vs))
	}
	return fmt.Sprint(actual) == fmt.Sprint(value)
}

// FindOne returns the first entity of entityType whose field equals value.
func (s *Store) FindOne(_ context.Context, entityType, field string, value any) (map[string]any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fields := range s.table(entityType) {
		if matches(fields, field, value) {
			return cloneFields(fields), true, nil
		}
	}
	return nil, false, nil
}

// FindAll returns every entity of entityType matching field/value.
func (s *Store) FindAll(_ context.Context, entityType, field string, value any) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []map[string]any
	for _, fields := range s.table(entityType) {
		if matches(fields, field, value) {
			out = append(out, cloneFields(fields))
		}
	}
	return out, nil
}

// Create inserts a new entity and returns its generated id.
func (s *Store) Create(_ context.Context, entityType string, fields map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextIDs[entityType]++
	id := strconv.Itoa(s.nextIDs[entityType])
	stored := cloneFields(fields)
	stored["id"] = id
	s.table(entityType)[id] = stored
	return id, nil
}

// Update merges fields into the existing entity identified by id.
func (s *Store) Update(_ context.Context, entityType, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.table(entityType)[id]
	if !ok {
		return fmt.Errorf("entitystore: %s %q not found", entityType, id)
	}
	for k, v := range fields {
		existing[k] = v
	}
	return nil
}

// Delete removes the entity identified by id.
func (s *Store) Delete(_ context.Context, entityType, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.table(entityType), id)
	return nil
}

// Get returns the entity identified by id.
func (s *Store) Get(_ context.Context, entityType, id string) (map[string]any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields, ok := s.table(entityType)[id]
	if !ok {
		return nil, false, nil
	}
	return cloneFields(fields), true, nil
}

// Lookup implements ports.EntityLookup on top of FindOne, returning
// toField from the first match or nil on a miss.
func (s *Store) Lookup(ctx context.Context, entityType, fromField string, value any, toField string) (any, error) {
	entity, found, err := s.FindOne(ctx, entityType, fromField, value)
	if err != nil || !found {
		return nil, err
	}
	return entity[toField], nil
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

var (
	_ ports.EntityService = (*Store)(nil)
	_ ports.EntityLookup  = (*Store)(nil)
)
