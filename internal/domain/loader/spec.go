// Package loader defines the Loader Spec value object the Design Notes
// call for: the inheritance collapse of a BaseEntityLoader into plain
// composition, `loader_engine(spec, record_batch)`, parameterized by this
// struct of function fields.
package loader

import (
	"context"

	"github.com/flowforge/streamline/internal/domain/envelope"
)

// Operation is one of the four upsert semantics a loader may support.
type Operation string

const (
	OpCreate Operation = "CREATE"
	OpUpdate Operation = "UPDATE"
	OpUpsert Operation = "UPSERT"
	OpDelete Operation = "DELETE"
)

// ValidationResult is the outcome of Spec.Validate.
type ValidationResult struct {
	Valid    bool
	Errors   []FieldError
	Warnings []FieldError
}

// FieldError names the offending field and a machine-readable code.
type FieldError struct {
	Field   string
	Message string
	Code    string
}

// Existing is what FindExisting returns on a hit.
type Existing struct {
	ID     string
	Entity map[string]any
}

// Metadata describes a loader for the registry's category grouping and
// the extractor/loader schema surface.
type Metadata struct {
	EntityType          string
	Name                string
	Category            string
	SupportedOperations []Operation
	LookupFields        []string
	RequiredFields      []string
	UpdateOnlyFields    []string
}

// Supports reports whether op is in SupportedOperations.
func (m Metadata) Supports(op Operation) bool {
	for _, o := range m.SupportedOperations {
		if o == op {
			return true
		}
	}
	return false
}

// Spec is the composed, function-valued replacement for a class
// hierarchy: one value per entity type, built by a constructor function
// (ProductSpec, AssetSpec, …) closing over an EntityService.
type Spec struct {
	Metadata Metadata

	Validate func(ctx context.Context, record envelope.Envelope, op Operation) (ValidationResult, error)

	FindExisting func(ctx context.Context, lookupFields []string, record envelope.Envelope) (*Existing, error)

	CreateEntity func(ctx context.Context, record envelope.Envelope) (id string, err error)

	UpdateEntity func(ctx context.Context, id string, record envelope.Envelope) error

	DeleteEntity func(ctx context.Context, id string) error

	// ErrorClassifier overrides the default recoverable-I/O heuristic for
	// errors escaping CreateEntity/UpdateEntity/DeleteEntity. Nil uses the
	// default pipelineerr.ClassifyRecoverable heuristic.
	ErrorClassifier func(err error) (recoverable bool, code string)
}

// Options configure one loader_engine run.
type Options struct {
	Operation      Operation
	SkipDuplicates bool
	DryRun         bool
}

// FieldErr is a convenience constructor.
func FieldErr(field, code, message string) FieldError {
	return FieldError{Field: field, Code: code, Message: message}
}
