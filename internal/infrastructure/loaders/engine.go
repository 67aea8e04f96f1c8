// Package loaders implements the Entity Loader Framework's shared base
// loop as one generic function, the Design Notes' inheritance-collapse
// instruction: "re-express as composition: one generic
// loader_engine(spec, record_batch) function parameterized by a Loader
// Spec value object."
package loaders

import (
	"context"

	"github.com/flowforge/streamline/internal/domain/envelope"
	domainloader "github.com/flowforge/streamline/internal/domain/loader"
	"github.com/flowforge/streamline/internal/domain/rollback"
	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/pipelineerr"
)

// Engine runs loader_engine(spec, batch) for every concrete loader spec,
// optionally recording reversible mutations to a RollbackJournal.
type Engine struct {
	Journal ports.RollbackJournal
	TxID    string // set per batch by the orchestrator; empty disables journaling
}

// NewEngine builds a loader engine. journal/txID may be left zero to run
// without rollback support (e.g. previews, replays).
func NewEngine(journal ports.RollbackJournal, txID string) *Engine {
	return &Engine{Journal: journal, TxID: txID}
}

// NewEngineFactory returns a constructor that binds a fresh loader engine
// to one batch transaction id, since a RollbackJournal transaction is
// scoped to a single orchestrator run rather than the process lifetime.
func NewEngineFactory(journal ports.RollbackJournal) func(txID string) ports.LoaderEngine {
	return func(txID string) ports.LoaderEngine {
		return NewEngine(journal, txID)
	}
}

// Run implements the base loop of §4.3 for one batch of records against
// one loader Spec.
func (e *Engine) Run(ctx context.Context, spec domainloader.Spec, batch []envelope.Envelope, opts domainloader.Options) (domainloader.Result, error) {
	var result domainloader.Result
	if !spec.Metadata.Supports(opts.Operation) {
		return result, pipelineerr.Newf(pipelineerr.ConfigInvalid, "loader %s does not support operation %s", spec.Metadata.EntityType, opts.Operation)
	}

	for _, rec := range batch {
		e.processOne(ctx, spec, rec, opts, &result)
	}
	return result, nil
}

func (e *Engine) processOne(ctx context.Context, spec domainloader.Spec, rec envelope.Envelope, opts domainloader.Options, result *domainloader.Result) {
	// (a) validate
	if spec.Validate != nil {
		vr, err := spec.Validate(ctx, rec, opts.Operation)
		if err != nil {
			e.fail(result, rec, err.Error(), string(pipelineerr.AdapterFatal), pipelineerr.ClassifyRecoverable(err))
			return
		}
		if !vr.Valid {
			for _, fe := range vr.Errors {
				e.fail(result, rec, fe.Message, fe.Code, false)
			}
			return
		}
	}

	// (b)/(c)/(d) findExisting and dispatch per operation
	var existing *domainloader.Existing
	if spec.FindExisting != nil {
		found, err := spec.FindExisting(ctx, spec.Metadata.LookupFields, rec)
		if err != nil {
			e.fail(result, rec, err.Error(), string(pipelineerr.AdapterFatal), pipelineerr.ClassifyRecoverable(err))
			return
		}
		existing = found
	}

	switch opts.Operation {
	case domainloader.OpDelete:
		e.handleDelete(ctx, spec, existing, result)
	default:
		e.handleUpsert(ctx, spec, rec, existing, opts, result)
	}
}

func (e *Engine) handleUpsert(ctx context.Context, spec domainloader.Spec, rec envelope.Envelope, existing *domainloader.Existing, opts domainloader.Options, result *domainloader.Result) {
	op := opts.Operation

	if existing != nil {
		if op == domainloader.OpCreate {
			if opts.SkipDuplicates {
				result.Skipped++
				return
			}
			e.fail(result, rec, "duplicate entity", string(pipelineerr.Duplicate), false)
			return
		}
		// UPDATE or UPSERT on hit: update
		if opts.DryRun {
			result.Succeeded++
			result.Updated++
			result.AffectedIDs = append(result.AffectedIDs, existing.ID)
			return
		}
		if spec.UpdateEntity == nil {
			e.fail(result, rec, "loader does not implement updateEntity", string(pipelineerr.AdapterFatal), false)
			return
		}
		if err := spec.UpdateEntity(ctx, existing.ID, rec); err != nil {
			e.failAdapter(spec, result, rec, err)
			return
		}
		e.journalUpdate(ctx, spec, existing, rec)
		result.Succeeded++
		result.Updated++
		result.AffectedIDs = append(result.AffectedIDs, existing.ID)
		return
	}

	// miss
	if op == domainloader.OpUpdate {
		result.Skipped++
		return
	}
	// CREATE or UPSERT on miss: create
	if opts.DryRun {
		result.Succeeded++
		result.Created++
		return
	}
	if spec.CreateEntity == nil {
		e.fail(result, rec, "loader does not implement createEntity", string(pipelineerr.AdapterFatal), false)
		return
	}
	id, err := spec.CreateEntity(ctx, rec)
	if err != nil {
		e.failAdapter(spec, result, rec, err)
		return
	}
	if id == "" {
		// handled failure, e.g. failed asset download
		e.fail(result, rec, "create returned no id", string(pipelineerr.AdapterFatal), true)
		return
	}
	e.journalCreate(ctx, spec, id, rec)
	result.Succeeded++
	result.Created++
	result.AffectedIDs = append(result.AffectedIDs, id)
}

func (e *Engine) handleDelete(ctx context.Context, spec domainloader.Spec, existing *domainloader.Existing, result *domainloader.Result) {
	if existing == nil {
		result.Skipped++
		return
	}
	if spec.DeleteEntity == nil {
		e.fail(result, envelope.Envelope{}, "loader does not implement deleteEntity", string(pipelineerr.AdapterFatal), false)
		return
	}
	if err := spec.DeleteEntity(ctx, existing.ID); err != nil {
		e.fail(result, envelope.Envelope{}, err.Error(), string(pipelineerr.AdapterFatal), pipelineerr.ClassifyRecoverable(err))
		return
	}
	e.journalDelete(ctx, spec, existing)
	result.Succeeded++
	result.AffectedIDs = append(result.AffectedIDs, existing.ID)
}

func (e *Engine) failAdapter(spec domainloader.Spec, result *domainloader.Result, rec envelope.Envelope, err error) {
	recoverable := pipelineerr.ClassifyRecoverable(err)
	code := string(pipelineerr.AdapterFatal)
	if spec.ErrorClassifier != nil {
		r, c := spec.ErrorClassifier(err)
		recoverable, code = r, c
	} else if recoverable {
		code = string(pipelineerr.RecoverableIO)
	}
	e.fail(result, rec, err.Error(), code, recoverable)
}

func (e *Engine) fail(result *domainloader.Result, rec envelope.Envelope, message, code string, recoverable bool) {
	result.Failed++
	result.Errors = append(result.Errors, domainloader.RecordError{
		Record:      rec.Data,
		Message:     message,
		Code:        code,
		Recoverable: recoverable,
	})
}

func (e *Engine) journalCreate(ctx context.Context, spec domainloader.Spec, id string, rec envelope.Envelope) {
	if e.Journal == nil || e.TxID == "" {
		return
	}
	_ = e.Journal.Append(ctx, e.TxID, rollback.Entry{
		Type:       rollback.OpCreate,
		EntityType: spec.Metadata.EntityType,
		EntityID:   id,
		NewState:   rec.Data,
	})
}

func (e *Engine) journalUpdate(ctx context.Context, spec domainloader.Spec, existing *domainloader.Existing, rec envelope.Envelope) {
	if e.Journal == nil || e.TxID == "" {
		return
	}
	_ = e.Journal.Append(ctx, e.TxID, rollback.Entry{
		Type:          rollback.OpUpdate,
		EntityType:    spec.Metadata.EntityType,
		EntityID:      existing.ID,
		PreviousState: existing.Entity,
		NewState:      rec.Data,
	})
}

func (e *Engine) journalDelete(ctx context.Context, spec domainloader.Spec, existing *domainloader.Existing) {
	if e.Journal == nil || e.TxID == "" {
		return
	}
	_ = e.Journal.Append(ctx, e.TxID, rollback.Entry{
		Type:          rollback.OpDelete,
		EntityType:    spec.Metadata.EntityType,
		EntityID:      existing.ID,
		PreviousState: existing.Entity,
	})
}

var _ ports.LoaderEngine = (*Engine)(nil)
