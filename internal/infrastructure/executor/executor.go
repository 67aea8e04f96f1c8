// Package executor implements the per-step dispatch algorithm the
// Pipeline Orchestrator runs, adapting the teacher's level-by-level
// concurrent execution (internal/engine.Execute) from a declarative
// reconciliation step set to the EXTRACT/TRANSFORM/LOAD/GATE/BRANCH/
// MERGE step types this runtime drives.
package executor

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flowforge/streamline/internal/domain/checkpoint"
	"github.com/flowforge/streamline/internal/domain/envelope"
	domainevents "github.com/flowforge/streamline/internal/domain/events"
	domainloader "github.com/flowforge/streamline/internal/domain/loader"
	domain "github.com/flowforge/streamline/internal/domain/pipeline"
	"github.com/flowforge/streamline/internal/infrastructure/transforms"
	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/pipelineerr"
)

// Executor implements ports.Orchestrator.
type Executor struct {
	DAGBuilder ports.DAGBuilder
	Planner    ports.ExecutionPlanner
	Extractors ports.ExtractorRegistry
	Transforms ports.TransformExecutor
	Loaders    ports.LoaderRegistry
	// LoaderEngine constructs a loader engine bound to one batch
	// transaction id; a rollback transaction is scoped to a single run,
	// so the executor mints a fresh loader engine per run rather than
	// holding one long-lived instance.
	LoaderEngine func(txID string) ports.LoaderEngine
	Checkpoints  ports.CheckpointStore
	Errors       ports.ErrorJournal
	Rollbacks    ports.RollbackJournal
	Events       ports.EventPublisher
	Logger       ports.Logger
	StepLogger   ports.StepLogger
	Secrets      ports.SecretResolver
	Connections  ports.ConnectionResolver

	mu        sync.Mutex
	cancelled map[string]bool
}

// NewExecutor builds an orchestrator from its collaborating ports.
func NewExecutor() *Executor {
	return &Executor{cancelled: make(map[string]bool)}
}

func (e *Executor) Cancel(runID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelled[runID] = true
	return nil
}

func (e *Executor) isCancelled(runID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled[runID]
}

func (e *Executor) Execute(ctx context.Context, def domain.Definition, opts ports.ExecuteOptions) (domain.Summary, error) {
	if !def.Executable() && !opts.DryRun {
		return domain.Summary{}, pipelineerr.New(pipelineerr.ConfigInvalid, "pipeline is not published/enabled")
	}
	if err := domain.ValidateForExecution(def); err != nil {
		return domain.Summary{}, err
	}

	if opts.Resume {
		cp, err := e.loadCheckpoint(ctx, opts.PipelineID)
		if err != nil {
			return domain.Summary{}, err
		}
		return e.run(ctx, def, opts, cp, nil)
	}

	if e.Checkpoints != nil {
		if err := e.Checkpoints.Clear(ctx, opts.PipelineID); err != nil {
			return domain.Summary{}, err
		}
	}
	return e.run(ctx, def, opts, checkpoint.Checkpoint{PipelineID: opts.PipelineID}, nil)
}

func (e *Executor) ReplayFromStep(ctx context.Context, def domain.Definition, stepKey string, payloads []map[string]any) (domain.Summary, error) {
	if _, ok := def.StepByKey(stepKey); !ok {
		return domain.Summary{}, pipelineerr.Newf(pipelineerr.ConfigInvalid, "unknown step key %q", stepKey)
	}
	envelopes := make([]envelope.Envelope, len(payloads))
	for i, p := range payloads {
		envelopes[i] = envelope.Envelope{Data: p}
	}
	opts := ports.ExecuteOptions{PipelineID: def.ID, RunID: "replay-" + stepKey}
	return e.run(ctx, def, opts, checkpoint.Checkpoint{PipelineID: def.ID, StepKey: stepKey}, &replaySeed{stepKey: stepKey, envelopes: envelopes})
}

type replaySeed struct {
	stepKey   string
	envelopes []envelope.Envelope
}

func (e *Executor) loadCheckpoint(ctx context.Context, pipelineID string) (checkpoint.Checkpoint, error) {
	if e.Checkpoints == nil {
		return checkpoint.Checkpoint{PipelineID: pipelineID}, nil
	}
	return e.Checkpoints.Load(ctx, pipelineID)
}

// run drives every step of def in declared/topological order, carrying
// envelope batches between steps keyed by step key, and accumulating a
// Summary the caller returns to its client.
func (e *Executor) run(ctx context.Context, def domain.Definition, opts ports.ExecuteOptions, cp checkpoint.Checkpoint, seed *replaySeed) (domain.Summary, error) {
	graph, err := e.DAGBuilder.Build(ctx, def.Steps)
	if err != nil {
		return domain.Summary{}, err
	}
	levels, err := e.Planner.GeneratePlan(ctx, graph)
	if err != nil {
		return domain.Summary{}, err
	}

	e.publish(ctx, domainevents.PipelineStarted(opts.PipelineID, opts.RunID))

	stepOutputs := make(map[string][]envelope.Envelope)
	if seed != nil {
		stepOutputs[seed.stepKey] = seed.envelopes
	}
	routes := buildBranchRoutes(graph)

	var txID string
	if e.Rollbacks != nil {
		txID = e.Rollbacks.Begin(ctx)
	}
	loaderEngine := e.loaderEngineFor(txID)

	summary := domain.Summary{RunID: opts.RunID, Status: domain.RunRunning}
	var executions []domain.StepExecution
	failed := false

	for _, level := range levels {
		if e.isCancelled(opts.RunID) {
			summary.Status = domain.RunCancelled
			return summary, nil
		}
		if seed != nil && !levelReachesSeed(level, graph, seed.stepKey) {
			continue
		}

		type levelResult struct {
			key string
			exe domain.StepExecution
			out []envelope.Envelope
			err error
		}
		results := make([]levelResult, len(level))

		g, gctx := errgroup.WithContext(ctx)
		for i, key := range level {
			i, key := i, key
			g.Go(func() error {
				node := graph.Nodes[key]
				input := gatherInput(node, stepOutputs, seed, routes)
				exe, out, err := e.runStep(gctx, opts, node.Step, input, loaderEngine)
				results[i] = levelResult{key: key, exe: exe, out: out, err: err}
				return nil
			})
		}
		_ = g.Wait()

		for _, r := range results {
			executions = append(executions, r.exe)
			stepOutputs[r.key] = r.out
			summary.Processed += r.exe.RecordsIn
			summary.Succeeded += r.exe.Succeeded
			summary.Failed += r.exe.Failed
			summary.Skipped += r.exe.Skipped

			if r.exe.Type == domain.StepGate && r.exe.Err == errGateBlocked {
				summary.Paused = true
				summary.PausedAtStep = r.key
				summary.Status = domain.RunPaused
				summary.Details = executions
				return summary, nil
			}

			if r.err != nil || r.exe.Err != nil {
				failed = true
				if def.ErrorHandling.Mode == domain.FailFast {
					summary.Status = domain.RunFailed
					summary.Details = executions
					errOut := r.err
					if errOut == nil {
						errOut = r.exe.Err
					}
					e.publish(ctx, domainevents.PipelineFailed(opts.PipelineID, opts.RunID, errOut))
					if e.Rollbacks != nil {
						e.Rollbacks.Rollback(ctx, txID)
					}
					return summary, errOut
				}
			}
		}

		if def.Checkpointing.Enabled && e.Checkpoints != nil {
			next, err := checkpoint.Encode(opts.PipelineID, level[len(level)-1], cp, len(executions))
			if err != nil {
				return summary, err
			}
			cp = next
			if err := e.Checkpoints.Save(ctx, cp); err != nil {
				return summary, err
			}
		}
	}

	if e.Rollbacks != nil {
		_ = e.Rollbacks.Commit(ctx, txID)
	}

	summary.Details = executions
	if failed {
		summary.Status = domain.RunFailed
		e.publish(ctx, domainevents.PipelineFailed(opts.PipelineID, opts.RunID, pipelineerr.New(pipelineerr.Infrastructure, "one or more steps failed")))
	} else {
		summary.Status = domain.RunCompleted
		e.publish(ctx, domainevents.PipelineCompleted(opts.PipelineID, opts.RunID, summary.Processed, summary.Succeeded, summary.Failed))
	}
	return summary, nil
}

func levelReachesSeed(level []string, graph *ports.ExecutionGraph, seedKey string) bool {
	for _, key := range level {
		if key == seedKey || isDownstream(graph, seedKey, key) {
			return true
		}
	}
	return false
}

func isDownstream(graph *ports.ExecutionGraph, from, to string) bool {
	visited := map[string]bool{}
	var walk func(key string) bool
	walk = func(key string) bool {
		if key == to {
			return true
		}
		if visited[key] {
			return false
		}
		visited[key] = true
		node, ok := graph.Nodes[key]
		if !ok {
			return false
		}
		for _, dep := range node.Dependents {
			if walk(dep) {
				return true
			}
		}
		return false
	}
	return walk(from)
}

// branchRoutes is keyed by branchStepKey, then by the target step key its
// config routes to, built once per run from every BRANCH step's config.
type branchRoutes map[string]map[string]branchPredicate

func buildBranchRoutes(graph *ports.ExecutionGraph) branchRoutes {
	routes := make(branchRoutes)
	for key, node := range graph.Nodes {
		if node.Step.Type != domain.StepBranch {
			continue
		}
		var cfg branchStepConfig
		if err := decodeInto(node.Step.Config, &cfg); err != nil {
			continue
		}
		routes[key] = cfg.Routes
	}
	return routes
}

func gatherInput(node *ports.ExecutionNode, outputs map[string][]envelope.Envelope, seed *replaySeed, routes branchRoutes) []envelope.Envelope {
	if seed != nil {
		if out, ok := outputs[seed.stepKey]; ok && node.Step.Key == seed.stepKey {
			return out
		}
	}
	if len(node.DependsOn) == 0 {
		if out, ok := outputs[node.Step.Key]; ok {
			return out
		}
		return nil
	}
	var merged []envelope.Envelope
	for _, dep := range node.DependsOn {
		merged = append(merged, filterByRoute(outputs[dep], routes[dep][node.Step.Key])...)
	}
	return merged
}

// filterByRoute applies a BRANCH step's predicate for one target, or
// passes every envelope through when the branch declared no route for it.
func filterByRoute(in []envelope.Envelope, route branchPredicate) []envelope.Envelope {
	if route.Field == "" {
		return in
	}
	out := make([]envelope.Envelope, 0, len(in))
	for _, env := range in {
		value, _ := env.Get(route.Field)
		if transforms.EvaluatePredicate(value, route.Operator, literalString(route.Value)) {
			out = append(out, env)
		}
	}
	return out
}

var errGateBlocked = pipelineerr.New(pipelineerr.ValidationFailed, "gate condition blocked the run")

// loaderEngineFor binds a loader engine to the current run's rollback
// transaction id, or leaves journaling disabled when rollback is off.
func (e *Executor) loaderEngineFor(txID string) ports.LoaderEngine {
	if e.LoaderEngine == nil {
		return nil
	}
	return e.LoaderEngine(txID)
}

// runStep dispatches a single step by its type and returns its execution
// record plus the output batch it hands to dependents.
func (e *Executor) runStep(ctx context.Context, opts ports.ExecuteOptions, step domain.StepDefinition, input []envelope.Envelope, loaderEngine ports.LoaderEngine) (domain.StepExecution, []envelope.Envelope, error) {
	start := time.Now()
	exe := domain.StepExecution{StepKey: step.Key, Type: step.Type, RecordsIn: len(input), StartedAt: start}

	e.notifyStart(ctx, step, len(input))

	var out []envelope.Envelope
	var err error

	switch step.Type {
	case domain.StepExtract:
		out, err = e.dispatchExtract(ctx, opts, step)
	case domain.StepTransform:
		out, err = e.dispatchTransform(ctx, step, input)
	case domain.StepLoad:
		out, err = e.dispatchLoad(ctx, step, input, loaderEngine, opts.DryRun, &exe)
	case domain.StepGate:
		out, err = e.dispatchGate(step, input)
	case domain.StepBranch:
		// BRANCH passes every record through unfiltered; routing to a
		// specific target is applied when that target gathers its input
		// (see gatherInput/branchRoutes), since one branch step can feed
		// several targets with different predicates.
		out = input
	case domain.StepMerge:
		out = input
	default:
		err = pipelineerr.Newf(pipelineerr.ConfigInvalid, "unknown step type %q", step.Type)
	}

	exe.RecordsOut = len(out)
	exe.FinishedAt = time.Now()
	if err != nil {
		exe.Err = err
		e.notifyFailed(ctx, step, err)
	} else {
		e.notifyComplete(ctx, step, exe)
	}
	return exe, out, err
}

func (e *Executor) dispatchExtract(ctx context.Context, opts ports.ExecuteOptions, step domain.StepDefinition) ([]envelope.Envelope, error) {
	ext, ok := e.Extractors.Get(step.AdapterCode)
	if !ok {
		return nil, pipelineerr.Newf(pipelineerr.ConfigInvalid, "unknown extractor adapter %q", step.AdapterCode)
	}
	streaming, ok := ext.(ports.StreamingExtractor)
	if !ok {
		batch, ok := ext.(ports.BatchExtractor)
		if !ok {
			return nil, pipelineerr.Newf(pipelineerr.AdapterFatal, "extractor %q supports neither streaming nor batch", step.AdapterCode)
		}
		ectx := e.extractorContext(ctx, opts, step)
		res, err := batch.ExtractAll(ectx, step.Config)
		if err != nil {
			return nil, err
		}
		return res.Envelopes, nil
	}

	ectx := e.extractorContext(ctx, opts, step)
	var all []envelope.Envelope
	for {
		if ectx.IsCancelled() {
			break
		}
		res, err := streaming.Next(ectx, step.Config)
		if err != nil {
			return all, err
		}
		all = append(all, res.Envelopes...)
		if res.Done {
			break
		}
	}
	return all, nil
}

func (e *Executor) extractorContext(ctx context.Context, opts ports.ExecuteOptions, step domain.StepDefinition) ports.ExtractorContext {
	return ports.ExtractorContext{
		Context:     ctx,
		PipelineID:  opts.PipelineID,
		RunID:       opts.RunID,
		StepKey:     step.Key,
		Logger:      e.Logger,
		IsCancelled: func() bool { return e.isCancelled(opts.RunID) },
		Secrets:     e.Secrets,
		Connections: e.Connections,
	}
}

func (e *Executor) dispatchTransform(ctx context.Context, step domain.StepDefinition, input []envelope.Envelope) ([]envelope.Envelope, error) {
	var cfg transformStepConfig
	if err := decodeInto(step.Config, &cfg); err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "decoding transform step config")
	}

	out := make([]envelope.Envelope, 0, len(input))
	for _, env := range input {
		next := env.Clone()
		for _, mapping := range cfg.Mappings {
			value, _ := next.Get(mapping.Field)
			result, err := e.Transforms.Execute(ctx, value, mapping.Chain, next.Data)
			if err != nil {
				return nil, err
			}
			next = next.Set(mapping.OutputField(), result)
		}
		out = append(out, next)
	}
	return out, nil
}

func (e *Executor) dispatchLoad(ctx context.Context, step domain.StepDefinition, input []envelope.Envelope, loaderEngine ports.LoaderEngine, dryRun bool, exe *domain.StepExecution) ([]envelope.Envelope, error) {
	var cfg loadStepConfig
	if err := decodeInto(step.Config, &cfg); err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "decoding load step config")
	}
	spec, ok := e.Loaders.Get(cfg.EntityType)
	if !ok {
		return nil, pipelineerr.Newf(pipelineerr.ConfigInvalid, "unknown loader entity type %q", cfg.EntityType)
	}
	if loaderEngine == nil {
		return nil, pipelineerr.New(pipelineerr.Infrastructure, "no loader engine configured")
	}

	// Individual CREATE/UPDATE/DELETE entries are journaled by the loader
	// engine itself, which was bound to this run's rollback transaction
	// id by loaderEngineFor; the executor only owns transaction
	// lifecycle (begin/commit/rollback), not per-record bookkeeping.
	result, err := loaderEngine.Run(ctx, spec, input, domainloader.Options{
		Operation:      cfg.Operation,
		SkipDuplicates: cfg.SkipDuplicates,
		DryRun:         dryRun,
	})
	if err != nil {
		return nil, err
	}

	exe.Succeeded = result.Succeeded
	exe.Failed = result.Failed
	exe.Skipped = result.Skipped

	for _, recErr := range result.Errors {
		if e.Errors != nil {
			_, _ = e.Errors.Append(ctx, "", envelope.RecordError{
				StepKey:     step.Key,
				Message:     recErr.Message,
				Code:        recErr.Code,
				Payload:     recErr.Record,
				Recoverable: recErr.Recoverable,
				Timestamp:   time.Now(),
			})
		}
	}

	if result.Failed > 0 && len(result.Errors) > 0 {
		return nil, pipelineerr.Newf(pipelineerr.LookupMiss, "%d records failed loading into %s", result.Failed, cfg.EntityType)
	}
	return input, nil
}

func (e *Executor) dispatchGate(step domain.StepDefinition, input []envelope.Envelope) ([]envelope.Envelope, error) {
	var cfg gateStepConfig
	if err := decodeInto(step.Config, &cfg); err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "decoding gate step config")
	}
	for _, env := range input {
		value, _ := env.Get(cfg.Field)
		if !transforms.EvaluatePredicate(value, cfg.Operator, literalString(cfg.Value)) {
			return nil, errGateBlocked
		}
	}
	return input, nil
}

func (e *Executor) publish(ctx context.Context, event domainevents.Event) {
	if e.Events == nil {
		return
	}
	if err := e.Events.Publish(ctx, event); err != nil && e.Logger != nil {
		e.Logger.Warn(ctx, "failed to publish domain event", "eventType", event.EventType(), "error", err.Error())
	}
}

func (e *Executor) notifyStart(ctx context.Context, step domain.StepDefinition, recordsIn int) {
	if e.StepLogger != nil {
		e.StepLogger.OnStepStart(ctx, step.Key, string(step.Type), recordsIn)
	}
}

func (e *Executor) notifyComplete(ctx context.Context, step domain.StepDefinition, exe domain.StepExecution) {
	if e.StepLogger != nil {
		durationMs := exe.FinishedAt.Sub(exe.StartedAt).Milliseconds()
		e.StepLogger.OnStepComplete(ctx, step.Key, exe.RecordsOut, durationMs)
	}
}

func (e *Executor) notifyFailed(ctx context.Context, step domain.StepDefinition, err error) {
	if e.StepLogger != nil {
		e.StepLogger.OnStepFailed(ctx, step.Key, err)
	}
}

var _ ports.Orchestrator = (*Executor)(nil)
