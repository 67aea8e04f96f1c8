package executor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/streamline/internal/domain/envelope"
	domainloader "github.com/flowforge/streamline/internal/domain/loader"
	domain "github.com/flowforge/streamline/internal/domain/pipeline"
	domaintransform "github.com/flowforge/streamline/internal/domain/transform"
	"github.com/flowforge/streamline/internal/infrastructure/dag"
	"github.com/flowforge/streamline/internal/infrastructure/executor"
	"github.com/flowforge/streamline/internal/ports"
)

// fakeExtractor returns a fixed batch in one shot.
type fakeExtractor struct {
	code string
	rows []map[string]any
}

func (f *fakeExtractor) Category() string    { return "test" }
func (f *fakeExtractor) AdapterCode() string { return f.code }
func (f *fakeExtractor) ExtractAll(_ ports.ExtractorContext, _ map[string]any) (ports.ExtractResult, error) {
	envs := make([]envelope.Envelope, len(f.rows))
	for i, r := range f.rows {
		envs[i] = envelope.Envelope{Data: r}
	}
	return ports.ExtractResult{Envelopes: envs, Done: true}, nil
}

type extractorRegistry map[string]ports.Extractor

func (r extractorRegistry) Register(code string, ext ports.Extractor) { r[code] = ext }
func (r extractorRegistry) Get(code string) (ports.Extractor, bool)   { e, ok := r[code]; return e, ok }

// passthroughTransforms returns the input value unmodified for every chain.
type passthroughTransforms struct{}

func (passthroughTransforms) Execute(_ context.Context, value any, _ domaintransform.Chain, _ map[string]any) (any, error) {
	return value, nil
}

// memoryEntities is a minimal ports.EntityService over an in-memory map,
// enough to exercise the loader engine's create path.
type memoryEntities struct {
	seq     int
	records map[string]map[string]any
}

func newMemoryEntities() *memoryEntities {
	return &memoryEntities{records: make(map[string]map[string]any)}
}

func (m *memoryEntities) FindOne(_ context.Context, _, field string, value any) (map[string]any, bool, error) {
	for _, rec := range m.records {
		if rec[field] == value {
			return rec, true, nil
		}
	}
	return nil, false, nil
}

func (m *memoryEntities) FindAll(_ context.Context, _, field string, value any) ([]map[string]any, error) {
	var out []map[string]any
	for _, rec := range m.records {
		if rec[field] == value {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryEntities) Create(_ context.Context, _ string, fields map[string]any) (string, error) {
	m.seq++
	id := "id-" + string(rune('0'+m.seq))
	m.records[id] = fields
	return id, nil
}

func (m *memoryEntities) Update(_ context.Context, _, id string, fields map[string]any) error {
	m.records[id] = fields
	return nil
}

func (m *memoryEntities) Delete(_ context.Context, _, id string) error {
	delete(m.records, id)
	return nil
}

func (m *memoryEntities) Get(_ context.Context, _, id string) (map[string]any, bool, error) {
	rec, ok := m.records[id]
	return rec, ok, nil
}

type loaderRegistry map[string]domainloader.Spec

func (r loaderRegistry) Register(spec domainloader.Spec) { r[spec.Metadata.EntityType] = spec }
func (r loaderRegistry) Get(entityType string) (domainloader.Spec, bool) {
	s, ok := r[entityType]
	return s, ok
}
func (r loaderRegistry) Has(entityType string) bool { _, ok := r[entityType]; return ok }
func (r loaderRegistry) GetAll() []domainloader.Spec {
	var out []domainloader.Spec
	for _, s := range r {
		out = append(out, s)
	}
	return out
}
func (r loaderRegistry) GetLoadersByCategory() map[string][]domainloader.Spec { return nil }

func widgetSpec(entities *memoryEntities) domainloader.Spec {
	return domainloader.Spec{
		Metadata: domainloader.Metadata{
			EntityType:          "widget",
			SupportedOperations: []domainloader.Operation{domainloader.OpCreate, domainloader.OpUpsert},
			LookupFields:        []string{"sku"},
		},
		FindExisting: func(ctx context.Context, fields []string, rec envelope.Envelope) (*domainloader.Existing, error) {
			sku, _ := rec.Get("sku")
			found, ok, err := entities.FindOne(ctx, "widget", "sku", sku)
			if err != nil || !ok {
				return nil, err
			}
			id, _ := found["id"].(string)
			return &domainloader.Existing{ID: id, Entity: found}, nil
		},
		CreateEntity: func(ctx context.Context, rec envelope.Envelope) (string, error) {
			return entities.Create(ctx, "widget", rec.Data)
		},
	}
}

func newTestExecutor(entities *memoryEntities, extractors extractorRegistry, loaders loaderRegistry) *executor.Executor {
	exe := executor.NewExecutor()
	exe.DAGBuilder = dag.NewBuilder()
	exe.Planner = dag.NewPlanner()
	exe.Extractors = extractors
	exe.Transforms = passthroughTransforms{}
	exe.Loaders = loaders
	exe.LoaderEngine = func(txID string) ports.LoaderEngine {
		return &fakeLoaderEngine{entities: entities}
	}
	return exe
}

// fakeLoaderEngine exercises the loader spec directly, standing in for
// the infrastructure/loaders engine without that package's dependency.
type fakeLoaderEngine struct {
	entities *memoryEntities
}

func (f *fakeLoaderEngine) Run(ctx context.Context, spec domainloader.Spec, batch []envelope.Envelope, opts domainloader.Options) (domainloader.Result, error) {
	var result domainloader.Result
	for _, rec := range batch {
		existing, _ := spec.FindExisting(ctx, spec.Metadata.LookupFields, rec)
		if existing != nil {
			result.Skipped++
			continue
		}
		id, err := spec.CreateEntity(ctx, rec)
		if err != nil {
			result.Failed++
			continue
		}
		result.Succeeded++
		result.Created++
		result.AffectedIDs = append(result.AffectedIDs, id)
	}
	return result, nil
}

func TestExecute_LinearExtractTransformLoad(t *testing.T) {
	entities := newMemoryEntities()
	extractors := extractorRegistry{
		"fixture": &fakeExtractor{code: "fixture", rows: []map[string]any{
			{"sku": "A1"},
			{"sku": "A2"},
		}},
	}
	loaders := loaderRegistry{}
	loaders.Register(widgetSpec(entities))

	exe := newTestExecutor(entities, extractors, loaders)

	def := domain.Definition{
		ID:      "pipe-1",
		Code:    "pipe-1",
		Name:    "widgets",
		Enabled: true,
		Status:  domain.StatusPublished,
		Steps: []domain.StepDefinition{
			{Key: "extract", Type: domain.StepExtract, AdapterCode: "fixture"},
			{Key: "transform", Type: domain.StepTransform, AdapterCode: "noop", Config: map[string]any{
				"mappings": []map[string]any{},
			}},
			{Key: "load", Type: domain.StepLoad, AdapterCode: "noop", Config: map[string]any{
				"entityType": "widget",
				"operation":  "CREATE",
			}},
		},
	}

	summary, err := exe.Execute(context.Background(), def, ports.ExecuteOptions{PipelineID: "pipe-1", RunID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, summary.Status)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Len(t, entities.records, 2)
}

func TestExecute_GateBlocksRun(t *testing.T) {
	entities := newMemoryEntities()
	extractors := extractorRegistry{
		"fixture": &fakeExtractor{code: "fixture", rows: []map[string]any{
			{"sku": "A1", "price": 0},
		}},
	}
	loaders := loaderRegistry{}
	exe := newTestExecutor(entities, extractors, loaders)

	def := domain.Definition{
		ID:      "pipe-2",
		Code:    "pipe-2",
		Name:    "gated",
		Enabled: true,
		Status:  domain.StatusPublished,
		Steps: []domain.StepDefinition{
			{Key: "extract", Type: domain.StepExtract, AdapterCode: "fixture"},
			{Key: "gate", Type: domain.StepGate, AdapterCode: "noop", Config: map[string]any{
				"field":    "price",
				"operator": ">",
				"value":    0,
			}},
		},
	}

	summary, err := exe.Execute(context.Background(), def, ports.ExecuteOptions{PipelineID: "pipe-2", RunID: "run-2"})
	require.NoError(t, err)
	assert.True(t, summary.Paused)
	assert.Equal(t, "gate", summary.PausedAtStep)
	assert.Equal(t, domain.RunPaused, summary.Status)
}

func TestExecute_BranchRoutesDifferentTargetsDifferently(t *testing.T) {
	entities := newMemoryEntities()
	extractors := extractorRegistry{
		"fixture": &fakeExtractor{code: "fixture", rows: []map[string]any{
			{"sku": "A1", "region": "us"},
			{"sku": "A2", "region": "eu"},
		}},
	}
	loaders := loaderRegistry{}
	loaders.Register(widgetSpec(entities))
	exe := newTestExecutor(entities, extractors, loaders)

	def := domain.Definition{
		ID:      "pipe-3",
		Code:    "pipe-3",
		Name:    "branching",
		Enabled: true,
		Status:  domain.StatusPublished,
		Steps: []domain.StepDefinition{
			{Key: "extract", Type: domain.StepExtract, AdapterCode: "fixture"},
			{Key: "branch", Type: domain.StepBranch, AdapterCode: "noop", BranchTargets: []string{"us-load", "eu-load"}, Config: map[string]any{
				"routes": map[string]any{
					"us-load": map[string]any{"field": "region", "operator": "==", "value": "us"},
					"eu-load": map[string]any{"field": "region", "operator": "==", "value": "eu"},
				},
			}},
			{Key: "us-load", Type: domain.StepLoad, AdapterCode: "noop", Config: map[string]any{
				"entityType": "widget",
				"operation":  "CREATE",
			}},
			{Key: "eu-load", Type: domain.StepLoad, AdapterCode: "noop", Config: map[string]any{
				"entityType": "widget",
				"operation":  "CREATE",
			}},
		},
	}

	summary, err := exe.Execute(context.Background(), def, ports.ExecuteOptions{PipelineID: "pipe-3", RunID: "run-3"})
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, summary.Status)
	assert.Equal(t, 2, summary.Succeeded)

	for _, rec := range entities.records {
		if rec["sku"] == "A1" {
			assert.Equal(t, "us", rec["region"])
		}
	}
}
