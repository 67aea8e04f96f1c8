package orchestrator_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/streamline/internal/application/orchestrator"
	domain "github.com/flowforge/streamline/internal/domain/pipeline"
	"github.com/flowforge/streamline/internal/ports"
)

type stubStore struct {
	defs map[string]domain.Definition
}

func (s stubStore) UpsertPipeline(context.Context, domain.Definition) error    { return nil }
func (s stubStore) UpsertSecret(context.Context, ports.SecretDefinition) error { return nil }
func (s stubStore) UpsertConnection(context.Context, ports.ConnectionDefinition) error {
	return nil
}
func (s stubStore) GetPipeline(_ context.Context, code string) (domain.Definition, bool, error) {
	def, ok := s.defs[code]
	return def, ok, nil
}
func (s stubStore) ListPipelines(context.Context) ([]domain.Definition, error) {
	out := make([]domain.Definition, 0, len(s.defs))
	for _, def := range s.defs {
		out = append(out, def)
	}
	return out, nil
}

type stubOrchestrator struct {
	summary domain.Summary
	err     error
	gotOpts ports.ExecuteOptions
}

func (s *stubOrchestrator) Execute(_ context.Context, _ domain.Definition, opts ports.ExecuteOptions) (domain.Summary, error) {
	s.gotOpts = opts
	return s.summary, s.err
}
func (s *stubOrchestrator) ReplayFromStep(context.Context, domain.Definition, string, []map[string]any) (domain.Summary, error) {
	return domain.Summary{}, nil
}
func (s *stubOrchestrator) Cancel(string) error { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, e ports.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e.EventType())
	return nil
}
func (p *recordingPublisher) Subscribe(string, ports.EventHandler) (ports.Subscription, error) {
	return nil, nil
}

func TestExecuteUseCase_RunsPublishedPipeline(t *testing.T) {
	store := stubStore{defs: map[string]domain.Definition{
		"widgets": {ID: "p1", Code: "widgets", Status: domain.StatusPublished, Enabled: true},
	}}
	orch := &stubOrchestrator{summary: domain.Summary{Status: domain.RunCompleted, Succeeded: 3}}
	events := &recordingPublisher{}

	uc := orchestrator.NewExecuteUseCase(store, orch, nil, events)
	summary, err := uc.Run(context.Background(), "widgets", ports.ExecuteOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, summary.Status)
	assert.Equal(t, "p1", orch.gotOpts.PipelineID)
}

func TestExecuteUseCase_UnknownPipelineCode(t *testing.T) {
	store := stubStore{defs: map[string]domain.Definition{}}
	orch := &stubOrchestrator{}
	events := &recordingPublisher{}

	uc := orchestrator.NewExecuteUseCase(store, orch, nil, events)
	_, err := uc.Run(context.Background(), "missing", ports.ExecuteOptions{})
	assert.Error(t, err)
	assert.Contains(t, events.events, ports.EventPipelineFailed)
}

func TestExecuteUseCase_RejectsUnpublishedPipelineUnlessDryRun(t *testing.T) {
	store := stubStore{defs: map[string]domain.Definition{
		"widgets": {ID: "p1", Code: "widgets", Status: domain.StatusDraft, Enabled: true},
	}}
	orch := &stubOrchestrator{summary: domain.Summary{Status: domain.RunCompleted}}

	uc := orchestrator.NewExecuteUseCase(store, orch, nil, nil)
	_, err := uc.Run(context.Background(), "widgets", ports.ExecuteOptions{})
	assert.Error(t, err)

	_, err = uc.Run(context.Background(), "widgets", ports.ExecuteOptions{DryRun: true})
	assert.NoError(t, err)
}

func TestExecuteUseCase_ResumePassesRunIDAndResumeFlag(t *testing.T) {
	store := stubStore{defs: map[string]domain.Definition{
		"widgets": {ID: "p1", Code: "widgets", Status: domain.StatusPublished, Enabled: true},
	}}
	orch := &stubOrchestrator{summary: domain.Summary{Status: domain.RunCompleted}}

	uc := orchestrator.NewExecuteUseCase(store, orch, nil, nil)
	_, err := uc.Resume(context.Background(), "widgets", "run-1")
	require.NoError(t, err)
	assert.True(t, orch.gotOpts.Resume)
	assert.Equal(t, "run-1", orch.gotOpts.RunID)
}
