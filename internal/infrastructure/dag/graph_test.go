package dag_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/flowforge/streamline/internal/domain/pipeline"
	"github.com/flowforge/streamline/internal/infrastructure/dag"
)

func step(key string, typ domain.StepType) domain.StepDefinition {
	return domain.StepDefinition{Key: key, Type: typ, AdapterCode: "noop"}
}

func TestBuild_SequenceImpliesEdges(t *testing.T) {
	builder := dag.NewBuilder()
	steps := []domain.StepDefinition{
		step("extract", domain.StepExtract),
		step("transform", domain.StepTransform),
		step("load", domain.StepLoad),
	}

	graph, err := builder.Build(context.Background(), steps)
	require.NoError(t, err)

	assert.Equal(t, []string{"extract"}, graph.Roots)
	assert.Equal(t, []string{"extract"}, graph.Nodes["transform"].DependsOn)
	assert.Equal(t, []string{"transform"}, graph.Nodes["load"].DependsOn)
}

func TestBuild_DuplicateKeyRejected(t *testing.T) {
	builder := dag.NewBuilder()
	steps := []domain.StepDefinition{
		step("extract", domain.StepExtract),
		step("extract", domain.StepLoad),
	}

	_, err := builder.Build(context.Background(), steps)
	assert.Error(t, err)
}

func TestBuild_BranchAndMergeExplicitEdges(t *testing.T) {
	builder := dag.NewBuilder()
	branch := step("branch", domain.StepBranch)
	branch.BranchTargets = []string{"left", "right"}
	merge := step("merge", domain.StepMerge)
	merge.MergeSources = []string{"left", "right"}

	steps := []domain.StepDefinition{
		branch,
		step("left", domain.StepTransform),
		step("right", domain.StepTransform),
		merge,
	}

	graph, err := builder.Build(context.Background(), steps)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"branch"}, graph.Nodes["left"].DependsOn)
	assert.ElementsMatch(t, []string{"branch"}, graph.Nodes["right"].DependsOn)
	assert.ElementsMatch(t, []string{"left", "right"}, graph.Nodes["merge"].DependsOn)
}

func TestBuild_UnknownReferenceRejected(t *testing.T) {
	builder := dag.NewBuilder()
	branch := step("branch", domain.StepBranch)
	branch.BranchTargets = []string{"missing"}

	_, err := builder.Build(context.Background(), []domain.StepDefinition{branch})
	assert.Error(t, err)
}

func TestGeneratePlan_LevelsRespectDependencies(t *testing.T) {
	builder := dag.NewBuilder()
	branch := step("branch", domain.StepBranch)
	branch.BranchTargets = []string{"left", "right"}
	merge := step("merge", domain.StepMerge)
	merge.MergeSources = []string{"left", "right"}

	steps := []domain.StepDefinition{
		branch,
		step("left", domain.StepTransform),
		step("right", domain.StepTransform),
		merge,
	}

	graph, err := builder.Build(context.Background(), steps)
	require.NoError(t, err)

	planner := dag.NewPlanner()
	levels, err := planner.GeneratePlan(context.Background(), graph)
	require.NoError(t, err)

	require.Len(t, levels, 3)
	assert.Equal(t, []string{"branch"}, levels[0])
	assert.ElementsMatch(t, []string{"left", "right"}, levels[1])
	assert.Equal(t, []string{"merge"}, levels[2])
}
