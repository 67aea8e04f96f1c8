// Package dag builds the step dependency graph an execution plan is
// derived from, adapting the teacher's Kahn's-algorithm graph to
// sequence-implied edges plus the explicit BRANCH/MERGE edges a
// pipeline step definition carries.
package dag

import (
	"context"
	"sort"

	domain "github.com/flowforge/streamline/internal/domain/pipeline"
	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/pipelineerr"
)

// Builder implements ports.DAGBuilder.
type Builder struct{}

// NewBuilder constructs a dependency-graph builder.
func NewBuilder() *Builder { return &Builder{} }

// Build constructs an ExecutionGraph from step definitions. Edges come
// from two sources: sequence order (each step other than a BRANCH or
// MERGE step depends on the one before it, unless that predecessor is a
// BRANCH step or the step itself is a branch target) and explicit
// branchTargets/mergeSources, the only edges BRANCH and MERGE steps add.
func (b *Builder) Build(_ context.Context, steps []domain.StepDefinition) (*ports.ExecutionGraph, error) {
	graph := &ports.ExecutionGraph{Nodes: make(map[string]*ports.ExecutionNode, len(steps))}

	for _, step := range steps {
		if _, exists := graph.Nodes[step.Key]; exists {
			return nil, pipelineerr.Newf(pipelineerr.ConfigInvalid, "duplicate step key %q", step.Key).WithField("key", step.Key)
		}
		graph.Nodes[step.Key] = &ports.ExecutionNode{Step: step}
	}

	addEdge := func(from, to string) error {
		source, ok := graph.Nodes[from]
		if !ok {
			return pipelineerr.Newf(pipelineerr.ConfigInvalid, "step references unknown key %q", from).WithField("key", from)
		}
		target, ok := graph.Nodes[to]
		if !ok {
			return pipelineerr.Newf(pipelineerr.ConfigInvalid, "step references unknown key %q", to).WithField("key", to)
		}
		source.Dependents = append(source.Dependents, to)
		target.DependsOn = append(target.DependsOn, from)
		return nil
	}

	branchTargeted := make(map[string]bool)
	for _, step := range steps {
		if step.Type == domain.StepBranch {
			for _, target := range step.BranchTargets {
				branchTargeted[target] = true
			}
		}
	}

	for i, step := range steps {
		switch step.Type {
		case domain.StepBranch:
			for _, target := range step.BranchTargets {
				if err := addEdge(step.Key, target); err != nil {
					return nil, err
				}
			}
		case domain.StepMerge:
			for _, source := range step.MergeSources {
				if err := addEdge(source, step.Key); err != nil {
					return nil, err
				}
			}
		default:
			if i == 0 {
				continue
			}
			prev := steps[i-1]
			if prev.Type == domain.StepBranch || branchTargeted[step.Key] {
				// A branch step's successors are named explicitly;
				// sequence order contributes no implicit edge here.
				continue
			}
			if err := addEdge(prev.Key, step.Key); err != nil {
				return nil, err
			}
		}
	}

	if err := detectCycle(graph); err != nil {
		return nil, err
	}

	var roots []string
	for key, node := range graph.Nodes {
		if len(node.DependsOn) == 0 {
			roots = append(roots, key)
		}
	}
	sort.Strings(roots)
	graph.Roots = roots

	return graph, nil
}

// detectCycle runs Kahn's algorithm purely to confirm every node is
// reachable in some topological order; GeneratePlan does the leveling.
func detectCycle(graph *ports.ExecutionGraph) error {
	indegree := make(map[string]int, len(graph.Nodes))
	for key, node := range graph.Nodes {
		indegree[key] = len(node.DependsOn)
	}

	var queue []string
	for key, degree := range indegree {
		if degree == 0 {
			queue = append(queue, key)
		}
	}

	processed := 0
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		processed++
		for _, dependent := range graph.Nodes[key].Dependents {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if processed != len(graph.Nodes) {
		return pipelineerr.New(pipelineerr.ConfigInvalid, "cycle detected among step dependencies")
	}
	return nil
}
