package dag

import (
	"context"
	"sort"

	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/pipelineerr"
)

// Planner implements ports.ExecutionPlanner using Kahn's algorithm to
// compute topological levels: each level's steps have no dependency on
// one another and may run concurrently (bounded by the per-step
// parallelExecution policy applied by the executor).
type Planner struct{}

// NewPlanner constructs an execution planner.
func NewPlanner() *Planner { return &Planner{} }

func (p *Planner) GeneratePlan(_ context.Context, graph *ports.ExecutionGraph) ([][]string, error) {
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
	sort.Strings(queue)

	var levels [][]string
	processed := 0
	for len(queue) > 0 {
		level := append([]string(nil), queue...)
		levels = append(levels, level)

		var next []string
		for _, key := range level {
			processed++
			for _, dependent := range graph.Nodes[key].Dependents {
				indegree[dependent]--
				if indegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		sort.Strings(next)
		queue = next
	}

	if processed != len(graph.Nodes) {
		return nil, pipelineerr.New(pipelineerr.ConfigInvalid, "cycle detected while planning step execution")
	}
	return levels, nil
}
