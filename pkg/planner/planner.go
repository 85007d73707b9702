// Package planner converts a requested tool set plus the static dependency
// table into concurrency-safe execution batches.
package planner

import (
	"fmt"
	"sort"

	"github.com/selma/toolforge/pkg/scorer"
)

// DependencyLookup returns the declared prerequisite tools for a name.
// (*registry.Registry).Dependencies satisfies it.
type DependencyLookup func(name string) []string

// BuildPlan layers the requested tools topologically: batch 0 holds tools
// with no unresolved dependency inside the requested set, batch k holds
// tools whose dependencies are satisfied by batches 0..k-1. A dependency
// that was not itself requested counts as already satisfied, so cross-call
// dependencies never deadlock a plan. A cycle within the requested set is
// an error.
func BuildPlan(ids []string, deps DependencyLookup) ([][]string, error) {
	if len(ids) == 0 {
		return [][]string{}, nil
	}

	requested := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		requested[id] = struct{}{}
	}

	// Effective dependencies: only edges that stay inside the request.
	inDegree := make(map[string]int, len(ids))
	dependents := make(map[string][]string)
	for _, id := range ids {
		if _, dup := inDegree[id]; dup {
			return nil, fmt.Errorf("duplicate tool in request: %s", id)
		}
		inDegree[id] = 0
	}
	for _, id := range ids {
		for _, dep := range deps(id) {
			if _, in := requested[dep]; !in {
				continue
			}
			if dep == id {
				return nil, fmt.Errorf("tool %s depends on itself", id)
			}
			dependents[dep] = append(dependents[dep], id)
			inDegree[id]++
		}
	}

	var batches [][]string
	queue := make([]string, 0, len(ids))
	for _, id := range ids { // request order keeps batches deterministic
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	placed := 0
	for len(queue) > 0 {
		batch := make([]string, len(queue))
		copy(batch, queue)
		batches = append(batches, batch)
		placed += len(batch)

		next := []string{}
		for _, id := range queue {
			for _, dependent := range dependents[id] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		sort.Strings(next)
		queue = next
	}

	if placed != len(ids) {
		return nil, fmt.Errorf("circular dependency among requested tools")
	}

	return batches, nil
}

// OptimizeExecutionOrder produces a flat priority ordering for callers that
// want early-exit semantics instead of strict batching: zero-dependency
// tools come first, then by relevance, descending. The sort is stable.
func OptimizeExecutionOrder(recs []scorer.ToolRecommendation) []scorer.ToolRecommendation {
	ordered := make([]scorer.ToolRecommendation, len(recs))
	copy(ordered, recs)

	sort.SliceStable(ordered, func(i, j int) bool {
		iFree := len(ordered[i].Dependencies) == 0
		jFree := len(ordered[j].Dependencies) == 0
		if iFree != jFree {
			return iFree
		}
		return ordered[i].RelevanceScore > ordered[j].RelevanceScore
	})

	return ordered
}
