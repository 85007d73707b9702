package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selma/toolforge/pkg/scorer"
)

func depsFrom(table map[string][]string) DependencyLookup {
	return func(name string) []string {
		return table[name]
	}
}

func TestBuildPlan_NoDependencies(t *testing.T) {
	batches, err := BuildPlan([]string{"a", "b", "c"}, depsFrom(nil))
	require.NoError(t, err)

	require.Len(t, batches, 1)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, batches[0])
}

func TestBuildPlan_Layering(t *testing.T) {
	table := map[string][]string{
		"enrich":  {"fetch"},
		"render":  {"enrich", "lookup"},
		"fetch":   nil,
		"lookup":  nil,
		"archive": {"render"},
	}

	batches, err := BuildPlan([]string{"fetch", "lookup", "enrich", "render", "archive"}, depsFrom(table))
	require.NoError(t, err)

	require.Len(t, batches, 4)
	assert.ElementsMatch(t, []string{"fetch", "lookup"}, batches[0])
	assert.Equal(t, []string{"enrich"}, batches[1])
	assert.Equal(t, []string{"render"}, batches[2])
	assert.Equal(t, []string{"archive"}, batches[3])
}

func TestBuildPlan_CrossCallDependencySatisfied(t *testing.T) {
	// "report" depends on "collect", but "collect" was not requested this
	// call: the dependency counts as satisfied to avoid deadlock.
	table := map[string][]string{
		"report": {"collect"},
	}

	batches, err := BuildPlan([]string{"report"}, depsFrom(table))
	require.NoError(t, err)

	require.Len(t, batches, 1)
	assert.Equal(t, []string{"report"}, batches[0])
}

func TestBuildPlan_CycleDetected(t *testing.T) {
	table := map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}

	_, err := BuildPlan([]string{"a", "b"}, depsFrom(table))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular")
}

func TestBuildPlan_SelfDependency(t *testing.T) {
	table := map[string][]string{
		"a": {"a"},
	}

	_, err := BuildPlan([]string{"a"}, depsFrom(table))
	require.Error(t, err)
}

func TestBuildPlan_DuplicateRequest(t *testing.T) {
	_, err := BuildPlan([]string{"a", "a"}, depsFrom(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestBuildPlan_Empty(t *testing.T) {
	batches, err := BuildPlan(nil, depsFrom(nil))
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestOptimizeExecutionOrder(t *testing.T) {
	recs := []scorer.ToolRecommendation{
		{Name: "dependent_high", RelevanceScore: 0.9, Dependencies: []string{"free_low"}},
		{Name: "free_low", RelevanceScore: 0.4},
		{Name: "free_high", RelevanceScore: 0.8},
		{Name: "dependent_low", RelevanceScore: 0.3, Dependencies: []string{"free_high"}},
	}

	ordered := OptimizeExecutionOrder(recs)
	require.Len(t, ordered, 4)

	assert.Equal(t, "free_high", ordered[0].Name)
	assert.Equal(t, "free_low", ordered[1].Name)
	assert.Equal(t, "dependent_high", ordered[2].Name)
	assert.Equal(t, "dependent_low", ordered[3].Name)

	// Input untouched.
	assert.Equal(t, "dependent_high", recs[0].Name)
}
