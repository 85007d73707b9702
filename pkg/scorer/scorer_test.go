package scorer

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selma/toolforge/pkg/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	reg := registry.New()
	tools := []registry.Tool{
		{
			Name:      "BTWebsiteSearch",
			Category:  "information",
			Keywords:  []string{"search", "website", "information", "find"},
			BaseScore: 0.8,
		},
		{
			Name:      "BTSupportHours",
			Category:  "information",
			Keywords:  []string{"hours", "opening", "support", "contact"},
			BaseScore: 0.7,
		},
		{
			Name:      "BTPlansInformation",
			Category:  "plans",
			Keywords:  []string{"plan", "plans", "pricing", "tariff", "upgrade"},
			BaseScore: 0.8,
		},
		{
			Name:      "CreateSupportTicket",
			Category:  "support",
			Keywords:  []string{"ticket", "support", "issue", "problem", "complaint"},
			BaseScore: 0.7,
			Fallbacks: []string{"BTSupportHours"},
		},
	}
	for _, tool := range tools {
		require.NoError(t, reg.Register(tool))
	}
	return reg
}

type stubPerformance struct {
	rates map[string]float64
	err   error
	calls int
}

func (s *stubPerformance) ToolSuccessRate(name string, days int) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	rate, ok := s.rates[name]
	if !ok {
		return 0, fmt.Errorf("no data for %s", name)
	}
	return rate, nil
}

func TestScorer_ScoreTools_SortedAndBounded(t *testing.T) {
	reg := testRegistry(t)
	s := New(reg, nil, DefaultWeights())

	scores, err := s.ScoreTools(context.Background(), "search the website for broadband plans", reg.List())
	require.NoError(t, err)
	require.Len(t, scores, 4)

	assert.True(t, sort.SliceIsSorted(scores, func(i, j int) bool {
		return scores[i].FinalScore > scores[j].FinalScore
	}) || isNonIncreasing(scores))

	for _, sc := range scores {
		assert.GreaterOrEqual(t, sc.BaseScore, 0.0)
		assert.LessOrEqual(t, sc.BaseScore, 1.0)
		assert.GreaterOrEqual(t, sc.PerformanceScore, 0.0)
		assert.LessOrEqual(t, sc.PerformanceScore, 1.0)
		assert.GreaterOrEqual(t, sc.FinalScore, 0.0)
		assert.LessOrEqual(t, sc.FinalScore, 1.0)
		assert.NotEmpty(t, sc.Reasoning)
	}
}

func isNonIncreasing(scores []ToolScore) bool {
	for i := 1; i < len(scores); i++ {
		if scores[i].FinalScore > scores[i-1].FinalScore {
			return false
		}
	}
	return true
}

func TestScorer_ScoreTools_EmptyInputs(t *testing.T) {
	reg := testRegistry(t)
	s := New(reg, nil, DefaultWeights())

	tests := []struct {
		name       string
		query      string
		candidates []string
	}{
		{"empty query", "", []string{"BTWebsiteSearch"}},
		{"whitespace query", "   ", []string{"BTWebsiteSearch"}},
		{"no candidates", "find my plan", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := s.ScoreTools(context.Background(), tt.query, tt.candidates)
			assert.NoError(t, err)
			assert.Empty(t, scores)
		})
	}
}

func TestScorer_ScoreTools_NoMetadataSource(t *testing.T) {
	s := New(nil, nil, DefaultWeights())

	_, err := s.ScoreTools(context.Background(), "anything", []string{"x"})
	require.Error(t, err)

	var selErr *SelectionError
	assert.ErrorAs(t, err, &selErr)
}

func TestScorer_ScoreTools_UnknownToolPenalty(t *testing.T) {
	reg := testRegistry(t)
	s := New(reg, nil, DefaultWeights())

	scores, err := s.ScoreTools(context.Background(), "support hours", []string{"BTSupportHours", "NoSuchTool"})
	require.NoError(t, err)
	require.Len(t, scores, 2)

	byName := map[string]ToolScore{}
	for _, sc := range scores {
		byName[sc.Name] = sc
	}

	// Unknown tools score from a penalized default with no keyword credit.
	assert.Less(t, byName["NoSuchTool"].BaseScore, byName["BTSupportHours"].BaseScore)
	assert.Contains(t, byName["NoSuchTool"].Reasoning, "unknown tool")
}

func TestScorer_ScoreTools_PerformanceDefaults(t *testing.T) {
	reg := testRegistry(t)

	t.Run("nil provider uses default", func(t *testing.T) {
		s := New(reg, nil, DefaultWeights())
		scores, err := s.ScoreTools(context.Background(), "search website", []string{"BTWebsiteSearch"})
		require.NoError(t, err)
		assert.InDelta(t, 0.7, scores[0].PerformanceScore, 1e-9)
	})

	t.Run("provider error swallowed", func(t *testing.T) {
		s := New(reg, &stubPerformance{err: fmt.Errorf("analytics down")}, DefaultWeights())
		scores, err := s.ScoreTools(context.Background(), "search website", []string{"BTWebsiteSearch"})
		require.NoError(t, err)
		assert.InDelta(t, 0.7, scores[0].PerformanceScore, 1e-9)
	})

	t.Run("provider rate clamped and used", func(t *testing.T) {
		perf := &stubPerformance{rates: map[string]float64{"BTWebsiteSearch": 0.95}}
		s := New(reg, perf, DefaultWeights())
		scores, err := s.ScoreTools(context.Background(), "search website", []string{"BTWebsiteSearch"})
		require.NoError(t, err)
		assert.InDelta(t, 0.95, scores[0].PerformanceScore, 1e-9)
	})

	t.Run("lookups cached per call", func(t *testing.T) {
		perf := &stubPerformance{rates: map[string]float64{"BTWebsiteSearch": 0.9}}
		s := New(reg, perf, DefaultWeights())
		_, err := s.ScoreTools(context.Background(), "search website", []string{"BTWebsiteSearch", "BTWebsiteSearch"})
		require.NoError(t, err)
		assert.Equal(t, 1, perf.calls)
	})
}

func TestScorer_FilterByThreshold(t *testing.T) {
	s := New(testRegistry(t), nil, DefaultWeights())

	scores := []ToolScore{
		{Name: "a", FinalScore: 0.9},
		{Name: "b", FinalScore: 0.5},
		{Name: "c", FinalScore: 0.2},
	}

	assert.Equal(t, []string{"a", "b"}, s.FilterByThreshold(scores, 0.5))
	assert.Equal(t, []string{"a", "b", "c"}, s.FilterByThreshold(scores, 0.0))
	assert.Empty(t, s.FilterByThreshold(scores, 0.95))
}

type stubLatency struct {
	times map[string]time.Duration
}

func (s *stubLatency) AverageExecutionTime(name string) (time.Duration, bool) {
	d, ok := s.times[name]
	return d, ok
}

func TestScorer_Recommendations(t *testing.T) {
	reg := testRegistry(t)
	s := New(reg, nil, DefaultWeights())

	scores := []ToolScore{
		{Name: "CreateSupportTicket", FinalScore: 0.8},
		{Name: "BTWebsiteSearch", FinalScore: 0.6},
	}
	latency := &stubLatency{times: map[string]time.Duration{
		"BTWebsiteSearch": 800 * time.Millisecond,
	}}

	recs := s.Recommendations(scores, latency)
	require.Len(t, recs, 2)

	assert.Equal(t, "CreateSupportTicket", recs[0].Name)
	assert.InDelta(t, 0.8, recs[0].RelevanceScore, 1e-9)
	assert.Equal(t, 2*time.Second, recs[0].ExpectedExecutionTime) // default, no history
	assert.Equal(t, 800*time.Millisecond, recs[1].ExpectedExecutionTime)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"stop words dropped", "what is the status of my bill", []string{"status", "bill"}},
		{"punctuation split", "router, broadband; internet!", []string{"router", "broadband", "internet"}},
		{"duplicates removed", "plans plans plans", []string{"plans"}},
		{"empty", "", nil},
		{"only stop words", "the of and", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
