package scorer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/selma/toolforge/pkg/registry"
)

// MetadataSource provides tool metadata for scoring. *registry.Registry
// satisfies it.
type MetadataSource interface {
	Get(name string) (registry.Tool, bool)
}

// PerformanceProvider reports historical success rates. Implementations are
// treated defensively: any error falls back to the default performance
// score.
type PerformanceProvider interface {
	ToolSuccessRate(name string, days int) (float64, error)
}

// LatencyProvider reports rolling average execution time per tool, used to
// fill ToolRecommendation.ExpectedExecutionTime.
type LatencyProvider interface {
	AverageExecutionTime(name string) (time.Duration, bool)
}

// SelectionError signals that the scoring pipeline itself failed before any
// partial result existed.
type SelectionError struct {
	Reason string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("tool selection failed: %s", e.Reason)
}

// Scorer ranks candidate tools against a query and conversation context.
type Scorer struct {
	metadata    MetadataSource
	performance PerformanceProvider
	weights     Weights
}

// New creates a scorer. performance may be nil; the default performance
// score is used in its absence.
func New(metadata MetadataSource, performance PerformanceProvider, weights Weights) *Scorer {
	return &Scorer{
		metadata:    metadata,
		performance: performance,
		weights:     weights,
	}
}

// ScoreTools scores candidates against the query and returns them sorted by
// final score, descending. An empty query or candidate list yields an empty
// result and no error.
func (s *Scorer) ScoreTools(ctx context.Context, query string, candidates []string) ([]ToolScore, error) {
	if s.metadata == nil {
		return nil, &SelectionError{Reason: "no tool metadata source configured"}
	}
	if strings.TrimSpace(query) == "" || len(candidates) == 0 {
		return []ToolScore{}, nil
	}

	queryKeywords := Tokenize(query)

	// Performance lookups are cached per call so a slow collaborator is
	// consulted at most once per tool.
	perfCache := make(map[string]float64, len(candidates))

	scores := make([]ToolScore, 0, len(candidates))
	for _, name := range candidates {
		select {
		case <-ctx.Done():
			return nil, &SelectionError{Reason: ctx.Err().Error()}
		default:
		}

		base, reasoning := s.baseScore(name, queryKeywords)
		perf := s.performanceScore(name, perfCache)
		final := clamp01(s.weights.BaseWeight*base + s.weights.PerformanceWeight*perf)

		scores = append(scores, ToolScore{
			Name:             name,
			BaseScore:        base,
			PerformanceScore: perf,
			FinalScore:       final,
			Reasoning:        reasoning,
		})
	}

	sortByFinalScore(scores)

	log.Debug().
		Str("query", query).
		Int("candidates", len(candidates)).
		Msg("Tools scored")

	return scores, nil
}

// FilterByThreshold returns the names of tools scoring at or above t,
// preserving order.
func (s *Scorer) FilterByThreshold(scores []ToolScore, t float64) []string {
	names := make([]string, 0, len(scores))
	for _, score := range scores {
		if score.FinalScore >= t {
			names = append(names, score.Name)
		}
	}
	return names
}

// Recommendations converts scores into the planner-facing form, attaching
// declared dependencies and expected execution times. latency may be nil.
func (s *Scorer) Recommendations(scores []ToolScore, latency LatencyProvider) []ToolRecommendation {
	const defaultExpected = 2 * time.Second

	recs := make([]ToolRecommendation, 0, len(scores))
	for _, score := range scores {
		expected := defaultExpected
		if latency != nil {
			if avg, ok := latency.AverageExecutionTime(score.Name); ok && avg > 0 {
				expected = avg
			}
		}

		var deps []string
		if tool, ok := s.metadata.Get(score.Name); ok {
			deps = tool.Dependencies
		}

		recs = append(recs, ToolRecommendation{
			Name:                  score.Name,
			RelevanceScore:        score.FinalScore,
			ExpectedExecutionTime: expected,
			Confidence:            score.FinalScore,
			Dependencies:          deps,
		})
	}
	return recs
}

// baseScore blends static metadata with query keyword overlap.
func (s *Scorer) baseScore(name string, queryKeywords []string) (float64, string) {
	tool, known := s.metadata.Get(name)

	metaBase := tool.BaseScore
	if !known {
		metaBase = s.weights.DefaultBaseScore * s.weights.UnknownToolPenalty
	}

	overlap := keywordOverlap(queryKeywords, tool.Keywords)
	base := clamp01(s.weights.MetadataWeight*metaBase + s.weights.KeywordWeight*overlap)

	reasoning := fmt.Sprintf("metadata %.2f, keyword overlap %.2f", metaBase, overlap)
	if !known {
		reasoning = "unknown tool, penalized metadata score; " + reasoning
	}
	return base, reasoning
}

// performanceScore asks the collaborator, swallowing any failure.
func (s *Scorer) performanceScore(name string, cache map[string]float64) float64 {
	if cached, ok := cache[name]; ok {
		return cached
	}

	perf := s.weights.DefaultPerformance
	if s.performance != nil {
		rate, err := s.performance.ToolSuccessRate(name, s.weights.PerformanceDaysBack)
		if err != nil {
			log.Debug().Str("tool", name).Err(err).Msg("Performance lookup failed, using default")
		} else {
			perf = clamp01(rate)
		}
	}

	cache[name] = perf
	return perf
}

// keywordOverlap is |a ∩ b| / min(|a|,|b|), 0 when either side is empty.
func keywordOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, kw := range a {
		set[kw] = struct{}{}
	}

	matches := 0
	seen := make(map[string]struct{}, len(b))
	for _, kw := range b {
		kw = strings.ToLower(kw)
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		if _, ok := set[kw]; ok {
			matches++
		}
	}

	denom := len(a)
	if len(seen) < denom {
		denom = len(seen)
	}
	if denom == 0 {
		return 0
	}
	return float64(matches) / float64(denom)
}

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "can": {}, "do": {}, "for": {}, "from": {}, "has": {},
	"have": {}, "how": {}, "i": {}, "in": {}, "is": {}, "it": {}, "my": {},
	"of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "this": {},
	"to": {}, "was": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"who": {}, "why": {}, "will": {}, "with": {}, "you": {}, "your": {},
}

// Tokenize lowercases, splits on non-alphanumerics, and drops stop words
// and single characters. Order is preserved, duplicates removed.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	tokens := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}

func sortByFinalScore(scores []ToolScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].FinalScore > scores[j].FinalScore
	})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
