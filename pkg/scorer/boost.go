package scorer

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
)

// themeTriggers maps a conversation theme to the keywords that activate it.
// A tool whose category matches an active theme receives the theme boost.
var themeTriggers = map[string][]string{
	"support":     {"support", "help", "issue", "problem", "broken", "complaint"},
	"plans":       {"plan", "plans", "pricing", "upgrade", "package", "tariff"},
	"technical":   {"error", "technical", "broadband", "router", "internet", "connection"},
	"billing":     {"bill", "billing", "payment", "charge", "refund", "invoice"},
	"information": {"information", "hours", "contact", "details", "opening"},
}

// contextProfile is the aggregate produced by a single pass over the
// context entries. Everything the per-tool boost needs is collected here
// so the pass is O(entries), not O(entries × tools).
type contextProfile struct {
	usage        map[string]int
	keywordFreq  map[string]int
	totalTokens  int
	activeThemes map[string]bool
	successes    map[string]int
	attempts     map[string]int
	continuity   float64
	entries      int
}

// ApplyContextBoost adjusts scores using recent conversation history and
// re-sorts. The boost is additive and bounded: each component has its own
// cap and the sum is clamped to the total cap, with the final score never
// exceeding 1.0.
func (s *Scorer) ApplyContextBoost(scores []ToolScore, entries []ContextEntry) []ToolScore {
	if len(scores) == 0 || len(entries) == 0 {
		return scores
	}

	profile := buildContextProfile(entries)

	boosted := make([]ToolScore, len(scores))
	copy(boosted, scores)

	for i := range boosted {
		boost := s.boostFor(boosted[i].Name, profile)
		boosted[i].ContextBoost = boost
		boosted[i].FinalScore = clamp01(boosted[i].FinalScore + boost)
		if boost > 0 {
			boosted[i].Reasoning += fmt.Sprintf("; context boost %.3f", boost)
		}
	}

	sortByFinalScore(boosted)

	log.Debug().
		Int("entries", len(entries)).
		Float64("continuity", profile.continuity).
		Msg("Context boost applied")

	return boosted
}

// buildContextProfile aggregates the context in one chronological pass.
func buildContextProfile(entries []ContextEntry) *contextProfile {
	p := &contextProfile{
		usage:        make(map[string]int),
		keywordFreq:  make(map[string]int),
		activeThemes: make(map[string]bool),
		successes:    make(map[string]int),
		attempts:     make(map[string]int),
		entries:      len(entries),
	}

	ordered := make([]ContextEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var prevTokens []string
	var jaccardSum float64
	pairs := 0

	for _, entry := range ordered {
		tokens := Tokenize(entry.Content)
		for _, tok := range tokens {
			p.keywordFreq[tok]++
		}
		p.totalTokens += len(tokens)

		for theme, triggers := range themeTriggers {
			if p.activeThemes[theme] {
				continue
			}
			for _, trigger := range triggers {
				if p.keywordFreq[trigger] > 0 {
					p.activeThemes[theme] = true
					break
				}
			}
		}

		for _, tool := range toolsUsed(entry) {
			p.usage[tool]++
			p.attempts[tool]++
			if success, ok := entry.Metadata["success"].(bool); ok && success {
				p.successes[tool]++
			}
		}

		if prevTokens != nil {
			jaccardSum += jaccard(prevTokens, tokens)
			pairs++
		}
		prevTokens = tokens
	}

	if pairs > 0 {
		p.continuity = jaccardSum / float64(pairs)
	}

	return p
}

// boostFor computes the bounded additive boost for one tool.
func (s *Scorer) boostFor(name string, p *contextProfile) float64 {
	w := s.weights
	var boost float64

	// Prior usage of the same tool in this conversation.
	if count, ok := p.usage[name]; ok && p.entries > 0 {
		share := float64(count) / float64(p.entries)
		if share > 1 {
			share = 1
		}
		boost += w.UsageBoostCap * share
	}

	// Overlap between the tool's keywords and the context vocabulary.
	if p.totalTokens > 0 {
		if tool, ok := s.metadata.Get(name); ok {
			hits := 0
			for _, kw := range tool.Keywords {
				hits += p.keywordFreq[kw]
			}
			share := float64(hits) / float64(p.totalTokens)
			if share > 1 {
				share = 1
			}
			boost += w.KeywordBoostCap * share
		}
	}

	// Theme alignment between the tool's category and the conversation.
	if tool, ok := s.metadata.Get(name); ok && p.activeThemes[tool.Category] {
		boost += w.ThemeBoostCap
	}

	// Historical in-conversation success of this tool.
	if attempts := p.attempts[name]; attempts > 0 {
		ratio := float64(p.successes[name]) / float64(attempts)
		boost += w.SuccessBoostCap * ratio
	}

	// Conversation continuity applies to every candidate equally.
	boost += w.ContinuityBoostCap * p.continuity

	if boost > w.TotalBoostCap {
		boost = w.TotalBoostCap
	}
	return boost
}

// toolsUsed extracts tool names from an entry's metadata. Both a single
// "tool" string and a "tools_used" list are accepted.
func toolsUsed(entry ContextEntry) []string {
	if entry.Metadata == nil {
		return nil
	}

	var tools []string
	if name, ok := entry.Metadata["tool"].(string); ok && name != "" {
		tools = append(tools, name)
	}
	switch used := entry.Metadata["tools_used"].(type) {
	case []string:
		tools = append(tools, used...)
	case []interface{}:
		for _, v := range used {
			if name, ok := v.(string); ok {
				tools = append(tools, name)
			}
		}
	}
	return tools
}

// jaccard is |a ∩ b| / |a ∪ b| over token sets.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	union := make(map[string]struct{}, len(a)+len(b))
	setA := make(map[string]struct{}, len(a))
	for _, tok := range a {
		union[tok] = struct{}{}
		setA[tok] = struct{}{}
	}

	intersect := 0
	for _, tok := range b {
		if _, dup := union[tok]; dup {
			if _, inA := setA[tok]; inA {
				intersect++
				delete(setA, tok)
			}
			continue
		}
		union[tok] = struct{}{}
	}

	if len(union) == 0 {
		return 0
	}
	return float64(intersect) / float64(len(union))
}
