package scorer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryAt(content string, minutesAgo int, metadata map[string]interface{}) ContextEntry {
	return ContextEntry{
		Content:        content,
		Source:         "conversation",
		RelevanceScore: 0.8,
		Timestamp:      time.Now().Add(-time.Duration(minutesAgo) * time.Minute),
		ContextType:    "chat_turn",
		Metadata:       metadata,
	}
}

func TestApplyContextBoost_Bounds(t *testing.T) {
	reg := testRegistry(t)
	s := New(reg, nil, DefaultWeights())

	scores, err := s.ScoreTools(context.Background(), "support problem with my plan", reg.List())
	require.NoError(t, err)

	entries := []ContextEntry{
		entryAt("I have an issue with my broadband support", 10,
			map[string]interface{}{"tools_used": []string{"CreateSupportTicket"}, "success": true}),
		entryAt("still the same support issue and problem", 5,
			map[string]interface{}{"tools_used": []string{"CreateSupportTicket"}, "success": true}),
		entryAt("please raise a support ticket for this problem", 1, nil),
	}

	boosted := s.ApplyContextBoost(scores, entries)
	require.Len(t, boosted, len(scores))

	for _, sc := range boosted {
		assert.GreaterOrEqual(t, sc.ContextBoost, 0.0)
		assert.LessOrEqual(t, sc.ContextBoost, 0.5)
		assert.GreaterOrEqual(t, sc.FinalScore, 0.0)
		assert.LessOrEqual(t, sc.FinalScore, 1.0)
	}

	assert.True(t, isNonIncreasing(boosted), "boosted scores must stay sorted")
}

func TestApplyContextBoost_SupportContextRanksTicketFirst(t *testing.T) {
	reg := testRegistry(t)
	s := New(reg, nil, DefaultWeights())

	candidates := []string{"BTPlansInformation", "CreateSupportTicket"}
	scores, err := s.ScoreTools(context.Background(), "billing problem", candidates)
	require.NoError(t, err)

	entries := []ContextEntry{
		entryAt("I reported an issue earlier and asked for support", 15, nil),
		entryAt("the support agent said the issue would be fixed", 5, nil),
	}

	boosted := s.ApplyContextBoost(scores, entries)

	byName := map[string]ToolScore{}
	for _, sc := range boosted {
		byName[sc.Name] = sc
	}
	assert.GreaterOrEqual(t,
		byName["CreateSupportTicket"].FinalScore,
		byName["BTPlansInformation"].FinalScore,
		"support-flavored context must rank ticket creation at least as high as plans info")
	assert.Equal(t, "CreateSupportTicket", boosted[0].Name)
}

func TestApplyContextBoost_EmptyInputs(t *testing.T) {
	reg := testRegistry(t)
	s := New(reg, nil, DefaultWeights())

	scores := []ToolScore{{Name: "BTWebsiteSearch", FinalScore: 0.5}}

	assert.Equal(t, scores, s.ApplyContextBoost(scores, nil))
	assert.Empty(t, s.ApplyContextBoost(nil, []ContextEntry{entryAt("hi there", 1, nil)}))
}

func TestApplyContextBoost_UsageAndSuccessComponents(t *testing.T) {
	reg := testRegistry(t)
	s := New(reg, nil, DefaultWeights())

	scores, err := s.ScoreTools(context.Background(), "search the website", []string{"BTWebsiteSearch", "BTSupportHours"})
	require.NoError(t, err)

	// BTWebsiteSearch was used successfully twice; BTSupportHours never.
	entries := []ContextEntry{
		entryAt("searched the website", 10,
			map[string]interface{}{"tool": "BTWebsiteSearch", "success": true}),
		entryAt("searched the website again", 2,
			map[string]interface{}{"tool": "BTWebsiteSearch", "success": true}),
	}

	boosted := s.ApplyContextBoost(scores, entries)

	byName := map[string]ToolScore{}
	for _, sc := range boosted {
		byName[sc.Name] = sc
	}
	assert.Greater(t,
		byName["BTWebsiteSearch"].ContextBoost,
		byName["BTSupportHours"].ContextBoost)
}

func TestBuildContextProfile_Continuity(t *testing.T) {
	t.Run("fewer than two entries", func(t *testing.T) {
		p := buildContextProfile([]ContextEntry{entryAt("broadband router error", 1, nil)})
		assert.Zero(t, p.continuity)
	})

	t.Run("identical adjacent entries", func(t *testing.T) {
		p := buildContextProfile([]ContextEntry{
			entryAt("broadband router error", 10, nil),
			entryAt("broadband router error", 5, nil),
		})
		assert.InDelta(t, 1.0, p.continuity, 1e-9)
	})

	t.Run("disjoint adjacent entries", func(t *testing.T) {
		p := buildContextProfile([]ContextEntry{
			entryAt("broadband router error", 10, nil),
			entryAt("holiday opening hours", 5, nil),
		})
		assert.InDelta(t, 0.0, p.continuity, 1e-9)
	})
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"x", "y"}, []string{"x", "y"}, 1.0},
		{"disjoint", []string{"x"}, []string{"y"}, 0.0},
		{"half", []string{"x", "y"}, []string{"y", "z"}, 1.0 / 3.0},
		{"both empty", nil, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, jaccard(tt.a, tt.b), 1e-9)
		})
	}
}
