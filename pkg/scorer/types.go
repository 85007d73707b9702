package scorer

import "time"

// ToolScore is the per-call scoring breakdown for one candidate tool.
// All components are bounded: base, performance and final in [0,1],
// context boost in [0,0.5].
type ToolScore struct {
	Name             string  `json:"name"`
	BaseScore        float64 `json:"base_score"`
	PerformanceScore float64 `json:"performance_score"`
	ContextBoost     float64 `json:"context_boost"`
	FinalScore       float64 `json:"final_score"`
	Reasoning        string  `json:"reasoning"`
}

// ToolRecommendation is the planner-facing view derived from a ToolScore.
type ToolRecommendation struct {
	Name                  string        `json:"name"`
	RelevanceScore        float64       `json:"relevance_score"`
	ExpectedExecutionTime time.Duration `json:"expected_execution_time"`
	Confidence            float64       `json:"confidence"`
	Dependencies          []string      `json:"dependencies"`
}

// ContextEntry is one unit of conversation context from the retrieval
// collaborator. Metadata may carry "tools_used" ([]string) and "success"
// (bool) markers which the boost pass consumes.
type ContextEntry struct {
	Content        string                 `json:"content"`
	Source         string                 `json:"source"`
	RelevanceScore float64                `json:"relevance_score"`
	Timestamp      time.Time              `json:"timestamp"`
	ContextType    string                 `json:"context_type"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// Weights holds every tunable constant of the scoring pipeline. The
// defaults match long-observed production behavior; treat them as a
// starting point, not gospel.
type Weights struct {
	MetadataWeight    float64 `json:"metadata_weight" mapstructure:"metadata_weight"`
	KeywordWeight     float64 `json:"keyword_weight" mapstructure:"keyword_weight"`
	BaseWeight        float64 `json:"base_weight" mapstructure:"base_weight"`
	PerformanceWeight float64 `json:"performance_weight" mapstructure:"performance_weight"`

	DefaultBaseScore    float64 `json:"default_base_score" mapstructure:"default_base_score"`
	UnknownToolPenalty  float64 `json:"unknown_tool_penalty" mapstructure:"unknown_tool_penalty"`
	DefaultPerformance  float64 `json:"default_performance" mapstructure:"default_performance"`
	PerformanceDaysBack int     `json:"performance_days_back" mapstructure:"performance_days_back"`

	UsageBoostCap      float64 `json:"usage_boost_cap" mapstructure:"usage_boost_cap"`
	KeywordBoostCap    float64 `json:"keyword_boost_cap" mapstructure:"keyword_boost_cap"`
	ThemeBoostCap      float64 `json:"theme_boost_cap" mapstructure:"theme_boost_cap"`
	SuccessBoostCap    float64 `json:"success_boost_cap" mapstructure:"success_boost_cap"`
	ContinuityBoostCap float64 `json:"continuity_boost_cap" mapstructure:"continuity_boost_cap"`
	TotalBoostCap      float64 `json:"total_boost_cap" mapstructure:"total_boost_cap"`
}

// DefaultWeights returns the production defaults.
func DefaultWeights() Weights {
	return Weights{
		MetadataWeight:    0.6,
		KeywordWeight:     0.4,
		BaseWeight:        0.7,
		PerformanceWeight: 0.3,

		DefaultBaseScore:    0.5,
		UnknownToolPenalty:  0.5,
		DefaultPerformance:  0.7,
		PerformanceDaysBack: 30,

		UsageBoostCap:      0.15,
		KeywordBoostCap:    0.10,
		ThemeBoostCap:      0.10,
		SuccessBoostCap:    0.08,
		ContinuityBoostCap: 0.07,
		TotalBoostCap:      0.5,
	}
}
