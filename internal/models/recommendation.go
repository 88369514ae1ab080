package models

// Priority of a recommendation, derived from score thresholds only.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

func ValidPriority(s string) bool {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Score scale constants. Thresholds are tunable via configuration; these are
// the defaults.
const (
	ScoreFloor   = 400.0
	ScoreCeiling = 800.0

	LowScoreThreshold      = 550.0
	CriticalScoreThreshold = 450.0

	TargetScore = 650.0

	// DefaultUntestedScore is assumed for an explicitly requested skill the
	// user has never been assessed on.
	DefaultUntestedScore = 500.0
)

// PriorityForScore maps a score onto a priority. MEDIUM is only reachable for
// explicitly requested skills that are not true gaps.
func PriorityForScore(score, lowThreshold, criticalThreshold float64) Priority {
	switch {
	case score < criticalThreshold:
		return PriorityCritical
	case score < lowThreshold:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// SkillGap is a skill whose latest score falls below the low threshold, or a
// skill the caller explicitly asked about (Synthesized=true).
type SkillGap struct {
	SkillID     string  `json:"skillId"`
	Score       float64 `json:"score"`
	Skill       Skill   `json:"skill"`
	Synthesized bool    `json:"synthesized"`
}

// ScoredResource pairs a candidate resource with its composite score and the
// individual factors that produced it.
type ScoredResource struct {
	Resource        Resource `json:"resource"`
	CompositeScore  float64  `json:"compositeScore"`
	Effectiveness   float64  `json:"effectiveness"`
	DifficultyMatch float64  `json:"difficultyMatch"`
	Recency         float64  `json:"recency"`
	Preference      float64  `json:"preference"`
}

// RecommendationResult is the per-skill payload returned to the caller.
type RecommendationResult struct {
	ID          string   `json:"id"`
	SkillID     string   `json:"skillId"`
	SkillName   string   `json:"skillName"`
	Priority    Priority `json:"priority"`
	Score       float64  `json:"score"`
	TargetScore float64  `json:"targetScore"`
	Explanation string   `json:"explanation"`
	AIGenerated bool     `json:"aiGenerated"`
	Resource    Resource `json:"resource"`
}
