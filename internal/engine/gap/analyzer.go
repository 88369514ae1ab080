// Package gap reduces a user's latest per-skill scores to an ordered list of
// skill gaps.
package gap

import (
	"sort"

	"learning-engine/internal/models"
)

// Analyzer detects skill gaps from assessment scores.
type Analyzer struct {
	lowThreshold      float64
	criticalThreshold float64
}

func NewAnalyzer(lowThreshold, criticalThreshold float64) *Analyzer {
	if lowThreshold <= 0 {
		lowThreshold = models.LowScoreThreshold
	}
	if criticalThreshold <= 0 {
		criticalThreshold = models.CriticalScoreThreshold
	}
	return &Analyzer{
		lowThreshold:      lowThreshold,
		criticalThreshold: criticalThreshold,
	}
}

// Analyze returns gaps sorted ascending by score, lowest (most urgent) first.
// Scores arrive one row per skill; ties on skill are resolved upstream by
// recency. If requestedSkillID names a skill that is not a true gap, a
// synthetic gap is appended after the sorted ones, using the real latest score
// when the user has one and the untested baseline otherwise.
func (a *Analyzer) Analyze(scores []models.AssessmentScore, requestedSkillID string, requestedSkill *models.Skill) []models.SkillGap {
	latest := latestPerSkill(scores)

	var gaps []models.SkillGap
	for _, sc := range latest {
		if sc.Score < a.lowThreshold {
			gaps = append(gaps, models.SkillGap{
				SkillID: sc.SkillID,
				Score:   sc.Score,
				Skill:   sc.Skill,
			})
		}
	}

	sort.Slice(gaps, func(i, j int) bool { return gaps[i].Score < gaps[j].Score })

	if requestedSkillID == "" {
		return gaps
	}
	for _, g := range gaps {
		if g.SkillID == requestedSkillID {
			return gaps
		}
	}

	// Requested skill is not a gap: synthesize one, appended, never reordered
	// into priority position.
	synthetic := models.SkillGap{
		SkillID:     requestedSkillID,
		Score:       models.DefaultUntestedScore,
		Synthesized: true,
	}
	if requestedSkill != nil {
		synthetic.Skill = *requestedSkill
	}
	if sc, ok := latest[requestedSkillID]; ok {
		synthetic.Score = sc.Score
		synthetic.Skill = sc.Skill
	}
	return append(gaps, synthetic)
}

// Priority derives the recommendation priority from a score.
func (a *Analyzer) Priority(score float64) models.Priority {
	return models.PriorityForScore(score, a.lowThreshold, a.criticalThreshold)
}

// latestPerSkill keeps the most recently assessed row per skill.
func latestPerSkill(scores []models.AssessmentScore) map[string]models.AssessmentScore {
	latest := make(map[string]models.AssessmentScore, len(scores))
	for _, sc := range scores {
		prev, ok := latest[sc.SkillID]
		if !ok || sc.LastAssessedAt.After(prev.LastAssessedAt) {
			latest[sc.SkillID] = sc
		}
	}
	return latest
}
