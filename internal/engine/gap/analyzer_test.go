package gap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"learning-engine/internal/models"
)

func score(skillID string, value float64, assessedAt time.Time) models.AssessmentScore {
	return models.AssessmentScore{
		ID:      skillID + "-score",
		SkillID: skillID,
		Score:   value,
		Skill: models.Skill{
			ID:   skillID,
			Name: "Skill " + skillID,
		},
		LastAssessedAt: assessedAt,
	}
}

func TestAnalyzer_Analyze_SortsGapsByUrgency(t *testing.T) {
	analyzer := NewAnalyzer(550, 450)
	now := time.Now()

	gaps := analyzer.Analyze([]models.AssessmentScore{
		score("fractions", 530, now),
		score("algebra", 430, now),
		score("reading", 700, now),
		score("geometry", 480, now),
	}, "", nil)

	assert.Len(t, gaps, 3)
	assert.Equal(t, "algebra", gaps[0].SkillID)
	assert.Equal(t, "geometry", gaps[1].SkillID)
	assert.Equal(t, "fractions", gaps[2].SkillID)
	for _, g := range gaps {
		assert.False(t, g.Synthesized)
	}
}

func TestAnalyzer_Analyze_LatestScoreWinsPerSkill(t *testing.T) {
	analyzer := NewAnalyzer(550, 450)
	now := time.Now()

	// Older failing score superseded by a recent passing one.
	gaps := analyzer.Analyze([]models.AssessmentScore{
		score("algebra", 430, now.Add(-72*time.Hour)),
		score("algebra", 620, now),
	}, "", nil)

	assert.Empty(t, gaps)
}

func TestAnalyzer_Analyze_NoScoresNoGaps(t *testing.T) {
	analyzer := NewAnalyzer(550, 450)
	assert.Empty(t, analyzer.Analyze(nil, "", nil))
}

func TestAnalyzer_Analyze_RequestedSkillSynthesized(t *testing.T) {
	analyzer := NewAnalyzer(550, 450)
	now := time.Now()

	tests := []struct {
		name          string
		scores        []models.AssessmentScore
		requested     string
		expectedScore float64
		expectedLast  bool
	}{
		{
			name:          "untested skill uses baseline score",
			scores:        []models.AssessmentScore{score("algebra", 430, now)},
			requested:     "writing",
			expectedScore: models.DefaultUntestedScore,
			expectedLast:  true,
		},
		{
			name:          "proficient skill keeps real score",
			scores:        []models.AssessmentScore{score("algebra", 430, now), score("reading", 700, now)},
			requested:     "reading",
			expectedScore: 700,
			expectedLast:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requestedSkill := &models.Skill{ID: tt.requested, Name: "Skill " + tt.requested}
			gaps := analyzer.Analyze(tt.scores, tt.requested, requestedSkill)

			assert.NotEmpty(t, gaps)
			last := gaps[len(gaps)-1]
			assert.Equal(t, tt.requested, last.SkillID)
			assert.Equal(t, tt.expectedScore, last.Score)
			assert.True(t, last.Synthesized)

			// Synthetic gaps are appended, never sorted ahead of real gaps.
			if len(gaps) > 1 {
				assert.Equal(t, "algebra", gaps[0].SkillID)
			}
		})
	}
}

func TestAnalyzer_Analyze_RequestedSkillAlreadyAGap(t *testing.T) {
	analyzer := NewAnalyzer(550, 450)
	now := time.Now()

	gaps := analyzer.Analyze([]models.AssessmentScore{
		score("algebra", 430, now),
	}, "algebra", nil)

	assert.Len(t, gaps, 1)
	assert.False(t, gaps[0].Synthesized)
	assert.Equal(t, 430.0, gaps[0].Score)
}

func TestAnalyzer_Priority(t *testing.T) {
	analyzer := NewAnalyzer(550, 450)

	assert.Equal(t, models.PriorityCritical, analyzer.Priority(430))
	assert.Equal(t, models.PriorityCritical, analyzer.Priority(449.9))
	assert.Equal(t, models.PriorityHigh, analyzer.Priority(450))
	assert.Equal(t, models.PriorityHigh, analyzer.Priority(549))
	assert.Equal(t, models.PriorityMedium, analyzer.Priority(550))
	assert.Equal(t, models.PriorityMedium, analyzer.Priority(700))
}

func TestNewAnalyzer_DefaultsOnZeroThresholds(t *testing.T) {
	analyzer := NewAnalyzer(0, 0)
	assert.Equal(t, models.PriorityCritical, analyzer.Priority(440))
	assert.Equal(t, models.PriorityHigh, analyzer.Priority(500))
}
