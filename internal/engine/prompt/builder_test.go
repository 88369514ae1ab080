package prompt

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"learning-engine/internal/engine/insight"
	"learning-engine/internal/models"
)

func sampleInput() Input {
	return Input{
		UserID: "user-1",
		Skill: models.Skill{
			ID:          "fractions",
			Name:        "Fractions",
			Description: "Adding and comparing fractions",
			GradeLevel:  4,
		},
		Score: 430,
		Events: []models.AssessmentEvent{
			{SkillName: "Fractions", Correct: false, OccurredAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)},
			{SkillName: "Fractions", Correct: true, OccurredAt: time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)},
		},
		Insights: insight.Insights{
			PreferredTypes: []models.ResourceType{models.ResourceTypeVideo},
			AvoidedTypes:   []models.ResourceType{models.ResourceTypeArticle},
			Difficulty:     insight.PreferEasier,
			CommonIssues:   []string{"too long"},
		},
	}
}

func TestBuild_ContainsAllSections(t *testing.T) {
	out := Build(sampleInput())

	assert.Contains(t, out, "Student user-1 needs a remedial learning resource.")
	assert.Contains(t, out, "Skill: Fractions (grade level 4)")
	assert.Contains(t, out, "Skill description: Adding and comparing fractions")
	assert.Contains(t, out, "Current score: 430 on a 400-800 scale, where 650+ is proficient.")
	assert.Contains(t, out, "Recent assessment history:")
	assert.Contains(t, out, "- Fractions: incorrect (2026-08-01T10:00:00Z)")
	assert.Contains(t, out, "- Fractions: correct (2026-08-02T10:00:00Z)")
	assert.Contains(t, out, "Preferred resource types: VIDEO")
	assert.Contains(t, out, "Avoided resource types: ARTICLE")
	assert.Contains(t, out, "Difficulty preference: easier")
	assert.Contains(t, out, "Reported issue: too long")
	assert.Contains(t, out, `"resourceType": "<VIDEO|ARTICLE|PRACTICE|INTERACTIVE|QUIZ>"`)
	assert.Contains(t, out, `"priority": "<LOW|MEDIUM|HIGH|CRITICAL>"`)
}

func TestBuild_Deterministic(t *testing.T) {
	in := sampleInput()
	assert.Equal(t, Build(in), Build(in))
}

func TestBuild_CapsEventsAtTen(t *testing.T) {
	in := sampleInput()
	in.Events = nil
	for i := 0; i < 25; i++ {
		in.Events = append(in.Events, models.AssessmentEvent{
			SkillName:  fmt.Sprintf("Fractions %d", i),
			Correct:    true,
			OccurredAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		})
	}

	out := Build(in)

	assert.Contains(t, out, "Fractions 9:")
	assert.NotContains(t, out, "Fractions 10:")
	assert.Equal(t, 10, strings.Count(out, "correct ("))
}

func TestBuild_OmitsEmptySections(t *testing.T) {
	in := Input{
		UserID: "user-2",
		Skill:  models.Skill{Name: "Reading", GradeLevel: 6},
		Score:  520,
		Insights: insight.Insights{
			Difficulty: insight.PreferAppropriate,
		},
	}

	out := Build(in)

	assert.NotContains(t, out, "Skill description:")
	assert.NotContains(t, out, "Recent assessment history:")
	assert.NotContains(t, out, "Preferred resource types:")
	assert.Contains(t, out, "Difficulty preference: appropriate")
}
