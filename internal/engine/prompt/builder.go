// Package prompt renders the deterministic prompt pair sent to LLM providers.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"learning-engine/internal/engine/insight"
	"learning-engine/internal/models"
)

// SystemPrompt frames the assistant for every generation request.
const SystemPrompt = "You are an experienced educational advisor helping students close skill gaps. " +
	"You recommend one specific, actionable learning resource per request, tuned to the student's " +
	"demonstrated level and feedback history. Respond only with the requested JSON object."

const maxEvents = 10

// Input carries everything the prompt template embeds.
type Input struct {
	UserID   string
	Skill    models.Skill
	Score    float64
	Events   []models.AssessmentEvent
	Insights insight.Insights
}

// Build renders the user prompt. Identical inputs produce identical text so
// the response cache can key on it.
func Build(in Input) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Student %s needs a remedial learning resource.", in.UserID))
	parts = append(parts, fmt.Sprintf("\nSkill: %s (grade level %d)", in.Skill.Name, in.Skill.GradeLevel))
	if in.Skill.Description != "" {
		parts = append(parts, fmt.Sprintf("Skill description: %s", in.Skill.Description))
	}
	parts = append(parts, fmt.Sprintf("Current score: %.0f on a 400-800 scale, where 650+ is proficient.", in.Score))

	if len(in.Events) > 0 {
		parts = append(parts, "\nRecent assessment history:")
		events := in.Events
		if len(events) > maxEvents {
			events = events[:maxEvents]
		}
		for _, ev := range events {
			result := "incorrect"
			if ev.Correct {
				result = "correct"
			}
			parts = append(parts, fmt.Sprintf("- %s: %s (%s)", ev.SkillName, result, ev.OccurredAt.Format(time.RFC3339)))
		}
	}

	parts = append(parts, insightsBlock(in.Insights)...)

	parts = append(parts, "\nReturn a single flat JSON object with exactly these fields:")
	parts = append(parts, `{
  "explanation": "<why this student needs this resource, 2-3 sentences>",
  "resourceTitle": "<short title>",
  "resourceDescription": "<what the resource covers>",
  "resourceType": "<VIDEO|ARTICLE|PRACTICE|INTERACTIVE|QUIZ>",
  "resourceUrl": "<https URL of the resource>",
  "priority": "<LOW|MEDIUM|HIGH|CRITICAL>"
}`)

	return strings.Join(parts, "\n")
}

func insightsBlock(ins insight.Insights) []string {
	var parts []string
	parts = append(parts, "\nStudent feedback signals:")

	if len(ins.PreferredTypes) > 0 {
		parts = append(parts, fmt.Sprintf("- Preferred resource types: %s", joinTypes(ins.PreferredTypes)))
	}
	if len(ins.AvoidedTypes) > 0 {
		parts = append(parts, fmt.Sprintf("- Avoided resource types: %s", joinTypes(ins.AvoidedTypes)))
	}
	parts = append(parts, fmt.Sprintf("- Difficulty preference: %s", ins.Difficulty))
	for _, issue := range ins.CommonIssues {
		parts = append(parts, fmt.Sprintf("- Reported issue: %s", issue))
	}
	return parts
}

func joinTypes(types []models.ResourceType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
