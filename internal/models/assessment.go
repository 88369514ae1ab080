package models

import "time"

// AssessmentScore is the latest per-skill score row for a user. Scores use a
// vendor-agnostic 400-800 scale; 650 and above counts as proficient.
type AssessmentScore struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	SkillID        string    `json:"skillId"`
	Score          float64   `json:"score"`
	Skill          Skill     `json:"skill"`
	LastAssessedAt time.Time `json:"lastAssessedAt"`
}

// AssessmentEvent is a single answered item, used for prompt context.
type AssessmentEvent struct {
	SkillID    string    `json:"skillId"`
	SkillName  string    `json:"skillName"`
	Correct    bool      `json:"correct"`
	OccurredAt time.Time `json:"occurredAt"`
}
