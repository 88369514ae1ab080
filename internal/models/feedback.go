package models

import "time"

// FeedbackKind qualifies a feedback event beyond the helpful flag.
type FeedbackKind string

const (
	FeedbackHelpful      FeedbackKind = "HELPFUL"
	FeedbackNotHelpful   FeedbackKind = "NOT_HELPFUL"
	FeedbackTooEasy      FeedbackKind = "TOO_EASY"
	FeedbackTooDifficult FeedbackKind = "TOO_DIFFICULT"
)

type Feedback struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	SkillID      string       `json:"skillId"`
	ResourceID   string       `json:"resourceId"`
	ResourceType ResourceType `json:"resourceType"`
	Kind         FeedbackKind `json:"kind"`
	WasHelpful   bool         `json:"wasHelpful"`
	Comment      string       `json:"comment"`
	CreatedAt    time.Time    `json:"createdAt"`
}
