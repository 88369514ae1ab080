package models

import "time"

// RecommendationHistory is the persisted audit row for a delivered
// recommendation. WasHelpful stays nil until the user rates the resource, so
// "not yet rated" is distinguishable from "rated unhelpful".
type RecommendationHistory struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	SkillID     string     `json:"skillId"`
	ResourceID  string     `json:"resourceId"`
	Priority    Priority   `json:"priority"`
	Explanation string     `json:"explanation"`
	UserScore   float64    `json:"userScore"`
	TargetScore float64    `json:"targetScore"`
	AIGenerated bool       `json:"aiGenerated"`
	WasHelpful  *bool      `json:"wasHelpful,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
