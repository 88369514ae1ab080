package models

import "time"

// ResourceType is the closed set of learning resource kinds.
type ResourceType string

const (
	ResourceTypeVideo       ResourceType = "VIDEO"
	ResourceTypeArticle     ResourceType = "ARTICLE"
	ResourceTypePractice    ResourceType = "PRACTICE"
	ResourceTypeInteractive ResourceType = "INTERACTIVE"
	ResourceTypeQuiz        ResourceType = "QUIZ"
)

// RequestTypePersonalized is a request-level filter value that routes to the
// AI generation path. It is never stored as a resource type.
const RequestTypePersonalized = "personalized"

func ValidResourceType(s string) bool {
	switch ResourceType(s) {
	case ResourceTypeVideo, ResourceTypeArticle, ResourceTypePractice,
		ResourceTypeInteractive, ResourceTypeQuiz:
		return true
	}
	return false
}

type Resource struct {
	ID          string       `json:"id"`
	SkillID     string       `json:"skillId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Type        ResourceType `json:"type"`
	URL         string       `json:"url"`
	GradeLevel  int          `json:"gradeLevel"`
	AIGenerated bool         `json:"aiGenerated"`
	CreatedAt   time.Time    `json:"createdAt"`
}
