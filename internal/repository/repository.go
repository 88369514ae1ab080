// Package repository defines the engine's data access boundary. The engine
// depends only on these interfaces; concrete stores are wired at start-up.
package repository

import (
	"context"
	"time"

	"learning-engine/internal/models"
)

// ResourceFilter narrows a resource lookup. Nil pointer fields are ignored.
type ResourceFilter struct {
	SkillID     string
	GradeLevel  *int
	Type        *models.ResourceType
	AIGenerated *bool
	Limit       int
}

// ResourceStats aggregates historical outcomes for one resource.
type ResourceStats struct {
	CompletionRate float64
	AvgScoreDelta  float64 // average post-use score change, clamped to [0,100] by the scorer
	HasHistory     bool
}

// Reader supplies current data to the engine.
type Reader interface {
	UserByID(ctx context.Context, userID string) (*models.User, error)
	SkillByID(ctx context.Context, skillID string) (*models.Skill, error)

	// LatestScoresByUser returns one row per skill, most recent assessment wins.
	LatestScoresByUser(ctx context.Context, userID string) ([]models.AssessmentScore, error)
	RecentAssessments(ctx context.Context, userID string, limit int) ([]models.AssessmentEvent, error)

	ResourceByID(ctx context.Context, resourceID string) (*models.Resource, error)
	FindResources(ctx context.Context, filter ResourceFilter) ([]models.Resource, error)

	HistoryFor(ctx context.Context, userID, skillID string) ([]models.RecommendationHistory, error)
	HistoryByID(ctx context.Context, userID, historyID string) (*models.RecommendationHistory, error)

	// FeedbackFor returns the newest rows first.
	FeedbackFor(ctx context.Context, userID, skillID string, limit int) ([]models.Feedback, error)

	ResourceStats(ctx context.Context, resourceID string) (*ResourceStats, error)
	UserTypeCompletionRate(ctx context.Context, userID string, resourceType models.ResourceType) (float64, bool, error)
}

// Writer persists engine outputs.
type Writer interface {
	SaveResource(ctx context.Context, resource *models.Resource) error
	SaveHistory(ctx context.Context, history *models.RecommendationHistory) error
	SaveFeedback(ctx context.Context, feedback *models.Feedback) error
	UpdateHistoryCompletion(ctx context.Context, historyID string, completedAt time.Time, wasHelpful *bool) error
	DeleteResource(ctx context.Context, resourceID string) error
}

// Store is the combined read/write repository.
type Store interface {
	Reader
	Writer
}
