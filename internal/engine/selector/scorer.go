package selector

import (
	"context"
	"math"
	"time"

	"learning-engine/internal/models"
	"learning-engine/internal/repository"
)

// Composite score weights.
const (
	weightEffectiveness   = 0.4
	weightDifficultyMatch = 0.3
	weightRecency         = 0.2
	weightPreference      = 0.1

	// neutralScore is used when history is missing: a new resource or a new
	// user scores neither for nor against.
	neutralScore = 0.5
)

// Scorer computes the composite score of one candidate resource against a
// gap and user.
type Scorer struct {
	reader repository.Reader
	now    func() time.Time
}

func NewScorer(reader repository.Reader) *Scorer {
	return &Scorer{reader: reader, now: time.Now}
}

// Score computes all four factors. Repository errors degrade the affected
// factor to its neutral default rather than failing the candidate.
func (s *Scorer) Score(ctx context.Context, resource models.Resource, userID string, userScore float64) models.ScoredResource {
	effectiveness := s.effectiveness(ctx, resource.ID)
	difficulty := difficultyMatch(resource.GradeLevel, userScore)
	recency := s.recency(resource.CreatedAt)
	preference := s.preference(ctx, userID, resource.Type)

	composite := weightEffectiveness*effectiveness +
		weightDifficultyMatch*difficulty +
		weightRecency*recency +
		weightPreference*preference

	return models.ScoredResource{
		Resource:        resource,
		CompositeScore:  composite,
		Effectiveness:   effectiveness,
		DifficultyMatch: difficulty,
		Recency:         recency,
		Preference:      preference,
	}
}

// effectiveness blends historical completion rate with the normalized average
// score delta. 0.5 for resources with no history.
func (s *Scorer) effectiveness(ctx context.Context, resourceID string) float64 {
	stats, err := s.reader.ResourceStats(ctx, resourceID)
	if err != nil || stats == nil || !stats.HasHistory {
		return neutralScore
	}
	delta := math.Min(math.Max(stats.AvgScoreDelta, 0), 100) / 100
	return 0.6*stats.CompletionRate + 0.4*delta
}

// difficultyMatch maps the distance between the resource's pitched score
// (gradeLevel x 100) and the user's score onto [0,1].
func difficultyMatch(gradeLevel int, userScore float64) float64 {
	return math.Max(0, 1-math.Abs(float64(gradeLevel)*100-userScore)/500)
}

func (s *Scorer) recency(createdAt time.Time) float64 {
	ageDays := s.now().Sub(createdAt).Hours() / 24
	return math.Max(0, 1-ageDays/365)
}

func (s *Scorer) preference(ctx context.Context, userID string, resourceType models.ResourceType) float64 {
	rate, hasHistory, err := s.reader.UserTypeCompletionRate(ctx, userID, resourceType)
	if err != nil || !hasHistory {
		return neutralScore
	}
	return rate
}
