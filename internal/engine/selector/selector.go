// Package selector filters, scores and ranks candidate resources for a
// detected skill gap.
package selector

import (
	"context"
	"math"
	"sort"
	"time"

	"learning-engine/internal/common/logger"
	"learning-engine/internal/models"
	"learning-engine/internal/repository"
)

const topCandidates = 3

// Selector picks the best standard (non-AI) resource for a skill gap.
type Selector struct {
	reader       repository.Reader
	scorer       *Scorer
	poolSize     int
	cooldownDays int
	logger       logger.Logger
	now          func() time.Time
}

func NewSelector(reader repository.Reader, poolSize, cooldownDays int, log logger.Logger) *Selector {
	if poolSize <= 0 {
		poolSize = 10
	}
	if cooldownDays <= 0 {
		cooldownDays = 30
	}
	return &Selector{
		reader:       reader,
		scorer:       NewScorer(reader),
		poolSize:     poolSize,
		cooldownDays: cooldownDays,
		logger:       log.WithFields(map[string]interface{}{"component": "selector"}),
		now:          time.Now,
	}
}

// Select returns the best resource for the gap, or nil when the candidate
// pool is empty. Callers must not fabricate a recommendation on nil.
func (s *Selector) Select(ctx context.Context, user models.User, gapSkillID string, userScore float64, typeFilter string) (*models.ScoredResource, error) {
	excluded, err := s.exclusionSet(ctx, user.ID, gapSkillID)
	if err != nil {
		s.logger.Warn("failed to build exclusion set", map[string]interface{}{
			"userId":  user.ID,
			"skillId": gapSkillID,
			"error":   err,
		})
		excluded = map[string]bool{}
	}

	filter := repository.ResourceFilter{
		SkillID:     gapSkillID,
		GradeLevel:  &user.GradeLevel,
		AIGenerated: boolPtr(false),
		Limit:       s.poolSize + len(excluded),
	}
	if typeFilter != "" && typeFilter != models.RequestTypePersonalized {
		rt := models.ResourceType(typeFilter)
		filter.Type = &rt
	}

	resources, err := s.reader.FindResources(ctx, filter)
	if err != nil {
		return nil, err
	}

	var pool []models.Resource
	for _, r := range resources {
		if excluded[r.ID] {
			continue
		}
		pool = append(pool, r)
		if len(pool) == s.poolSize {
			break
		}
	}
	if len(pool) == 0 {
		return nil, nil
	}

	scored := make([]models.ScoredResource, 0, len(pool))
	for _, r := range pool {
		scored = append(scored, s.scorer.Score(ctx, r, user.ID, userScore))
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].CompositeScore > scored[j].CompositeScore
	})
	if len(scored) > topCandidates {
		scored = scored[:topCandidates]
	}

	// Among the top candidates, closest difficulty match wins the final
	// tie-break.
	best := scored[0]
	bestDist := difficultyDistance(best.Resource.GradeLevel, userScore)
	for _, sr := range scored[1:] {
		if d := difficultyDistance(sr.Resource.GradeLevel, userScore); d < bestDist {
			best = sr
			bestDist = d
		}
	}

	s.logger.Debug("resource selected", map[string]interface{}{
		"userId":     user.ID,
		"skillId":    gapSkillID,
		"resourceId": best.Resource.ID,
		"composite":  best.CompositeScore,
	})

	return &best, nil
}

// exclusionSet is completed resources for (user, skill) plus resources
// recommended within the cooldown window.
func (s *Selector) exclusionSet(ctx context.Context, userID, skillID string) (map[string]bool, error) {
	history, err := s.reader.HistoryFor(ctx, userID, skillID)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().AddDate(0, 0, -s.cooldownDays)
	excluded := make(map[string]bool)
	for _, h := range history {
		if h.CompletedAt != nil || h.CreatedAt.After(cutoff) {
			excluded[h.ResourceID] = true
		}
	}
	return excluded, nil
}

func difficultyDistance(gradeLevel int, userScore float64) float64 {
	return math.Abs(float64(gradeLevel)*100 - userScore)
}

func boolPtr(b bool) *bool { return &b }
