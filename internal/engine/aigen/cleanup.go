package aigen

import (
	"context"
	"sort"
	"time"

	"learning-engine/internal/common/metrics"
	"learning-engine/internal/models"
	"learning-engine/internal/repository"
)

// Janitor bounds the number of stored AI resources. Each skill keeps at most
// MaxPerSkill; the sweep removes the oldest excess resources once they age
// past MaxAge, and never leaves a skill with zero resources.
type Janitor struct {
	store       repository.Store
	maxPerSkill int
	maxAge      time.Duration
	now         func() time.Time
}

func NewJanitor(store repository.Store, maxPerSkill int, maxAge time.Duration) *Janitor {
	if maxPerSkill <= 0 {
		maxPerSkill = 10
	}
	if maxAge <= 0 {
		maxAge = 90 * 24 * time.Hour
	}
	return &Janitor{store: store, maxPerSkill: maxPerSkill, maxAge: maxAge, now: time.Now}
}

// Sweep runs one cleanup pass and returns the number of resources removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	aiOnly := true
	resources, err := j.store.FindResources(ctx, repository.ResourceFilter{AIGenerated: &aiOnly})
	if err != nil {
		return 0, err
	}

	bySkill := make(map[string][]models.Resource)
	for _, r := range resources {
		bySkill[r.SkillID] = append(bySkill[r.SkillID], r)
	}

	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	for skillID, group := range bySkill {
		sort.Slice(group, func(a, b int) bool {
			return group[a].CreatedAt.Before(group[b].CreatedAt)
		})
		remaining := len(group)
		for _, r := range group {
			if remaining <= j.maxPerSkill || remaining <= 1 {
				break
			}
			if !r.CreatedAt.Before(cutoff) {
				break
			}
			if err := j.store.DeleteResource(ctx, r.ID); err != nil {
				return removed, err
			}
			remaining--
			removed++
		}
		metrics.AIResourcesActive.WithLabelValues(skillID).Set(float64(remaining))
	}
	return removed, nil
}
