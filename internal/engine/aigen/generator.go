// Package aigen implements the AI-assisted generation path: reuse an
// existing AI resource for the skill when one exists, otherwise drive the
// prompt/provider/parse pipeline and persist the new resource.
package aigen

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"learning-engine/internal/common/logger"
	"learning-engine/internal/engine/insight"
	"learning-engine/internal/engine/parse"
	"learning-engine/internal/engine/prompt"
	"learning-engine/internal/engine/provider"
	"learning-engine/internal/engine/retry"
	"learning-engine/internal/models"
	"learning-engine/internal/repository"
)

// Generator produces AI recommendations. Every failure inside Generate is
// absorbed and surfaces as a nil result so the caller can fall back to
// standard selection.
type Generator struct {
	store             repository.Store
	factory           *provider.Factory
	retrier           *retry.Orchestrator
	parser            *parse.Parser
	enabled           bool
	lowThreshold      float64
	criticalThreshold float64
	targetScore       float64
	logger            logger.Logger
	now               func() time.Time
}

type Config struct {
	Enabled           bool
	LowThreshold      float64
	CriticalThreshold float64
	TargetScore       float64
}

func NewGenerator(store repository.Store, factory *provider.Factory, retrier *retry.Orchestrator, parser *parse.Parser, cfg Config, log logger.Logger) *Generator {
	if cfg.LowThreshold <= 0 {
		cfg.LowThreshold = models.LowScoreThreshold
	}
	if cfg.CriticalThreshold <= 0 {
		cfg.CriticalThreshold = models.CriticalScoreThreshold
	}
	if cfg.TargetScore <= 0 {
		cfg.TargetScore = models.TargetScore
	}
	return &Generator{
		store:             store,
		factory:           factory,
		retrier:           retrier,
		parser:            parser,
		enabled:           cfg.Enabled,
		lowThreshold:      cfg.LowThreshold,
		criticalThreshold: cfg.CriticalThreshold,
		targetScore:       cfg.TargetScore,
		logger:            log.WithFields(map[string]interface{}{"component": "aigen"}),
		now:               time.Now,
	}
}

// ShouldGenerate reports whether the AI path applies to this gap.
func (g *Generator) ShouldGenerate(gap models.SkillGap, typeFilter string) bool {
	if !g.enabled || !g.factory.AnyEnabled() {
		return false
	}
	return gap.Score < g.criticalThreshold || typeFilter == models.RequestTypePersonalized
}

// Generate returns an AI recommendation for the gap, or nil when generation
// is unavailable or fails. The caller falls back to standard selection on
// nil; AI failures never reach the end user.
func (g *Generator) Generate(ctx context.Context, user models.User, gap models.SkillGap, insights insight.Insights, events []models.AssessmentEvent) *models.RecommendationResult {
	if !g.enabled || !g.factory.AnyEnabled() {
		return nil
	}

	if existing := g.findExisting(ctx, gap.SkillID, user.GradeLevel); existing != nil {
		// Priority and explanation come from the current score, not the one
		// the resource was created for.
		return g.buildResult(gap, *existing, "")
	}

	resource, explanation := g.generateNew(ctx, user, gap, insights, events)
	if resource == nil {
		return nil
	}
	return g.buildResult(gap, *resource, explanation)
}

// findExisting looks for a reusable AI resource, preferring an exact grade
// match.
func (g *Generator) findExisting(ctx context.Context, skillID string, gradeLevel int) *models.Resource {
	aiOnly := true
	withGrade := repository.ResourceFilter{
		SkillID:     skillID,
		GradeLevel:  &gradeLevel,
		AIGenerated: &aiOnly,
		Limit:       1,
	}
	if found, err := g.store.FindResources(ctx, withGrade); err == nil && len(found) > 0 {
		return &found[0]
	}

	anyGrade := repository.ResourceFilter{SkillID: skillID, AIGenerated: &aiOnly, Limit: 1}
	found, err := g.store.FindResources(ctx, anyGrade)
	if err != nil || len(found) == 0 {
		return nil
	}
	return &found[0]
}

func (g *Generator) generateNew(ctx context.Context, user models.User, gap models.SkillGap, insights insight.Insights, events []models.AssessmentEvent) (*models.Resource, string) {
	promptText := prompt.Build(prompt.Input{
		UserID:   user.ID,
		Skill:    gap.Skill,
		Score:    gap.Score,
		Events:   events,
		Insights: insights,
	})

	p := g.factory.Default()
	if p == nil || !p.Enabled() {
		return nil, ""
	}

	result, err := g.retrier.Execute(ctx, p, promptText, prompt.SystemPrompt)
	if err != nil {
		g.logger.Warn("AI generation failed, falling back to standard selection", map[string]interface{}{
			"userId":  user.ID,
			"skillId": gap.SkillID,
			"error":   err.Error(),
		})
		return nil, ""
	}

	payload := g.parser.ParseAndValidate(result.Content)
	if payload == nil {
		return nil, ""
	}

	resource := &models.Resource{
		ID:          uuid.NewString(),
		SkillID:     gap.SkillID,
		Title:       payload.ResourceTitle,
		Description: payload.ResourceDescription,
		Type:        models.ResourceType(payload.ResourceType),
		URL:         payload.ResourceURL,
		GradeLevel:  gap.Skill.GradeLevel,
		AIGenerated: true,
		CreatedAt:   g.now().UTC(),
	}

	if err := g.store.SaveResource(ctx, resource); err != nil {
		// The in-memory recommendation still stands; only the audit copy is
		// lost.
		g.logger.Error("failed to persist AI resource", map[string]interface{}{
			"skillId": gap.SkillID,
			"error":   err.Error(),
		})
	}
	return resource, payload.Explanation
}

func (g *Generator) buildResult(gap models.SkillGap, resource models.Resource, explanation string) *models.RecommendationResult {
	priority := models.PriorityForScore(gap.Score, g.lowThreshold, g.criticalThreshold)
	if explanation == "" {
		explanation = explanationFor(gap, priority, g.targetScore)
	}
	return &models.RecommendationResult{
		ID:          uuid.NewString(),
		SkillID:     gap.SkillID,
		SkillName:   gap.Skill.Name,
		Priority:    priority,
		Score:       gap.Score,
		TargetScore: g.targetScore,
		Explanation: explanation,
		AIGenerated: true,
		Resource:    resource,
	}
}

// explanationFor renders the user-facing explanation from the current score.
func explanationFor(gap models.SkillGap, priority models.Priority, target float64) string {
	switch priority {
	case models.PriorityCritical:
		return fmt.Sprintf("Your %s score of %.0f is well below the %.0f target and needs immediate attention. This resource targets the fundamentals you are missing.",
			gap.Skill.Name, gap.Score, target)
	case models.PriorityHigh:
		return fmt.Sprintf("Your %s score of %.0f is below the %.0f target. Working through this resource should close the gap.",
			gap.Skill.Name, gap.Score, target)
	default:
		return fmt.Sprintf("Your %s score of %.0f is on track; this resource helps you push toward %.0f and beyond.",
			gap.Skill.Name, gap.Score, target)
	}
}
