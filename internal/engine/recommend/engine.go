// Package recommend is the engine's entry point. It ties gap analysis,
// insight extraction, AI generation and standard selection together into one
// recommendation pipeline.
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"learning-engine/internal/common/logger"
	"learning-engine/internal/common/metrics"
	"learning-engine/internal/common/observability"
	"learning-engine/internal/engine/aigen"
	"learning-engine/internal/engine/gap"
	"learning-engine/internal/engine/insight"
	"learning-engine/internal/engine/selector"
	"learning-engine/internal/models"
	"learning-engine/internal/repository"
)

const (
	defaultLimit      = 5
	feedbackWindow    = 10
	assessmentWindow  = 50
	promptEventWindow = 10

	pathAI       = "ai"
	pathStandard = "standard"
)

// Options narrows one recommendation request.
type Options struct {
	// Limit caps the number of recommendations returned; 0 means the default.
	Limit int
	// SkillID asks for this skill even when it is not a detected gap.
	SkillID string
	// Type filters standard resources by type, or requests the AI path with
	// models.RequestTypePersonalized.
	Type string
}

// Response is the full payload for one user request.
type Response struct {
	UserID          string                        `json:"userId"`
	Recommendations []models.RecommendationResult `json:"recommendations"`
	OverallProgress float64                       `json:"overallProgress"`
	Summary         string                        `json:"summary"`
	GeneratedAt     time.Time                     `json:"generatedAt"`
}

// Engine orchestrates the recommendation pipeline.
type Engine struct {
	store             repository.Store
	analyzer          *gap.Analyzer
	selector          *selector.Selector
	generator         *aigen.Generator
	obs               *observability.Observability
	lowThreshold      float64
	criticalThreshold float64
	targetScore       float64
	logger            logger.Logger
	now               func() time.Time
}

type EngineConfig struct {
	LowThreshold      float64
	CriticalThreshold float64
	TargetScore       float64
}

func NewEngine(store repository.Store, analyzer *gap.Analyzer, sel *selector.Selector, generator *aigen.Generator, obs *observability.Observability, cfg EngineConfig, log logger.Logger) *Engine {
	if cfg.LowThreshold <= 0 {
		cfg.LowThreshold = models.LowScoreThreshold
	}
	if cfg.CriticalThreshold <= 0 {
		cfg.CriticalThreshold = models.CriticalScoreThreshold
	}
	if cfg.TargetScore <= 0 {
		cfg.TargetScore = models.TargetScore
	}
	return &Engine{
		store:             store,
		analyzer:          analyzer,
		selector:          sel,
		generator:         generator,
		obs:               obs,
		lowThreshold:      cfg.LowThreshold,
		criticalThreshold: cfg.CriticalThreshold,
		targetScore:       cfg.TargetScore,
		logger:            log.WithFields(map[string]interface{}{"component": "recommend"}),
		now:               time.Now,
	}
}

// GetRecommendations runs the full pipeline for one user. Persistence
// failures on the audit trail are logged but never fail the request;
// the in-memory result always wins.
func (e *Engine) GetRecommendations(ctx context.Context, userID string, opts Options) (*Response, error) {
	start := e.now()

	user, err := e.store.UserByID(ctx, userID)
	if err != nil {
		e.recordOutcome(ctx, start, "error")
		return nil, fmt.Errorf("load user: %w", err)
	}

	scores, err := e.store.LatestScoresByUser(ctx, userID)
	if err != nil {
		e.recordOutcome(ctx, start, "error")
		return nil, fmt.Errorf("load scores: %w", err)
	}

	var requestedSkill *models.Skill
	if opts.SkillID != "" {
		requestedSkill, err = e.store.SkillByID(ctx, opts.SkillID)
		if err != nil {
			e.recordOutcome(ctx, start, "error")
			return nil, fmt.Errorf("load requested skill: %w", err)
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	gaps := capGaps(e.analyzer.Analyze(scores, opts.SkillID, requestedSkill), limit, opts.SkillID)

	events, err := e.store.RecentAssessments(ctx, userID, assessmentWindow)
	if err != nil {
		e.logger.Warn("failed to load recent assessments", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		events = nil
	}

	recommendations := make([]models.RecommendationResult, 0, len(gaps))
	for _, g := range gaps {
		rec := e.recommendForGap(ctx, *user, g, events, opts.Type)
		if rec == nil {
			continue
		}
		recommendations = append(recommendations, *rec)
		e.persistHistory(ctx, userID, *rec)
	}

	resp := &Response{
		UserID:          userID,
		Recommendations: recommendations,
		OverallProgress: overallProgress(scores),
		Summary:         summarize(recommendations),
		GeneratedAt:     e.now().UTC(),
	}
	e.recordOutcome(ctx, start, "success")
	return resp, nil
}

// recommendForGap tries the AI path first when it applies, then falls back to
// standard selection. Returns nil when the skill has no viable resource.
func (e *Engine) recommendForGap(ctx context.Context, user models.User, g models.SkillGap, events []models.AssessmentEvent, typeFilter string) *models.RecommendationResult {
	feedback, err := e.store.FeedbackFor(ctx, user.ID, g.SkillID, feedbackWindow)
	if err != nil {
		e.logger.Warn("failed to load feedback", map[string]interface{}{
			"userId":  user.ID,
			"skillId": g.SkillID,
			"error":   err.Error(),
		})
		feedback = nil
	}
	insights := insight.Extract(feedback)

	if e.generator != nil && e.generator.ShouldGenerate(g, typeFilter) {
		if rec := e.generator.Generate(ctx, user, g, insights, skillEvents(events, g.SkillID)); rec != nil {
			metrics.RecommendationsServed.WithLabelValues(pathAI).Inc()
			return rec
		}
		e.logger.Info("AI path unavailable, using standard selection", map[string]interface{}{
			"userId":  user.ID,
			"skillId": g.SkillID,
		})
	}

	scored, err := e.selector.Select(ctx, user, g.SkillID, g.Score, typeFilter)
	if err != nil {
		e.logger.Error("resource selection failed", map[string]interface{}{
			"userId":  user.ID,
			"skillId": g.SkillID,
			"error":   err.Error(),
		})
		return nil
	}
	if scored == nil {
		// Empty candidate pool. Skipping the gap beats recommending a
		// resource that does not exist.
		return nil
	}

	priority := models.PriorityForScore(g.Score, e.lowThreshold, e.criticalThreshold)
	metrics.RecommendationsServed.WithLabelValues(pathStandard).Inc()
	return &models.RecommendationResult{
		ID:          uuid.NewString(),
		SkillID:     g.SkillID,
		SkillName:   g.Skill.Name,
		Priority:    priority,
		Score:       g.Score,
		TargetScore: e.targetScore,
		Explanation: standardExplanation(g, priority, e.targetScore, scored.Resource),
		AIGenerated: false,
		Resource:    scored.Resource,
	}
}

// persistHistory writes the audit row for a delivered recommendation. The
// history row shares the recommendation's ID so completion calls can find it.
func (e *Engine) persistHistory(ctx context.Context, userID string, rec models.RecommendationResult) {
	h := &models.RecommendationHistory{
		ID:          rec.ID,
		UserID:      userID,
		SkillID:     rec.SkillID,
		ResourceID:  rec.Resource.ID,
		Priority:    rec.Priority,
		Explanation: rec.Explanation,
		UserScore:   rec.Score,
		TargetScore: rec.TargetScore,
		AIGenerated: rec.AIGenerated,
		CreatedAt:   e.now().UTC(),
	}
	if err := e.store.SaveHistory(ctx, h); err != nil {
		e.logger.Error("failed to persist recommendation history", map[string]interface{}{
			"userId":    userID,
			"historyId": h.ID,
			"error":     err.Error(),
		})
	}
}

// MarkCompleted records that the user finished a recommended resource.
// wasHelpful stays nil when the user completed without rating; a non-nil
// value additionally creates a feedback row for future insight extraction.
func (e *Engine) MarkCompleted(ctx context.Context, userID, historyID string, wasHelpful *bool) error {
	h, err := e.store.HistoryByID(ctx, userID, historyID)
	if err != nil {
		return err
	}

	completedAt := e.now().UTC()
	if err := e.store.UpdateHistoryCompletion(ctx, historyID, completedAt, wasHelpful); err != nil {
		return err
	}

	if wasHelpful == nil {
		return nil
	}

	kind := models.FeedbackHelpful
	if !*wasHelpful {
		kind = models.FeedbackNotHelpful
	}
	resourceType := models.ResourceType("")
	if r, err := e.store.ResourceByID(ctx, h.ResourceID); err == nil {
		resourceType = r.Type
	}

	fb := &models.Feedback{
		ID:           uuid.NewString(),
		UserID:       userID,
		SkillID:      h.SkillID,
		ResourceID:   h.ResourceID,
		ResourceType: resourceType,
		Kind:         kind,
		WasHelpful:   *wasHelpful,
		CreatedAt:    completedAt,
	}
	if err := e.store.SaveFeedback(ctx, fb); err != nil {
		e.logger.Error("failed to persist feedback", map[string]interface{}{
			"userId":    userID,
			"historyId": historyID,
			"error":     err.Error(),
		})
	}
	return nil
}

func (e *Engine) recordOutcome(ctx context.Context, start time.Time, status string) {
	elapsed := e.now().Sub(start)
	metrics.RecommendationDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	if e.obs != nil {
		e.obs.RecordRequest(ctx, status)
		e.obs.RecordDuration(ctx, elapsed, status)
	}
}

// overallProgress maps the mean of the user's latest scores onto a 0-100
// percentage, where 400 is 0% and 650 is 100%.
func overallProgress(scores []models.AssessmentScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, sc := range scores {
		p := (sc.Score - models.ScoreFloor) / (models.TargetScore - models.ScoreFloor)
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		sum += p
	}
	return sum / float64(len(scores)) * 100
}

func summarize(recs []models.RecommendationResult) string {
	if len(recs) == 0 {
		return "All skills are on track. Keep up the good work!"
	}
	critical := 0
	for _, r := range recs {
		if r.Priority == models.PriorityCritical {
			critical++
		}
	}
	if critical > 0 {
		return fmt.Sprintf("Found %d skill(s) that need attention, %d of them critical. Start with %s.",
			len(recs), critical, recs[0].SkillName)
	}
	return fmt.Sprintf("Found %d skill(s) that need attention. Start with %s.", len(recs), recs[0].SkillName)
}

func standardExplanation(g models.SkillGap, priority models.Priority, target float64, resource models.Resource) string {
	base := fmt.Sprintf("Your %s score of %.0f is below the %.0f target.", g.Skill.Name, g.Score, target)
	if priority == models.PriorityCritical {
		base = fmt.Sprintf("Your %s score of %.0f is well below the %.0f target and needs immediate attention.",
			g.Skill.Name, g.Score, target)
	}
	return fmt.Sprintf("%s %q has helped other learners at this level.", base, resource.Title)
}

// capGaps truncates the gap list to limit. An explicitly requested skill sits
// at the end of the list, so plain truncation would drop it whenever the user
// already has limit true gaps; its gap takes the last kept slot instead.
func capGaps(gaps []models.SkillGap, limit int, requestedSkillID string) []models.SkillGap {
	if len(gaps) <= limit {
		return gaps
	}
	kept := gaps[:limit]
	if requestedSkillID == "" {
		return kept
	}
	for _, g := range kept {
		if g.SkillID == requestedSkillID {
			return kept
		}
	}
	for _, g := range gaps[limit:] {
		if g.SkillID == requestedSkillID {
			kept[limit-1] = g
			break
		}
	}
	return kept
}

func skillEvents(events []models.AssessmentEvent, skillID string) []models.AssessmentEvent {
	var out []models.AssessmentEvent
	for _, ev := range events {
		if ev.SkillID == skillID {
			out = append(out, ev)
			if len(out) == promptEventWindow {
				break
			}
		}
	}
	return out
}
