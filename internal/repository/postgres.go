package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"learning-engine/internal/common/errors"
	"learning-engine/internal/models"
)

// PostgresStore implements Store on top of database/sql with the pq driver.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) UserByID(ctx context.Context, userID string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, grade_level, created_at
		FROM users WHERE id = $1`, userID)

	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.GradeLevel, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("query user %s: %w", userID, err)
	}
	return &u, nil
}

func (s *PostgresStore) SkillByID(ctx context.Context, skillID string) (*models.Skill, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, subject, grade_level
		FROM skills WHERE id = $1`, skillID)

	var sk models.Skill
	if err := row.Scan(&sk.ID, &sk.Name, &sk.Description, &sk.Subject, &sk.GradeLevel); err != nil {
		return nil, fmt.Errorf("query skill %s: %w", skillID, err)
	}
	return &sk, nil
}

func (s *PostgresStore) LatestScoresByUser(ctx context.Context, userID string) ([]models.AssessmentScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (a.skill_id)
			a.id, a.user_id, a.skill_id, a.score, a.assessed_at,
			sk.id, sk.name, sk.description, sk.subject, sk.grade_level
		FROM assessment_scores a
		JOIN skills sk ON sk.id = a.skill_id
		WHERE a.user_id = $1
		ORDER BY a.skill_id, a.assessed_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query latest scores: %w", err)
	}
	defer rows.Close()

	var scores []models.AssessmentScore
	for rows.Next() {
		var sc models.AssessmentScore
		if err := rows.Scan(
			&sc.ID, &sc.UserID, &sc.SkillID, &sc.Score, &sc.LastAssessedAt,
			&sc.Skill.ID, &sc.Skill.Name, &sc.Skill.Description, &sc.Skill.Subject, &sc.Skill.GradeLevel,
		); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

func (s *PostgresStore) RecentAssessments(ctx context.Context, userID string, limit int) ([]models.AssessmentEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.skill_id, sk.name, e.correct, e.occurred_at
		FROM assessment_events e
		JOIN skills sk ON sk.id = e.skill_id
		WHERE e.user_id = $1
		ORDER BY e.occurred_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent assessments: %w", err)
	}
	defer rows.Close()

	var events []models.AssessmentEvent
	for rows.Next() {
		var ev models.AssessmentEvent
		if err := rows.Scan(&ev.SkillID, &ev.SkillName, &ev.Correct, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan assessment event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *PostgresStore) ResourceByID(ctx context.Context, resourceID string) (*models.Resource, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, skill_id, title, description, resource_type, url, grade_level, ai_generated, created_at
		FROM resources WHERE id = $1`, resourceID)

	var r models.Resource
	if err := row.Scan(&r.ID, &r.SkillID, &r.Title, &r.Description, &r.Type,
		&r.URL, &r.GradeLevel, &r.AIGenerated, &r.CreatedAt); err != nil {
		return nil, fmt.Errorf("query resource %s: %w", resourceID, err)
	}
	return &r, nil
}

func (s *PostgresStore) FindResources(ctx context.Context, filter ResourceFilter) ([]models.Resource, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, val interface{}) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.SkillID != "" {
		add("skill_id = $%d", filter.SkillID)
	}
	if filter.GradeLevel != nil {
		add("grade_level = $%d", *filter.GradeLevel)
	}
	if filter.Type != nil {
		add("resource_type = $%d", string(*filter.Type))
	}
	if filter.AIGenerated != nil {
		add("ai_generated = $%d", *filter.AIGenerated)
	}

	query := `SELECT id, skill_id, title, description, resource_type, url, grade_level, ai_generated, created_at
		FROM resources`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		var r models.Resource
		if err := rows.Scan(&r.ID, &r.SkillID, &r.Title, &r.Description, &r.Type,
			&r.URL, &r.GradeLevel, &r.AIGenerated, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

func (s *PostgresStore) HistoryFor(ctx context.Context, userID, skillID string) ([]models.RecommendationHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, skill_id, resource_id, priority, explanation,
			user_score, target_score, ai_generated, was_helpful, completed_at, created_at
		FROM recommendation_history
		WHERE user_id = $1 AND skill_id = $2
		ORDER BY created_at DESC`, userID, skillID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []models.RecommendationHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, *h)
	}
	return history, rows.Err()
}

func (s *PostgresStore) HistoryByID(ctx context.Context, userID, historyID string) (*models.RecommendationHistory, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, skill_id, resource_id, priority, explanation,
			user_score, target_score, ai_generated, was_helpful, completed_at, created_at
		FROM recommendation_history
		WHERE id = $1 AND user_id = $2`, historyID, userID)

	h, err := scanHistory(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrHistoryNotFound
		}
		return nil, err
	}
	return h, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHistory(row rowScanner) (*models.RecommendationHistory, error) {
	var (
		h          models.RecommendationHistory
		wasHelpful sql.NullBool
		completed  sql.NullTime
	)
	if err := row.Scan(&h.ID, &h.UserID, &h.SkillID, &h.ResourceID, &h.Priority,
		&h.Explanation, &h.UserScore, &h.TargetScore, &h.AIGenerated,
		&wasHelpful, &completed, &h.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	if wasHelpful.Valid {
		h.WasHelpful = &wasHelpful.Bool
	}
	if completed.Valid {
		t := completed.Time
		h.CompletedAt = &t
	}
	return &h, nil
}

func (s *PostgresStore) FeedbackFor(ctx context.Context, userID, skillID string, limit int) ([]models.Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, skill_id, resource_id, resource_type, kind, was_helpful, comment, created_at
		FROM feedback
		WHERE user_id = $1 AND skill_id = $2
		ORDER BY created_at DESC
		LIMIT $3`, userID, skillID, limit)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var feedback []models.Feedback
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.SkillID, &f.ResourceID,
			&f.ResourceType, &f.Kind, &f.WasHelpful, &f.Comment, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		feedback = append(feedback, f)
	}
	return feedback, rows.Err()
}

func (s *PostgresStore) ResourceStats(ctx context.Context, resourceID string) (*ResourceStats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(AVG(CASE WHEN completed_at IS NOT NULL THEN 1.0 ELSE 0.0 END), 0),
			COALESCE(AVG(score_delta), 0)
		FROM recommendation_outcomes
		WHERE resource_id = $1`, resourceID)

	var (
		total int
		stats ResourceStats
	)
	if err := row.Scan(&total, &stats.CompletionRate, &stats.AvgScoreDelta); err != nil {
		return nil, fmt.Errorf("query resource stats: %w", err)
	}
	stats.HasHistory = total > 0
	return &stats, nil
}

func (s *PostgresStore) UserTypeCompletionRate(ctx context.Context, userID string, resourceType models.ResourceType) (float64, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(AVG(CASE WHEN h.completed_at IS NOT NULL THEN 1.0 ELSE 0.0 END), 0)
		FROM recommendation_history h
		JOIN resources r ON r.id = h.resource_id
		WHERE h.user_id = $1 AND r.resource_type = $2`, userID, string(resourceType))

	var (
		total int
		rate  float64
	)
	if err := row.Scan(&total, &rate); err != nil {
		return 0, false, fmt.Errorf("query type completion rate: %w", err)
	}
	return rate, total > 0, nil
}

func (s *PostgresStore) SaveResource(ctx context.Context, resource *models.Resource) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resources (id, skill_id, title, description, resource_type, url, grade_level, ai_generated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		resource.ID, resource.SkillID, resource.Title, resource.Description,
		string(resource.Type), resource.URL, resource.GradeLevel, resource.AIGenerated, resource.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveHistory(ctx context.Context, history *models.RecommendationHistory) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recommendation_history
			(id, user_id, skill_id, resource_id, priority, explanation, user_score, target_score, ai_generated, was_helpful, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		history.ID, history.UserID, history.SkillID, history.ResourceID,
		string(history.Priority), history.Explanation, history.UserScore,
		history.TargetScore, history.AIGenerated, history.WasHelpful,
		history.CompletedAt, history.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveFeedback(ctx context.Context, feedback *models.Feedback) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, user_id, skill_id, resource_id, resource_type, kind, was_helpful, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		feedback.ID, feedback.UserID, feedback.SkillID, feedback.ResourceID,
		string(feedback.ResourceType), string(feedback.Kind), feedback.WasHelpful,
		feedback.Comment, feedback.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateHistoryCompletion(ctx context.Context, historyID string, completedAt time.Time, wasHelpful *bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE recommendation_history
		SET completed_at = $2, was_helpful = $3
		WHERE id = $1`, historyID, completedAt, wasHelpful)
	if err != nil {
		return fmt.Errorf("update history completion: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.ErrHistoryNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteResource(ctx context.Context, resourceID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, resourceID)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return nil
}
