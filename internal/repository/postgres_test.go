package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learning-engine/internal/common/errors"
	"learning-engine/internal/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_UserByID(t *testing.T) {
	store, mock := newMockStore(t)

	created := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "name", "email", "grade_level", "created_at"}).
		AddRow("user-1", "Ada", "ada@example.com", 5, created)
	mock.ExpectQuery(`SELECT id, name, email, grade_level, created_at`).
		WithArgs("user-1").
		WillReturnRows(rows)

	user, err := store.UserByID(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, 5, user.GradeLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestScoresByUser(t *testing.T) {
	store, mock := newMockStore(t)

	assessed := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "skill_id", "score", "assessed_at",
		"id", "name", "description", "subject", "grade_level",
	}).
		AddRow("a1", "user-1", "fractions", 430.0, assessed,
			"fractions", "Fractions", "Fraction basics", "math", 4).
		AddRow("a2", "user-1", "reading", 700.0, assessed,
			"reading", "Reading", "Comprehension", "ela", 4)
	mock.ExpectQuery(`SELECT DISTINCT ON \(a.skill_id\)`).
		WithArgs("user-1").
		WillReturnRows(rows)

	scores, err := store.LatestScoresByUser(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 430.0, scores[0].Score)
	assert.Equal(t, "Fractions", scores[0].Skill.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindResources_FilterCombinations(t *testing.T) {
	now := time.Now()
	gradeLevel := 4
	aiOnly := true
	videoType := models.ResourceTypeVideo

	resourceRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "skill_id", "title", "description", "resource_type",
			"url", "grade_level", "ai_generated", "created_at",
		}).AddRow("r1", "fractions", "Fraction video", "desc", "VIDEO",
			"https://example.com/r1", 4, false, now)
	}

	tests := []struct {
		name    string
		filter  ResourceFilter
		pattern string
		args    []driverValue
	}{
		{
			name:    "skill only",
			filter:  ResourceFilter{SkillID: "fractions"},
			pattern: `WHERE skill_id = \$1 ORDER BY created_at DESC`,
			args:    []driverValue{"fractions"},
		},
		{
			name:    "all filters with limit",
			filter:  ResourceFilter{SkillID: "fractions", GradeLevel: &gradeLevel, Type: &videoType, AIGenerated: &aiOnly, Limit: 5},
			pattern: `WHERE skill_id = \$1 AND grade_level = \$2 AND resource_type = \$3 AND ai_generated = \$4 ORDER BY created_at DESC LIMIT \$5`,
			args:    []driverValue{"fractions", 4, "VIDEO", true, 5},
		},
		{
			name:    "no filters",
			filter:  ResourceFilter{},
			pattern: `FROM resources ORDER BY created_at DESC`,
			args:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)

			expect := mock.ExpectQuery(tt.pattern)
			if len(tt.args) > 0 {
				expect.WithArgs(tt.args...)
			}
			expect.WillReturnRows(resourceRows())

			resources, err := store.FindResources(context.Background(), tt.filter)

			require.NoError(t, err)
			require.Len(t, resources, 1)
			assert.Equal(t, "r1", resources[0].ID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_HistoryByID_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM recommendation_history`).
		WithArgs("h-missing", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	h, err := store.HistoryByID(context.Background(), "user-1", "h-missing")

	assert.Nil(t, h)
	assert.ErrorIs(t, err, errors.ErrHistoryNotFound)
}

func TestPostgresStore_HistoryByID_NullableFields(t *testing.T) {
	store, mock := newMockStore(t)

	created := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "skill_id", "resource_id", "priority", "explanation",
		"user_score", "target_score", "ai_generated", "was_helpful", "completed_at", "created_at",
	}).AddRow("h1", "user-1", "fractions", "r1", "CRITICAL", "why",
		430.0, 650.0, true, nil, nil, created)
	mock.ExpectQuery(`FROM recommendation_history`).
		WithArgs("h1", "user-1").
		WillReturnRows(rows)

	h, err := store.HistoryByID(context.Background(), "user-1", "h1")

	require.NoError(t, err)
	assert.Nil(t, h.WasHelpful, "unrated stays nil")
	assert.Nil(t, h.CompletedAt)
	assert.True(t, h.AIGenerated)
}

func TestPostgresStore_UpdateHistoryCompletion(t *testing.T) {
	t.Run("updates the row", func(t *testing.T) {
		store, mock := newMockStore(t)
		completedAt := time.Now()
		helpful := true

		mock.ExpectExec(`UPDATE recommendation_history`).
			WithArgs("h1", completedAt, &helpful).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.UpdateHistoryCompletion(context.Background(), "h1", completedAt, &helpful)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id", func(t *testing.T) {
		store, mock := newMockStore(t)
		completedAt := time.Now()

		mock.ExpectExec(`UPDATE recommendation_history`).
			WithArgs("h-missing", completedAt, nil).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.UpdateHistoryCompletion(context.Background(), "h-missing", completedAt, nil)
		assert.ErrorIs(t, err, errors.ErrHistoryNotFound)
	})
}

func TestPostgresStore_SaveHistory(t *testing.T) {
	store, mock := newMockStore(t)

	created := time.Now()
	h := &models.RecommendationHistory{
		ID:          "h1",
		UserID:      "user-1",
		SkillID:     "fractions",
		ResourceID:  "r1",
		Priority:    models.PriorityCritical,
		Explanation: "why",
		UserScore:   430,
		TargetScore: 650,
		AIGenerated: true,
		CreatedAt:   created,
	}

	mock.ExpectExec(`INSERT INTO recommendation_history`).
		WithArgs("h1", "user-1", "fractions", "r1", "CRITICAL", "why",
			430.0, 650.0, true, nil, nil, created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.SaveHistory(context.Background(), h))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ResourceStats(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"count", "completion_rate", "avg_delta"}).
		AddRow(12, 0.75, 42.0)
	mock.ExpectQuery(`FROM recommendation_outcomes`).
		WithArgs("r1").
		WillReturnRows(rows)

	stats, err := store.ResourceStats(context.Background(), "r1")

	require.NoError(t, err)
	assert.True(t, stats.HasHistory)
	assert.Equal(t, 0.75, stats.CompletionRate)
	assert.Equal(t, 42.0, stats.AvgScoreDelta)
}

// driverValue keeps the sqlmock arg lists readable.
type driverValue = driver.Value
