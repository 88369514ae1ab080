package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"learning-engine/internal/models"
)

func fb(rt models.ResourceType, kind models.FeedbackKind, helpful bool, comment string) models.Feedback {
	return models.Feedback{
		ResourceType: rt,
		Kind:         kind,
		WasHelpful:   helpful,
		Comment:      comment,
	}
}

func TestExtract_EmptyFeedback(t *testing.T) {
	ins := Extract(nil)

	assert.Empty(t, ins.PreferredTypes)
	assert.Empty(t, ins.AvoidedTypes)
	assert.Equal(t, PreferAppropriate, ins.Difficulty)
	assert.Empty(t, ins.CommonIssues)
}

func TestExtract_PreferredAndAvoidedTypes(t *testing.T) {
	feedback := []models.Feedback{
		fb(models.ResourceTypeVideo, models.FeedbackHelpful, true, ""),
		fb(models.ResourceTypeVideo, models.FeedbackHelpful, true, ""),
		fb(models.ResourceTypeVideo, models.FeedbackNotHelpful, false, ""),
		fb(models.ResourceTypeArticle, models.FeedbackNotHelpful, false, ""),
		fb(models.ResourceTypeArticle, models.FeedbackNotHelpful, false, ""),
	}

	ins := Extract(feedback)

	// Video: 2/3 helpful is below the 0.7 preferred bar, above the 0.3
	// avoided bar, so it lands in neither bucket.
	assert.Empty(t, ins.PreferredTypes)
	assert.Equal(t, []models.ResourceType{models.ResourceTypeArticle}, ins.AvoidedTypes)
}

func TestExtract_PreferredRequiresMinimumSample(t *testing.T) {
	// A single helpful row is not enough signal.
	ins := Extract([]models.Feedback{
		fb(models.ResourceTypePractice, models.FeedbackHelpful, true, ""),
	})
	assert.Empty(t, ins.PreferredTypes)

	ins = Extract([]models.Feedback{
		fb(models.ResourceTypePractice, models.FeedbackHelpful, true, ""),
		fb(models.ResourceTypePractice, models.FeedbackHelpful, true, ""),
	})
	assert.Equal(t, []models.ResourceType{models.ResourceTypePractice}, ins.PreferredTypes)
}

func TestExtract_DifficultyPreference(t *testing.T) {
	tests := []struct {
		name     string
		feedback []models.Feedback
		expected DifficultyPreference
	}{
		{
			name: "mostly too easy wants harder",
			feedback: []models.Feedback{
				fb(models.ResourceTypeVideo, models.FeedbackTooEasy, false, ""),
				fb(models.ResourceTypeVideo, models.FeedbackTooEasy, false, ""),
				fb(models.ResourceTypeVideo, models.FeedbackHelpful, true, ""),
			},
			expected: PreferHarder,
		},
		{
			name: "mostly too difficult wants easier",
			feedback: []models.Feedback{
				fb(models.ResourceTypeQuiz, models.FeedbackTooDifficult, false, ""),
				fb(models.ResourceTypeQuiz, models.FeedbackTooDifficult, false, ""),
				fb(models.ResourceTypeQuiz, models.FeedbackTooDifficult, false, ""),
				fb(models.ResourceTypeQuiz, models.FeedbackHelpful, true, ""),
			},
			expected: PreferEasier,
		},
		{
			name: "an even split stays appropriate",
			feedback: []models.Feedback{
				fb(models.ResourceTypeVideo, models.FeedbackTooEasy, false, ""),
				fb(models.ResourceTypeVideo, models.FeedbackTooDifficult, false, ""),
			},
			expected: PreferAppropriate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Extract(tt.feedback).Difficulty)
		})
	}
}

func TestExtract_CommonIssues(t *testing.T) {
	feedback := []models.Feedback{
		fb(models.ResourceTypeVideo, models.FeedbackNotHelpful, false, "too long"),
		fb(models.ResourceTypeVideo, models.FeedbackNotHelpful, false, "too long"),
		fb(models.ResourceTypeArticle, models.FeedbackNotHelpful, false, "boring"),
		fb(models.ResourceTypeQuiz, models.FeedbackNotHelpful, false, "confusing"),
		fb(models.ResourceTypeQuiz, models.FeedbackNotHelpful, false, "ads"),
	}

	issues := Extract(feedback).CommonIssues

	assert.Len(t, issues, 3)
	assert.Equal(t, "too long", issues[0])
	// Frequency ties resolve alphabetically for stable output.
	assert.Equal(t, []string{"ads", "boring"}, issues[1:])
}
