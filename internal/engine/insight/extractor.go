// Package insight aggregates recent feedback into preference signals that
// steer resource selection and prompt construction.
package insight

import (
	"sort"

	"learning-engine/internal/models"
)

const (
	// minTypeFeedback is the minimum feedback rows a resource type needs
	// before its helpful rate counts.
	minTypeFeedback = 2

	preferredRate = 0.7
	avoidedRate   = 0.3
)

// DifficultyPreference summarises whether the user wants harder, easier or
// appropriately pitched material.
type DifficultyPreference string

const (
	PreferHarder      DifficultyPreference = "harder"
	PreferEasier      DifficultyPreference = "easier"
	PreferAppropriate DifficultyPreference = "appropriate"
)

// Insights is the aggregate of a user's last feedback for one skill.
type Insights struct {
	PreferredTypes []models.ResourceType `json:"preferredTypes"`
	AvoidedTypes   []models.ResourceType `json:"avoidedTypes"`
	Difficulty     DifficultyPreference  `json:"difficulty"`
	CommonIssues   []string              `json:"commonIssues"`
}

// Extract computes insights from feedback rows, newest first. Callers pass at
// most the last 10 rows.
func Extract(feedback []models.Feedback) Insights {
	insights := Insights{Difficulty: PreferAppropriate}
	if len(feedback) == 0 {
		return insights
	}

	type typeCount struct {
		helpful int
		total   int
	}
	byType := make(map[models.ResourceType]*typeCount)

	var tooEasy, tooDifficult, appropriate int
	commentFreq := make(map[string]int)

	for _, f := range feedback {
		tc, ok := byType[f.ResourceType]
		if !ok {
			tc = &typeCount{}
			byType[f.ResourceType] = tc
		}
		tc.total++
		if f.WasHelpful {
			tc.helpful++
		}

		switch f.Kind {
		case models.FeedbackTooEasy:
			tooEasy++
		case models.FeedbackTooDifficult:
			tooDifficult++
		case models.FeedbackHelpful:
			appropriate++
		}

		if f.Comment != "" {
			commentFreq[f.Comment]++
		}
	}

	for rt, tc := range byType {
		if tc.total < minTypeFeedback {
			continue
		}
		rate := float64(tc.helpful) / float64(tc.total)
		if rate >= preferredRate {
			insights.PreferredTypes = append(insights.PreferredTypes, rt)
		} else if rate <= avoidedRate {
			insights.AvoidedTypes = append(insights.AvoidedTypes, rt)
		}
	}
	sortTypes(insights.PreferredTypes)
	sortTypes(insights.AvoidedTypes)

	if kindTotal := tooEasy + tooDifficult + appropriate; kindTotal > 0 {
		switch {
		case float64(tooEasy)/float64(kindTotal) > 0.5:
			insights.Difficulty = PreferHarder
		case float64(tooDifficult)/float64(kindTotal) > 0.5:
			insights.Difficulty = PreferEasier
		}
	}

	insights.CommonIssues = topComments(commentFreq, 3)
	return insights
}

func sortTypes(types []models.ResourceType) {
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
}

// topComments ranks exact comment strings by descending frequency, breaking
// ties alphabetically for stable output.
func topComments(freq map[string]int, limit int) []string {
	if len(freq) == 0 {
		return nil
	}
	comments := make([]string, 0, len(freq))
	for c := range freq {
		comments = append(comments, c)
	}
	sort.Slice(comments, func(i, j int) bool {
		if freq[comments[i]] != freq[comments[j]] {
			return freq[comments[i]] > freq[comments[j]]
		}
		return comments[i] < comments[j]
	})
	if len(comments) > limit {
		comments = comments[:limit]
	}
	return comments
}
