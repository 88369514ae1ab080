package parse

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learning-engine/internal/common/errors"
	"learning-engine/internal/common/logger"
)

const validJSON = `{
	"explanation": "Your fractions score is low; this video rebuilds the basics.",
	"resourceTitle": "Fractions from scratch",
	"resourceDescription": "A 20 minute walkthrough of fraction basics.",
	"resourceType": "VIDEO",
	"resourceUrl": "https://example.com/fractions",
	"priority": "CRITICAL"
}`

func TestParser_ParseAndValidate_DirectJSON(t *testing.T) {
	p := NewParser(logger.NewNoOpLogger())

	payload := p.ParseAndValidate(validJSON)

	require.NotNil(t, payload)
	assert.Equal(t, "Fractions from scratch", payload.ResourceTitle)
	assert.Equal(t, "VIDEO", payload.ResourceType)
	assert.Equal(t, "CRITICAL", payload.Priority)

	m := p.Snapshot()
	assert.Equal(t, int64(1), m.Requests)
	assert.Equal(t, int64(1), m.Valid)
	assert.Equal(t, 1.0, m.AvgAttempts)
}

func TestParser_ParseAndValidate_WrappedInMarkdown(t *testing.T) {
	p := NewParser(logger.NewNoOpLogger())

	wrapped := "Here is my recommendation:\n```json\n" + validJSON + "\n```\nHope that helps!"
	payload := p.ParseAndValidate(wrapped)

	require.NotNil(t, payload)
	assert.Equal(t, "Fractions from scratch", payload.ResourceTitle)

	// Extraction costs a second decode attempt.
	assert.Equal(t, 2.0, p.Snapshot().AvgAttempts)
}

func TestParser_ParseAndValidate_NoJSONObject(t *testing.T) {
	p := NewParser(logger.NewNoOpLogger())

	payload := p.ParseAndValidate("I cannot produce a recommendation right now.")

	assert.Nil(t, payload)
	errs := p.ParseErrors()
	require.Len(t, errs, 1)
	assert.Equal(t, errors.ErrCodeInvalidJSONFormat, errs[0].Code)
	assert.Contains(t, errs[0].RawPayload, "cannot produce")
}

func TestParser_ParseAndValidate_MalformedExtractedJSON(t *testing.T) {
	p := NewParser(logger.NewNoOpLogger())

	payload := p.ParseAndValidate(`prefix {"resourceTitle": } suffix`)

	assert.Nil(t, payload)
	errs := p.ParseErrors()
	require.Len(t, errs, 1)
	assert.Equal(t, errors.ErrCodeInvalidJSONContent, errs[0].Code)
}

func TestParser_ParseAndValidate_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		muter func(raw string) string
	}{
		{
			name: "missing required field",
			muter: func(string) string {
				return `{"explanation":"x","resourceTitle":"t","resourceDescription":"d","resourceType":"VIDEO","priority":"HIGH"}`
			},
		},
		{
			name: "unknown resource type",
			muter: func(string) string {
				return `{"explanation":"x","resourceTitle":"t","resourceDescription":"d","resourceType":"PODCAST","resourceUrl":"https://example.com","priority":"HIGH"}`
			},
		},
		{
			name: "unknown priority",
			muter: func(string) string {
				return `{"explanation":"x","resourceTitle":"t","resourceDescription":"d","resourceType":"VIDEO","resourceUrl":"https://example.com","priority":"URGENT"}`
			},
		},
		{
			name: "blank explanation",
			muter: func(string) string {
				return `{"explanation":"   ","resourceTitle":"t","resourceDescription":"d","resourceType":"VIDEO","resourceUrl":"https://example.com","priority":"HIGH"}`
			},
		},
		{
			name: "malformed url",
			muter: func(string) string {
				return `{"explanation":"x","resourceTitle":"t","resourceDescription":"d","resourceType":"VIDEO","resourceUrl":"not a url","priority":"HIGH"}`
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(logger.NewNoOpLogger())

			payload := p.ParseAndValidate(tt.muter(validJSON))

			assert.Nil(t, payload)
			errs := p.ValidationErrors()
			require.Len(t, errs, 1)
			assert.Equal(t, errors.ErrCodeValidationFailed, errs[0].Code)
			assert.Empty(t, p.ParseErrors())
		})
	}
}

func TestParser_ErrorHistoryIsBounded(t *testing.T) {
	p := NewParser(logger.NewNoOpLogger())

	for i := 0; i < errorHistorySize+20; i++ {
		p.ParseAndValidate(fmt.Sprintf("garbage %d", i))
	}

	errs := p.ParseErrors()
	assert.Len(t, errs, errorHistorySize)
	// Oldest entries dropped first.
	assert.Contains(t, errs[0].RawPayload, "garbage 20")
	assert.Contains(t, errs[len(errs)-1].RawPayload, fmt.Sprintf("garbage %d", errorHistorySize+19))
}

func TestParser_Reset(t *testing.T) {
	p := NewParser(logger.NewNoOpLogger())
	p.ParseAndValidate("garbage")
	p.ParseAndValidate(validJSON)

	p.Reset()

	m := p.Snapshot()
	assert.Zero(t, m.Requests)
	assert.Zero(t, m.Attempts)
	assert.Empty(t, p.ParseErrors())
	assert.Empty(t, p.ValidationErrors())
}

func TestValidator_AcceptsAllEnumValues(t *testing.T) {
	v := NewValidator()

	for _, rt := range []string{"VIDEO", "ARTICLE", "PRACTICE", "INTERACTIVE", "QUIZ"} {
		for _, pr := range []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"} {
			err := v.Validate(&Payload{
				Explanation:         "x",
				ResourceTitle:       "t",
				ResourceDescription: "d",
				ResourceType:        rt,
				ResourceURL:         "https://example.com/r",
				Priority:            pr,
			})
			assert.NoError(t, err, "%s/%s", rt, pr)
		}
	}
}
