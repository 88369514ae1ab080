package parse

import (
	"fmt"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/xeipuuv/gojsonschema"
)

// payloadSchema is the contract the model is asked to satisfy: all six
// fields required, non-empty strings, closed enums for type and priority.
const payloadSchema = `{
	"type": "object",
	"required": ["explanation", "resourceTitle", "resourceDescription", "resourceType", "resourceUrl", "priority"],
	"additionalProperties": true,
	"properties": {
		"explanation":         {"type": "string", "minLength": 1},
		"resourceTitle":       {"type": "string", "minLength": 1},
		"resourceDescription": {"type": "string", "minLength": 1},
		"resourceType":        {"type": "string", "enum": ["VIDEO", "ARTICLE", "PRACTICE", "INTERACTIVE", "QUIZ"]},
		"resourceUrl":         {"type": "string", "minLength": 1},
		"priority":            {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH", "CRITICAL"]}
	}
}`

// Validator checks a decoded payload against the schema and URL rules.
type Validator struct {
	schema *gojsonschema.Schema
}

func NewValidator() *Validator {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(payloadSchema))
	if err != nil {
		// The schema is a compile-time constant; failing to compile it is a
		// programming error.
		panic(fmt.Sprintf("compile payload schema: %v", err))
	}
	return &Validator{schema: schema}
}

// Validate returns nil when the payload satisfies the contract.
func (v *Validator) Validate(payload *Payload) error {
	doc := map[string]interface{}{
		"explanation":         strings.TrimSpace(payload.Explanation),
		"resourceTitle":       strings.TrimSpace(payload.ResourceTitle),
		"resourceDescription": strings.TrimSpace(payload.ResourceDescription),
		"resourceType":        payload.ResourceType,
		"resourceUrl":         strings.TrimSpace(payload.ResourceURL),
		"priority":            payload.Priority,
	}

	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			details = append(details, re.String())
		}
		return fmt.Errorf("payload rejected: %s", strings.Join(details, "; "))
	}

	if !govalidator.IsURL(payload.ResourceURL) {
		return fmt.Errorf("resourceUrl is not a well-formed URL: %q", payload.ResourceURL)
	}
	return nil
}
