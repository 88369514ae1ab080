// Package errors provides the standardized error taxonomy for the
// recommendation engine and its LLM call path.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// AI path outcomes.
	ErrCodeDisabled      ErrorCode = "DISABLED"
	ErrCodeEmptyResponse ErrorCode = "EMPTY_RESPONSE"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"

	// Parse / validation failures.
	ErrCodeInvalidJSONFormat  ErrorCode = "INVALID_JSON_FORMAT"
	ErrCodeInvalidJSONContent ErrorCode = "INVALID_JSON_CONTENT"
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_ERROR"

	// Vendor call failures; the first four are fatal and never retried.
	ErrCodeInvalidAPIKey          ErrorCode = "INVALID_API_KEY"
	ErrCodeQuotaExceeded          ErrorCode = "QUOTA_EXCEEDED"
	ErrCodeInvalidRequest         ErrorCode = "INVALID_REQUEST"
	ErrCodeContentPolicyViolation ErrorCode = "CONTENT_POLICY_VIOLATION"
	ErrCodeProviderError          ErrorCode = "PROVIDER_ERROR"
	ErrCodeTimeout                ErrorCode = "TIMEOUT"
)

var fatalCodes = []ErrorCode{
	ErrCodeInvalidAPIKey,
	ErrCodeQuotaExceeded,
	ErrCodeInvalidRequest,
	ErrCodeContentPolicyViolation,
}

// ErrHistoryNotFound is returned when a completion references an unknown
// history row.
var ErrHistoryNotFound = errors.New("recommendation history not found")

// LlmError is a structured failure from the LLM call path.
type LlmError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Provider  string    `json:"provider,omitempty"`
	Attempt   int       `json:"attempt,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *LlmError) Error() string {
	return fmt.Sprintf("LlmError[%s]: %s", e.Code, e.Message)
}

// NewLlmError creates an LlmError stamped with the current time.
func NewLlmError(code ErrorCode, message, provider string) *LlmError {
	return &LlmError{
		Code:      code,
		Message:   message,
		Provider:  provider,
		Timestamp: time.Now().UTC(),
	}
}

// IsFatal reports whether the error should abort the retry loop. A fatal code
// matches either the structured code or, for plain errors, a substring of the
// message.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var le *LlmError
	if errors.As(err, &le) {
		for _, code := range fatalCodes {
			if le.Code == code || strings.Contains(le.Message, string(code)) {
				return true
			}
		}
		return false
	}

	msg := err.Error()
	for _, code := range fatalCodes {
		if strings.Contains(msg, string(code)) {
			return true
		}
	}
	return false
}

// CodeOf extracts the structured code from an error, defaulting to
// INTERNAL_ERROR for plain errors.
func CodeOf(err error) ErrorCode {
	var le *LlmError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeInternal
}
