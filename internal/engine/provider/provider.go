// Package provider exposes a uniform send interface over heterogeneous
// vendor LLM chat APIs. Each implementation owns its vendor's request and
// response envelope and never lets a failure escape as a panic or error:
// failures come back as Response{IsError: true}.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"learning-engine/internal/common/config"
	"learning-engine/internal/common/errors"
)

// Response is the uniform result of one vendor call.
type Response struct {
	Content      string `json:"content"`
	IsError      bool   `json:"isError"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Provider is a single configured LLM vendor.
type Provider interface {
	Name() string
	Model() string
	Enabled() bool
	Send(ctx context.Context, prompt, systemPrompt string) Response
}

const defaultTimeout = 30 * time.Second

func timeoutFor(cfg config.ProviderConfig) time.Duration {
	if cfg.Timeout > 0 {
		return time.Duration(cfg.Timeout) * time.Millisecond
	}
	return defaultTimeout
}

// errorResponse builds a failed Response carrying a classifiable code in the
// message so the retry loop can detect fatal failures by substring.
func errorResponse(code errors.ErrorCode, detail string) Response {
	return Response{
		IsError:      true,
		ErrorMessage: fmt.Sprintf("%s: %s", code, detail),
	}
}

// codeForStatus maps a vendor HTTP status onto the shared error taxonomy.
func codeForStatus(status int) errors.ErrorCode {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.ErrCodeInvalidAPIKey
	case http.StatusTooManyRequests:
		return errors.ErrCodeQuotaExceeded
	case http.StatusBadRequest:
		return errors.ErrCodeInvalidRequest
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return errors.ErrCodeTimeout
	default:
		return errors.ErrCodeProviderError
	}
}
