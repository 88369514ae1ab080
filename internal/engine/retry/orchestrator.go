// Package retry drives LLM calls through the response cache with bounded
// attempts, linear backoff and fatal-error classification.
package retry

import (
	"context"
	"strings"
	"time"

	"learning-engine/internal/common/errors"
	"learning-engine/internal/common/logger"
	"learning-engine/internal/common/metrics"
	"learning-engine/internal/common/ringbuf"
	"learning-engine/internal/engine/llmcache"
	"learning-engine/internal/engine/provider"
)

const attemptHistorySize = 100

// Attempt records one call outcome for the bounded error history.
type Attempt struct {
	Code      errors.ErrorCode `json:"code"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Attempt   int              `json:"attempt"`
	Provider  string           `json:"provider"`
}

// Result is a successful generation outcome.
type Result struct {
	Content       string `json:"content"`
	TotalAttempts int    `json:"totalAttempts"`
	FromCache     bool   `json:"fromCache"`
}

// Orchestrator runs up to maxAttempts provider calls, wrapping each with the
// response cache.
type Orchestrator struct {
	cache       *llmcache.Cache
	maxAttempts int
	baseDelay   time.Duration
	tracker     *Tracker
	history     *ringbuf.Buffer[Attempt]
	logger      logger.Logger
	now         func() time.Time
}

func NewOrchestrator(cache *llmcache.Cache, maxAttempts int, baseDelay time.Duration, tracker *Tracker, log logger.Logger) *Orchestrator {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &Orchestrator{
		cache:       cache,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		tracker:     tracker,
		history:     ringbuf.New[Attempt](attemptHistorySize),
		logger:      log.WithFields(map[string]interface{}{"component": "retry"}),
		now:         time.Now,
	}
}

// Execute sends the prompt through the cache and, on a miss, through the
// provider with retry. A fatal error aborts immediately; retryable failures
// (including empty content with no error) back off linearly and try again.
func (o *Orchestrator) Execute(ctx context.Context, p provider.Provider, promptText, systemPrompt string) (*Result, error) {
	o.tracker.RecordRequest()

	if cached, found := o.cache.Get(ctx, promptText, systemPrompt, p.Name(), p.Model()); found {
		metrics.LlmAttempts.WithLabelValues(p.Name(), "cache_hit").Inc()
		return &Result{Content: cached, TotalAttempts: 0, FromCache: true}, nil
	}

	var lastErr *errors.LlmError
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := o.backoff(ctx, attempt-1); err != nil {
				return nil, errors.NewLlmError(errors.ErrCodeTimeout, "deadline exceeded during backoff", p.Name())
			}
		}

		start := o.now()
		resp := p.Send(ctx, promptText, systemPrompt)
		elapsed := o.now().Sub(start)

		if !resp.IsError && strings.TrimSpace(resp.Content) != "" {
			o.tracker.RecordSuccess(elapsed)
			metrics.LlmAttempts.WithLabelValues(p.Name(), "success").Inc()
			o.cache.Set(ctx, promptText, systemPrompt, p.Name(), p.Model(), resp.Content, false)
			return &Result{Content: resp.Content, TotalAttempts: attempt}, nil
		}

		message := resp.ErrorMessage
		code := classify(message)
		if message == "" {
			// No error, no content: treat as a retryable empty response.
			message = "provider returned empty content"
			code = errors.ErrCodeEmptyResponse
		}
		lastErr = errors.NewLlmError(code, message, p.Name())
		lastErr.Attempt = attempt

		o.tracker.RecordFailure(elapsed)
		metrics.LlmAttempts.WithLabelValues(p.Name(), "failure").Inc()
		o.history.Add(Attempt{
			Code:      lastErr.Code,
			Message:   lastErr.Message,
			Timestamp: lastErr.Timestamp,
			Attempt:   attempt,
			Provider:  p.Name(),
		})

		if errors.IsFatal(lastErr) {
			o.logger.Warn("fatal provider error, aborting retries", map[string]interface{}{
				"provider": p.Name(),
				"code":     string(lastErr.Code),
				"attempt":  attempt,
			})
			return nil, lastErr
		}

		o.logger.Debug("retryable provider failure", map[string]interface{}{
			"provider": p.Name(),
			"code":     string(lastErr.Code),
			"attempt":  attempt,
		})
	}

	return nil, lastErr
}

// backoff sleeps baseDelay x multiplier, honoring the context deadline.
func (o *Orchestrator) backoff(ctx context.Context, multiplier int) error {
	select {
	case <-time.After(o.baseDelay * time.Duration(multiplier)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// History returns the bounded attempt error history, oldest first.
func (o *Orchestrator) History() []Attempt {
	return o.history.Items()
}

// classify derives a structured code from a provider error message. Provider
// messages lead with their code, so substring matching suffices.
func classify(message string) errors.ErrorCode {
	known := []errors.ErrorCode{
		errors.ErrCodeInvalidAPIKey,
		errors.ErrCodeQuotaExceeded,
		errors.ErrCodeInvalidRequest,
		errors.ErrCodeContentPolicyViolation,
		errors.ErrCodeEmptyResponse,
		errors.ErrCodeTimeout,
	}
	for _, code := range known {
		if strings.Contains(message, string(code)) {
			return code
		}
	}
	return errors.ErrCodeProviderError
}
