// Package parse turns raw model output into a validated recommendation
// payload or a typed failure.
package parse

import (
	"encoding/json"
	"regexp"
	"sync"
	"time"

	"learning-engine/internal/common/errors"
	"learning-engine/internal/common/logger"
	"learning-engine/internal/common/ringbuf"
)

const errorHistorySize = 100

// Payload is the flat JSON object requested from the model.
type Payload struct {
	Explanation         string `json:"explanation"`
	ResourceTitle       string `json:"resourceTitle"`
	ResourceDescription string `json:"resourceDescription"`
	ResourceType        string `json:"resourceType"`
	ResourceURL         string `json:"resourceUrl"`
	Priority            string `json:"priority"`
}

// RecordedError keeps an offending raw payload alongside its typed code for
// observability.
type RecordedError struct {
	Code       errors.ErrorCode `json:"code"`
	Message    string           `json:"message"`
	RawPayload string           `json:"rawPayload"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Metrics is a snapshot of parser counters.
type Metrics struct {
	Requests    int64   `json:"requests"`
	Attempts    int64   `json:"attempts"`
	Valid       int64   `json:"valid"`
	Invalid     int64   `json:"invalid"`
	AvgAttempts float64 `json:"avgAttempts"`
}

// jsonObjectPattern greedily grabs the outermost {...} span, covering model
// output wrapped in prose or markdown fences.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Parser decodes and validates model responses, keeping bounded error
// history for both failure categories.
type Parser struct {
	validator *Validator
	logger    logger.Logger

	parseErrors      *ringbuf.Buffer[RecordedError]
	validationErrors *ringbuf.Buffer[RecordedError]

	mu       sync.Mutex
	requests int64
	attempts int64
	valid    int64
	invalid  int64
}

func NewParser(log logger.Logger) *Parser {
	return &Parser{
		validator:        NewValidator(),
		logger:           log.WithFields(map[string]interface{}{"component": "parser"}),
		parseErrors:      ringbuf.New[RecordedError](errorHistorySize),
		validationErrors: ringbuf.New[RecordedError](errorHistorySize),
	}
}

// ParseAndValidate returns the validated payload, or nil with a typed error
// recorded. It never panics on malformed input.
func (p *Parser) ParseAndValidate(raw string) *Payload {
	payload, parseErr := p.parse(raw)
	if parseErr != nil {
		p.parseErrors.Add(RecordedError{
			Code:       parseErr.Code,
			Message:    parseErr.Message,
			RawPayload: raw,
			Timestamp:  time.Now().UTC(),
		})
		p.recordOutcome(false)
		p.logger.Warn("response parse failed", map[string]interface{}{
			"code":  string(parseErr.Code),
			"error": parseErr.Message,
		})
		return nil
	}

	if verr := p.validator.Validate(payload); verr != nil {
		p.validationErrors.Add(RecordedError{
			Code:       errors.ErrCodeValidationFailed,
			Message:    verr.Error(),
			RawPayload: raw,
			Timestamp:  time.Now().UTC(),
		})
		p.recordOutcome(false)
		p.logger.Warn("response validation failed", map[string]interface{}{
			"error": verr.Error(),
		})
		return nil
	}

	p.recordOutcome(true)
	return payload
}

// parse tries a direct decode, then a greedy object extraction.
func (p *Parser) parse(raw string) (*Payload, *errors.LlmError) {
	p.countAttempt()
	var payload Payload
	if err := json.Unmarshal([]byte(raw), &payload); err == nil {
		return &payload, nil
	}

	extracted := jsonObjectPattern.FindString(raw)
	if extracted == "" {
		return nil, errors.NewLlmError(errors.ErrCodeInvalidJSONFormat, "no JSON object found in response", "")
	}

	p.countAttempt()
	if err := json.Unmarshal([]byte(extracted), &payload); err != nil {
		return nil, errors.NewLlmError(errors.ErrCodeInvalidJSONContent, "extracted JSON does not decode: "+err.Error(), "")
	}
	return &payload, nil
}

func (p *Parser) countAttempt() {
	p.mu.Lock()
	p.attempts++
	p.mu.Unlock()
}

func (p *Parser) recordOutcome(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests++
	if ok {
		p.valid++
	} else {
		p.invalid++
	}
}

// ParseErrors returns the bounded parse error history, oldest first.
func (p *Parser) ParseErrors() []RecordedError { return p.parseErrors.Items() }

// ValidationErrors returns the bounded validation error history, oldest first.
func (p *Parser) ValidationErrors() []RecordedError { return p.validationErrors.Items() }

// Snapshot returns the current parser counters.
func (p *Parser) Snapshot() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	m := Metrics{
		Requests: p.requests,
		Attempts: p.attempts,
		Valid:    p.valid,
		Invalid:  p.invalid,
	}
	if p.requests > 0 {
		m.AvgAttempts = float64(p.attempts) / float64(p.requests)
	}
	return m
}

// Reset clears counters and error history.
func (p *Parser) Reset() {
	p.mu.Lock()
	p.requests = 0
	p.attempts = 0
	p.valid = 0
	p.invalid = 0
	p.mu.Unlock()

	p.parseErrors.Reset()
	p.validationErrors.Reset()
}
