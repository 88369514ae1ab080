package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"learning-engine/internal/common/config"
	"learning-engine/internal/common/errors"
)

const (
	cohereDefaultBaseURL = "https://api.cohere.com"
	cohereDefaultModel   = "command-r"
)

// CohereProvider calls the Cohere chat API.
type CohereProvider struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func NewCohere(cfg config.ProviderConfig) *CohereProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = cohereDefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = cohereDefaultModel
	}
	return &CohereProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeoutFor(cfg)},
	}
}

func (p *CohereProvider) Name() string  { return "cohere" }
func (p *CohereProvider) Model() string { return p.cfg.Model }
func (p *CohereProvider) Enabled() bool { return p.cfg.Enabled }

type cohereRequest struct {
	Model       string  `json:"model"`
	Message     string  `json:"message"`
	Preamble    string  `json:"preamble,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type cohereResponse struct {
	Text    string `json:"text"`
	Message string `json:"message,omitempty"` // error detail on failure
}

func (p *CohereProvider) Send(ctx context.Context, prompt, systemPrompt string) Response {
	body, _ := json.Marshal(cohereRequest{
		Model:       p.cfg.Model,
		Message:     prompt,
		Preamble:    systemPrompt,
		Temperature: p.cfg.Temperature,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/v1/chat", bytes.NewBuffer(body))
	if err != nil {
		return errorResponse(errors.ErrCodeInvalidRequest, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errorResponse(errors.ErrCodeTimeout, err.Error())
		}
		return errorResponse(errors.ErrCodeProviderError, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorResponse(codeForStatus(resp.StatusCode), fmt.Sprintf("status %d", resp.StatusCode))
	}

	var parsed cohereResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return errorResponse(errors.ErrCodeProviderError, fmt.Sprintf("decode response: %v", err))
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return errorResponse(errors.ErrCodeEmptyResponse, "empty text returned")
	}

	return Response{Content: parsed.Text}
}
