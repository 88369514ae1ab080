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
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicDefaultModel   = "claude-3-5-haiku-latest"
	anthropicVersion        = "2023-06-01"
	anthropicMaxTokens      = 1024
)

// AnthropicProvider calls the Anthropic messages API.
type AnthropicProvider struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func NewAnthropic(cfg config.ProviderConfig) *AnthropicProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = anthropicDefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = anthropicDefaultModel
	}
	return &AnthropicProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeoutFor(cfg)},
	}
}

func (p *AnthropicProvider) Name() string  { return "anthropic" }
func (p *AnthropicProvider) Model() string { return p.cfg.Model }
func (p *AnthropicProvider) Enabled() bool { return p.cfg.Enabled }

type anthropicRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    string `json:"system,omitempty"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float64 `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *AnthropicProvider) Send(ctx context.Context, prompt, systemPrompt string) Response {
	reqBody := anthropicRequest{
		Model:       p.cfg.Model,
		MaxTokens:   anthropicMaxTokens,
		System:      systemPrompt,
		Temperature: p.cfg.Temperature,
	}
	reqBody.Messages = append(reqBody.Messages, struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{Role: "user", Content: prompt})

	body, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/v1/messages", bytes.NewBuffer(body))
	if err != nil {
		return errorResponse(errors.ErrCodeInvalidRequest, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

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

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return errorResponse(errors.ErrCodeProviderError, fmt.Sprintf("decode response: %v", err))
	}
	if parsed.Error != nil {
		return errorResponse(errors.ErrCodeProviderError, parsed.Error.Message)
	}
	if len(parsed.Content) == 0 || strings.TrimSpace(parsed.Content[0].Text) == "" {
		return errorResponse(errors.ErrCodeEmptyResponse, "no content blocks returned")
	}

	return Response{Content: parsed.Content[0].Text}
}
