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
	openaiDefaultBaseURL = "https://api.openai.com"
	openaiDefaultModel   = "gpt-4o-mini"
)

// OpenAIProvider calls the OpenAI chat completions API.
type OpenAIProvider struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func NewOpenAI(cfg config.ProviderConfig) *OpenAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = openaiDefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openaiDefaultModel
	}
	return &OpenAIProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeoutFor(cfg)},
	}
}

func (p *OpenAIProvider) Name() string  { return "openai" }
func (p *OpenAIProvider) Model() string { return p.cfg.Model }
func (p *OpenAIProvider) Enabled() bool { return p.cfg.Enabled }

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) Send(ctx context.Context, prompt, systemPrompt string) Response {
	var messages []openaiMessage
	if systemPrompt != "" {
		messages = append(messages, openaiMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, openaiMessage{Role: "user", Content: prompt})

	body, _ := json.Marshal(openaiRequest{
		Model:       p.cfg.Model,
		Messages:    messages,
		Temperature: p.cfg.Temperature,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/v1/chat/completions", bytes.NewBuffer(body))
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

	var parsed openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return errorResponse(errors.ErrCodeProviderError, fmt.Sprintf("decode response: %v", err))
	}
	if parsed.Error != nil {
		if parsed.Error.Type == "content_policy_violation" {
			return errorResponse(errors.ErrCodeContentPolicyViolation, parsed.Error.Message)
		}
		return errorResponse(errors.ErrCodeProviderError, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return errorResponse(errors.ErrCodeEmptyResponse, "no choices returned")
	}

	return Response{Content: parsed.Choices[0].Message.Content}
}
