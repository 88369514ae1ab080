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
	geminiDefaultBaseURL = "https://generativelanguage.googleapis.com"
	geminiDefaultModel   = "gemini-1.5-flash"
)

// GeminiProvider calls the Google Generative Language API.
type GeminiProvider struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func NewGemini(cfg config.ProviderConfig) *GeminiProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = geminiDefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = geminiDefaultModel
	}
	return &GeminiProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeoutFor(cfg)},
	}
}

func (p *GeminiProvider) Name() string  { return "gemini" }
func (p *GeminiProvider) Model() string { return p.cfg.Model }
func (p *GeminiProvider) Enabled() bool { return p.cfg.Enabled }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		Temperature float64 `json:"temperature,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

func (p *GeminiProvider) Send(ctx context.Context, prompt, systemPrompt string) Response {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}, Role: "user"}},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}
	reqBody.GenerationConfig.Temperature = p.cfg.Temperature

	body, _ := json.Marshal(reqBody)
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", p.cfg.BaseURL, p.cfg.Model, p.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return errorResponse(errors.ErrCodeInvalidRequest, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

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

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return errorResponse(errors.ErrCodeProviderError, fmt.Sprintf("decode response: %v", err))
	}
	if len(parsed.Candidates) == 0 {
		return errorResponse(errors.ErrCodeEmptyResponse, "no candidates returned")
	}
	// A safety block arrives as a candidate with no content parts, so the
	// finish reason must be checked before rejecting for missing parts.
	if parsed.Candidates[0].FinishReason == "SAFETY" {
		return errorResponse(errors.ErrCodeContentPolicyViolation, "generation blocked by safety filter")
	}
	if len(parsed.Candidates[0].Content.Parts) == 0 {
		return errorResponse(errors.ErrCodeEmptyResponse, "candidate has no content parts")
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return errorResponse(errors.ErrCodeEmptyResponse, "empty candidate text")
	}
	return Response{Content: text}
}
