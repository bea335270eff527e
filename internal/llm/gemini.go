package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// GeminiProvider implements the Provider interface for Google Gemini
type GeminiProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// GeminiContent represents content in Gemini's format
type GeminiContent struct {
	Parts []GeminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

// GeminiPart represents a part of content
type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiRequest represents a request to Gemini API
type GeminiRequest struct {
	Contents          []GeminiContent `json:"contents"`
	SystemInstruction *GeminiContent  `json:"systemInstruction,omitempty"`
}

// GeminiResponse represents a response from Gemini API
type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []GeminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(apiKey, baseURL, model string, client *http.Client) *GeminiProvider {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	if client == nil {
		client = &http.Client{}
	}
	return &GeminiProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  client,
	}
}

// Chat implements non-streaming chat
func (p *GeminiProvider) Chat(ctx context.Context, messages []Message) (*Completion, error) {
	reqBody, err := json.Marshal(p.buildRequest(messages))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, url.QueryEscape(p.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		// The request URL carries the key; report the cause only.
		if urlErr, ok := err.(*url.Error); ok {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 400))
		return nil, fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(body))
	}

	var geminiResp GeminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	completion := &Completion{Model: geminiResp.ModelVersion}
	if len(geminiResp.Candidates) > 0 {
		var text strings.Builder
		for _, part := range geminiResp.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
		completion.Content = text.String()
	}
	return completion, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return string(ProviderGemini)
}

// buildRequest maps roles onto Gemini's format: "assistant" becomes "model"
// and system messages move into systemInstruction.
func (p *GeminiProvider) buildRequest(messages []Message) GeminiRequest {
	var req GeminiRequest
	var system []GeminiPart

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = append(system, GeminiPart{Text: msg.Content})
		case "assistant":
			req.Contents = append(req.Contents, GeminiContent{Role: "model", Parts: []GeminiPart{{Text: msg.Content}}})
		default:
			req.Contents = append(req.Contents, GeminiContent{Role: "user", Parts: []GeminiPart{{Text: msg.Content}}})
		}
	}

	if len(system) > 0 {
		req.SystemInstruction = &GeminiContent{Parts: system}
	}
	return req
}
