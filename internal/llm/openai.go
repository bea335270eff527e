package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider for OpenAI and any OpenAI-compatible
// endpoint, which is how Ollama is reached.
type OpenAIProvider struct {
	name        string
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig configures an OpenAIProvider.
type OpenAIConfig struct {
	Name        string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config OpenAIConfig) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}
	if config.HTTPClient != nil {
		clientConfig.HTTPClient = config.HTTPClient
	}
	if config.Name == "" {
		config.Name = string(ProviderOpenAI)
	}

	return &OpenAIProvider{
		name:        config.Name,
		client:      openai.NewClientWithConfig(clientConfig),
		model:       config.Model,
		temperature: float32(config.Temperature),
	}
}

// NewOllamaProvider points an OpenAI-compatible client at an Ollama host.
// host may be "host:port/v1" or a full URL.
func NewOllamaProvider(host, model string, temperature float64, httpClient *http.Client) *OpenAIProvider {
	baseURL := host
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return NewOpenAIProvider(OpenAIConfig{
		Name: string(ProviderOllama),
		// Ollama ignores the key but the client always sends one.
		APIKey:      "ollama",
		BaseURL:     baseURL,
		Model:       model,
		Temperature: temperature,
		HTTPClient:  httpClient,
	})
}

// Chat implements non-streaming chat
func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message) (*Completion, error) {
	openaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    openaiMessages,
		Temperature: p.temperature,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s chat completion failed: %w", p.name, err)
	}

	completion := &Completion{Model: resp.Model}
	if len(resp.Choices) > 0 {
		completion.Content = resp.Choices[0].Message.Content
	}
	return completion, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}
