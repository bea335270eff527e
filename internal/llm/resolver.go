package llm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/awanllm/chat-gateway/internal/config"
)

// ErrProviderNotConfigured is returned when a known provider has no credentials.
var ErrProviderNotConfigured = errors.New("provider is not configured")

// UnknownProviderError is returned for a provider name outside KnownProviders.
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("Unknown LLM provider '%s'", e.Name)
}

// Resolver picks the provider for a request. It never contacts the network.
type Resolver struct {
	defaultID ProviderID
	providers map[ProviderID]Provider
}

// NewResolver creates a resolver over the configured providers.
// defaultName must name a known provider; it does not have to be configured.
func NewResolver(defaultName string, providers map[ProviderID]Provider) (*Resolver, error) {
	defaultID, ok := ParseProviderID(defaultName)
	if !ok {
		return nil, fmt.Errorf("default provider: %w", &UnknownProviderError{Name: defaultName})
	}
	if providers == nil {
		providers = map[ProviderID]Provider{}
	}
	return &Resolver{defaultID: defaultID, providers: providers}, nil
}

// Resolve returns the provider for requested, or the default when requested
// is empty. The result is guaranteed to have credentials configured.
func (r *Resolver) Resolve(requested string) (ProviderID, error) {
	id := r.defaultID
	if requested != "" {
		parsed, ok := ParseProviderID(requested)
		if !ok {
			return "", &UnknownProviderError{Name: requested}
		}
		id = parsed
	}

	if _, ok := r.providers[id]; !ok {
		return "", fmt.Errorf("%s: %w", id, ErrProviderNotConfigured)
	}
	return id, nil
}

// Provider returns the client for a resolved id.
func (r *Resolver) Provider(id ProviderID) (Provider, error) {
	provider, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrProviderNotConfigured)
	}
	return provider, nil
}

// Default returns the configured fallback provider id.
func (r *Resolver) Default() ProviderID {
	return r.defaultID
}

// ProvidersFromConfig builds a client for every provider whose credentials
// are present in config.
func ProvidersFromConfig(config *config.Config) map[ProviderID]Provider {
	httpClient := &http.Client{Timeout: config.UpstreamTimeout}
	providers := map[ProviderID]Provider{}

	if config.OpenAIAPIKey != "" {
		providers[ProviderOpenAI] = NewOpenAIProvider(OpenAIConfig{
			Name:       string(ProviderOpenAI),
			APIKey:     config.OpenAIAPIKey,
			BaseURL:    config.OpenAIBaseURL,
			Model:      config.OpenAIModel,
			HTTPClient: httpClient,
		})
	}
	if config.GoogleAPIKey != "" {
		providers[ProviderGemini] = NewGeminiProvider(config.GoogleAPIKey, config.GeminiBaseURL, config.GeminiModel, httpClient)
	}
	if config.OllamaHost != "" {
		providers[ProviderOllama] = NewOllamaProvider(config.OllamaHost, config.OllamaDefaultModel, config.OllamaTemperature, httpClient)
	}
	return providers
}
