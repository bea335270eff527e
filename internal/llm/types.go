// Package llm talks to the hosted chat-completion providers.
package llm

import (
	"context"
	"strings"
)

// ProviderID names one of the known upstream providers.
type ProviderID string

const (
	ProviderOpenAI ProviderID = "openai"
	ProviderGemini ProviderID = "gemini"
	ProviderOllama ProviderID = "ollama"
)

// KnownProviders is the closed set of providers the gateway can dispatch to.
var KnownProviders = []ProviderID{ProviderOpenAI, ProviderGemini, ProviderOllama}

// ParseProviderID matches name case-insensitively against KnownProviders.
func ParseProviderID(name string) (ProviderID, bool) {
	normalized := ProviderID(strings.ToLower(strings.TrimSpace(name)))
	for _, id := range KnownProviders {
		if id == normalized {
			return id, true
		}
	}
	return "", false
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"` // "user", "assistant" or "system"
	Content string `json:"content"`
}

// Completion is a provider's reply. Model is the model identifier reported
// by the upstream payload and may be empty.
type Completion struct {
	Content string
	Model   string
}

// Provider interface defines the common interface for all LLM providers
type Provider interface {
	// Chat sends messages and returns the complete response (non-streaming)
	Chat(ctx context.Context, messages []Message) (*Completion, error)

	// Name returns the provider name
	Name() string
}
