// Package chat runs one conversational exchange: history, provider call,
// persistence and retention.
package chat

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/awanllm/chat-gateway/internal/apperr"
	"github.com/awanllm/chat-gateway/internal/llm"
	"github.com/awanllm/chat-gateway/internal/memory"
	"github.com/awanllm/chat-gateway/internal/models"
)

// Result is the outcome of a successful exchange.
type Result struct {
	Reply    string
	Provider string
	History  []models.ConversationMessage
}

// Service is the chat orchestrator.
type Service struct {
	store      memory.Store
	resolver   *llm.Resolver
	maxHistory int
	timeout    time.Duration
}

// NewService creates a Service. maxHistory bounds both the context sent
// upstream and the number of messages retained per user.
func NewService(store memory.Store, resolver *llm.Resolver, maxHistory int, timeout time.Duration) *Service {
	return &Service{
		store:      store,
		resolver:   resolver,
		maxHistory: maxHistory,
		timeout:    timeout,
	}
}

// Converse sends message on behalf of userID and records the exchange.
// The steps run strictly in order; nothing is written unless the provider
// resolved and the upstream call succeeded.
func (s *Service) Converse(ctx context.Context, userID, message, requestedProvider string) (*Result, error) {
	providerID, provider, err := s.resolve(requestedProvider)
	if err != nil {
		return nil, err
	}

	history, err := s.store.FetchRecent(ctx, userID, s.maxHistory)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(history)+1)
	for _, record := range history {
		messages = append(messages, llm.Message{Role: string(record.Role), Content: record.Content})
	}
	messages = append(messages, llm.Message{Role: string(models.RoleUser), Content: message})

	completion, err := s.dispatch(ctx, provider, messages)
	if err != nil {
		return nil, err
	}

	if err := s.store.Append(ctx, userID, models.RoleUser, message); err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, userID, models.RoleAssistant, completion.Content); err != nil {
		return nil, err
	}
	if err := s.store.Prune(ctx, userID, s.maxHistory); err != nil {
		return nil, err
	}

	history, err = s.store.FetchRecent(ctx, userID, s.maxHistory)
	if err != nil {
		return nil, err
	}

	label := completion.Model
	if label == "" {
		label = string(providerID)
	}

	return &Result{
		Reply:    completion.Content,
		Provider: label,
		History:  history,
	}, nil
}

func (s *Service) resolve(requested string) (llm.ProviderID, llm.Provider, error) {
	id, err := s.resolver.Resolve(requested)
	if err != nil {
		var unknown *llm.UnknownProviderError
		if errors.As(err, &unknown) {
			return "", nil, apperr.Wrap(apperr.KindBadRequest, err, unknown.Error())
		}
		return "", nil, apperr.Wrap(apperr.KindServiceUnavailable, err, err.Error())
	}

	provider, err := s.resolver.Provider(id)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.KindServiceUnavailable, err, err.Error())
	}
	return id, provider, nil
}

func (s *Service) dispatch(ctx context.Context, provider llm.Provider, messages []llm.Message) (*llm.Completion, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	completion, err := provider.Chat(ctx, messages)
	if err != nil {
		log.Printf("❌ Upstream %s call failed: %v", provider.Name(), err)
		return nil, apperr.Wrap(apperr.KindServiceUnavailable, err, "LLM provider request failed")
	}
	if completion == nil {
		completion = &llm.Completion{}
	}
	return completion, nil
}
