package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/awanllm/chat-gateway/internal/apperr"
	"github.com/awanllm/chat-gateway/internal/chat"
	"github.com/awanllm/chat-gateway/internal/config"
)

// Conversation is the orchestration the chat endpoint delegates to.
type Conversation interface {
	Converse(ctx context.Context, userID, message, requestedProvider string) (*chat.Result, error)
}

// handler is the core struct with all dependencies
type handler struct {
	chat   Conversation
	config *config.Config
}

// NewHandler creates a new handler instance
func NewHandler(chat Conversation, config *config.Config) *handler {
	return &handler{
		chat,
		config,
	}
}

// statusFor maps an error kind to the HTTP status returned to callers.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindBadRequest:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the short error detail for err and stops the chain.
func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": apperr.Message(err)})
}
