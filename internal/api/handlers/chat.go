package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/awanllm/chat-gateway/internal/apperr"
	"github.com/awanllm/chat-gateway/internal/models"
)

type ChatRequest struct {
	UserID   string  `json:"user_id" binding:"required"`
	Message  *string `json:"message" binding:"required"` // Must be present; may be empty
	Provider string  `json:"provider"`                   // Optional, DEFAULT_LLM_PROVIDER is used when empty
}

type ChatMessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatResponse struct {
	Reply    string                `json:"reply"`
	Provider string                `json:"provider"`
	History  []ChatMessageResponse `json:"history"`
}

// Chat handles POST /api/chat.
func (h *handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.chat.Converse(c.Request.Context(), req.UserID, *req.Message, req.Provider)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindBadRequest {
			log.Printf("Chat request for user %s failed: %v", req.UserID, err)
		}
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		Reply:    result.Reply,
		Provider: result.Provider,
		History:  h.convertMessagesToResponse(result.History),
	})
}

func (h *handler) convertMessagesToResponse(messages []models.ConversationMessage) []ChatMessageResponse {
	response := make([]ChatMessageResponse, len(messages))
	for i, msg := range messages {
		response[i] = ChatMessageResponse{
			Role:      string(msg.Role),
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		}
	}
	return response
}
