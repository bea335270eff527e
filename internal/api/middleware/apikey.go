package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/awanllm/chat-gateway/internal/apperr"
	"github.com/awanllm/chat-gateway/internal/models"
)

// APIKeyContextKey is the gin context key holding the caller's *models.APIKey.
// It is absent for anonymous requests.
const APIKeyContextKey = "apiKey"

// KeyValidator resolves a presented credential to its record.
type KeyValidator interface {
	Validate(ctx context.Context, presented string) (*models.APIKey, error)
}

type AuthMiddleware struct {
	validator      KeyValidator
	headerName     string
	allowAnonymous bool
}

func NewAuthMiddleware(validator KeyValidator, headerName string, allowAnonymous bool) *AuthMiddleware {
	return &AuthMiddleware{
		validator:      validator,
		headerName:     headerName,
		allowAnonymous: allowAnonymous,
	}
}

// AuthMiddleware checks the configured API key header. Requests without a
// key pass through only when anonymous access is allowed. Any non-empty value,
// whitespace included, is validated as presented.
func (m *AuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(m.headerName)
		if presented == "" {
			if !m.allowAnonymous {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing API key"})
				return
			}
			c.Next()
			return
		}

		record, err := m.validator.Validate(c.Request.Context(), presented)
		if err != nil {
			switch apperr.KindOf(err) {
			case apperr.KindUnauthorized:
				log.Printf("Rejected API key from IP %s", c.ClientIP())
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperr.Message(err)})
			default:
				log.Printf("API key lookup failed: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": apperr.Message(err)})
			}
			return
		}

		c.Set(APIKeyContextKey, record)
		c.Next()
	}
}
