// Package api assembles the HTTP surface of the gateway.
package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/awanllm/chat-gateway/internal/api/handlers"
	"github.com/awanllm/chat-gateway/internal/api/middleware"
	"github.com/awanllm/chat-gateway/internal/config"
)

// NewRouter wires routes, CORS and authentication onto a gin engine.
func NewRouter(config *config.Config, conversation handlers.Conversation, validator middleware.KeyValidator) *gin.Engine {
	if config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Configure CORS middleware
	headers := cors.DefaultConfig()
	if config.FrontendURL != "" {
		headers.AllowOrigins = []string{config.FrontendURL}
		headers.AllowCredentials = true
	} else {
		headers.AllowAllOrigins = true
	}
	headers.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	headers.AllowHeaders = []string{"Origin", "Content-Type", "Accept", config.APIKeyHeader}
	headers.ExposeHeaders = []string{"Content-Length"}
	r.Use(cors.New(headers))

	r.SetHTMLTemplate(handlers.TesterTemplate)

	// Initialize handlers and middleware with dependencies
	handler := handlers.NewHandler(conversation, config)
	authMiddleware := middleware.NewAuthMiddleware(validator, config.APIKeyHeader, config.AllowAnonymous)

	r.GET("/", handler.Tester)
	r.GET("/health", handler.Health)

	api := r.Group("/api", authMiddleware.AuthMiddleware())
	{
		api.POST("/chat", handler.Chat)
	}

	return r
}
