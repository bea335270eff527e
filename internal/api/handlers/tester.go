package handlers

import (
	_ "embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/awanllm/chat-gateway/internal/llm"
)

//go:embed tester.html
var testerHTML string

// TesterTemplate is the page served by Tester; register it with
// gin.Engine.SetHTMLTemplate.
var TesterTemplate = template.Must(template.New("tester.html").Parse(testerHTML))

// Tester serves a small form for trying the chat endpoint from a browser.
func (h *handler) Tester(c *gin.Context) {
	providers := make([]string, 0, len(llm.KnownProviders))
	for _, id := range llm.KnownProviders {
		providers = append(providers, string(id))
	}
	c.HTML(http.StatusOK, "tester.html", gin.H{
		"AppName":   h.config.AppName,
		"Header":    h.config.APIKeyHeader,
		"Providers": providers,
	})
}
