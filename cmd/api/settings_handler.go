package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"lifeos-backend/pkg/ai"

	"github.com/gin-gonic/gin"
)

// SettingsHandler exposes the runtime-configurable Ollama endpoint
type SettingsHandler struct {
	settings *ai.RuntimeSettings
}

func NewSettingsHandler(settings *ai.RuntimeSettings) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// UpdateOllamaSettingsRequest represents the request body for updating Ollama settings
type UpdateOllamaSettingsRequest struct {
	OllamaBaseURL string `json:"ollama_base_url" binding:"required"`
	OllamaModel   string `json:"ollama_model,omitempty"`
}

// GetOllamaSettings returns current Ollama configuration
// GET /api/settings/ollama
func (h *SettingsHandler) GetOllamaSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ollama_base_url": h.settings.OllamaBaseURL(),
		"ollama_model":    h.settings.OllamaModel(),
	})
}

// UpdateOllamaSettings updates Ollama configuration at runtime
// PUT /api/settings/ollama
func (h *SettingsHandler) UpdateOllamaSettings(c *gin.Context) {
	var req UpdateOllamaSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": "validation", "retryable": false})
		return
	}

	h.settings.Update(strings.TrimRight(req.OllamaBaseURL, "/"), req.OllamaModel)

	c.JSON(http.StatusOK, gin.H{
		"message":         "Ollama settings updated successfully",
		"ollama_base_url": h.settings.OllamaBaseURL(),
		"ollama_model":    h.settings.OllamaModel(),
	})
}

// TestOllamaConnection tests if the Ollama server is reachable
// POST /api/settings/ollama/test
func (h *SettingsHandler) TestOllamaConnection(c *gin.Context) {
	var req struct {
		OllamaBaseURL string `json:"ollama_base_url"`
	}
	// If no body provided, use current config
	_ = c.ShouldBindJSON(&req)
	if req.OllamaBaseURL == "" {
		req.OllamaBaseURL = h.settings.OllamaBaseURL()
	}
	if req.OllamaBaseURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"connected": false, "error": "no Ollama endpoint configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := ai.Ping(ctx, strings.TrimRight(req.OllamaBaseURL, "/")); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":       true,
		"ollama_base_url": req.OllamaBaseURL,
	})
}
