package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hemoscan/internal/service"
)

// AIHandler expone las utilidades de texto sobre Gemini.
type AIHandler struct {
	logger    *zap.Logger
	assistant *service.AssistantService
}

func NewAIHandler(logger *zap.Logger, assistant *service.AssistantService) *AIHandler {
	return &AIHandler{logger: logger, assistant: assistant}
}

// Chat maneja POST /api/ai/chat.
func (h *AIHandler) Chat(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	out, err := h.assistant.Chat(c.Request.Context(), req.Message)
	h.respond(c, "reply", out, err)
}

// Summary maneja POST /api/ai/summary.
func (h *AIHandler) Summary(c *gin.Context) {
	var req struct {
		Context string `json:"context" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	out, err := h.assistant.Summarize(c.Request.Context(), req.Context)
	h.respond(c, "summary", out, err)
}

// Diet maneja POST /api/ai/diet.
func (h *AIHandler) Diet(c *gin.Context) {
	var req struct {
		DietType string `json:"diet_type" binding:"required"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	out, err := h.assistant.DietPlan(c.Request.Context(), req.DietType, req.Notes)
	h.respond(c, "plan", out, err)
}

// Translate maneja POST /api/ai/translate.
func (h *AIHandler) Translate(c *gin.Context) {
	var req struct {
		Text           string `json:"text" binding:"required"`
		TargetLanguage string `json:"target_language" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	out, err := h.assistant.Translate(c.Request.Context(), req.Text, req.TargetLanguage)
	h.respond(c, "translated", out, err)
}

func (h *AIHandler) respond(c *gin.Context, field, out string, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{field: out})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case errors.Is(err, service.ErrAssistantUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gemini api key not configured"})
	case errors.Is(err, service.ErrAssistantUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": "ai service unavailable"})
	default:
		h.logger.Error("ai request failed", zap.String("field", field), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process request"})
	}
}
