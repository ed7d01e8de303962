package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nemsu-talks-api/internal/dto"
	"github.com/noah-isme/nemsu-talks-api/internal/service"
	appErrors "github.com/noah-isme/nemsu-talks-api/pkg/errors"
	"github.com/noah-isme/nemsu-talks-api/pkg/response"
)

// AIHandler wires content analysis and the assistant chat.
type AIHandler struct {
	service *service.AIService
}

// NewAIHandler creates a new handler.
func NewAIHandler(svc *service.AIService) *AIHandler {
	return &AIHandler{service: svc}
}

// Analyze godoc
// @Summary Analyze feedback content
// @Description Classify a piece of feedback and check it for appropriateness
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body dto.AnalyzeRequest true "Content to analyze"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /ai/analyze [post]
func (h *AIHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	verdict, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, verdict, nil)
}

// Chat godoc
// @Summary Assistant chat
// @Description Stream an assistant reply as server-sent events
// @Tags AI
// @Accept json
// @Produce text/event-stream
// @Param payload body dto.ChatRequest true "Conversation so far"
// @Success 200 {string} string "SSE stream"
// @Failure 502 {object} response.Envelope
// @Router /ai/chat [post]
func (h *AIHandler) Chat(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	_, err := h.service.Chat(c.Request.Context(), claims.UserID, req, func(token string) error {
		c.SSEvent("message", token)
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		c.SSEvent("error", appErrors.FromError(err).Message)
		c.Writer.Flush()
		return
	}
	c.SSEvent("done", "")
	c.Writer.Flush()
}

// History godoc
// @Summary Assistant chat history
// @Tags AI
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ai/chat/history [get]
func (h *AIHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	messages, err := h.service.History(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

// ClearHistory godoc
// @Summary Clear assistant chat history
// @Tags AI
// @Produce json
// @Success 204 {object} response.Envelope
// @Router /ai/chat/history [delete]
func (h *AIHandler) ClearHistory(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.ClearHistory(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
