package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nemsu-talks-api/internal/dto"
	"github.com/noah-isme/nemsu-talks-api/internal/models"
	"github.com/noah-isme/nemsu-talks-api/internal/service"
	appErrors "github.com/noah-isme/nemsu-talks-api/pkg/errors"
	"github.com/noah-isme/nemsu-talks-api/pkg/response"
)

type submissionRecorder interface {
	RecordSentimentSubmission(category, polarity string)
}

// SentimentHandler wires sentiment review endpoints.
type SentimentHandler struct {
	service *service.SentimentService
	metrics submissionRecorder
}

// NewSentimentHandler creates a new handler. metrics may be nil.
func NewSentimentHandler(svc *service.SentimentService, metrics submissionRecorder) *SentimentHandler {
	return &SentimentHandler{service: svc, metrics: metrics}
}

// Create godoc
// @Summary Submit sentiment
// @Description Store a reviewed feedback record
// @Tags Sentiments
// @Accept json
// @Produce json
// @Param payload body dto.CreateSentimentRequest true "Sentiment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sentiments [post]
func (h *SentimentHandler) Create(c *gin.Context) {
	var req dto.CreateSentimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	record, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordSentimentSubmission(string(record.Category), string(record.Polarity))
	}

	response.Created(c, record)
}

// List godoc
// @Summary List sentiments
// @Tags Sentiments
// @Produce json
// @Param status query string false "Filter by status"
// @Param category query string false "Filter by category"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sentiments [get]
func (h *SentimentHandler) List(c *gin.Context) {
	filter := models.SentimentFilter{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 20),
	}
	if v := c.Query("status"); v != "" {
		status := models.SentimentStatus(v)
		filter.Status = &status
	}
	if v := c.Query("category"); v != "" {
		category := models.SentimentCategory(v)
		filter.Category = &category
	}

	records, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, records, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get sentiment
// @Tags Sentiments
// @Produce json
// @Param id path string true "Sentiment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sentiments/{id} [get]
func (h *SentimentHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// UpdateStatus godoc
// @Summary Update sentiment status
// @Description Move a record between On Process and Resolved
// @Tags Sentiments
// @Accept json
// @Produce json
// @Param id path string true "Sentiment ID"
// @Param payload body dto.UpdateSentimentStatusRequest true "Status payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sentiments/{id}/status [patch]
func (h *SentimentHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateSentimentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Stats godoc
// @Summary Sentiment statistics
// @Tags Sentiments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sentiments/stats [get]
func (h *SentimentHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SentimentStatsResponse{
		SentimentStats: stats,
		ResolutionRate: stats.ResolutionRate(),
	}, nil)
}

// Trend godoc
// @Summary Monthly submission trend
// @Description Trailing twelve months of submission counts
// @Tags Sentiments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sentiments/trend [get]
func (h *SentimentHandler) Trend(c *gin.Context) {
	points, err := h.service.Trend(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, points, nil)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
