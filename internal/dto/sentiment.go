package dto

import "github.com/noah-isme/nemsu-talks-api/internal/models"

// CreateSentimentRequest captures POST /sentiments payload.
type CreateSentimentRequest struct {
	Student   string `json:"student" validate:"required"`
	Content   string `json:"content" validate:"required"`
	Category  string `json:"category" validate:"required"`
	Sentiment string `json:"sentiment" validate:"required"`
}

// UpdateSentimentStatusRequest captures PATCH /sentiments/:id/status payload.
type UpdateSentimentStatusRequest struct {
	Status models.SentimentStatus `json:"status" validate:"required"`
}

// SentimentStatsResponse adds the derived resolution rate to raw counters.
type SentimentStatsResponse struct {
	models.SentimentStats
	ResolutionRate float64 `json:"resolution_rate"`
}
