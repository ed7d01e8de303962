package dto

import (
	"time"

	"github.com/noah-isme/nemsu-talks-api/internal/models"
)

// ReportRequest captures POST /reports/generate payload.
type ReportRequest struct {
	Type     models.ReportType         `json:"type"`
	Format   models.ReportFormat       `json:"format"`
	DateFrom *time.Time                `json:"dateFrom,omitempty"`
	DateTo   *time.Time                `json:"dateTo,omitempty"`
	Status   *models.SentimentStatus   `json:"status,omitempty"`
	Category *models.SentimentCategory `json:"category,omitempty"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
