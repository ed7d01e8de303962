package dto

import "github.com/noah-isme/nemsu-talks-api/internal/models"

// CreateAnnouncementRequest captures POST /announcements payload.
type CreateAnnouncementRequest struct {
	Title       string                    `json:"title" validate:"required"`
	Description string                    `json:"description" validate:"required"`
	Category    string                    `json:"category" validate:"required"`
	Status      models.AnnouncementStatus `json:"status,omitempty"`
}
