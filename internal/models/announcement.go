package models

import "time"

// AnnouncementStatus is the publication state of an announcement.
type AnnouncementStatus string

const (
	AnnouncementStatusDraft     AnnouncementStatus = "Draft"
	AnnouncementStatusPublished AnnouncementStatus = "Published"
)

// Announcement represents a persisted announcement row. IsNew is only ever
// true while the announcement is Published.
type Announcement struct {
	ID          string             `db:"id" json:"id"`
	Title       string             `db:"title" json:"title"`
	Description string             `db:"description" json:"description"`
	Category    string             `db:"category" json:"category"`
	Status      AnnouncementStatus `db:"status" json:"status"`
	IsNew       bool               `db:"is_new" json:"is_new"`
	Date        time.Time          `db:"date" json:"date"`
	CreatedBy   string             `db:"created_by" json:"created_by"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at" json:"updated_at"`
}

// AnnouncementFilter allows listing announcements.
type AnnouncementFilter struct {
	Status   *AnnouncementStatus
	Page     int
	PageSize int
}
