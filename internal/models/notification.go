package models

import "time"

// NotificationAudience separates the admin inbox from student inboxes.
type NotificationAudience string

const (
	AudienceAdmin   NotificationAudience = "ADMIN"
	AudienceStudent NotificationAudience = "STUDENT"
)

// Notification types per audience.
const (
	NotifTypeNewSentiment = "new_sentiment"
	NotifTypeStatusUpdate = "status_update"
	NotifTypeSystem       = "system"
	NotifTypeAnnouncement = "announcement"
	NotifTypeSentiment    = "sentiment"
	NotifTypeLike         = "like"
)

// Notification is a single inbox entry. RecipientID is empty for the shared
// admin audience and set for student-directed rows.
type Notification struct {
	ID          string               `db:"id" json:"id"`
	Audience    NotificationAudience `db:"audience" json:"-"`
	RecipientID *string              `db:"recipient_id" json:"-"`
	Type        string               `db:"type" json:"type"`
	Title       string               `db:"title" json:"title"`
	Message     string               `db:"message" json:"message"`
	Link        *string              `db:"link" json:"link,omitempty"`
	Read        bool                 `db:"read" json:"read"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
}
