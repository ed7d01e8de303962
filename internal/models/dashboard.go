package models

// DashboardOverview is the composite payload behind the admin dashboard.
// Cached in Redis with a short TTL.
type DashboardOverview struct {
	Stats               SentimentStats  `json:"stats"`
	ResolutionRate      float64         `json:"resolution_rate"`
	CategoryBreakdown   []CategoryCount `json:"category_breakdown"`
	PolarityBreakdown   []PolarityCount `json:"polarity_breakdown"`
	Trend               []TrendPoint    `json:"trend"`
	UnreadNotifications int             `json:"unread_notifications"`
}
