package dto

// Per-group settings updates use pointer fields so only the provided keys
// change; absent fields keep their current value.

// UpdateGeneralSettingsRequest mutates the general group.
type UpdateGeneralSettingsRequest struct {
	SiteName          *string `json:"siteName,omitempty"`
	SiteDescription   *string `json:"siteDescription,omitempty"`
	MaintenanceMode   *bool   `json:"maintenanceMode,omitempty"`
	AllowRegistration *bool   `json:"allowRegistration,omitempty"`
	AdminEmail        *string `json:"adminEmail,omitempty" validate:"omitempty,email"`
}

// UpdateModerationSettingsRequest mutates the moderation group.
type UpdateModerationSettingsRequest struct {
	AutoModeration  *bool   `json:"autoModeration,omitempty"`
	RequireApproval *bool   `json:"requireApproval,omitempty"`
	ProfanityFilter *bool   `json:"profanityFilter,omitempty"`
	SpamDetection   *bool   `json:"spamDetection,omitempty"`
	MaxPostsPerDay  *string `json:"maxPostsPerDay,omitempty"`
}

// UpdateNotificationSettingsRequest mutates the notification group.
type UpdateNotificationSettingsRequest struct {
	EmailNotifications  *bool `json:"emailNotifications,omitempty"`
	NewUserAlert        *bool `json:"newUserAlert,omitempty"`
	FlaggedContentAlert *bool `json:"flaggedContentAlert,omitempty"`
	DailyDigest         *bool `json:"dailyDigest,omitempty"`
}

// UpdateAppearanceSettingsRequest mutates the appearance group.
type UpdateAppearanceSettingsRequest struct {
	PrimaryColor  *string `json:"primaryColor,omitempty"`
	AllowDarkMode *bool   `json:"allowDarkMode,omitempty"`
	DefaultTheme  *string `json:"defaultTheme,omitempty" validate:"omitempty,oneof=light dark system"`
}

// CreateBackupRequest captures POST /settings/backups payload.
type CreateBackupRequest struct {
	Name string `json:"name,omitempty"`
}
