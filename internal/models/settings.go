package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// GeneralSettings covers site identity and access toggles.
type GeneralSettings struct {
	SiteName          string `json:"siteName"`
	SiteDescription   string `json:"siteDescription"`
	MaintenanceMode   bool   `json:"maintenanceMode"`
	AllowRegistration bool   `json:"allowRegistration"`
	AdminEmail        string `json:"adminEmail"`
}

// ModerationSettings covers automated content review toggles.
type ModerationSettings struct {
	AutoModeration  bool   `json:"autoModeration"`
	RequireApproval bool   `json:"requireApproval"`
	ProfanityFilter bool   `json:"profanityFilter"`
	SpamDetection   bool   `json:"spamDetection"`
	MaxPostsPerDay  string `json:"maxPostsPerDay"`
}

// NotificationSettings covers outbound alerting toggles.
type NotificationSettings struct {
	EmailNotifications  bool `json:"emailNotifications"`
	NewUserAlert        bool `json:"newUserAlert"`
	FlaggedContentAlert bool `json:"flaggedContentAlert"`
	DailyDigest         bool `json:"dailyDigest"`
}

// AppearanceSettings covers theming.
type AppearanceSettings struct {
	PrimaryColor  string `json:"primaryColor"`
	AllowDarkMode bool   `json:"allowDarkMode"`
	DefaultTheme  string `json:"defaultTheme"`
}

// SettingsState is the four-group aggregate persisted as a single JSONB
// snapshot so backup and restore operate on it atomically.
type SettingsState struct {
	General      GeneralSettings      `json:"general"`
	Moderation   ModerationSettings   `json:"moderation"`
	Notification NotificationSettings `json:"notification"`
	Appearance   AppearanceSettings   `json:"appearance"`
}

// DefaultSettingsState returns the factory configuration.
func DefaultSettingsState() SettingsState {
	return SettingsState{
		General: GeneralSettings{
			SiteName:          "NEMSUTalks",
			SiteDescription:   "A platform for NEMSU students to share their thoughts and feedback",
			MaintenanceMode:   false,
			AllowRegistration: true,
			AdminEmail:        "admin@nemsu.edu.ph",
		},
		Moderation: ModerationSettings{
			AutoModeration:  true,
			RequireApproval: false,
			ProfanityFilter: true,
			SpamDetection:   true,
			MaxPostsPerDay:  "10",
		},
		Notification: NotificationSettings{
			EmailNotifications:  true,
			NewUserAlert:        true,
			FlaggedContentAlert: true,
			DailyDigest:         false,
		},
		Appearance: AppearanceSettings{
			PrimaryColor:  "#1e40af",
			AllowDarkMode: true,
			DefaultTheme:  "light",
		},
	}
}

// Value marshals the aggregate to JSON for persistence.
func (s SettingsState) Value() (driver.Value, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal settings state: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the aggregate.
func (s *SettingsState) Scan(value interface{}) error {
	if value == nil {
		*s = SettingsState{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for SettingsState", value)
	}
	if len(data) == 0 {
		*s = SettingsState{}
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal settings state: %w", err)
	}
	return nil
}

// Settings is the singleton configuration row.
type Settings struct {
	ID         int           `db:"id" json:"-"`
	State      SettingsState `db:"state" json:"state"`
	IsDirty    bool          `db:"is_dirty" json:"is_dirty"`
	LastBackup *time.Time    `db:"last_backup" json:"last_backup,omitempty"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// SettingsBackup is a named snapshot of the aggregate. At most the ten newest
// backups are retained.
type SettingsBackup struct {
	ID        string        `db:"id" json:"id"`
	Name      string        `db:"name" json:"name"`
	State     SettingsState `db:"state" json:"-"`
	SizeBytes int           `db:"size_bytes" json:"size_bytes"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// SettingsExportVersion is the version stamp written into exports.
const SettingsExportVersion = "1.0"

// SettingsExport is the portable JSON document produced by export and
// accepted by import. All four groups are required on import.
type SettingsExport struct {
	General      *GeneralSettings      `json:"general"`
	Moderation   *ModerationSettings   `json:"moderation"`
	Notification *NotificationSettings `json:"notification"`
	Appearance   *AppearanceSettings   `json:"appearance"`
	ExportedAt   time.Time             `json:"exportedAt"`
	Version      string                `json:"version"`
}

// SettingsImport is the inbound form of the export document. Groups stay raw
// so each one can be merged over the factory defaults and fields absent from
// the file fall back to their default values instead of Go zero values.
type SettingsImport struct {
	General      json.RawMessage `json:"general"`
	Moderation   json.RawMessage `json:"moderation"`
	Notification json.RawMessage `json:"notification"`
	Appearance   json.RawMessage `json:"appearance"`
	Version      string          `json:"version"`
}
