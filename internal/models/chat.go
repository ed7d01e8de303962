package models

import "time"

// ChatRole tags who produced a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleSystem    ChatRole = "system"
)

// ChatMessage is one turn of a user's assistant conversation. The transcript
// is persisted per user so a reload restores the visible conversation.
type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	Role      ChatRole  `db:"role" json:"role"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AIAnalysis is the structured verdict returned by the analysis model for a
// piece of student feedback.
type AIAnalysis struct {
	Category         SentimentCategory `json:"category"`
	SentimentType    SentimentPolarity `json:"sentimentType"`
	IsAppropriate    bool              `json:"isAppropriate"`
	RewrittenContent string            `json:"rewrittenContent"`
	Reason           string            `json:"reason,omitempty"`
}
