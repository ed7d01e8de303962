package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/nemsu-talks-api/internal/models"
)

// ChatRepository persists per-user assistant transcripts.
type ChatRepository struct {
	db *sqlx.DB
}

// NewChatRepository creates a new instance of ChatRepository.
func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Append stores one message at the end of the user's transcript.
func (r *ChatRepository) Append(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO chat_messages (id, user_id, role, content, created_at)
VALUES (:id, :user_id, :role, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

// History returns the user's transcript oldest first.
func (r *ChatRepository) History(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	const query = `SELECT id, user_id, role, content, created_at FROM chat_messages WHERE user_id = $1 ORDER BY created_at ASC`
	var messages []models.ChatMessage
	if err := r.db.SelectContext(ctx, &messages, query, userID); err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	return messages, nil
}

// Clear removes the user's transcript.
func (r *ChatRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	return nil
}
