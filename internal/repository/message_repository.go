package repository

import (
	"context"
	"time"

	"founder-connect/internal/database"

	"github.com/google/uuid"
)

type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Body           string
	CreatedAt      time.Time
}

type MessageRepository interface {
	Create(ctx context.Context, m Message) (Message, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error)
}

type PostgresMessageRepository struct {
	db database.DB
}

func NewPostgresMessageRepository(db database.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

// Create stores the message and bumps the conversation so it sorts first.
func (r *PostgresMessageRepository) Create(ctx context.Context, m Message) (Message, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx,
		`WITH touched AS (
			UPDATE conversations SET updated_at = now() WHERE id = $2
		)
		INSERT INTO messages (id, conversation_id, sender_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		m.ID, m.ConversationID, m.SenderID, m.Body,
	).Scan(&m.CreatedAt)
	if err != nil {
		return Message{}, err
	}
	return m, nil
}

// ListByConversation returns the newest limit messages in chronological order.
func (r *PostgresMessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, conversation_id, sender_id, body, created_at FROM (
			SELECT id, conversation_id, sender_id, body, created_at
			FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		 ) recent
		 ORDER BY created_at ASC`,
		conversationID, clampLimit(limit, 50, 500),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
