package repository

import (
	"bytes"
	"context"
	"errors"
	"time"

	"founder-connect/internal/database"

	"github.com/google/uuid"
)

var ErrConversationNotFound = errors.New("conversation not found")

type Conversation struct {
	ID           uuid.UUID
	ParticipantA uuid.UUID
	ParticipantB uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Other returns the participant that is not userID.
func (c Conversation) Other(userID uuid.UUID) uuid.UUID {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

type ConversationSummary struct {
	Conversation
	OtherID       uuid.UUID
	OtherName     string
	OtherAvatar   string
	LastMessage   string
	LastMessageAt *time.Time
}

type ConversationRepository interface {
	GetOrCreate(ctx context.Context, a, b uuid.UUID) (Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]ConversationSummary, error)
}

type PostgresConversationRepository struct {
	db database.DB
}

func NewPostgresConversationRepository(db database.DB) *PostgresConversationRepository {
	return &PostgresConversationRepository{db: db}
}

// OrderedPair returns the participants in storage order.
func OrderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}

// GetOrCreate returns the single conversation between a and b, creating it
// on first use.
func (r *PostgresConversationRepository) GetOrCreate(ctx context.Context, a, b uuid.UUID) (Conversation, error) {
	lo, hi := OrderedPair(a, b)
	var c Conversation
	err := r.db.QueryRow(ctx,
		`INSERT INTO conversations (id, participant_a, participant_b)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (participant_a, participant_b) DO UPDATE SET updated_at = now()
		 RETURNING id, participant_a, participant_b, created_at, updated_at`,
		uuid.New(), lo, hi,
	).Scan(&c.ID, &c.ParticipantA, &c.ParticipantB, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *PostgresConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (Conversation, error) {
	var c Conversation
	err := r.db.QueryRow(ctx,
		`SELECT id, participant_a, participant_b, created_at, updated_at FROM conversations WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.ParticipantA, &c.ParticipantB, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return Conversation{}, ErrConversationNotFound
		}
		return Conversation{}, err
	}
	return c, nil
}

func (r *PostgresConversationRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]ConversationSummary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.participant_a, c.participant_b, c.created_at, c.updated_at,
		        u.id, u.name, u.avatar,
		        COALESCE(m.body, ''), m.created_at
		 FROM conversations c
		 JOIN users u ON u.id = CASE WHEN c.participant_a = $1 THEN c.participant_b ELSE c.participant_a END
		 LEFT JOIN LATERAL (
			SELECT body, created_at FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC
			LIMIT 1
		 ) m ON TRUE
		 WHERE c.participant_a = $1 OR c.participant_b = $1
		 ORDER BY c.updated_at DESC
		 LIMIT $2`,
		userID, clampLimit(limit, 50, 200),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ConversationSummary, 0)
	for rows.Next() {
		var s ConversationSummary
		if err := rows.Scan(
			&s.ID, &s.ParticipantA, &s.ParticipantB, &s.CreatedAt, &s.UpdatedAt,
			&s.OtherID, &s.OtherName, &s.OtherAvatar,
			&s.LastMessage, &s.LastMessageAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
