package repository

import (
	"context"
	"time"

	"founder-connect/internal/database"

	"github.com/google/uuid"
)

type Post struct {
	ID           uuid.UUID
	AuthorID     uuid.UUID
	AuthorName   string
	AuthorRole   string
	AuthorAvatar string
	Content      string
	CreatedAt    time.Time
}

type PostRepository interface {
	Create(ctx context.Context, p Post) (Post, error)
	ListFeed(ctx context.Context, before *time.Time, limit int) ([]Post, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]Post, error)
}

type PostgresPostRepository struct {
	db database.DB
}

func NewPostgresPostRepository(db database.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

func (r *PostgresPostRepository) Create(ctx context.Context, p Post) (Post, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx,
		`WITH inserted AS (
			INSERT INTO posts (id, author_id, content) VALUES ($1, $2, $3)
			RETURNING id, author_id, content, created_at
		)
		SELECT i.created_at, u.name, u.role, u.avatar
		FROM inserted i JOIN users u ON u.id = i.author_id`,
		p.ID, p.AuthorID, p.Content,
	).Scan(&p.CreatedAt, &p.AuthorName, &p.AuthorRole, &p.AuthorAvatar)
	if err != nil {
		return Post{}, err
	}
	return p, nil
}

func (r *PostgresPostRepository) ListFeed(ctx context.Context, before *time.Time, limit int) ([]Post, error) {
	var cursor any
	if before != nil {
		cursor = before.UTC()
	}
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.author_id, u.name, u.role, u.avatar, p.content, p.created_at
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE $1::timestamptz IS NULL OR p.created_at < $1::timestamptz
		 ORDER BY p.created_at DESC
		 LIMIT $2`,
		cursor, clampLimit(limit, 20, 100),
	)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

func (r *PostgresPostRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]Post, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.author_id, u.name, u.role, u.avatar, p.content, p.created_at
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.author_id = $1
		 ORDER BY p.created_at DESC
		 LIMIT $2`,
		authorID, clampLimit(limit, 20, 100),
	)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

func scanPosts(rows database.Rows) ([]Post, error) {
	defer rows.Close()

	out := make([]Post, 0)
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.AuthorName, &p.AuthorRole, &p.AuthorAvatar, &p.Content, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
