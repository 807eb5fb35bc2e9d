package seeder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"founder-connect/internal/database"

	"github.com/google/uuid"
)

// PostSeeder adds a few feed posts for the seeded profiles. It must run after
// the profiles seeder.
type PostSeeder struct{}

func (PostSeeder) Name() string { return "posts" }

var demoPosts = []struct {
	ID          string
	AuthorEmail string
	Content     string
	Age         time.Duration
}{
	{
		ID:          "5b7c2a10-1f4e-4f8e-8d2a-3c9e6a7b0001",
		AuthorEmail: "ada@founderconnect.dev",
		Content:     "We just closed our first ten paying customers. Lessons on pricing for fintech SaaS in the thread below.",
		Age:         6 * time.Hour,
	},
	{
		ID:          "5b7c2a10-1f4e-4f8e-8d2a-3c9e6a7b0002",
		AuthorEmail: "jane@founderconnect.dev",
		Content:     "Seedlight is opening office hours for climate founders next week. Send a message if you want a slot.",
		Age:         30 * time.Hour,
	},
	{
		ID:          "5b7c2a10-1f4e-4f8e-8d2a-3c9e6a7b0003",
		AuthorEmail: "maria@founderconnect.dev",
		Content:     "Your first operations hire should be someone who enjoys writing things down. Everything else follows.",
		Age:         4 * 24 * time.Hour,
	},
}

func (PostSeeder) Run(ctx context.Context, db database.DB) error {
	if err := ensureTableColumns(ctx, db, "posts", "id", "author_id", "content", "created_at"); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, p := range demoPosts {
		authorID, err := findUserID(ctx, db, p.AuthorEmail)
		if err != nil {
			return err
		}
		if _, err := db.Exec(
			ctx,
			`INSERT INTO posts (id, author_id, content, created_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO NOTHING`,
			uuid.MustParse(p.ID), authorID, p.Content, now.Add(-p.Age),
		); err != nil {
			return fmt.Errorf("insert post %s: %w", p.ID, err)
		}
	}
	return nil
}

func findUserID(ctx context.Context, db database.DB, email string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, strings.ToLower(email)).Scan(&id)
	if err != nil {
		if database.IsNoRows(err) {
			return uuid.Nil, fmt.Errorf("seed user %s not found, run the profiles seeder first", email)
		}
		return uuid.Nil, err
	}
	return id, nil
}

func ensureTableColumns(ctx context.Context, db database.DB, table string, columns ...string) error {
	rows, err := db.Query(
		ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_schema='public' AND table_name=$1`,
		table,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	existing := map[string]struct{}{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return err
		}
		existing[c] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, col := range columns {
		if _, ok := existing[col]; !ok {
			return fmt.Errorf("schema mismatch: missing column %s.%s", table, col)
		}
	}
	return nil
}
