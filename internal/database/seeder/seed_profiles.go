package seeder

import (
	"context"
	"fmt"
	"time"

	"founder-connect/internal/database"
	"founder-connect/internal/domain/user"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "founder123"

type demoProfile struct {
	ID     string
	Email  string
	Name   string
	Role   string
	Title  string
	Bio    string
	Tags   []string
	Skills []string
	// ActiveAgo is how long ago the profile was last active.
	ActiveAgo time.Duration
}

var demoProfiles = []demoProfile{
	{
		ID: "8f0e3c3a-5d1b-4c55-9a61-0d7b2a9e0001", Email: "ada@founderconnect.dev", Name: "Ada Lovelace",
		Role: "founder", Title: "CEO at Loom Analytics",
		Bio:  "Building analytics tools for early stage fintech teams. Looking for investors and a technical cofounder.",
		Tags: []string{"fintech", "analytics", "saas"}, Skills: []string{"product", "fundraising"},
		ActiveAgo: 2 * time.Hour,
	},
	{
		ID: "8f0e3c3a-5d1b-4c55-9a61-0d7b2a9e0002", Email: "jane@founderconnect.dev", Name: "Jane Doe",
		Role: "investor", Title: "Partner at Seedlight Ventures",
		Bio:  "Pre-seed investor in fintech and climate. Happy to talk to founders building for emerging markets.",
		Tags: []string{"fintech", "climate"}, Skills: []string{"fundraising", "go-to-market"},
		ActiveAgo: 24 * time.Hour,
	},
	{
		ID: "8f0e3c3a-5d1b-4c55-9a61-0d7b2a9e0003", Email: "bob@founderconnect.dev", Name: "Bob Stone",
		Role: "developer", Title: "Staff Engineer",
		Bio:  "Backend engineer with ten years of distributed systems work. Open to joining an early team as CTO.",
		Tags: []string{"saas", "infrastructure"}, Skills: []string{"go", "postgres", "kubernetes"},
		ActiveAgo: 3 * 24 * time.Hour,
	},
	{
		ID: "8f0e3c3a-5d1b-4c55-9a61-0d7b2a9e0004", Email: "maria@founderconnect.dev", Name: "Maria Chen",
		Role: "mentor", Title: "Former COO at Parcel",
		Bio:  "Operator and mentor. I help founders with hiring, operations and their first sales motion.",
		Tags: []string{"logistics", "saas"}, Skills: []string{"operations", "hiring"},
		ActiveAgo: 10 * 24 * time.Hour,
	},
	{
		ID: "8f0e3c3a-5d1b-4c55-9a61-0d7b2a9e0005", Email: "sam@founderconnect.dev", Name: "Sam Patel",
		Role: "designer", Title: "Product Designer",
		Bio:  "Designing onboarding flows for consumer fintech apps. Interested in climate and health products.",
		Tags: []string{"fintech", "health", "climate"}, Skills: []string{"design", "research"},
		ActiveAgo: 40 * 24 * time.Hour,
	},
}

// DemoUsers returns the demo accounts, verified and ready to log in.
func DemoUsers(now time.Time) ([]user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	out := make([]user.User, 0, len(demoProfiles))
	for _, p := range demoProfiles {
		active := now.Add(-p.ActiveAgo).UTC()
		out = append(out, user.User{
			ID:            uuid.MustParse(p.ID),
			Email:         p.Email,
			PasswordHash:  string(hash),
			Name:          p.Name,
			Role:          p.Role,
			Title:         p.Title,
			Bio:           p.Bio,
			Tags:          p.Tags,
			Skills:        p.Skills,
			EmailVerified: true,
			LastActiveAt:  &active,
		})
	}
	return out, nil
}

type ProfilesSeeder struct{}

func (ProfilesSeeder) Name() string { return "profiles" }

func (ProfilesSeeder) Run(ctx context.Context, db database.DB) error {
	if err := RequireColumns(ctx, db, map[string][]string{
		"users": {
			"id", "email", "password_hash", "name", "role", "title", "bio", "tags", "skills",
			"email_verified", "last_active_at",
		},
	}); err != nil {
		return err
	}

	users, err := DemoUsers(time.Now())
	if err != nil {
		return err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	for _, u := range users {
		if _, err := tx.Exec(
			ctx,
			`INSERT INTO users (id, email, password_hash, name, role, title, bio, tags, skills, email_verified, last_active_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT (email) DO NOTHING`,
			u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.Title, u.Bio, u.Tags, u.Skills, u.EmailVerified, u.LastActiveAt,
		); err != nil {
			return fmt.Errorf("insert %s: %w", u.Email, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
