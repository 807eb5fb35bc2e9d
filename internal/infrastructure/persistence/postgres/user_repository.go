package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"founder-connect/internal/database"
	"founder-connect/internal/domain/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// UserColumns is the select list ScanUser expects.
const UserColumns = `id, email, password_hash, name, role, title, bio, avatar, tags, skills, email_verified, last_active_at, created_at, updated_at`

const uniqueViolation = "23505"

type UserRepository struct {
	db database.DB
}

func NewUserRepository(db database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u user.User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, name, role, title, bio, avatar, tags, skills, email_verified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.Title, u.Bio, u.Avatar,
		nonNil(u.Tags), nonNil(u.Skills), u.EmailVerified,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+UserColumns+` FROM users WHERE id = $1`, id)
	return ScanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+UserColumns+` FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
	return ScanUser(row)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&exists)
	return exists, err
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, in user.ProfileUpdate) (user.User, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE users SET
			name = COALESCE($2, name),
			role = COALESCE($3, role),
			title = COALESCE($4, title),
			bio = COALESCE($5, bio),
			avatar = COALESCE($6, avatar),
			tags = COALESCE($7, tags),
			skills = COALESCE($8, skills),
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+UserColumns,
		id, in.Name, in.Role, in.Title, in.Bio, in.Avatar, in.Tags, in.Skills,
	)
	return ScanUser(row)
}

func (r *UserRepository) UpdateBio(ctx context.Context, id uuid.UUID, bio string) error {
	n, err := r.db.Exec(ctx, `UPDATE users SET bio = $2, updated_at = now() WHERE id = $1`, id, bio)
	if err != nil {
		return err
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, email string) error {
	n, err := r.db.Exec(ctx,
		`UPDATE users SET email_verified = TRUE, updated_at = now() WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UserRepository) TouchLastActive(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_active_at = $2 WHERE id = $1`, id, at.UTC())
	return err
}

// ScanUser reads one row selected with UserColumns.
func ScanUser(row database.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Title, &u.Bio, &u.Avatar,
		&u.Tags, &u.Skills, &u.EmailVerified, &u.LastActiveAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

// ScanUsers drains rows selected with UserColumns.
func ScanUsers(rows database.Rows) ([]user.User, error) {
	defer rows.Close()

	out := make([]user.User, 0)
	for rows.Next() {
		u, err := ScanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ user.Repository = (*UserRepository)(nil)
