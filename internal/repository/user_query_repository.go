package repository

import (
	"context"
	"fmt"
	"strings"

	"founder-connect/internal/database"
	"founder-connect/internal/domain/matching"
	"founder-connect/internal/domain/user"
	pgpersist "founder-connect/internal/infrastructure/persistence/postgres"
	"founder-connect/internal/search"

	"github.com/google/uuid"
)

type ProfileField string

const (
	FieldName  ProfileField = "name"
	FieldRole  ProfileField = "role"
	FieldTitle ProfileField = "title"
	FieldBio   ProfileField = "bio"
)

// ProfileSearch is an OR of every term against every field.
type ProfileSearch struct {
	Terms     []string
	Fields    []ProfileField
	ExcludeID uuid.UUID
	Limit     int
}

type UserQueryRepository interface {
	SearchProfiles(ctx context.Context, q ProfileSearch) ([]user.User, error)
	FindFirstByName(ctx context.Context, phrase string, excludeID uuid.UUID) (user.User, error)
	FindCandidates(ctx context.Context, q matching.PoolQuery) ([]user.User, error)
	ListUserIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error)
}

type PostgresUserQueryRepository struct {
	db database.DB
}

func NewPostgresUserQueryRepository(db database.DB) *PostgresUserQueryRepository {
	return &PostgresUserQueryRepository{db: db}
}

func (r *PostgresUserQueryRepository) SearchProfiles(ctx context.Context, q ProfileSearch) ([]user.User, error) {
	where, args := buildProfileSearch(q)
	if where == "" {
		return []user.User{}, nil
	}

	args = append(args, clampLimit(q.Limit, 10, 100))
	sql := `SELECT ` + pgpersist.UserColumns + `
		 FROM users
		 WHERE ` + where + `
		 ORDER BY created_at ASC, id ASC
		 LIMIT $` + fmt.Sprint(len(args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgpersist.ScanUsers(rows)
}

// buildProfileSearch renders the WHERE clause. Unknown fields are ignored so
// column names never come from input.
func buildProfileSearch(q ProfileSearch) (string, []any) {
	var fields []string
	for _, f := range q.Fields {
		switch f {
		case FieldName, FieldRole, FieldTitle, FieldBio:
			fields = append(fields, string(f))
		}
	}
	if len(fields) == 0 || len(q.Terms) == 0 {
		return "", nil
	}

	args := make([]any, 0, len(q.Terms)+1)
	ors := make([]string, 0, len(q.Terms)*len(fields))
	for _, term := range q.Terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		args = append(args, search.ContainsPattern(term))
		n := len(args)
		for _, f := range fields {
			ors = append(ors, fmt.Sprintf("%s ILIKE $%d", f, n))
		}
	}
	if len(ors) == 0 {
		return "", nil
	}

	where := "(" + strings.Join(ors, " OR ") + ")"
	if q.ExcludeID != uuid.Nil {
		args = append(args, q.ExcludeID)
		where += fmt.Sprintf(" AND id <> $%d", len(args))
	}
	return where, args
}

func (r *PostgresUserQueryRepository) FindFirstByName(ctx context.Context, phrase string, excludeID uuid.UUID) (user.User, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return user.User{}, user.ErrNotFound
	}
	row := r.db.QueryRow(ctx,
		`SELECT `+pgpersist.UserColumns+`
		 FROM users
		 WHERE name ILIKE $1 AND id <> $2
		 ORDER BY created_at ASC, id ASC
		 LIMIT 1`,
		search.ContainsPattern(phrase), excludeID,
	)
	return pgpersist.ScanUser(row)
}

func (r *PostgresUserQueryRepository) FindCandidates(ctx context.Context, q matching.PoolQuery) ([]user.User, error) {
	if q.Empty() {
		return []user.User{}, nil
	}

	excluded := q.ExcludeIDs
	if excluded == nil {
		excluded = []uuid.UUID{}
	}
	args := []any{excluded, clampLimit(q.Limit, 50, 500)}

	var where string
	if q.ActiveSince != nil {
		args = append(args, q.ActiveSince.UTC())
		where = `last_active_at >= $3`
	} else {
		var ors []string
		if len(q.Roles) > 0 {
			args = append(args, q.Roles)
			ors = append(ors, fmt.Sprintf("lower(role) = ANY($%d::text[])", len(args)))
		}
		if len(q.Interests) > 0 {
			args = append(args, q.Interests)
			n := len(args)
			ors = append(ors,
				fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(tags) t WHERE lower(t) = ANY($%d::text[]))", n),
				fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(skills) s WHERE lower(s) = ANY($%d::text[]))", n),
			)
		}
		where = "(" + strings.Join(ors, " OR ") + ")"
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+pgpersist.UserColumns+`
		 FROM users
		 WHERE NOT (id = ANY($1::uuid[])) AND `+where+`
		 ORDER BY last_active_at DESC NULLS LAST, created_at ASC
		 LIMIT $2`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	return pgpersist.ScanUsers(rows)
}

func (r *PostgresUserQueryRepository) ListUserIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx,
		`SELECT id
		 FROM users
		 ORDER BY created_at ASC
		 LIMIT $1 OFFSET $2`,
		clampLimit(limit, 100, 1000), offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
