package repository

import (
	"context"

	"founder-connect/internal/database"
	"founder-connect/internal/domain/user"
	pgpersist "founder-connect/internal/infrastructure/persistence/postgres"

	"github.com/google/uuid"
)

// EdgeKind is one of the per-user relationship lists.
type EdgeKind string

const (
	EdgeConnected EdgeKind = "connected"
	// EdgePending marks a request user_id sent to other_id.
	EdgePending EdgeKind = "pending"
	// EdgeRequest marks a request user_id received from other_id.
	EdgeRequest EdgeKind = "request"
)

// SideUpdate is one user's half of a relationship change. Remove runs before
// Add within a single statement.
type SideUpdate struct {
	UserID  uuid.UUID
	OtherID uuid.UUID
	Remove  []EdgeKind
	Add     EdgeKind
}

type ConnectionRepository interface {
	AddEdge(ctx context.Context, userID, otherID uuid.UUID, kind EdgeKind) error
	RemoveEdge(ctx context.Context, userID, otherID uuid.UUID, kind EdgeKind) error
	HasEdge(ctx context.Context, userID, otherID uuid.UUID, kind EdgeKind) (bool, error)
	ListEdges(ctx context.Context, userID uuid.UUID, kind EdgeKind) ([]uuid.UUID, error)
	ListProfiles(ctx context.Context, userID uuid.UUID, kind EdgeKind) ([]user.User, error)
	ExcludedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ApplySide(ctx context.Context, u SideUpdate) error
}

type PostgresConnectionRepository struct {
	db database.DB
}

func NewPostgresConnectionRepository(db database.DB) *PostgresConnectionRepository {
	return &PostgresConnectionRepository{db: db}
}

// AddEdge has set semantics: adding an existing edge is a no-op.
func (r *PostgresConnectionRepository) AddEdge(ctx context.Context, userID, otherID uuid.UUID, kind EdgeKind) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO connection_edges (user_id, other_id, kind)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		userID, otherID, string(kind),
	)
	return err
}

func (r *PostgresConnectionRepository) RemoveEdge(ctx context.Context, userID, otherID uuid.UUID, kind EdgeKind) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM connection_edges WHERE user_id = $1 AND other_id = $2 AND kind = $3`,
		userID, otherID, string(kind),
	)
	return err
}

func (r *PostgresConnectionRepository) HasEdge(ctx context.Context, userID, otherID uuid.UUID, kind EdgeKind) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM connection_edges WHERE user_id = $1 AND other_id = $2 AND kind = $3)`,
		userID, otherID, string(kind),
	).Scan(&exists)
	return exists, err
}

func (r *PostgresConnectionRepository) ListEdges(ctx context.Context, userID uuid.UUID, kind EdgeKind) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT other_id FROM connection_edges WHERE user_id = $1 AND kind = $2 ORDER BY created_at ASC`,
		userID, string(kind),
	)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

func (r *PostgresConnectionRepository) ListProfiles(ctx context.Context, userID uuid.UUID, kind EdgeKind) ([]user.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+prefixed("u.", pgpersist.UserColumns)+`
		 FROM connection_edges e
		 JOIN users u ON u.id = e.other_id
		 WHERE e.user_id = $1 AND e.kind = $2
		 ORDER BY e.created_at DESC`,
		userID, string(kind),
	)
	if err != nil {
		return nil, err
	}
	return pgpersist.ScanUsers(rows)
}

// ExcludedIDs returns self plus everyone userID is connected to or has a
// pending or received request with.
func (r *PostgresConnectionRepository) ExcludedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT other_id FROM connection_edges WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	return append([]uuid.UUID{userID}, ids...), nil
}

func (r *PostgresConnectionRepository) ApplySide(ctx context.Context, u SideUpdate) error {
	remove := make([]string, 0, len(u.Remove))
	for _, k := range u.Remove {
		remove = append(remove, string(k))
	}

	if u.Add == "" {
		_, err := r.db.Exec(ctx,
			`DELETE FROM connection_edges WHERE user_id = $1 AND other_id = $2 AND kind = ANY($3::text[])`,
			u.UserID, u.OtherID, remove,
		)
		return err
	}

	_, err := r.db.Exec(ctx,
		`WITH removed AS (
			DELETE FROM connection_edges
			WHERE user_id = $1 AND other_id = $2 AND kind = ANY($3::text[]) AND kind <> $4
		)
		INSERT INTO connection_edges (user_id, other_id, kind)
		VALUES ($1, $2, $4)
		ON CONFLICT DO NOTHING`,
		u.UserID, u.OtherID, remove, string(u.Add),
	)
	return err
}

func scanIDs(rows database.Rows) ([]uuid.UUID, error) {
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
