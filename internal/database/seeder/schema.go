package seeder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"founder-connect/internal/database"
)

// RequireColumns fails when a seeded table lacks one of the listed columns.
// Every missing column is reported, not only the first one, so a stale
// schema is fixed in a single migrate run.
func RequireColumns(ctx context.Context, db database.DB, tables map[string][]string) error {
	if db == nil {
		return errors.New("nil db")
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		if strings.TrimSpace(name) == "" {
			return errors.New("empty table")
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var missing []string
	for _, table := range names {
		existing, err := tableColumns(ctx, db, table)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", table, err)
		}
		for _, col := range tables[table] {
			if _, ok := existing[col]; !ok {
				missing = append(missing, table+"."+col)
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema mismatch, run migrate first: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func tableColumns(ctx context.Context, db database.DB, table string) (map[string]struct{}, error) {
	rows, err := db.Query(
		ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1`,
		table,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out[c] = struct{}{}
	}
	return out, rows.Err()
}
