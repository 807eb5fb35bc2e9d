package seeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"founder-connect/internal/database"
	appseeder "founder-connect/internal/seeder"

	"go.uber.org/zap"
)

type Seeder interface {
	Name() string
	Run(ctx context.Context, db database.DB) error
}

// Defaults is the demo data set: profiles first, then posts by them.
func Defaults() []Seeder {
	return []Seeder{
		ProfilesSeeder{},
		appseeder.PostSeeder{},
	}
}

// Runner executes seeders in order and stops at the first failure. Seeders
// are idempotent, so a partially seeded database is fixed by running again.
type Runner struct {
	Seeders []Seeder
	Logger  *zap.Logger
}

func (r Runner) Run(ctx context.Context, db database.DB) error {
	if db == nil {
		return errors.New("nil db")
	}
	for _, s := range r.Seeders {
		if s == nil {
			continue
		}
		started := time.Now()
		if err := s.Run(ctx, db); err != nil {
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		if r.Logger != nil {
			r.Logger.Info("seeded", zap.String("seeder", s.Name()), zap.Duration("took", time.Since(started)))
		}
	}
	return nil
}
