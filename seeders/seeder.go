// Package seeders fills an empty database with demo studios, instructors,
// students and weekly class slots. Every seeder is an upsert keyed on a
// natural unique column, so running it twice changes nothing.
package seeders

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type seeder struct {
	name string
	run  func(ctx context.Context, tx pgx.Tx) (int64, error)
}

var catalogSeeders = []seeder{
	{name: "studios", run: seedStudios},
	{name: "instructors", run: seedInstructors},
	{name: "students", run: seedStudents},
	{name: "class_schedules", run: seedClassSchedules},
}

// SeedCatalog runs every seeder inside one transaction.
func SeedCatalog(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) error {
	logger.Info("seeding the studio catalog")

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, s := range catalogSeeders {
		affected, err := s.run(ctx, tx)
		if err != nil {
			return fmt.Errorf("seed %s: %w", s.name, err)
		}
		logger.Info("seeded", zap.String("table", s.name), zap.Int64("rows", affected))
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	logger.Info("studio catalog seeded")
	return nil
}

func execEach[T any](ctx context.Context, tx pgx.Tx, query string, rows []T, args func(T) []interface{}) (int64, error) {
	var affected int64
	for _, row := range rows {
		tag, err := tx.Exec(ctx, query, args(row)...)
		if err != nil {
			return affected, err
		}
		affected += tag.RowsAffected()
	}
	return affected, nil
}
