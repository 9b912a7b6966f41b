package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/aceperf/internal/models"
)

// ListRoutines returns routines in insertion order, optionally filtered by category.
func (db *DB) ListRoutines(ctx context.Context, category models.Category) ([]models.Routine, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT name, category, exercises::text FROM routines
		 WHERE ($1 = '' OR category = $1)
		 ORDER BY position`, string(category))
	if err != nil {
		return nil, fmt.Errorf("querying routines: %w", err)
	}
	defer rows.Close()

	var out []models.Routine
	for rows.Next() {
		r, err := scanRoutine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRoutine returns the routine with exactly this name.
func (db *DB) GetRoutine(ctx context.Context, name string) (*models.Routine, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT name, category, exercises::text FROM routines WHERE name = $1`, name)
	r, err := scanRoutine(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("routine %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanRoutine(row pgx.Row) (models.Routine, error) {
	var (
		r   models.Routine
		cat string
		ex  string
	)
	if err := row.Scan(&r.Name, &cat, &ex); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scanning routine: %w", err)
	}
	r.Category = models.Category(cat)
	exercises, err := DecodeExercises(ex)
	if err != nil {
		return r, fmt.Errorf("routine %q: %w", r.Name, err)
	}
	r.Exercises = exercises
	return r, nil
}

// UpsertRoutines saves routines by name inside one transaction. Replaced
// routines keep their library position.
func (db *DB) UpsertRoutines(ctx context.Context, routines []models.Routine) (int, int, error) {
	if err := validateRoutines(routines); err != nil {
		return 0, 0, err
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var inserted, replaced int
	for _, r := range routines {
		ex, err := EncodeExercises(r.Exercises)
		if err != nil {
			return 0, 0, err
		}
		var wasInsert bool
		err = tx.QueryRow(ctx,
			`INSERT INTO routines (name, category, exercises)
			 VALUES ($1, $2, $3::jsonb)
			 ON CONFLICT (name) DO UPDATE
			 SET category = EXCLUDED.category, exercises = EXCLUDED.exercises, updated_at = now()
			 RETURNING (xmax = 0)`,
			r.Name, string(r.Category), ex).Scan(&wasInsert)
		if err != nil {
			return 0, 0, fmt.Errorf("upserting routine %q: %w", r.Name, err)
		}
		if wasInsert {
			inserted++
		} else {
			replaced++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("committing routines: %w", err)
	}
	return inserted, replaced, nil
}

// DeleteRoutine removes the routine with exactly this name.
func (db *DB) DeleteRoutine(ctx context.Context, name string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM routines WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting routine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("routine %q: %w", name, ErrNotFound)
	}
	return nil
}
