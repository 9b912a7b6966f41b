package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/aceperf/internal/models"
)

// ScheduleRange returns stored days between start and end inclusive.
func (db *DB) ScheduleRange(ctx context.Context, start, end time.Time) ([]models.ScheduleDay, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT day, throwing, lifting, notes FROM schedule
		 WHERE day >= $1 AND day <= $2
		 ORDER BY day`, models.Day(start), models.Day(end))
	if err != nil {
		return nil, fmt.Errorf("querying schedule: %w", err)
	}
	defer rows.Close()

	var out []models.ScheduleDay
	for rows.Next() {
		var d models.ScheduleDay
		if err := rows.Scan(&d.Date, &d.Throwing, &d.Lifting, &d.Notes); err != nil {
			return nil, fmt.Errorf("scanning schedule day: %w", err)
		}
		d.Date = models.Day(d.Date)
		out = append(out, d)
	}
	return out, rows.Err()
}

// SaveSchedule upserts days by date in one transaction.
func (db *DB) SaveSchedule(ctx context.Context, days []models.ScheduleDay) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, d := range days {
		_, err := tx.Exec(ctx,
			`INSERT INTO schedule (day, throwing, lifting, notes)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (day) DO UPDATE
			 SET throwing = EXCLUDED.throwing, lifting = EXCLUDED.lifting, notes = EXCLUDED.notes`,
			models.Day(d.Date), d.Throwing, d.Lifting, d.Notes)
		if err != nil {
			return fmt.Errorf("saving schedule day %s: %w", d.Date.Format(models.DateLayout), err)
		}
	}
	return tx.Commit(ctx)
}
