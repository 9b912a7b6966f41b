package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/aceperf/internal/models"
)

// InsertWorkoutLog batch-inserts log entries. Returns count inserted.
func (db *DB) InsertWorkoutLog(ctx context.Context, entries []models.WorkoutLogEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	query := `INSERT INTO workout_log (id, day, routine_name, exercise,
		prescribed_sets, prescribed_reps, prescribed_load,
		actual_sets, actual_reps, actual_load, notes) VALUES `
	args := make([]any, 0, len(entries)*11)
	valueStrings := make([]string, 0, len(entries))

	for i, e := range entries {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		base := i * 11
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11,
		))
		args = append(args, e.ID, models.Day(e.Date), e.RoutineName, e.Exercise,
			e.Prescribed.Sets, e.Prescribed.Reps, e.Prescribed.Load,
			e.Actual.Sets, e.Actual.Reps, e.Actual.Load, e.Notes)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting workout log: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// QueryWorkoutLog returns entries between start and end inclusive.
func (db *DB) QueryWorkoutLog(ctx context.Context, start, end time.Time) ([]models.WorkoutLogEntry, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, day, routine_name, exercise,
		        prescribed_sets, prescribed_reps, prescribed_load,
		        actual_sets, actual_reps, actual_load, notes
		 FROM workout_log
		 WHERE day >= $1 AND day <= $2
		 ORDER BY day, seq`, models.Day(start), models.Day(end))
	if err != nil {
		return nil, fmt.Errorf("querying workout log: %w", err)
	}
	defer rows.Close()

	var out []models.WorkoutLogEntry
	for rows.Next() {
		var e models.WorkoutLogEntry
		if err := rows.Scan(&e.ID, &e.Date, &e.RoutineName, &e.Exercise,
			&e.Prescribed.Sets, &e.Prescribed.Reps, &e.Prescribed.Load,
			&e.Actual.Sets, &e.Actual.Reps, &e.Actual.Load, &e.Notes); err != nil {
			return nil, fmt.Errorf("scanning workout log entry: %w", err)
		}
		e.Date = models.Day(e.Date)
		out = append(out, e)
	}
	return out, rows.Err()
}
