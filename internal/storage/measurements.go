package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/aceperf/internal/models"
)

// InsertMeasurement stores one progress data point.
func (db *DB) InsertMeasurement(ctx context.Context, m models.Measurement) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO measurements (kind, day, exercise, value, reps) VALUES ($1, $2, $3, $4, $5)`,
		string(m.Kind), models.Day(m.Date), m.Exercise, m.Value, m.Reps)
	if err != nil {
		return fmt.Errorf("inserting %s measurement: %w", m.Kind, err)
	}
	return nil
}

// QueryMeasurements returns data points of one kind between start and end inclusive.
func (db *DB) QueryMeasurements(ctx context.Context, kind models.MeasurementKind, start, end time.Time) ([]models.Measurement, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT day, exercise, value, reps FROM measurements
		 WHERE kind = $1 AND day >= $2 AND day <= $3
		 ORDER BY day, id`, string(kind), models.Day(start), models.Day(end))
	if err != nil {
		return nil, fmt.Errorf("querying measurements: %w", err)
	}
	defer rows.Close()

	var out []models.Measurement
	for rows.Next() {
		m := models.Measurement{Kind: kind}
		if err := rows.Scan(&m.Date, &m.Exercise, &m.Value, &m.Reps); err != nil {
			return nil, fmt.Errorf("scanning measurement: %w", err)
		}
		m.Date = models.Day(m.Date)
		out = append(out, m)
	}
	return out, rows.Err()
}
