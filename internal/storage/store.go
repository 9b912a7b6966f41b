package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/meltforce/aceperf/internal/models"
)

var (
	// ErrNotFound is returned when a routine does not exist in the library.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRoutine wraps validation failures on routines being saved.
	ErrInvalidRoutine = errors.New("invalid routine")
)

// Store is the persistence contract shared by the CSV tables and PostgreSQL.
type Store interface {
	ListRoutines(ctx context.Context, category models.Category) ([]models.Routine, error)
	GetRoutine(ctx context.Context, name string) (*models.Routine, error)
	UpsertRoutines(ctx context.Context, routines []models.Routine) (inserted, replaced int, err error)
	DeleteRoutine(ctx context.Context, name string) error

	ScheduleRange(ctx context.Context, start, end time.Time) ([]models.ScheduleDay, error)
	SaveSchedule(ctx context.Context, days []models.ScheduleDay) error

	InsertWorkoutLog(ctx context.Context, entries []models.WorkoutLogEntry) (int, error)
	QueryWorkoutLog(ctx context.Context, start, end time.Time) ([]models.WorkoutLogEntry, error)

	InsertMeasurement(ctx context.Context, m models.Measurement) error
	QueryMeasurements(ctx context.Context, kind models.MeasurementKind, start, end time.Time) ([]models.Measurement, error)

	Close() error
}

// Compile-time check: both backends satisfy Store.
var (
	_ Store = (*Tables)(nil)
	_ Store = (*DB)(nil)
)

func validateRoutines(routines []models.Routine) error {
	for _, r := range routines {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRoutine, err)
		}
	}
	return nil
}

// EncodeExercises serializes an ordered exercise list for the Exercises column.
func EncodeExercises(ex []models.ExercisePrescription) (string, error) {
	if ex == nil {
		ex = []models.ExercisePrescription{}
	}
	data, err := json.Marshal(ex)
	if err != nil {
		return "", fmt.Errorf("encoding exercises: %w", err)
	}
	return string(data), nil
}

// DecodeExercises is the inverse of EncodeExercises.
func DecodeExercises(s string) ([]models.ExercisePrescription, error) {
	if s == "" {
		return nil, nil
	}
	var ex []models.ExercisePrescription
	if err := json.Unmarshal([]byte(s), &ex); err != nil {
		return nil, fmt.Errorf("decoding exercises: %w", err)
	}
	return ex, nil
}

// inRange reports whether day falls in [start, end] by calendar date.
func inRange(day, start, end time.Time) bool {
	d := models.Day(day)
	return !d.Before(models.Day(start)) && !d.After(models.Day(end))
}
