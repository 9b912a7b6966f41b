package progress

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/aceperf/internal/models"
)

// Bounds used when a query has no explicit range.
var (
	AllTimeStart = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	AllTimeEnd   = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

// Store is the part of storage progress reads.
type Store interface {
	QueryMeasurements(ctx context.Context, kind models.MeasurementKind, start, end time.Time) ([]models.Measurement, error)
}

// SummaryView holds the headline numbers. Nil values mean no data yet.
type SummaryView struct {
	TopVelocity       *float64 `json:"top_velocity"`
	CurrentBodyweight *float64 `json:"current_bodyweight"`
	SetsLogged        int      `json:"sets_logged"`
}

// Point is one chart data point.
type Point struct {
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
	Exercise string    `json:"exercise,omitempty"`
	Reps     int       `json:"reps,omitempty"`
}

// Summary computes the headline numbers over all recorded data.
func Summary(ctx context.Context, store Store) (*SummaryView, error) {
	sum := &SummaryView{}

	velo, err := store.QueryMeasurements(ctx, models.KindVelocity, AllTimeStart, AllTimeEnd)
	if err != nil {
		return nil, fmt.Errorf("loading velocity: %w", err)
	}
	for _, m := range velo {
		if sum.TopVelocity == nil || m.Value > *sum.TopVelocity {
			v := m.Value
			sum.TopVelocity = &v
		}
	}

	bw, err := store.QueryMeasurements(ctx, models.KindBodyweight, AllTimeStart, AllTimeEnd)
	if err != nil {
		return nil, fmt.Errorf("loading bodyweight: %w", err)
	}
	if len(bw) > 0 {
		v := bw[len(bw)-1].Value
		sum.CurrentBodyweight = &v
	}

	lifts, err := store.QueryMeasurements(ctx, models.KindLift, AllTimeStart, AllTimeEnd)
	if err != nil {
		return nil, fmt.Errorf("loading lifts: %w", err)
	}
	sum.SetsLogged = len(lifts)

	return sum, nil
}

// Series returns the points of one kind in [start, end], oldest first. For
// lifts a non-empty exercise keeps only that exercise, matched case-insensitively.
func Series(ctx context.Context, store Store, kind models.MeasurementKind, start, end time.Time, exercise string) ([]Point, error) {
	ms, err := store.QueryMeasurements(ctx, kind, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading %s series: %w", kind, err)
	}
	exercise = strings.TrimSpace(exercise)

	points := make([]Point, 0, len(ms))
	for _, m := range ms {
		if kind == models.KindLift && exercise != "" && !strings.EqualFold(m.Exercise, exercise) {
			continue
		}
		points = append(points, Point{Date: m.Date, Value: m.Value, Exercise: m.Exercise, Reps: m.Reps})
	}
	return points, nil
}

// Prefill turns a routine into log entries for date with the prescription
// copied over and the actuals left for the athlete to fill in.
func Prefill(routine models.Routine, date time.Time) []models.WorkoutLogEntry {
	entries := make([]models.WorkoutLogEntry, 0, len(routine.Exercises))
	for _, ex := range routine.Exercises {
		load := ex.Load
		if load == "" && ex.Percent1RM != "" {
			load = ex.Percent1RM + " 1RM"
		}
		entries = append(entries, models.WorkoutLogEntry{
			Date:        models.Day(date),
			RoutineName: routine.Name,
			Exercise:    ex.ExerciseName,
			Prescribed:  models.Performance{Sets: ex.WorkingSets, Reps: ex.Reps, Load: load},
			Notes:       ex.Notes,
		})
	}
	return entries
}

// PercentFraction reads a percent-of-max cell as a fraction in [0, 1].
// "80%", "80" and "0.8" all give 0.8; a range such as "75-80%" gives its
// lower bound. Text that does not start with a number gives 0.
func PercentFraction(s string) float64 {
	s = strings.TrimSpace(s)
	percent := strings.Contains(s, "%")
	s = strings.ReplaceAll(s, "%", "")
	if i := strings.IndexAny(s, "-–"); i > 0 {
		s = s[:i]
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	if percent || v > 1 {
		v /= 100
	}
	return min(v, 1)
}
