package mcp

import (
	"context"
	"time"

	"github.com/meltforce/aceperf/internal/models"
	"github.com/meltforce/aceperf/internal/planner"
	"github.com/meltforce/aceperf/internal/progress"
	"github.com/meltforce/aceperf/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both Local (in-process
// store) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	Today(ctx context.Context, day time.Time) (*planner.TodayView, error)
	Month(ctx context.Context, day time.Time) (*planner.MonthView, error)
	ListRoutines(ctx context.Context, category models.Category) ([]models.Routine, error)
	GetRoutine(ctx context.Context, name string) (*models.Routine, error)
	QueryWorkoutLog(ctx context.Context, start, end time.Time) ([]models.WorkoutLogEntry, error)
	ProgressSummary(ctx context.Context) (*progress.SummaryView, error)
	ProgressSeries(ctx context.Context, kind models.MeasurementKind, start, end time.Time, exercise string) ([]progress.Point, error)
}

// Local answers MCP queries straight from a store.
type Local struct {
	storage.Store
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = Local{}

func (l Local) Today(ctx context.Context, day time.Time) (*planner.TodayView, error) {
	return planner.Today(ctx, l.Store, day)
}

func (l Local) Month(ctx context.Context, day time.Time) (*planner.MonthView, error) {
	return planner.Month(ctx, l.Store, day)
}

func (l Local) ProgressSummary(ctx context.Context) (*progress.SummaryView, error) {
	return progress.Summary(ctx, l.Store)
}

func (l Local) ProgressSeries(ctx context.Context, kind models.MeasurementKind, start, end time.Time, exercise string) ([]progress.Point, error) {
	return progress.Series(ctx, l.Store, kind, start, end, exercise)
}
