package planner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/meltforce/aceperf/internal/models"
	"github.com/meltforce/aceperf/internal/storage"
)

func newTestStore(t *testing.T) *storage.Tables {
	t.Helper()
	tb, err := storage.NewTables(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewTables: %v", err)
	}
	_, _, err = tb.UpsertRoutines(context.Background(), []models.Routine{
		{Name: "Upper A", Category: models.CategoryLifting, Exercises: []models.ExercisePrescription{{ExerciseName: "Bench", Reps: "5"}}},
		{Name: "Long Toss", Category: models.CategoryThrowing, Exercises: []models.ExercisePrescription{{ExerciseName: "Long Toss", Notes: "120ft"}}},
		{Name: "Bands", Category: models.CategoryWarmUp, Exercises: []models.ExercisePrescription{{ExerciseName: "Band Pull Apart"}}},
	})
	if err != nil {
		t.Fatalf("seeding routines: %v", err)
	}
	return tb
}

func day(s string) time.Time {
	d, err := models.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestMonthFillsRestDays(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := Save(ctx, store, []models.ScheduleDay{
		{Date: day("2024-02-10"), Throwing: "Long Toss", Lifting: "Upper A", Notes: "game week"},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	view, err := Month(ctx, store, day("2024-02-15"))
	if err != nil {
		t.Fatalf("Month: %v", err)
	}
	if view.Month != "2024-02" {
		t.Errorf("month = %q, want 2024-02", view.Month)
	}
	if len(view.Days) != 29 {
		t.Fatalf("days = %d, want 29 (leap year)", len(view.Days))
	}
	if d := view.Days[0]; d.Throwing != models.RestDay || d.Lifting != models.RestDay {
		t.Errorf("unplanned day = %+v, want rest", d)
	}
	if d := view.Days[9]; d.Throwing != "Long Toss" || d.Lifting != "Upper A" || d.Notes != "game week" {
		t.Errorf("planned day = %+v", d)
	}

	wantThrowing := []string{models.RestDay, "Long Toss"}
	if len(view.ThrowingOptions) != 2 || view.ThrowingOptions[0] != wantThrowing[0] || view.ThrowingOptions[1] != wantThrowing[1] {
		t.Errorf("throwing options = %v, want %v", view.ThrowingOptions, wantThrowing)
	}
	if len(view.LiftingOptions) != 2 || view.LiftingOptions[1] != "Upper A" {
		t.Errorf("lifting options = %v", view.LiftingOptions)
	}
}

func TestSaveValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := Save(ctx, store, []models.ScheduleDay{
		{Date: day("2024-02-01"), Throwing: "Upper A", Lifting: "Nope"},
		{Date: day("2024-02-02"), Throwing: "Long Toss", Lifting: ""},
		{Throwing: models.RestDay},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if len(verr.Fields) != 3 {
		t.Fatalf("fields = %+v, want 3", verr.Fields)
	}
	if verr.Fields[0].Field != "throwing" || verr.Fields[1].Field != "lifting" || verr.Fields[2].Field != "date" {
		t.Errorf("fields = %+v", verr.Fields)
	}

	days, err := store.ScheduleRange(ctx, day("2024-02-01"), day("2024-02-29"))
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 0 {
		t.Errorf("stored %d days after failed save, want 0", len(days))
	}
}

func TestSaveNormalizesRest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := Save(ctx, store, []models.ScheduleDay{{Date: day("2024-02-02"), Throwing: "Long Toss"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	days, err := store.ScheduleRange(ctx, day("2024-02-02"), day("2024-02-02"))
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 1 || days[0].Lifting != models.RestDay {
		t.Errorf("days = %+v, want lifting Rest Day", days)
	}
}

func TestToday(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rest, err := Today(ctx, store, day("2024-02-05"))
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if rest.Throwing != nil || rest.Lifting != nil {
		t.Errorf("unplanned day = %+v, want both rest", rest)
	}

	if err := Save(ctx, store, []models.ScheduleDay{
		{Date: day("2024-02-06"), Throwing: "Long Toss", Lifting: "Upper A", Notes: "deload"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteRoutine(ctx, "Upper A"); err != nil {
		t.Fatal(err)
	}

	view, err := Today(ctx, store, day("2024-02-06").Add(15*time.Hour))
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if view.Throwing == nil || !view.Throwing.Found || view.Throwing.Exercises[0].Notes != "120ft" {
		t.Errorf("throwing = %+v", view.Throwing)
	}
	if view.Lifting == nil || view.Lifting.Found || view.Lifting.Name != "Upper A" {
		t.Errorf("lifting = %+v, want unresolved Upper A", view.Lifting)
	}
	if view.Notes != "deload" {
		t.Errorf("notes = %q", view.Notes)
	}
}

func TestMonthBounds(t *testing.T) {
	first, last := MonthBounds(day("2023-12-31"))
	if !first.Equal(day("2023-12-01")) || !last.Equal(day("2023-12-31")) {
		t.Errorf("bounds = %s..%s", first, last)
	}
}
