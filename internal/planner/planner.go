package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meltforce/aceperf/internal/models"
	"github.com/meltforce/aceperf/internal/storage"
)

// MonthLayout is the wire format for a calendar month.
const MonthLayout = "2006-01"

// Store is the part of storage the planner reads and writes.
type Store interface {
	ListRoutines(ctx context.Context, category models.Category) ([]models.Routine, error)
	GetRoutine(ctx context.Context, name string) (*models.Routine, error)
	ScheduleRange(ctx context.Context, start, end time.Time) ([]models.ScheduleDay, error)
	SaveSchedule(ctx context.Context, days []models.ScheduleDay) error
}

// MonthView is one calendar month of the schedule with the routine choices
// available for each slot.
type MonthView struct {
	Month           string               `json:"month"`
	Days            []models.ScheduleDay `json:"days"`
	ThrowingOptions []string             `json:"throwing_options"`
	LiftingOptions  []string             `json:"lifting_options"`
}

// DayRoutine is a routine assigned to a day. Found is false when the name no
// longer exists in the library.
type DayRoutine struct {
	Name      string                        `json:"name"`
	Category  models.Category               `json:"type"`
	Found     bool                          `json:"found"`
	Exercises []models.ExercisePrescription `json:"exercises,omitempty"`
}

// TodayView is the dashboard for a single day. Rest slots are nil.
type TodayView struct {
	Date     time.Time   `json:"date"`
	Throwing *DayRoutine `json:"throwing"`
	Lifting  *DayRoutine `json:"lifting"`
	Notes    string      `json:"notes,omitempty"`
}

// FieldError is one rejected value in a schedule save.
type FieldError struct {
	Date    string `json:"date"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every bad field of a rejected schedule save.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s %s: %s", f.Date, f.Field, f.Message))
	}
	return "invalid schedule: " + strings.Join(parts, "; ")
}

// MonthBounds returns the first and last calendar day of the month containing day.
func MonthBounds(day time.Time) (time.Time, time.Time) {
	d := models.Day(day)
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// Month builds the schedule for the month containing day. Days without a
// stored plan are rest days.
func Month(ctx context.Context, store Store, day time.Time) (*MonthView, error) {
	first, last := MonthBounds(day)

	stored, err := store.ScheduleRange(ctx, first, last)
	if err != nil {
		return nil, fmt.Errorf("loading schedule: %w", err)
	}
	byDate := make(map[time.Time]models.ScheduleDay, len(stored))
	for _, d := range stored {
		byDate[models.Day(d.Date)] = d
	}

	view := &MonthView{Month: first.Format(MonthLayout)}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		sd, ok := byDate[d]
		if !ok {
			sd = models.NewRestDay(d)
		}
		if sd.Throwing == "" {
			sd.Throwing = models.RestDay
		}
		if sd.Lifting == "" {
			sd.Lifting = models.RestDay
		}
		view.Days = append(view.Days, sd)
	}

	if view.ThrowingOptions, err = options(ctx, store, models.CategoryThrowing); err != nil {
		return nil, err
	}
	if view.LiftingOptions, err = options(ctx, store, models.CategoryLifting); err != nil {
		return nil, err
	}
	return view, nil
}

func options(ctx context.Context, store Store, category models.Category) ([]string, error) {
	routines, err := store.ListRoutines(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("listing %s routines: %w", category, err)
	}
	out := []string{models.RestDay}
	for _, r := range routines {
		out = append(out, r.Name)
	}
	return out, nil
}

// Save validates and stores schedule days. Nothing is stored when any day is invalid.
func Save(ctx context.Context, store Store, days []models.ScheduleDay) error {
	verr := &ValidationError{}
	clean := make([]models.ScheduleDay, 0, len(days))

	for _, d := range days {
		if d.Date.IsZero() {
			verr.Fields = append(verr.Fields, FieldError{Field: "date", Message: "date is required"})
			continue
		}
		d.Date = models.Day(d.Date)
		key := d.Date.Format(models.DateLayout)

		var err error
		if d.Throwing, err = checkSlot(ctx, store, d.Throwing, models.CategoryThrowing); err != nil {
			verr.Fields = append(verr.Fields, FieldError{Date: key, Field: "throwing", Message: err.Error()})
		}
		if d.Lifting, err = checkSlot(ctx, store, d.Lifting, models.CategoryLifting); err != nil {
			verr.Fields = append(verr.Fields, FieldError{Date: key, Field: "lifting", Message: err.Error()})
		}
		clean = append(clean, d)
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	if err := store.SaveSchedule(ctx, clean); err != nil {
		return fmt.Errorf("saving schedule: %w", err)
	}
	return nil
}

// checkSlot returns the normalized slot value or why it cannot be saved.
func checkSlot(ctx context.Context, store Store, name string, want models.Category) (string, error) {
	name = strings.TrimSpace(name)
	if models.IsRest(name) {
		return models.RestDay, nil
	}
	r, err := store.GetRoutine(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return name, fmt.Errorf("routine %q does not exist", name)
	}
	if err != nil {
		return name, err
	}
	if r.Category != want {
		return name, fmt.Errorf("routine %q is %s, not %s", name, r.Category, want)
	}
	return name, nil
}

// Today resolves the plan for day into full routines.
func Today(ctx context.Context, store Store, day time.Time) (*TodayView, error) {
	day = models.Day(day)
	view := &TodayView{Date: day}

	stored, err := store.ScheduleRange(ctx, day, day)
	if err != nil {
		return nil, fmt.Errorf("loading schedule: %w", err)
	}
	if len(stored) == 0 {
		return view, nil
	}
	sd := stored[0]
	view.Notes = sd.Notes

	if view.Throwing, err = resolve(ctx, store, sd.Throwing, models.CategoryThrowing); err != nil {
		return nil, err
	}
	if view.Lifting, err = resolve(ctx, store, sd.Lifting, models.CategoryLifting); err != nil {
		return nil, err
	}
	return view, nil
}

func resolve(ctx context.Context, store Store, name string, category models.Category) (*DayRoutine, error) {
	if models.IsRest(name) {
		return nil, nil
	}
	dr := &DayRoutine{Name: name, Category: category}
	r, err := store.GetRoutine(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return dr, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading routine %q: %w", name, err)
	}
	dr.Found = true
	dr.Category = r.Category
	dr.Exercises = r.Exercises
	return dr, nil
}
