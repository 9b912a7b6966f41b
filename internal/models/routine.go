package models

import (
	"errors"
	"fmt"
	"strings"
)

// Category tags a routine as lifting, throwing or warm-up work.
type Category string

const (
	CategoryLifting  Category = "Lifting"
	CategoryThrowing Category = "Throwing"
	CategoryWarmUp   Category = "WarmUp"
)

// Categories lists the closed set of routine categories in display order.
var Categories = []Category{CategoryLifting, CategoryThrowing, CategoryWarmUp}

// ParseCategory maps free-form text ("lifting", "Warm-up", "warmup") onto a Category.
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "", " ", "", "_", "").Replace(norm)
	switch norm {
	case "lifting", "lift":
		return CategoryLifting, nil
	case "throwing", "throw":
		return CategoryThrowing, nil
	case "warmup":
		return CategoryWarmUp, nil
	}
	return "", fmt.Errorf("unknown routine category %q", s)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ExercisePrescription is one line item of a routine. All values are kept as
// text because source sheets mix ranges ("3-5"), units ("225lbs") and
// qualifiers ("RPE 7") in the same column.
type ExercisePrescription struct {
	ExerciseName string `json:"exercise_name"`
	WarmupSets   string `json:"warmup_sets,omitempty"`
	WorkingSets  string `json:"working_sets,omitempty"`
	Reps         string `json:"reps,omitempty"`
	Load         string `json:"load,omitempty"`
	Percent1RM   string `json:"percent_1rm,omitempty"`
	RPE          string `json:"rpe,omitempty"`
	Rest         string `json:"rest,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Routine is a named, reusable template of exercises.
type Routine struct {
	Name      string                 `json:"name"`
	Category  Category               `json:"type"`
	Exercises []ExercisePrescription `json:"exercises"`
}

var (
	errEmptyName       = errors.New("routine name is required")
	errNoExercises     = errors.New("routine must have at least one exercise")
	errUnnamedExercise = errors.New("exercise name is required")
)

// Validate checks the invariants a routine must hold before it is persisted.
func (r Routine) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errEmptyName
	}
	if !r.Category.Valid() {
		return fmt.Errorf("routine %q: unknown category %q", r.Name, r.Category)
	}
	if len(r.Exercises) == 0 {
		return fmt.Errorf("routine %q: %w", r.Name, errNoExercises)
	}
	for i, ex := range r.Exercises {
		if strings.TrimSpace(ex.ExerciseName) == "" {
			return fmt.Errorf("routine %q exercise %d: %w", r.Name, i+1, errUnnamedExercise)
		}
	}
	return nil
}
