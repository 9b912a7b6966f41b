package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Performance holds set/rep/load values as entered, prescribed or actual.
type Performance struct {
	Sets string `json:"sets,omitempty"`
	Reps string `json:"reps,omitempty"`
	Load string `json:"load,omitempty"`
}

// WorkoutLogEntry records prescribed vs actual performance for one exercise on one day.
type WorkoutLogEntry struct {
	ID          uuid.UUID   `json:"id"`
	Date        time.Time   `json:"date"`
	RoutineName string      `json:"routine_name"`
	Exercise    string      `json:"exercise"`
	Prescribed  Performance `json:"prescribed"`
	Actual      Performance `json:"actual"`
	Notes       string      `json:"notes,omitempty"`
}

// MeasurementKind selects one of the tracked progress series.
type MeasurementKind string

const (
	KindLift       MeasurementKind = "lift"
	KindVelocity   MeasurementKind = "velocity"
	KindBodyweight MeasurementKind = "bodyweight"
)

// ParseMeasurementKind validates a kind taken from a URL or tool argument.
func ParseMeasurementKind(s string) (MeasurementKind, error) {
	switch k := MeasurementKind(s); k {
	case KindLift, KindVelocity, KindBodyweight:
		return k, nil
	}
	return "", fmt.Errorf("unknown measurement kind %q", s)
}

// Measurement is a single progress data point. Value is pounds for lifts and
// bodyweight, mph for velocity. Exercise and Reps only apply to lifts.
type Measurement struct {
	Kind     MeasurementKind `json:"kind"`
	Date     time.Time       `json:"date"`
	Exercise string          `json:"exercise,omitempty"`
	Value    float64         `json:"value"`
	Reps     int             `json:"reps,omitempty"`
}
