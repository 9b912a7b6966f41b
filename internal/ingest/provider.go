package ingest

import "github.com/meltforce/aceperf/internal/models"

// SkippedRow describes a sheet row that contributed nothing to the result.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result holds the outcome of an ingest operation.
type Result struct {
	RoutinesReceived int `json:"routines_received"`
	RoutinesInserted int `json:"routines_inserted"`
	RoutinesReplaced int `json:"routines_replaced"`
	RowsSkipped      int `json:"rows_skipped"`

	DryRun   bool             `json:"dry_run,omitempty"`
	Routines []models.Routine `json:"routines"`
	Skipped  []SkippedRow     `json:"skipped,omitempty"`

	Message string `json:"message,omitempty"`
}

// NoRoutinesMessage is reported when a sheet parsed cleanly but held no routines.
const NoRoutinesMessage = "no routines found"
