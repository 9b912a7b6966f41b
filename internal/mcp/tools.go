package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/aceperf/internal/models"
	"github.com/meltforce/aceperf/internal/planner"
	"github.com/meltforce/aceperf/internal/progress"
	"github.com/meltforce/aceperf/internal/storage"
)

// defaultTimeRange returns start/end defaulting to the given lookback ending today.
func defaultTimeRange(startStr, endStr string, lookbackDays int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -lookbackDays)
	}

	return models.Day(start), models.Day(end), nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(models.DateLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetToday = mcp.NewTool("get_today",
	mcp.WithDescription("Get the planned throwing and lifting routines for a day, with full exercise prescriptions. Rest slots are null."),
	mcp.WithString("date", mcp.Description("Day (YYYY-MM-DD). Defaults to today.")),
)

var toolListRoutines = mcp.NewTool("list_routines",
	mcp.WithDescription("List routines in the library, optionally filtered by category."),
	mcp.WithString("type", mcp.Description("Routine category"), mcp.Enum("Lifting", "Throwing", "WarmUp")),
)

var toolGetRoutine = mcp.NewTool("get_routine",
	mcp.WithDescription("Get one routine by exact name, e.g. 'Week 1 - Full Body 1'."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Routine name")),
)

var toolGetSchedule = mcp.NewTool("get_schedule",
	mcp.WithDescription("Get every day of a month with its throwing and lifting routine names. Unplanned days are 'Rest Day'."),
	mcp.WithString("month", mcp.Description("Month (YYYY-MM). Defaults to the current month.")),
)

var toolGetWorkoutLog = mcp.NewTool("get_workout_log",
	mcp.WithDescription("Get logged exercises with prescribed vs actual sets, reps and load."),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD). Defaults to today.")),
)

var toolGetProgressSeries = mcp.NewTool("get_progress_series",
	mcp.WithDescription("Get a progress chart series: lift weights, throwing velocity (mph) or bodyweight (lbs), oldest first."),
	mcp.WithString("kind", mcp.Required(), mcp.Description("Series kind"), mcp.Enum("lift", "velocity", "bodyweight")),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 90 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to today.")),
	mcp.WithString("exercise", mcp.Description("Lift exercise name (case-insensitive). Only used for kind=lift.")),
)

// --- Tool handlers ---

func (h *handlers) getToday(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day := time.Now()
	if s := req.GetString("date", ""); s != "" {
		parsed, err := parseFlexTime(s)
		if err != nil {
			return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
		}
		day = parsed
	}

	view, err := h.ds.Today(ctx, day)
	if err != nil {
		h.log.Error("mcp get_today", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(view)
}

func (h *handlers) listRoutines(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var category models.Category
	if s := req.GetString("type", ""); s != "" {
		c, err := models.ParseCategory(s)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		category = c
	}

	routines, err := h.ds.ListRoutines(ctx, category)
	if err != nil {
		h.log.Error("mcp list_routines", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if routines == nil {
		routines = []models.Routine{}
	}
	return jsonResult(routines)
}

func (h *handlers) getRoutine(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	routine, err := h.ds.GetRoutine(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("routine not found: " + name), nil
	}
	if err != nil {
		h.log.Error("mcp get_routine", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(routine)
}

func (h *handlers) getSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	month := time.Now()
	if s := req.GetString("month", ""); s != "" {
		parsed, err := time.Parse(planner.MonthLayout, s)
		if err != nil {
			return mcp.NewToolResultError("invalid month format (YYYY-MM): " + s), nil
		}
		month = parsed
	}

	view, err := h.ds.Month(ctx, month)
	if err != nil {
		h.log.Error("mcp get_schedule", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(view)
}

func (h *handlers) getWorkoutLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 7)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	entries, err := h.ds.QueryWorkoutLog(ctx, start, end)
	if err != nil {
		h.log.Error("mcp get_workout_log", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if entries == nil {
		entries = []models.WorkoutLogEntry{}
	}
	return jsonResult(entries)
}

func (h *handlers) getProgressSeries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kindStr, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind parameter is required"), nil
	}
	kind, err := models.ParseMeasurementKind(kindStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 90)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	points, err := h.ds.ProgressSeries(ctx, kind, start, end, req.GetString("exercise", ""))
	if err != nil {
		h.log.Error("mcp get_progress_series", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if points == nil {
		points = []progress.Point{}
	}
	return jsonResult(points)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
