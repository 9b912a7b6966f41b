package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/meltforce/aceperf/internal/models"
	"github.com/meltforce/aceperf/internal/planner"
	"github.com/meltforce/aceperf/internal/storage"
)

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r.URL.Query().Get("date"), time.Now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	view, err := planner.Today(r.Context(), s.store, day)
	if err != nil {
		s.storeError(w, "today", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	month := time.Now()
	if m := r.URL.Query().Get("month"); m != "" {
		parsed, err := time.Parse(planner.MonthLayout, m)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month (YYYY-MM): " + m})
			return
		}
		month = parsed
	}

	view, err := planner.Month(r.Context(), s.store, month)
	if err != nil {
		s.storeError(w, "schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type scheduleDayRequest struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Throwing string `json:"throwing"`
	Lifting  string `json:"lifting"`
	Notes    string `json:"notes"`
}

func (s *Server) handleSaveSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Days []scheduleDayRequest `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	verr := &planner.ValidationError{}
	days := make([]models.ScheduleDay, 0, len(req.Days))
	for _, d := range req.Days {
		date, err := models.ParseDay(d.Date)
		if err != nil {
			verr.Fields = append(verr.Fields, planner.FieldError{Date: d.Date, Field: "date", Message: "invalid date (YYYY-MM-DD)"})
			continue
		}
		days = append(days, models.ScheduleDay{Date: date, Throwing: d.Throwing, Lifting: d.Lifting, Notes: d.Notes})
	}
	if len(verr.Fields) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Error(), "fields": verr.Fields})
		return
	}

	err := planner.Save(r.Context(), s.store, days)
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Error(), "fields": verr.Fields})
		return
	}
	if err != nil {
		s.storeError(w, "save schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"saved": len(days)})
}

// storeError maps storage sentinels onto status codes and logs the rest.
func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, storage.ErrInvalidRoutine):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.log.Error(op+" failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseDay parses a YYYY-MM-DD query value, returning def when it is empty.
func parseDay(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return models.Day(def), nil
	}
	d, err := models.ParseDay(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date (YYYY-MM-DD): %s", s)
	}
	return d, nil
}

// parseDateRange reads inclusive start/end days from the query, falling back
// to the given defaults.
func parseDateRange(r *http.Request, defStart, defEnd time.Time) (start, end time.Time, err error) {
	start, err = parseDay(r.URL.Query().Get("start"), defStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = parseDay(r.URL.Query().Get("end"), defEnd)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s is before start %s",
			end.Format(models.DateLayout), start.Format(models.DateLayout))
	}
	return start, end, nil
}
