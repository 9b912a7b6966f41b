package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/meltforce/aceperf/internal/models"
	"github.com/meltforce/aceperf/internal/progress"
)

func (s *Server) handleQueryLog(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	start, end, err := parseDateRange(r, now.AddDate(0, 0, -7), now)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	entries, err := s.store.QueryWorkoutLog(r.Context(), start, end)
	if err != nil {
		s.storeError(w, "query workout log", err)
		return
	}
	if entries == nil {
		entries = []models.WorkoutLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type logEntryRequest struct {
	Date        string             `json:"date"` // YYYY-MM-DD
	RoutineName string             `json:"routine_name"`
	Exercise    string             `json:"exercise"`
	Prescribed  models.Performance `json:"prescribed"`
	Actual      models.Performance `json:"actual"`
	Notes       string             `json:"notes"`
}

func (s *Server) handleAppendLog(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Entries []logEntryRequest `json:"entries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if len(req.Entries) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "entries must not be empty"})
		return
	}

	entries := make([]models.WorkoutLogEntry, 0, len(req.Entries))
	for i, e := range req.Entries {
		date, err := models.ParseDay(e.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid date (YYYY-MM-DD)", "entry": i})
			return
		}
		if strings.TrimSpace(e.Exercise) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "exercise is required", "entry": i})
			return
		}
		entries = append(entries, models.WorkoutLogEntry{
			Date:        date,
			RoutineName: e.RoutineName,
			Exercise:    e.Exercise,
			Prescribed:  e.Prescribed,
			Actual:      e.Actual,
			Notes:       e.Notes,
		})
	}

	n, err := s.store.InsertWorkoutLog(r.Context(), entries)
	if err != nil {
		s.storeError(w, "append workout log", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"inserted": n})
}

func (s *Server) handlePrefill(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("routine")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "routine parameter required"})
		return
	}
	day, err := parseDay(r.URL.Query().Get("date"), time.Now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	routine, err := s.store.GetRoutine(r.Context(), name)
	if err != nil {
		s.storeError(w, "prefill", err)
		return
	}
	writeJSON(w, http.StatusOK, progress.Prefill(*routine, day))
}
