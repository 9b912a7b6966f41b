package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/aceperf/internal/models"
	"github.com/meltforce/aceperf/internal/progress"
)

func (s *Server) handleProgressSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := progress.Summary(r.Context(), s.store)
	if err != nil {
		s.storeError(w, "progress summary", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleProgressSeries(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseMeasurementKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	start, end, err := parseDateRange(r, progress.AllTimeStart, progress.AllTimeEnd)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	points, err := progress.Series(r.Context(), s.store, kind, start, end, r.URL.Query().Get("exercise"))
	if err != nil {
		s.storeError(w, "progress series", err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleLogMeasurement(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseMeasurementKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	var req struct {
		Date     string  `json:"date"` // YYYY-MM-DD, defaults to today
		Exercise string  `json:"exercise"`
		Value    float64 `json:"value"`
		Reps     int     `json:"reps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	date, err := parseDay(req.Date, time.Now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Value <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "value must be positive"})
		return
	}

	m := models.Measurement{Kind: kind, Date: date, Value: req.Value}
	if kind == models.KindLift {
		m.Exercise = strings.TrimSpace(req.Exercise)
		m.Reps = req.Reps
		if m.Exercise == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise is required for lifts"})
			return
		}
	}

	if err := s.store.InsertMeasurement(r.Context(), m); err != nil {
		s.storeError(w, "log measurement", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
