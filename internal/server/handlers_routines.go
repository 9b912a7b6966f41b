package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/aceperf/internal/models"
	"github.com/meltforce/aceperf/internal/storage"
)

func (s *Server) handleListRoutines(w http.ResponseWriter, r *http.Request) {
	var category models.Category
	if t := r.URL.Query().Get("type"); t != "" {
		c, err := models.ParseCategory(t)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		category = c
	}

	routines, err := s.store.ListRoutines(r.Context(), category)
	if err != nil {
		s.storeError(w, "list routines", err)
		return
	}
	if routines == nil {
		routines = []models.Routine{}
	}
	writeJSON(w, http.StatusOK, routines)
}

func (s *Server) handleGetRoutine(w http.ResponseWriter, r *http.Request) {
	routine, err := s.store.GetRoutine(r.Context(), routineName(r))
	if err != nil {
		s.storeError(w, "get routine", err)
		return
	}
	writeJSON(w, http.StatusOK, routine)
}

func (s *Server) handleCreateRoutine(w http.ResponseWriter, r *http.Request) {
	routine, ok := decodeRoutine(w, r)
	if !ok || !validRoutine(w, routine) {
		return
	}

	_, err := s.store.GetRoutine(r.Context(), routine.Name)
	if err == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "routine already exists: " + routine.Name})
		return
	}
	if !errors.Is(err, storage.ErrNotFound) {
		s.storeError(w, "create routine", err)
		return
	}

	if _, _, err := s.store.UpsertRoutines(r.Context(), []models.Routine{routine}); err != nil {
		s.storeError(w, "create routine", err)
		return
	}
	writeJSON(w, http.StatusCreated, routine)
}

func (s *Server) handleReplaceRoutine(w http.ResponseWriter, r *http.Request) {
	name := routineName(r)
	routine, ok := decodeRoutine(w, r)
	if !ok {
		return
	}
	if routine.Name == "" {
		routine.Name = name
	}
	if routine.Name != name {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "routine name in body does not match path"})
		return
	}
	if !validRoutine(w, routine) {
		return
	}

	if _, err := s.store.GetRoutine(r.Context(), name); err != nil {
		s.storeError(w, "replace routine", err)
		return
	}
	if _, _, err := s.store.UpsertRoutines(r.Context(), []models.Routine{routine}); err != nil {
		s.storeError(w, "replace routine", err)
		return
	}
	writeJSON(w, http.StatusOK, routine)
}

func (s *Server) handleDeleteRoutine(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRoutine(r.Context(), routineName(r)); err != nil {
		s.storeError(w, "delete routine", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeRoutine reads a routine body, normalizing the category spelling.
func decodeRoutine(w http.ResponseWriter, r *http.Request) (models.Routine, bool) {
	var routine models.Routine
	if err := json.NewDecoder(r.Body).Decode(&routine); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return routine, false
	}
	if c, err := models.ParseCategory(string(routine.Category)); err == nil {
		routine.Category = c
	}
	return routine, true
}

func validRoutine(w http.ResponseWriter, routine models.Routine) bool {
	if err := routine.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

// routineName returns the decoded {name} segment. chi matches on RawPath when
// the URL has one, so only then is the parameter still escaped.
func routineName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}
