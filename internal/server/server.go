package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/aceperf/internal/ingest/powerbuilding"
	"github.com/meltforce/aceperf/internal/metrics"
	"github.com/meltforce/aceperf/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    storage.Store
	importer *powerbuilding.Provider
	metrics  *metrics.Manager
	log      *slog.Logger
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(store storage.Store, importer *powerbuilding.Provider, m *metrics.Manager, log *slog.Logger) *Server {
	s := &Server{
		store:    store,
		importer: importer,
		metrics:  m,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handle mounts an extra handler such as /metrics or /mcp.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.router.Handle(pattern, h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(RequestMetrics(s.metrics))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/today", s.handleToday)

		r.Get("/schedule", s.handleGetSchedule)
		r.Put("/schedule", s.handleSaveSchedule)

		r.Get("/routines", s.handleListRoutines)
		r.Post("/routines", s.handleCreateRoutine)
		r.Get("/routines/{name}", s.handleGetRoutine)
		r.Put("/routines/{name}", s.handleReplaceRoutine)
		r.Delete("/routines/{name}", s.handleDeleteRoutine)

		r.Post("/import/routines", s.handleImportRoutines)

		r.Get("/log", s.handleQueryLog)
		r.Post("/log", s.handleAppendLog)
		r.Get("/log/prefill", s.handlePrefill)

		r.Get("/progress/summary", s.handleProgressSummary)
		r.Get("/progress/{kind}", s.handleProgressSeries)
		r.Post("/progress/{kind}", s.handleLogMeasurement)
	})
}
