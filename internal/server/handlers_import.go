package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/meltforce/aceperf/internal/ingest/powerbuilding"
)

// maxSheetBytes bounds an uploaded program sheet.
const maxSheetBytes = 10 << 20

// handleImportRoutines accepts a CSV sheet as a multipart "file" field or as
// the raw request body.
func (s *Server) handleImportRoutines(w http.ResponseWriter, r *http.Request) {
	dryRun := false
	if v := r.URL.Query().Get("dry_run"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dry_run: " + v})
			return
		}
		dryRun = parsed
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSheetBytes)

	var tooLarge *http.MaxBytesError
	var sheet io.Reader = r.Body
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
		file, _, err := r.FormFile("file")
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "sheet exceeds upload limit"})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart upload needs a \"file\" field: " + err.Error()})
			return
		}
		defer file.Close()
		sheet = file
	}

	result, err := s.importer.Ingest(r.Context(), sheet, dryRun)
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "sheet exceeds upload limit"})
		return
	}
	if errors.Is(err, powerbuilding.ErrUnreadable) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "unreadable", "detail": err.Error()})
		return
	}
	if err != nil {
		s.storeError(w, "import routines", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
