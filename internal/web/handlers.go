package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/datakyt/inventory/internal/core"
	"github.com/datakyt/inventory/internal/logging"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is allowed on top of the file size limit for the form
// boundaries and headers.
const multipartOverhead = 1 << 20

var errMissingFile = errors.New(`multipart field "file" is required`)

// ImportResponse is the JSON body of a successful import.
type ImportResponse struct {
	ImportID   string `json:"import_id"`
	Table      string `json:"table"`
	File       string `json:"file"`
	HasHeader  bool   `json:"has_header"`
	Inserted   int    `json:"inserted"`
	Rows       []any  `json:"rows"`
	DurationMs int64  `json:"duration_ms"`
}

// handleImport loads the uploaded CSV into the table named in the path.
// The import is all or nothing: an error response means no row was written.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	tableKey := chi.URLParam(r, "tableKey")
	if _, ok := core.Get(tableKey); !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnknownTable, tableKey))
		return
	}

	file, header, err := s.uploadedFile(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	logger := logging.WithFields(r.Context(), "table", tableKey, "file", header.Filename)
	logger.Debug("import requested", "size", header.Size)

	result, err := s.service.ImportReader(r.Context(), tableKey, header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logger.Info("import served", "import_id", result.ImportID, "rows", result.Inserted())

	s.writeJSON(w, http.StatusOK, ImportResponse{
		ImportID:   result.ImportID,
		Table:      result.TableKey,
		File:       result.FileName,
		HasHeader:  result.HasHeader,
		Inserted:   result.Inserted(),
		Rows:       result.Rows,
		DurationMs: result.Duration.Milliseconds(),
	})
}

// handlePreview reports what importing the uploaded CSV would do.
// Nothing is written.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	tableKey := chi.URLParam(r, "tableKey")
	if _, ok := core.Get(tableKey); !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnknownTable, tableKey))
		return
	}

	file, _, err := s.uploadedFile(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	preview, err := s.service.Preview(r.Context(), tableKey, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, preview)
}

// uploadedFile returns the multipart "file" field, bounded by the import
// size limit.
func (s *Server) uploadedFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if maxSize := s.cfg.Import.MaxFileSize; maxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, fmt.Errorf("%w: %w", core.ErrFileTooLarge, err)
		}
		return nil, nil, fmt.Errorf("%w: %w", errMissingFile, err)
	}
	return file, header, nil
}

// handleListTables returns the tables that accept imports.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.ListTables())
}

// handleHealth reports whether the database answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Warn("health check failed", "error", err)
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
