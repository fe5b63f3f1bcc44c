// Package handlers provides HTTP handlers for file imports.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/aristath/portwatch/internal/modules/imports"
	"github.com/rs/zerolog"
)

// MaxUploadBytes caps the size of an uploaded export
const MaxUploadBytes = 32 << 20

// Handler handles import HTTP requests
type Handler struct {
	service *imports.Service
	log     zerolog.Logger
}

// NewHandler creates a new import handler
func NewHandler(service *imports.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "imports").Logger(),
	}
}

// HandleImportSchwab imports a Schwab positions CSV
// POST /api/imports/schwab
func (h *Handler) HandleImportSchwab(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	result, err := h.service.ImportSchwab(r.Context(), string(data))
	h.writeResult(w, result, err)
}

// HandleImportSeekingAlpha imports a Seeking Alpha ratings workbook
// POST /api/imports/seeking-alpha?watchlist_id=N
func (h *Handler) HandleImportSeekingAlpha(w http.ResponseWriter, r *http.Request) {
	watchlistID, ok := h.watchlistID(w, r)
	if !ok {
		return
	}
	data, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	result, err := h.service.ImportSeekingAlpha(r.Context(), data, watchlistID)
	h.writeResult(w, result, err)
}

// HandleImportMotleyFool imports a Motley Fool scorecard CSV
// POST /api/imports/motley-fool?watchlist_id=N
func (h *Handler) HandleImportMotleyFool(w http.ResponseWriter, r *http.Request) {
	watchlistID, ok := h.watchlistID(w, r)
	if !ok {
		return
	}
	data, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	result, err := h.service.ImportMotleyFool(r.Context(), string(data), watchlistID)
	h.writeResult(w, result, err)
}

// HandleListRuns returns recent import runs
// GET /api/imports/runs?limit=N
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.service.Runs(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list import runs")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, runs)
}

// readUpload returns the "file" part of a multipart form, or the raw body otherwise
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	var (
		data []byte
		err  error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		data, err = readFormFile(r)
	} else {
		data, err = io.ReadAll(r.Body)
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		h.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", MaxUploadBytes))
		return nil, false
	case err != nil:
		h.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	case len(data) == 0:
		h.writeError(w, http.StatusBadRequest, "empty upload")
		return nil, false
	}
	return data, true
}

func readFormFile(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("missing \"file\" form field: %w", err)
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (h *Handler) watchlistID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("watchlist_id"), 10, 64)
	if err != nil || id < 1 {
		h.writeError(w, http.StatusBadRequest, "watchlist_id query parameter is required")
		return 0, false
	}
	return id, true
}

// writeResult returns the importer result verbatim.
// Structural and referential failures are 422; row errors still count as success.
func (h *Handler) writeResult(w http.ResponseWriter, result *imports.Result, err error) {
	if err != nil {
		h.log.Error().Err(err).Msg("Import failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	h.writeJSON(w, status, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
