package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/darehype/ai-invoice-app/internal/gemini"
)

// maxUploadSize caps multipart uploads (high-resolution phone photos and
// multi-page PDF invoices fit comfortably).
const maxUploadSize = int64(50 << 20) // 50MB

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes a JSON response with CORS headers set
func writeJSON(w http.ResponseWriter, status int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// jsonError writes an error body with a machine-readable code alongside
// the human-readable message
func jsonError(w http.ResponseWriter, message, code string, status int) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// errorResponse maps service failures onto HTTP statuses. The
// missing_credential code tells the UI to open the API key dialog.
func errorResponse(w http.ResponseWriter, err error) {
	var fileErr *gemini.FileError
	var httpErr *gemini.HTTPError
	var blockedErr *gemini.BlockedError
	var malformedErr *gemini.MalformedResponseError
	var transportErr *gemini.TransportError

	switch {
	case errors.Is(err, gemini.ErrMissingCredential):
		jsonError(w, err.Error(), "missing_credential", http.StatusPreconditionFailed)
	case errors.Is(err, ErrStaleRecord):
		jsonError(w, err.Error(), "stale_record", http.StatusConflict)
	case errors.Is(err, ErrNoInvoice):
		jsonError(w, err.Error(), "no_invoice", http.StatusConflict)
	case errors.As(err, &fileErr):
		jsonError(w, err.Error(), "bad_file", http.StatusBadRequest)
	case errors.As(err, &httpErr), errors.As(err, &blockedErr), errors.As(err, &malformedErr), errors.As(err, &transportErr):
		jsonError(w, err.Error(), "upstream_error", http.StatusBadGateway)
	default:
		jsonError(w, err.Error(), "internal_error", http.StatusInternalServerError)
	}
}

// pathIndex parses the {index} path segment.
func pathIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid line item index %q", r.PathValue("index"))
	}
	return index, nil
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleSession returns the current session view
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Session())
}

// handleTranscribe accepts an invoice upload and extracts a record from it
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your file."
		}
		jsonError(w, errorMsg, "bad_request", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		jsonError(w, errorMsg, "bad_request", http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		jsonError(w, "File is too large. Maximum size is 50MB. Please compress or resize your file.", "bad_request", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", "bad_request", http.StatusInternalServerError)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		switch ext {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".gif":
			contentType = "image/gif"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	if _, _, err := s.service.Transcribe(r.Context(), header.Filename, data, contentType); err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, s.service.Session())
}

// handleReset discards the current record
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.service.Reset()
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleSuggestCategory requests a category suggestion for one line item
func (s *Server) handleSuggestCategory(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		jsonError(w, err.Error(), "bad_request", http.StatusBadRequest)
		return
	}

	var req struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Version == "" {
		jsonError(w, "Invalid request body", "bad_request", http.StatusBadRequest)
		return
	}

	category, err := s.service.SuggestCategory(r.Context(), req.Version, index)
	if err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"session":  s.service.Session(),
	})
}

// handleSuggestAll requests categories for every line item in one round trip
func (s *Server) handleSuggestAll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Version == "" {
		jsonError(w, "Invalid request body", "bad_request", http.StatusBadRequest)
		return
	}

	if err := s.service.SuggestAllCategories(r.Context(), req.Version); err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.service.Session())
}

// handleSetCategory applies a manual category edit
func (s *Server) handleSetCategory(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		jsonError(w, err.Error(), "bad_request", http.StatusBadRequest)
		return
	}

	var req struct {
		Version  string `json:"version"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Version == "" {
		jsonError(w, "Invalid request body", "bad_request", http.StatusBadRequest)
		return
	}

	if err := s.service.SetCategory(req.Version, index, req.Category); err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.service.Session())
}

// handleDraftEmail generates an email draft for one of the two intents
func (s *Server) handleDraftEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Intent string `json:"intent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", "bad_request", http.StatusBadRequest)
		return
	}

	intent := gemini.EmailIntent(req.Intent)
	if intent != gemini.EmailPaymentApproval && intent != gemini.EmailVendorQuery {
		jsonError(w, "Unknown email intent", "bad_request", http.StatusBadRequest)
		return
	}

	draft, err := s.service.DraftEmail(r.Context(), intent)
	if err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

// handleExportCSV streams the current record as a CSV download
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	session := s.service.Session()
	if session.Invoice == nil {
		jsonError(w, ErrNoInvoice.Error(), "no_invoice", http.StatusConflict)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", csvFileName(session.Invoice)))
	if err := WriteCSV(w, session.Invoice); err != nil {
		slog.Error("Error writing CSV export", "error", err)
	}
}

// csvFileName derives a safe download name from the invoice number.
func csvFileName(rec *Record) string {
	reg := regexp.MustCompile(`[^a-zA-Z0-9\-_]`)
	base := reg.ReplaceAllString(rec.InvoiceNumber, "")
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		return "invoice.csv"
	}
	return "invoice-" + base + ".csv"
}

// handleGetSettings reports settings state without echoing the key itself
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	key, err := s.settings.APIKey()
	if err != nil {
		slog.Error("Error reading settings", "error", err)
		jsonError(w, "Error reading settings", "internal_error", http.StatusInternalServerError)
		return
	}
	theme, err := s.settings.Theme()
	if err != nil {
		slog.Error("Error reading settings", "error", err)
		jsonError(w, "Error reading settings", "internal_error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"hasApiKey": key != "",
		"theme":     theme,
	})
}

// handleUpdateSettings stores the API key and/or theme; absent fields are
// left unchanged
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey *string `json:"apiKey"`
		Theme  *string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", "bad_request", http.StatusBadRequest)
		return
	}

	if req.APIKey != nil {
		if err := s.settings.SetAPIKey(strings.TrimSpace(*req.APIKey)); err != nil {
			slog.Error("Error saving API key", "error", err)
			jsonError(w, "Error saving settings", "internal_error", http.StatusInternalServerError)
			return
		}
	}
	if req.Theme != nil {
		if err := s.settings.SetTheme(*req.Theme); err != nil {
			slog.Error("Error saving theme", "error", err)
			jsonError(w, "Error saving settings", "internal_error", http.StatusInternalServerError)
			return
		}
	}

	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}
