package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/securedoc/internal/common"
	"github.com/dmitrijs2005/securedoc/internal/server/models"
	"github.com/dmitrijs2005/securedoc/internal/server/repositories/audit"
)

// multipart parsing buffers up to this much in memory before spilling to disk.
const multipartMemoryLimit = 32 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type uploadResponse struct {
	FileID   string `json:"fileId"`
	FileHash string `json:"fileHash"`
	FileName string `json:"fileName"`
	FileSize int    `json:"fileSize"`
	UserID   string `json:"userId"`
}

type redactRequest struct {
	FileID         string                 `json:"fileId"`
	RedactionAreas []models.RedactionArea `json:"redactionAreas"`
	Reason         string                 `json:"reason"`
}

type redactResponse struct {
	RedactedFileID string `json:"redactedFileId"`
	Message        string `json:"message"`
	RedactionCount int    `json:"redactionCount"`
	DownloadURL    string `json:"downloadUrl"`
	OriginalFileID string `json:"originalFileId"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to HTTP statuses. Client errors keep their
// message; everything else is reported as a generic internal error so that
// storage or database details never leak.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrAccessDenied):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "Access denied"})
	case errors.Is(err, common.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "File not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartMemoryLimit)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeError(w, common.ErrInvalidInput)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No file uploaded"})
		return
	}
	defer file.Close()

	b, err := io.ReadAll(file)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.service.Upload(r.Context(), ownerID, b,
		header.Filename, header.Header.Get("Content-Type"), clientIP(r), r.UserAgent())
	if err != nil {
		s.logger.Error(r.Context(), "upload failed", "error", err.Error())
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		FileID:   res.FileID,
		FileHash: res.Hash,
		FileName: res.FileName,
		FileSize: res.Size,
		UserID:   ownerID,
	})
}

func (s *HTTPServer) handleRedact(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	var req redactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	res, err := s.service.Redact(r.Context(), ownerID, req.FileID, req.RedactionAreas,
		req.Reason, clientIP(r), r.UserAgent())
	if err != nil {
		s.logger.Error(r.Context(), "redaction failed", "file_id", req.FileID, "error", err.Error())
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, redactResponse{
		RedactedFileID: res.FileID,
		Message:        "Redaction completed successfully",
		RedactionCount: res.AreaCount,
		DownloadURL:    res.DownloadURL,
		OriginalFileID: res.FileID,
	})
}

func (s *HTTPServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())
	fileID := r.PathValue("fileID")

	res, err := s.service.Download(r.Context(), ownerID, fileID)
	if err != nil {
		s.logger.Error(r.Context(), "download failed", "file_id", fileID, "error", err.Error())
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.FileName+`"`)
	_, _ = w.Write(res.Bytes)
}

// handleAudit serves both the collection route (optional ?fileId= and
// ?action= narrowing) and the per-file route.
func (s *HTTPServer) handleAudit(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	f := audit.Filter{
		FileID: r.PathValue("fileID"),
		Action: models.ActionKind(r.URL.Query().Get("action")),
	}
	if f.FileID == "" {
		f.FileID = r.URL.Query().Get("fileId")
	}

	entries, err := s.service.Audit(r.Context(), ownerID, f)
	if err != nil {
		s.logger.Error(r.Context(), "audit query failed", "error", err.Error())
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.AuditEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service":   "SecureDoc Redaction Service",
		"version":   "1.0.0",
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "SecureDoc Redaction API",
		"version": "1.0.0",
		"status":  "running",
	})
}
