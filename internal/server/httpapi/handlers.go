package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dbelovs/syncbox/internal/common"
	"github.com/dbelovs/syncbox/internal/server/models"
	"github.com/dbelovs/syncbox/internal/server/services"
)

const ownerHeader = "X-Owner-ID"

type errorResponse struct {
	Message string `json:"message"`
}

type evaluateResponse struct {
	Message       string             `json:"message"`
	SessionID     string             `json:"sessionId,omitempty"`
	FilesToUpload []services.FileRef `json:"filesToUpload,omitempty"`
}

type deleteResponse struct {
	Message string `json:"message"`
	FileID  string `json:"fileId"`
}

// POST /api/sync, body is a JSON array of client file reports.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}

	var reports []services.ClientFileReport
	if err := json.NewDecoder(r.Body).Decode(&reports); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: malformed report list", common.ErrValidation))
		return
	}

	result, err := s.sync.Evaluate(r.Context(), owner, reports)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := evaluateResponse{
		SessionID:     result.SessionID,
		FilesToUpload: result.FilesToUpload,
	}
	if result.SessionID == "" {
		resp.Message = "nothing to upload"
	} else {
		resp.Message = "upload required"
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// POST /api/sync/{sessionID}, body is the archive byte stream.
func (s *Server) handleFulfill(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	sessionID := mux.Vars(r)["sessionID"]

	result, err := s.sync.Fulfill(r.Context(), owner, sessionID, s.archiveBody(w, r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// POST /api/files/archive, ingest every file inside the bundle.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}

	ingested, err := s.files.IngestArchive(r.Context(), owner, s.archiveBody(w, r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, ingested)
}

// POST /api/files?name=..., single file upload, raw body.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		s.writeError(w, r, fmt.Errorf("%w: missing 'name' query parameter", common.ErrValidation))
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.maxArchiveBytes)
	record, err := s.files.Upload(r.Context(), owner, name, r.Header.Get("Content-Type"), body, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, record)
}

// GET /api/files
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}

	records, err := s.files.List(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []*models.FileRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

// GET /api/files/{fileID}
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}

	record, err := s.files.Get(r.Context(), owner, mux.Vars(r)["fileID"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

// GET /api/files/{fileID}/content
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}

	record, rc, err := s.files.Download(r.Context(), owner, mux.Vars(r)["fileID"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", record.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(record.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.FileName))
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Error(r.Context(), "stream file content", "file_id", record.ID, "error", err.Error())
	}
}

// PUT /api/files/{fileID}, replace an archive-formatted file by diff.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}

	result, err := s.files.UpdateByDiff(r.Context(), owner, mux.Vars(r)["fileID"], s.archiveBody(w, r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// DELETE /api/files/{fileID}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	fileID := mux.Vars(r)["fileID"]

	if err := s.files.Delete(r.Context(), owner, fileID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, deleteResponse{Message: "file deleted", FileID: fileID})
}

// owner extracts the authenticated principal; a missing header is a
// client error.
func (s *Server) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := r.Header.Get(ownerHeader)
	if owner == "" {
		s.writeError(w, r, fmt.Errorf("%w: missing %s header", common.ErrValidation, ownerHeader))
		return "", false
	}
	return owner, true
}

// archiveBody caps the archive payload at the configured limit.
func (s *Server) archiveBody(w http.ResponseWriter, r *http.Request) io.Reader {
	return http.MaxBytesReader(w, r.Body, s.maxArchiveBytes)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(context.Background(), "encode response", "error", err.Error())
	}
}

// writeError maps sentinel errors onto status codes. Internal failures
// are logged with detail but reported generically so storage paths and
// stack detail never leak.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytes *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytes):
		s.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Message: "payload too large"})
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrArchiveFormat):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.Is(err, common.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Message: "not found"})
	case errors.Is(err, common.ErrConflict):
		s.writeJSON(w, http.StatusConflict, errorResponse{Message: "conflicting concurrent update"})
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
	}
}
