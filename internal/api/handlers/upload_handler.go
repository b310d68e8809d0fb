package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/starlight-api/starlight-be/internal/api/middleware"
	"github.com/starlight-api/starlight-be/internal/api/respond"
	"github.com/starlight-api/starlight-be/internal/storage"
	"github.com/starlight-api/starlight-be/internal/tasks"
)

// UploadHandler handles file upload and deletion against the
// configured storage backend.
type UploadHandler struct {
	backend    storage.Backend
	validator  *storage.Validator
	dispatcher tasks.Dispatcher
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(backend storage.Backend, validator *storage.Validator, dispatcher tasks.Dispatcher) *UploadHandler {
	return &UploadHandler{backend: backend, validator: validator, dispatcher: dispatcher}
}

// Upload accepts a multipart "file" field, validates it, stores it
// under a unique name and queues background processing.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.validator.MaxSize+1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Fail(w, r, http.StatusBadRequest, "validation_error", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	if err := h.validator.Validate(header.Filename, header.Size); err != nil {
		respond.Fail(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	filename := storage.UniqueFilename(header.Filename)
	url, err := h.backend.Save(r.Context(), filename, content, header.Header.Get("Content-Type"))
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("Failed to store upload")
		respond.Error(w, r, err)
		return
	}

	user := middleware.UserFrom(r.Context())
	h.dispatcher.DispatchFileProcess(r.Context(), tasks.FileProcessPayload{
		Filename: filename,
		UserID:   user.ID,
	})

	respond.JSON(w, http.StatusCreated, map[string]any{
		"filename": filename,
		"url":      url,
		"size":     header.Size,
	})
}

// Delete removes a stored file.
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	existed, err := h.backend.Delete(r.Context(), filename)
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("Failed to delete file")
		respond.Error(w, r, err)
		return
	}
	if !existed {
		respond.Fail(w, r, http.StatusNotFound, "not_found", "file not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
