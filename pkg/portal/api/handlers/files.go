package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/otymus27/portal-hrg/internal/logger"
	"github.com/otymus27/portal-hrg/pkg/metrics"
	"github.com/otymus27/portal-hrg/pkg/portal/store"
	"github.com/otymus27/portal-hrg/pkg/portal/tree"
)

// maxUploadMemory bounds how much of a multipart body is buffered in
// memory before spilling to temp files.
const maxUploadMemory = 32 << 20 // 32 MiB

// FileHandler handles the file endpoints.
type FileHandler struct {
	engine *tree.Engine
	store  store.Catalog
}

// NewFileHandler creates a FileHandler.
func NewFileHandler(engine *tree.Engine, s store.Catalog) *FileHandler {
	return &FileHandler{engine: engine, store: s}
}

// MoveFileRequest is the request body for POST /api/v1/files/{id}/move.
type MoveFileRequest struct {
	DestinationID string `json:"destination_id"`
}

// CopyFileRequest is the request body for POST /api/v1/files/{id}/copy.
type CopyFileRequest struct {
	DestinationID string `json:"destination_id"`
}

// DeleteFilesRequest is the request body for
// POST /api/v1/folders/{id}/files/delete-batch. A nil or absent
// file_ids list deletes every file in the folder.
type DeleteFilesRequest struct {
	FileIDs []string `json:"file_ids"`
}

func uploadRequestFromHeader(hdr *multipart.FileHeader, body multipart.File) tree.UploadRequest {
	return tree.UploadRequest{
		Name:        hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        hdr.Size,
		Body:        body,
	}
}

// Upload handles POST /api/v1/folders/{id}/files. The body is a
// multipart form with a single "file" part.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		BadRequest(w, "Invalid multipart body")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.WarnCtx(r.Context(), "Failed to clean up multipart temp files", logger.KeyError, err)
		}
	}()

	body, hdr, err := r.FormFile("file")
	if err != nil {
		BadRequest(w, "Missing file part")
		return
	}
	defer body.Close()

	file, err := h.engine.Upload(r.Context(), principal, chi.URLParam(r, "id"), uploadRequestFromHeader(hdr, body))
	if err != nil {
		writeTreeError(w, err)
		return
	}
	metrics.ObserveUploadBytes(file.Size)
	WriteJSONCreated(w, file)
}

// UploadMultiple handles POST /api/v1/folders/{id}/files/batch. The
// body is a multipart form with one or more "files" parts; empty parts
// are skipped rather than failing the batch.
func (h *FileHandler) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		BadRequest(w, "Invalid multipart body")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.WarnCtx(r.Context(), "Failed to clean up multipart temp files", logger.KeyError, err)
		}
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		BadRequest(w, "No files provided")
		return
	}

	reqs := make([]tree.UploadRequest, 0, len(headers))
	bodies := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, b := range bodies {
			b.Close()
		}
	}()
	for _, hdr := range headers {
		body, err := hdr.Open()
		if err != nil {
			BadRequest(w, "Unreadable file part")
			return
		}
		bodies = append(bodies, body)
		reqs = append(reqs, uploadRequestFromHeader(hdr, body))
	}

	files, err := h.engine.UploadMultiple(r.Context(), principal, chi.URLParam(r, "id"), reqs)
	if err != nil {
		writeTreeError(w, err)
		return
	}
	for _, f := range files {
		metrics.ObserveUploadBytes(f.Size)
	}
	WriteJSONCreated(w, files)
}

// Get handles GET /api/v1/files/{id}.
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	file, err := h.engine.GetFile(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONOK(w, file)
}

// Download handles GET /api/v1/files/{id}/download, streaming the
// file content as an attachment.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	file, rc, err := h.engine.OpenFile(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		writeTreeError(w, err)
		return
	}
	defer rc.Close()

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	if file.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	}
	if _, err := io.Copy(w, rc); err != nil {
		// Headers are already out; all we can do is log the broken stream.
		logger.WarnCtx(r.Context(), "File download interrupted",
			logger.KeyFile, file.ID,
			logger.KeyError, err)
	}
}

// Rename handles PATCH /api/v1/files/{id}/rename.
func (h *FileHandler) Rename(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	var req RenameRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	file, err := h.engine.RenameFile(r.Context(), principal, chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONOK(w, file)
}

// Move handles POST /api/v1/files/{id}/move.
func (h *FileHandler) Move(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	var req MoveFileRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.DestinationID == "" {
		BadRequest(w, "destination_id is required")
		return
	}
	file, err := h.engine.MoveFile(r.Context(), principal, chi.URLParam(r, "id"), req.DestinationID)
	if err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONOK(w, file)
}

// Copy handles POST /api/v1/files/{id}/copy.
func (h *FileHandler) Copy(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	var req CopyFileRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.DestinationID == "" {
		BadRequest(w, "destination_id is required")
		return
	}
	file, err := h.engine.CopyFile(r.Context(), principal, chi.URLParam(r, "id"), req.DestinationID)
	if err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONCreated(w, file)
}

// Replace handles PUT /api/v1/files/{id}. The body is a multipart
// form with a single "file" part whose content replaces the stored
// file; the part's filename, when present, becomes the new name.
func (h *FileHandler) Replace(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		BadRequest(w, "Invalid multipart body")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.WarnCtx(r.Context(), "Failed to clean up multipart temp files", logger.KeyError, err)
		}
	}()

	body, hdr, err := r.FormFile("file")
	if err != nil {
		BadRequest(w, "Missing file part")
		return
	}
	defer body.Close()

	file, err := h.engine.ReplaceFile(r.Context(), principal, chi.URLParam(r, "id"), uploadRequestFromHeader(hdr, body))
	if err != nil {
		writeTreeError(w, err)
		return
	}
	metrics.ObserveUploadBytes(file.Size)
	WriteJSONOK(w, file)
}

// Delete handles DELETE /api/v1/files/{id}.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	if err := h.engine.DeleteFile(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		writeTreeError(w, err)
		return
	}
	WriteNoContent(w)
}

// DeleteBatch handles POST /api/v1/folders/{id}/files/delete-batch.
func (h *FileHandler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	var req DeleteFilesRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	deleted, err := h.engine.DeleteFilesInFolder(r.Context(), principal, chi.URLParam(r, "id"), req.FileIDs)
	if err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONOK(w, deleted)
}

// List handles GET /api/v1/folders/{id}/files with page, page_size,
// sort, order and ext query parameters.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	q := r.URL.Query()
	page := 1
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			BadRequest(w, "Invalid page parameter")
			return
		}
		page = n
	}
	pageSize := 50
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			BadRequest(w, "Invalid page_size parameter")
			return
		}
		pageSize = n
	}

	result, err := h.engine.ListFilesInFolder(r.Context(), principal, chi.URLParam(r, "id"),
		page, pageSize, q.Get("sort"), q.Get("order") == "desc", q.Get("ext"))
	if err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONOK(w, result)
}
