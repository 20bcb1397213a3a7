package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/otymus27/portal-hrg/pkg/portal/models"
	"github.com/otymus27/portal-hrg/pkg/portal/store"
	"github.com/otymus27/portal-hrg/pkg/portal/tree"
)

// FolderHandler handles the folder tree endpoints.
type FolderHandler struct {
	engine *tree.Engine
	store  store.Catalog
}

// NewFolderHandler creates a FolderHandler.
func NewFolderHandler(engine *tree.Engine, s store.Catalog) *FolderHandler {
	return &FolderHandler{engine: engine, store: s}
}

// CreateFolderRequest is the request body for POST /api/v1/folders.
type CreateFolderRequest struct {
	Name       string   `json:"name"`
	ParentID   *string  `json:"parent_id"`
	ACLUserIDs []string `json:"acl_user_ids"`
}

// RenameRequest carries a new display name.
type RenameRequest struct {
	Name string `json:"name"`
}

// MoveFolderRequest is the request body for POST /api/v1/folders/{id}/move.
type MoveFolderRequest struct {
	NewParentID *string `json:"new_parent_id"`
}

// CopyFolderRequest is the request body for POST /api/v1/folders/{id}/copy.
type CopyFolderRequest struct {
	DestinationID *string `json:"destination_id"`
}

// DeleteBatchRequest is the request body for POST /api/v1/folders/delete-batch.
type DeleteBatchRequest struct {
	FolderIDs []string `json:"folder_ids"`
	Cascade   bool     `json:"cascade"`
}

// ReplaceContentsRequest is the request body for POST /api/v1/folders/{id}/replace.
type ReplaceContentsRequest struct {
	SourceID string `json:"source_id"`
}

// PermissionsRequest is the request body for PATCH /api/v1/folders/{id}/permissions.
type PermissionsRequest struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

// Create handles POST /api/v1/folders.
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	var req CreateFolderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	folder, err := h.engine.Create(r.Context(), principal, tree.CreateRequest{
		Name:       req.Name,
		ParentID:   req.ParentID,
		ACLUserIDs: req.ACLUserIDs,
	})
	if err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONCreated(w, folder)
}

// ListRoots handles GET /api/v1/folders.
func (h *FolderHandler) ListRoots(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	roots, err := h.engine.ListRootFolders(r.Context(), principal)
	if err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONOK(w, roots)
}

// treeFilterFromQuery parses the filter query parameters shared by the
// tree endpoints: ext, min_size, max_size, depth, sort, order.
func treeFilterFromQuery(r *http.Request) (models.TreeFilter, error) {
	q := r.URL.Query()
	filter := models.TreeFilter{
		Extension:  q.Get("ext"),
		SortBy:     models.ParseSortKey(q.Get("sort")),
		Descending: q.Get("order") == "desc",
	}
	if v := q.Get("min_size"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, err
		}
		filter.MinSize = &n
	}
	if v := q.Get("max_size"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, err
		}
		filter.MaxSize = &n
	}
	if v := q.Get("depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, err
		}
		filter.MaxDepth = n
	}
	return filter, nil
}

// FullTree handles GET /api/v1/folders/tree.
func (h *FolderHandler) FullTree(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	filter, err := treeFilterFromQuery(r)
	if err != nil {
		BadRequest(w, "Invalid filter parameter")
		return
	}
	trees, err := h.engine.FullTree(r.Context(), principal, filter)
	if err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONOK(w, trees)
}

// Subtree handles GET /api/v1/folders/{id}/tree.
func (h *FolderHandler) Subtree(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	filter, err := treeFilterFromQuery(r)
	if err != nil {
		BadRequest(w, "Invalid filter parameter")
		return
	}
	node, err := h.engine.Subtree(r.Context(), principal, chi.URLParam(r, "id"), filter)
	if err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONOK(w, node)
}

// Rename handles PATCH /api/v1/folders/{id}/rename.
func (h *FolderHandler) Rename(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	var req RenameRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	folder, err := h.engine.Rename(r.Context(), principal, chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONOK(w, folder)
}

// Move handles POST /api/v1/folders/{id}/move.
func (h *FolderHandler) Move(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	var req MoveFolderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	folder, err := h.engine.Move(r.Context(), principal, chi.URLParam(r, "id"), req.NewParentID)
	if err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONOK(w, folder)
}

// Copy handles POST /api/v1/folders/{id}/copy.
func (h *FolderHandler) Copy(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	var req CopyFolderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	folder, err := h.engine.Copy(r.Context(), principal, chi.URLParam(r, "id"), req.DestinationID)
	if err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONCreated(w, folder)
}

// Delete handles DELETE /api/v1/folders/{id}.
func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	if err := h.engine.Delete(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		writeTreeError(w, err)
		return
	}
	WriteNoContent(w)
}

// DeleteBatch handles POST /api/v1/folders/delete-batch.
func (h *FolderHandler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	var req DeleteBatchRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if len(req.FolderIDs) == 0 {
		BadRequest(w, "folder_ids must not be empty")
		return
	}
	if err := h.engine.DeleteBatch(r.Context(), principal, req.FolderIDs, req.Cascade); err != nil {
		writeTreeError(w, err)
		return
	}
	WriteNoContent(w)
}

// ReplaceContents handles POST /api/v1/folders/{id}/replace.
func (h *FolderHandler) ReplaceContents(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	var req ReplaceContentsRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.SourceID == "" {
		BadRequest(w, "source_id is required")
		return
	}
	folder, err := h.engine.ReplaceContents(r.Context(), principal, req.SourceID, chi.URLParam(r, "id"))
	if err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONOK(w, folder)
}

// UpdatePermissions handles PATCH /api/v1/folders/{id}/permissions.
func (h *FolderHandler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	var req PermissionsRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	folder, err := h.engine.UpdatePermissions(r.Context(), principal, chi.URLParam(r, "id"), req.Add, req.Remove)
	if err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONOK(w, folder)
}

// ListUsers handles GET /api/v1/folders/{id}/users.
func (h *FolderHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	users, err := h.engine.ListUsersForFolder(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		writeTreeError(w, err)
		return
	}
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userToResponse(&users[i]))
	}
	WriteJSONOK(w, out)
}
