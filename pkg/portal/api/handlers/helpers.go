package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/otymus27/portal-hrg/pkg/portal/models"
)

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns false after writing an error response when decoding fails.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// writeTreeError maps the tree and catalog error taxonomy onto HTTP
// problem responses. Unknown errors become 500 without leaking detail.
func writeTreeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidName),
		errors.Is(err, models.ErrInvalidArgument),
		errors.Is(err, models.ErrInvalidReference):
		BadRequest(w, err.Error())
	case errors.Is(err, models.ErrPermissionDenied):
		Forbidden(w, err.Error())
	case errors.Is(err, models.ErrFolderNotFound),
		errors.Is(err, models.ErrFileNotFound),
		errors.Is(err, models.ErrUserNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, models.ErrNameConflict),
		errors.Is(err, models.ErrFolderNotEmpty),
		errors.Is(err, models.ErrDuplicateUser):
		Conflict(w, err.Error())
	default:
		InternalServerError(w, "Operation failed")
	}
}
