package httpx

import (
	"errors"
	"net/http"

	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

// RespondError maps domain errors to HTTP responses. Expected outcomes
// (not found, conflict, validation) surface their message verbatim;
// everything else collapses to an opaque internal error.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrSequenceExhausted):
		Problem(w, http.StatusServiceUnavailable, "Sequence Exhausted", err.Error())
	case errors.Is(err, shared.ErrStorageUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Storage Unavailable", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
