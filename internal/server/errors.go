package server

import (
	"net/http"

	apperrors "github.com/coinlens/coinlens/internal/errors"
)

// HandleError writes the JSON error body for err. Envelopes pass through,
// estimation errors become VALIDATION_FAILED or ESTIMATION_UNAVAILABLE and
// anything else is an INTERNAL_ERROR.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}
