package handlers

import (
	"net/http"

	apperrors "github.com/coinlens/coinlens/internal/errors"
)

// defaultHTTPErrorResponder maps estimate.ValidationError to 400 and
// estimate.EstimationFailed to 502 via apperrors.EnvelopeFor.
var defaultHTTPErrorResponder = func(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}

var httpErrorResponder = defaultHTTPErrorResponder

// SetHTTPErrorResponder routes handler errors, estimation failures included,
// through the server's central handler. nil restores the package default.
func SetHTTPErrorResponder(responder func(http.ResponseWriter, *http.Request, error)) {
	if responder == nil {
		httpErrorResponder = defaultHTTPErrorResponder
		return
	}
	httpErrorResponder = responder
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	httpErrorResponder(w, r, err)
}
