package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	apperrors "github.com/coinlens/coinlens/internal/errors"
	"github.com/coinlens/coinlens/internal/estimate"
	"github.com/coinlens/coinlens/internal/imaging"
)

const (
	defaultMaxBodyBytes = 16 << 20
	multipartMemory     = 4 << 20
	photoField          = "photo"
)

// EstimateHandler serves the /v1/estimates endpoints.
type EstimateHandler struct {
	svc          *estimate.Service
	maxBodyBytes int64
}

// NewEstimateHandler builds the handler. maxBodyBytes <= 0 uses 16 MiB.
func NewEstimateHandler(svc *estimate.Service, maxBodyBytes int64) *EstimateHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &EstimateHandler{svc: svc, maxBodyBytes: maxBodyBytes}
}

// Attributes handles POST /v1/estimates/attributes.
func (h *EstimateHandler) Attributes(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireMediaType(w, r, "application/json"); !ok {
		return
	}

	var in estimate.AttributeInput
	if !h.decodeJSON(w, r, &in) {
		return
	}

	result, err := h.svc.EstimateByAttributes(r.Context(), in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Image handles POST /v1/estimates/image. It takes either a JSON body whose
// image field is a data URI, or a multipart form with a photo file.
func (h *EstimateHandler) Image(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := h.requireMediaType(w, r, "application/json", "multipart/form-data")
	if !ok {
		return
	}

	var in estimate.ImageInput
	if mediaType == "multipart/form-data" {
		var err error
		in, err = h.readMultipart(w, r)
		if err != nil {
			respondWithError(w, r, h.bodyError(r, err))
			return
		}
	} else if !h.decodeJSON(w, r, &in) {
		return
	}

	result, err := h.svc.EstimateByImage(r.Context(), in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *EstimateHandler) requireMediaType(w http.ResponseWriter, r *http.Request, allowed ...string) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Content-Type"))
	if raw == "" {
		// A missing Content-Type is read as JSON.
		return "", true
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err == nil {
		for _, a := range allowed {
			if mediaType == a {
				return mediaType, true
			}
		}
	}
	respondWithError(w, r, apperrors.WrapUnsupportedMediaType(r.Context(), err,
		fmt.Sprintf("content type must be one of: %s", strings.Join(allowed, ", "))))
	return "", false
}

func (h *EstimateHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), nil, "request body is required"))
			return false
		}
		respondWithError(w, r, h.bodyError(r, err))
		return false
	}
	return true
}

func (h *EstimateHandler) bodyError(r *http.Request, err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.WrapPayloadTooLarge(r.Context(), err,
			fmt.Sprintf("request body exceeds %d bytes", h.maxBodyBytes))
	}
	var verr *estimate.ValidationError
	if errors.As(err, &verr) {
		return apperrors.FromEstimateError(r.Context(), verr)
	}
	return apperrors.WrapInvalidInput(r.Context(), err, "request body is not valid")
}

func (h *EstimateHandler) readMultipart(w http.ResponseWriter, r *http.Request) (estimate.ImageInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return estimate.ImageInput{}, err
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll() // nolint:errcheck
	}

	in := estimate.ImageInput{
		AttributeInput: estimate.AttributeInput{
			CoinType:  r.FormValue("coinType"),
			MintYear:  estimate.YearText(r.FormValue("mintYear")),
			Condition: r.FormValue("condition"),
		},
	}

	file, _, err := r.FormFile(photoField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return in, photoViolation("required", "photo file is required")
		}
		return in, err
	}
	defer file.Close() // nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		return in, err
	}

	cfg := h.svc.Config()
	prepared, err := imaging.Prepare(data, cfg.MaxImageEdge, cfg.MaxImagePixels)
	if err != nil {
		return in, photoViolation(imaging.Constraint(err), photoMessage(err))
	}
	in.Image = prepared.DataURI
	return in, nil
}

func photoMessage(err error) string {
	switch {
	case errors.Is(err, imaging.ErrEmpty):
		return "photo is empty"
	case errors.Is(err, imaging.ErrUnsupported), errors.Is(err, imaging.ErrTooLarge):
		return err.Error()
	default:
		return "photo could not be decoded"
	}
}

func photoViolation(constraint, message string) error {
	return &estimate.ValidationError{Violations: []estimate.SchemaViolation{{
		Field:      photoField,
		Constraint: constraint,
		Message:    message,
	}}}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
