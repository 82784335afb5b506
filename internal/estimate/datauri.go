package estimate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coinlens/coinlens/internal/ailink/encode"
)

// DefaultMaxImageBytes bounds decoded photo payloads.
const DefaultMaxImageBytes = 8 << 20

// ParseImage strictly parses an image data URI.
func ParseImage(value string, maxBytes int) (DataURI, error) {
	violation, uri := parseImage("image", value, maxBytes)
	if violation != nil {
		return DataURI{}, &ValidationError{Violations: []SchemaViolation{*violation}}
	}
	return uri, nil
}

func parseImage(field, value string, maxBytes int) (*SchemaViolation, DataURI) {
	if strings.TrimSpace(value) == "" {
		return &SchemaViolation{Field: field, Constraint: "required", Message: "image is required"}, DataURI{}
	}

	parsed, err := encode.ParseDataURL(value)
	if err != nil {
		return &SchemaViolation{Field: field, Constraint: dataURLConstraint(err), Message: err.Error()}, DataURI{}
	}
	if !strings.HasPrefix(parsed.MIMEType, "image/") {
		return &SchemaViolation{
			Field:      field,
			Constraint: "mime_type",
			Message:    fmt.Sprintf("media type %q is not an image", parsed.MIMEType),
		}, DataURI{}
	}
	if maxBytes > 0 && len(parsed.Data) > maxBytes {
		return &SchemaViolation{
			Field:      field,
			Constraint: "max_bytes",
			Message:    fmt.Sprintf("image is %d bytes, limit is %d", len(parsed.Data), maxBytes),
		}, DataURI{}
	}

	return nil, DataURI{MIMEType: parsed.MIMEType, Data: parsed.Data}
}

func dataURLConstraint(err error) string {
	switch {
	case errors.Is(err, encode.ErrMissingMIME), errors.Is(err, encode.ErrInvalidMIME):
		return "mime_type"
	case errors.Is(err, encode.ErrNotBase64), errors.Is(err, encode.ErrInvalidPayload):
		return "base64"
	case errors.Is(err, encode.ErrMissingPayload):
		return "non_empty"
	default:
		return "data_uri"
	}
}
