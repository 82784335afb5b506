package encode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"
)

func DecodeBase64String(value string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(value)
}

func EncodeBase64String(value []byte) string {
	return base64.StdEncoding.EncodeToString(value)
}

// DataURL is a decoded `data:<mime>;base64,<payload>` value.
type DataURL struct {
	MIMEType string
	Data     []byte
}

// String renders the canonical data URL form.
func (d DataURL) String() string {
	return EncodeDataURL(d.MIMEType, d.Data)
}

// EncodeDataURL renders a base64 data URL for the payload.
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + EncodeBase64String(data)
}

// Data URL parse failures. DataURLError.Reason wraps one of these.
var (
	ErrNotDataURL     = errors.New("missing data: scheme")
	ErrMissingMIME    = errors.New("missing media type")
	ErrInvalidMIME    = errors.New("invalid media type")
	ErrNotBase64      = errors.New("missing ;base64 marker")
	ErrMissingPayload = errors.New("missing payload")
	ErrInvalidPayload = errors.New("payload is not valid base64")
)

// DataURLError reports which part of a data URL is malformed.
type DataURLError struct {
	Reason error
	Detail string
}

func (e *DataURLError) Error() string {
	if e == nil || e.Reason == nil {
		return "invalid data url"
	}
	if e.Detail != "" {
		return fmt.Sprintf("invalid data url: %s: %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("invalid data url: %s", e.Reason)
}

func (e *DataURLError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Reason
}

// ParseDataURL strictly parses a base64 data URL with an explicit media type.
//
// Unlike lenient decoders it does not fall back to sniffing: the media type and
// the ;base64 marker must both be present.
func ParseDataURL(value string) (*DataURL, error) {
	value = strings.TrimSpace(value)
	if len(value) < len("data:") || !strings.EqualFold(value[:len("data:")], "data:") {
		return nil, &DataURLError{Reason: ErrNotDataURL}
	}

	meta, payload, ok := strings.Cut(value[len("data:"):], ",")
	if !ok {
		return nil, &DataURLError{Reason: ErrMissingPayload}
	}

	params := strings.Split(meta, ";")
	mediaType := strings.TrimSpace(params[0])
	if mediaType == "" {
		return nil, &DataURLError{Reason: ErrMissingMIME}
	}
	parsedType, _, err := mime.ParseMediaType(mediaType)
	if err != nil || !strings.Contains(parsedType, "/") {
		return nil, &DataURLError{Reason: ErrInvalidMIME, Detail: mediaType}
	}

	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if !isBase64 {
		return nil, &DataURLError{Reason: ErrNotBase64}
	}

	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, &DataURLError{Reason: ErrMissingPayload}
	}
	data, err := DecodeBase64String(payload)
	if err != nil {
		return nil, &DataURLError{Reason: ErrInvalidPayload, Detail: err.Error()}
	}
	if len(data) == 0 {
		return nil, &DataURLError{Reason: ErrMissingPayload}
	}

	return &DataURL{MIMEType: parsedType, Data: data}, nil
}
