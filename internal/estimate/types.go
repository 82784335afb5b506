// Package estimate implements the coin-value estimation pipeline: input
// validation, prompt composition, a single model call and result validation.
package estimate

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/coinlens/coinlens/internal/ailink/encode"
)

// Condition is the optional grade a caller reports for a coin.
type Condition string

const (
	ConditionMint     Condition = "Mint"
	ConditionVeryFine Condition = "Very Fine"
	ConditionFine     Condition = "Fine"
	ConditionGood     Condition = "Good"
	ConditionPoor     Condition = "Poor"
)

var conditions = []Condition{ConditionMint, ConditionVeryFine, ConditionFine, ConditionGood, ConditionPoor}

// Conditions lists the accepted condition labels, best grade first.
func Conditions() []Condition {
	out := make([]Condition, len(conditions))
	copy(out, conditions)
	return out
}

// ParseCondition matches a label exactly. Case and spacing are significant.
func ParseCondition(s string) (Condition, bool) {
	for _, c := range conditions {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Attributes are the validated descriptive fields shared by every request.
type Attributes struct {
	CoinType  string
	MintYear  int
	Condition Condition
}

// EstimationRequest is either an AttributeRequest or an ImageRequest.
type EstimationRequest interface {
	attributes() Attributes
	sealed()
}

// AttributeRequest asks for an estimate from the description alone.
type AttributeRequest struct {
	Attributes
}

func (r AttributeRequest) attributes() Attributes { return r.Attributes }
func (AttributeRequest) sealed()                  {}

// ImageRequest asks for an estimate from a photo. The photo is authoritative;
// CoinType and MintYear are hints.
type ImageRequest struct {
	Attributes
	Image DataURI
}

func (r ImageRequest) attributes() Attributes { return r.Attributes }
func (ImageRequest) sealed()                  {}

// DataURI is a decoded image payload.
type DataURI struct {
	MIMEType string
	Data     []byte
}

// String renders the data URI text form.
func (d DataURI) String() string {
	return encode.EncodeDataURL(d.MIMEType, d.Data)
}

// YearText is the raw mint year. It unmarshals from a JSON string or number so
// both {"mintYear":"1909"} and {"mintYear":1909} reach the validator unchanged.
type YearText string

func (y *YearText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = YearText(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*y = ""
		return nil
	}
	*y = YearText(data)
	return nil
}

// AttributeInput is the unvalidated attribute-only request.
type AttributeInput struct {
	CoinType  string   `json:"coinType"`
	MintYear  YearText `json:"mintYear"`
	Condition string   `json:"condition,omitempty"`
}

// ImageInput is the unvalidated image-assisted request. Image is a data URI.
type ImageInput struct {
	AttributeInput
	Image string `json:"image"`
}

// CoinVariant is one mint, strike or condition combination of the coin.
type CoinVariant struct {
	Description    string `json:"description"`
	EstimatedValue string `json:"estimatedValue"`
	ImageURL       string `json:"imageUrl"`
	Composition    string `json:"composition"`
	Weight         string `json:"weight"`
	Diameter       string `json:"diameter"`
	History        string `json:"history"`
}

// EstimationResult is the validated model answer. Variants keep model order.
type EstimationResult struct {
	Variants   []CoinVariant `json:"variants"`
	Confidence string        `json:"confidence"`
}

// ConfidenceLevel is a display-normalised confidence label.
type ConfidenceLevel string

const (
	ConfidenceHigh    ConfidenceLevel = "High"
	ConfidenceMedium  ConfidenceLevel = "Medium"
	ConfidenceLow     ConfidenceLevel = "Low"
	ConfidenceUnknown ConfidenceLevel = "Unknown"
)

// Level normalises Confidence for display. The raw label is never rejected.
func (r *EstimationResult) Level() ConfidenceLevel {
	if r == nil {
		return ConfidenceUnknown
	}
	switch strings.ToLower(strings.TrimSpace(r.Confidence)) {
	case "high":
		return ConfidenceHigh
	case "medium":
		return ConfidenceMedium
	case "low":
		return ConfidenceLow
	default:
		return ConfidenceUnknown
	}
}
