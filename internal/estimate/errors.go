package estimate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEstimationFailed matches every *EstimationFailed via errors.Is.
var ErrEstimationFailed = errors.New("estimation failed")

// SchemaViolation is one failed constraint.
type SchemaViolation struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Message    string `json:"message"`
}

// ValidationError reports caller input that does not satisfy the request shape.
type ValidationError struct {
	Violations []SchemaViolation
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "invalid request"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// Stage names where an estimation failed.
type Stage string

const (
	// StageProvider covers transport, auth, quota, timeout and refusal.
	StageProvider Stage = "provider"
	// StageSchema covers empty, undecodable or non-conforming answers.
	StageSchema Stage = "schema"
)

// EstimationFailed reports that no result could be produced. It never carries
// partial variants.
type EstimationFailed struct {
	Stage Stage
	// Code is a diagnostic classification for logs.
	Code       string
	Err        error
	Violations []SchemaViolation
	// Raw is the (possibly truncated) model payload, when capture is enabled.
	Raw json.RawMessage
}

func (e *EstimationFailed) Error() string {
	if e == nil {
		return ErrEstimationFailed.Error()
	}
	msg := fmt.Sprintf("estimation failed at %s stage", e.Stage)
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	} else if len(e.Violations) > 0 {
		msg += ": " + e.Violations[0].Field + ": " + e.Violations[0].Message
	}
	return msg
}

func (e *EstimationFailed) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *EstimationFailed) Is(target error) bool {
	return target == ErrEstimationFailed
}
