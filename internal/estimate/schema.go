package estimate

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"
)

// MaxCoinTypeLength caps the coinType field, in characters.
const MaxCoinTypeLength = 120

//go:embed result.schema.json
var resultSchemaJSON []byte

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// ResultSchema returns the JSON Schema of EstimationResult as a document.
func ResultSchema() map[string]any {
	var doc map[string]any
	if err := json.Unmarshal(resultSchemaJSON, &doc); err != nil {
		panic(fmt.Sprintf("embedded result schema: %v", err))
	}
	return doc
}

// Validator checks request inputs and model answers. It never repairs data.
type Validator struct {
	maxImageBytes int
	now           func() time.Time
	result        *gojsonschema.Schema
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithClock sets the clock used for the mint year upper bound.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// WithMaxImageBytes sets the decoded image size limit.
func WithMaxImageBytes(n int) ValidatorOption {
	return func(v *Validator) {
		if n > 0 {
			v.maxImageBytes = n
		}
	}
}

// NewValidator compiles the result schema.
func NewValidator(opts ...ValidatorOption) (*Validator, error) {
	v := &Validator{maxImageBytes: DefaultMaxImageBytes, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(resultSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile result schema: %w", err)
	}
	v.result = compiled
	return v, nil
}

// ValidateAttributes checks an attribute-only input.
func (v *Validator) ValidateAttributes(in AttributeInput) (AttributeRequest, error) {
	attrs, violations := v.checkAttributes(in)
	if len(violations) > 0 {
		return AttributeRequest{}, &ValidationError{Violations: violations}
	}
	return AttributeRequest{Attributes: attrs}, nil
}

// ValidateImage checks an image-assisted input.
func (v *Validator) ValidateImage(in ImageInput) (ImageRequest, error) {
	attrs, violations := v.checkAttributes(in.AttributeInput)
	violation, uri := parseImage("image", in.Image, v.maxImageBytes)
	if violation != nil {
		violations = append(violations, *violation)
	}
	if len(violations) > 0 {
		return ImageRequest{}, &ValidationError{Violations: violations}
	}
	return ImageRequest{Attributes: attrs, Image: uri}, nil
}

func (v *Validator) checkAttributes(in AttributeInput) (Attributes, []SchemaViolation) {
	var (
		attrs      Attributes
		violations []SchemaViolation
	)

	coinType := strings.TrimSpace(in.CoinType)
	switch {
	case coinType == "":
		violations = append(violations, SchemaViolation{Field: "coinType", Constraint: "required", Message: "coin type is required"})
	case utf8.RuneCountInString(coinType) > MaxCoinTypeLength:
		violations = append(violations, SchemaViolation{
			Field:      "coinType",
			Constraint: "max_length",
			Message:    fmt.Sprintf("coin type must be at most %d characters", MaxCoinTypeLength),
		})
	default:
		attrs.CoinType = coinType
	}

	year, violation := v.checkYear(string(in.MintYear))
	if violation != nil {
		violations = append(violations, *violation)
	} else {
		attrs.MintYear = year
	}

	if in.Condition != "" {
		cond, ok := ParseCondition(in.Condition)
		if !ok {
			violations = append(violations, SchemaViolation{
				Field:      "condition",
				Constraint: "enum",
				Message:    fmt.Sprintf("condition must be one of %s", conditionList()),
			})
		} else {
			attrs.Condition = cond
		}
	}

	return attrs, violations
}

func (v *Validator) checkYear(raw string) (int, *SchemaViolation) {
	if raw == "" {
		return 0, &SchemaViolation{Field: "mintYear", Constraint: "required", Message: "mint year is required"}
	}
	if !yearPattern.MatchString(raw) {
		return 0, &SchemaViolation{Field: "mintYear", Constraint: "pattern", Message: "mint year must be four digits"}
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &SchemaViolation{Field: "mintYear", Constraint: "pattern", Message: "mint year must be four digits"}
	}
	current := v.now().Year()
	if year <= 1000 || year > current {
		return 0, &SchemaViolation{
			Field:      "mintYear",
			Constraint: "range",
			Message:    fmt.Sprintf("mint year must be after 1000 and no later than %d", current),
		}
	}
	return year, nil
}

// ValidateResult decodes and checks a raw model answer. Failures are returned
// as *ValidationError.
func (v *Validator) ValidateResult(raw []byte) (*EstimationResult, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, &ValidationError{Violations: []SchemaViolation{{Field: "$", Constraint: "required", Message: "empty response"}}}
	}

	res, err := v.result.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &ValidationError{Violations: []SchemaViolation{{Field: "$", Constraint: "json", Message: "response is not valid JSON: " + err.Error()}}}
	}
	if !res.Valid() {
		violations := make([]SchemaViolation, 0, len(res.Errors()))
		for _, re := range res.Errors() {
			violations = append(violations, toViolation(re))
		}
		return nil, &ValidationError{Violations: violations}
	}

	var out EstimationResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ValidationError{Violations: []SchemaViolation{{Field: "$", Constraint: "json", Message: err.Error()}}}
	}
	if out.Variants == nil {
		out.Variants = []CoinVariant{}
	}
	return &out, nil
}

func toViolation(re gojsonschema.ResultError) SchemaViolation {
	field := re.Field()
	if field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		field = "$"
	}
	if re.Type() == "required" {
		if prop, ok := re.Details()["property"].(string); ok && prop != "" {
			if field == "$" {
				field = prop
			} else {
				field += "." + prop
			}
		}
	}
	return SchemaViolation{Field: field, Constraint: re.Type(), Message: re.Description()}
}

func conditionList() string {
	names := make([]string, 0, len(conditions))
	for _, c := range conditions {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
