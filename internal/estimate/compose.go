package estimate

import (
	"fmt"
	"strconv"

	"github.com/coinlens/coinlens/internal/ailink/content"
	"github.com/coinlens/coinlens/internal/ailink/prompt"
)

// Prompt slugs selected by request variant.
const (
	AttributesPromptSlug = "coin-estimate-attributes"
	ImagePromptSlug      = "coin-estimate-image"
)

// Prompt is a rendered, provider-neutral model prompt.
type Prompt struct {
	Slug           string
	System         string
	User           string
	Images         []content.ContentBlock
	ResponseSchema map[string]any
	Temperature    *float64
}

// Composer renders estimation requests into prompts.
type Composer struct {
	prompts prompt.Registry
}

// NewComposer builds a composer over a prompt registry.
func NewComposer(prompts prompt.Registry) *Composer {
	return &Composer{prompts: prompts}
}

// Compose picks the template from the request variant and renders it.
func (c *Composer) Compose(req EstimationRequest) (*Prompt, error) {
	if c == nil || c.prompts == nil {
		return nil, fmt.Errorf("prompt registry not configured")
	}

	var (
		slug   string
		images []content.ContentBlock
	)
	vars := attributeVars(req.attributes())

	switch r := req.(type) {
	case AttributeRequest:
		slug = AttributesPromptSlug
	case ImageRequest:
		slug = ImagePromptSlug
		vars["image_mime"] = r.Image.MIMEType
		images = []content.ContentBlock{content.Image(r.Image.MIMEType, r.Image.Data, r.Image.String())}
	default:
		return nil, fmt.Errorf("unsupported request type %T", req)
	}

	def, err := c.prompts.Get(slug)
	if err != nil {
		return nil, err
	}
	if len(images) > 0 {
		if err := checkImages(def, images); err != nil {
			return nil, err
		}
	}

	system, user, err := def.Render(vars)
	if err != nil {
		return nil, fmt.Errorf("render prompt %s: %w", slug, err)
	}

	return &Prompt{
		Slug:           slug,
		System:         system,
		User:           user,
		Images:         images,
		ResponseSchema: def.Config.ResponseSchema,
		Temperature:    def.Temperature(),
	}, nil
}

func attributeVars(a Attributes) map[string]string {
	vars := map[string]string{
		"coin_type": a.CoinType,
		"mint_year": strconv.Itoa(a.MintYear),
	}
	if a.Condition != "" {
		vars["condition"] = string(a.Condition)
	}
	return vars
}

func checkImages(def *prompt.Prompt, images []content.ContentBlock) error {
	in := def.Config.Input
	if !in.AcceptsImages {
		return fmt.Errorf("prompt %s does not accept images", def.Config.Slug)
	}
	if in.MaxImages > 0 && len(images) > in.MaxImages {
		return fmt.Errorf("prompt %s accepts at most %d images", def.Config.Slug, in.MaxImages)
	}
	if len(in.ImageTypes) == 0 {
		return nil
	}
	for _, img := range images {
		if !containsType(in.ImageTypes, string(img.Type)) {
			return &ValidationError{Violations: []SchemaViolation{{
				Field:      "image",
				Constraint: "mime_type",
				Message:    fmt.Sprintf("media type %s is not supported", img.Type),
			}}}
		}
	}
	return nil
}

func containsType(types []string, mime string) bool {
	for _, t := range types {
		if t == mime {
			return true
		}
	}
	return false
}
