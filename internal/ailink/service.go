package ailink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coinlens/coinlens/internal/ailink/content"
	"github.com/coinlens/coinlens/internal/ailink/driver"
	"github.com/coinlens/coinlens/internal/ailink/prompt"
)

const (
	defaultTimeout = 60 * time.Second
	maxTimeout     = 5 * time.Minute
)

// Service coordinates provider selection and driver execution.
type Service struct {
	Providers *Registry
	// Prompts is optional; when set, prompt provider hints take part in model selection.
	Prompts prompt.Registry
}

// NewService wires a provider registry and prompt registry.
func NewService(cfg Config, prompts prompt.Registry) *Service {
	return &Service{Providers: NewRegistry(cfg), Prompts: prompts}
}

// Complete sends one rendered prompt to the provider resolved for req.Role.
// It never retries.
func (s *Service) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if s == nil || s.Providers == nil {
		return nil, configErrorf("ailink provider registry not configured")
	}
	if strings.TrimSpace(req.System) == "" && strings.TrimSpace(req.User) == "" {
		return nil, errors.New("prompt text is required")
	}

	slug := strings.TrimSpace(req.PromptSlug)
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = slug
	}

	var promptDef *prompt.Prompt
	if s.Prompts != nil && slug != "" {
		if def, err := s.Prompts.Get(slug); err == nil {
			promptDef = def
		}
	}

	resolved, err := s.Providers.Resolve(role, promptDef, req.Model)
	if err != nil {
		return nil, err
	}

	caps := resolved.Driver.Capabilities()
	if len(req.Images) > 0 && !caps.SupportsImages {
		return nil, configErrorf("provider %q (%s) does not accept images", resolved.ProviderID, resolved.Driver.Name())
	}

	driverReq := &driver.Request{
		Model:          resolved.Model,
		Messages:       buildMessages(req),
		ResponseFormat: responseFormat(slug, req.ResponseSchema, caps),
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		PromptSlug:     slug,
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout(req.Timeout))
	defer cancel()

	resp, err := resolved.Driver.Complete(ctx, driverReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", resolved.ProviderID, err)
	}

	return &CompletionResponse{
		Text:         strings.TrimSpace(resp.Text()),
		ProviderID:   resolved.ProviderID,
		Driver:       resolved.Driver.Name(),
		Model:        resolved.Model,
		FinishReason: resp.FinishReason,
		Usage:        resp.Usage,
	}, nil
}

func (s *Service) timeout(requested time.Duration) time.Duration {
	duration := s.Providers.cfg.DefaultTimeout
	if duration <= 0 {
		duration = defaultTimeout
	}
	if requested > 0 {
		duration = requested
	}
	if duration > maxTimeout {
		duration = maxTimeout
	}
	return duration
}

func buildMessages(req CompletionRequest) []content.Message {
	messages := make([]content.Message, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, content.Message{Role: "system", Content: []content.ContentBlock{content.Text(system)}})
	}

	user := make([]content.ContentBlock, 0, 1+len(req.Images))
	if text := strings.TrimSpace(req.User); text != "" {
		user = append(user, content.Text(text))
	}
	user = append(user, req.Images...)
	if len(user) > 0 {
		messages = append(messages, content.Message{Role: "user", Content: user})
	}
	return messages
}

func responseFormat(slug string, schema map[string]any, caps driver.Capabilities) *driver.ResponseFormat {
	if len(schema) == 0 || !caps.SupportsJSONSchema {
		return &driver.ResponseFormat{Type: "json_object"}
	}
	return &driver.ResponseFormat{
		Type: "json_schema",
		JSONSchema: &driver.JSONSchema{
			Name:   slug,
			Schema: schema,
		},
	}
}
