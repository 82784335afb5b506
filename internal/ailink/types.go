package ailink

import (
	"fmt"
	"time"

	"github.com/coinlens/coinlens/internal/ailink/content"
	"github.com/coinlens/coinlens/internal/ailink/driver"
)

// CompletionRequest is a rendered prompt ready to be sent to a provider.
type CompletionRequest struct {
	// Role selects the provider via routing. Defaults to PromptSlug.
	Role       string
	PromptSlug string
	// Model overrides provider and prompt model selection.
	Model  string
	System string
	User   string
	Images []content.ContentBlock
	// ResponseSchema is the JSON Schema the answer must follow.
	ResponseSchema map[string]any
	Temperature    *float64
	MaxTokens      *int
	Timeout        time.Duration
}

// CompletionResponse is the raw text answer plus provider bookkeeping.
type CompletionResponse struct {
	Text         string        `json:"text"`
	ProviderID   string        `json:"provider_id"`
	Driver       string        `json:"driver"`
	Model        string        `json:"model"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Usage        *driver.Usage `json:"usage,omitempty"`
}

// ProviderFailure is a classified provider error, suitable for logs.
type ProviderFailure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ConfigError reports that no usable provider could be resolved.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "ailink not configured"
	}
	return e.Message
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}
