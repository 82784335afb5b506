package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/coinlens/coinlens/internal/ailink/content"
	"github.com/coinlens/coinlens/internal/ailink/driver"
	"github.com/coinlens/coinlens/internal/ailink/encode"
)

// Client implements the Gemini driver on top of the generative-ai-go SDK.
type Client struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// NewClient returns a client with defaults applied.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		Endpoint: strings.TrimSpace(endpoint),
		APIKey:   strings.TrimSpace(apiKey),
	}
}

// Name returns the driver identifier.
func (c *Client) Name() string {
	return "gemini"
}

// Capabilities describes supported features.
func (c *Client) Capabilities() driver.Capabilities {
	return driver.Capabilities{
		SupportsImages:     true,
		SupportsJSONSchema: true,
		SupportsStreaming:  false,
	}
}

// Complete sends a single GenerateContent call.
func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("gemini client not configured")
	}
	if c.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	call, err := buildCall(req)
	if err != nil {
		return nil, err
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	opts := []option.ClientOption{option.WithAPIKey(c.APIKey)}
	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	defer cl.Close() // nolint:errcheck // best-effort cleanup

	m := cl.GenerativeModel(call.model)
	if m == nil {
		return nil, fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = call.config
	m.SystemInstruction = call.system

	start := time.Now()
	entry := driver.TraceEntry{
		Driver:     c.Name(),
		Endpoint:   "generateContent",
		Method:     "POST",
		Model:      call.model,
		PromptSlug: req.PromptSlug,
	}
	if body, err := json.Marshal(call.traceView()); err == nil {
		entry.RequestBody, entry.Truncated = driver.TraceBody(body)
	}

	resp, err := m.GenerateContent(ctx, call.parts...)
	entry.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		entry.Error = err.Error()
		driver.Trace(entry)
		return nil, mapError(err)
	}
	if body, err := json.Marshal(resp); err == nil {
		var truncated bool
		entry.Response, truncated = driver.TraceBody(body)
		entry.Truncated = entry.Truncated || truncated
	}
	driver.Trace(entry)

	return toDriverResponse(resp)
}

type generateCall struct {
	model  string
	config genai.GenerationConfig
	system *genai.Content
	parts  []genai.Part
}

// traceView is a JSON-friendly summary of the call with image bytes elided.
func (g *generateCall) traceView() map[string]any {
	parts := make([]any, 0, len(g.parts))
	for _, p := range g.parts {
		switch v := p.(type) {
		case genai.Text:
			parts = append(parts, map[string]any{"text": string(v)})
		case genai.Blob:
			parts = append(parts, map[string]any{"inline_data": map[string]any{"mime_type": v.MIMEType, "bytes": len(v.Data)}})
		}
	}
	view := map[string]any{"model": g.model, "parts": parts, "response_mime_type": g.config.ResponseMIMEType}
	if g.system != nil {
		view["system_parts"] = len(g.system.Parts)
	}
	return view
}

func buildCall(req *driver.Request) (*generateCall, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	call := &generateCall{model: model}

	if system := driver.SystemText(req.Messages); strings.TrimSpace(system) != "" {
		call.system = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	for _, msg := range req.Messages {
		if msg.Role == "system" {
			continue
		}
		for _, block := range msg.Content {
			part, err := convertBlock(block)
			if err != nil {
				return nil, err
			}
			call.parts = append(call.parts, part)
		}
	}
	if len(call.parts) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	if req.Temperature != nil {
		call.config.Temperature = ptrFloat32(float32(*req.Temperature))
	}
	if req.MaxTokens != nil {
		call.config.MaxOutputTokens = ptrInt32(int32(*req.MaxTokens)) // #nosec G115 -- token limits are small
	}

	if rf := req.ResponseFormat; rf != nil {
		switch rf.Type {
		case "json_object":
			call.config.ResponseMIMEType = "application/json"
		case "json_schema":
			call.config.ResponseMIMEType = "application/json"
			if rf.JSONSchema != nil {
				schema, err := ConvertSchema(rf.JSONSchema.Schema)
				if err != nil {
					return nil, fmt.Errorf("convert response schema: %w", err)
				}
				call.config.ResponseSchema = schema
			}
		}
	}

	return call, nil
}

func convertBlock(block content.ContentBlock) (genai.Part, error) {
	switch {
	case block.Type == content.ContentTypeText || block.Type == content.ContentTypeJSON:
		return genai.Text(block.Text), nil
	case block.Type.IsImage():
		data := block.Data
		if len(data) == 0 && block.DataURL != "" {
			parsed, err := encode.ParseDataURL(block.DataURL)
			if err != nil {
				return nil, err
			}
			data = parsed.Data
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("image block has no data")
		}
		return genai.Blob{MIMEType: string(block.Type), Data: data}, nil
	default:
		return nil, fmt.Errorf("unsupported content type: %s", block.Type)
	}
}

func toDriverResponse(resp *genai.GenerateContentResponse) (*driver.Response, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response candidates")
	}

	var (
		texts  []string
		reason string
	)
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				texts = append(texts, string(t))
			}
		}
		if len(texts) > 0 {
			reason = finishReason(cand.FinishReason)
			break
		}
	}

	out := &driver.Response{FinishReason: reason}
	if len(texts) > 0 {
		out.Content = []content.ContentBlock{content.Text(stripCodeFences(strings.Join(texts, "")))}
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = &driver.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

func finishReason(r genai.FinishReason) string {
	switch r {
	case genai.FinishReasonStop:
		return "stop"
	case genai.FinishReasonMaxTokens:
		return "length"
	case genai.FinishReasonSafety:
		return "safety"
	case genai.FinishReasonRecitation:
		return "recitation"
	case genai.FinishReasonUnspecified:
		return ""
	default:
		return strings.ToLower(strings.TrimPrefix(r.String(), "FinishReason"))
	}
}

// httpCoder is implemented by apierror.APIError.
type httpCoder interface {
	HTTPCode() int
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &driver.ProviderError{Provider: "gemini", Message: blocked.Error(), Blocked: true}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &driver.ProviderError{Provider: "gemini", StatusCode: gerr.Code, Message: gerr.Message, RawResponse: []byte(gerr.Body)}
	}

	var coder httpCoder
	if errors.As(err, &coder) && coder.HTTPCode() > 0 {
		return &driver.ProviderError{Provider: "gemini", StatusCode: coder.HTTPCode(), Message: err.Error()}
	}

	return fmt.Errorf("gemini request failed: %w", err)
}

// stripCodeFences removes a markdown ```json fence some models wrap JSON in.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func ptrFloat32(v float32) *float32 { return &v }

func ptrInt32(v int32) *int32 { return &v }
