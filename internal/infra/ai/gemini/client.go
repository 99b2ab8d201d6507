package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/bryanwahyu/design-alchemist/internal/domain/ai"
	"github.com/bryanwahyu/design-alchemist/internal/domain/design"
)

const (
	maxOutputTokens = 2048
	defaultModel    = "gemini-2.0-flash"
)

// Client implements ai.Engine on the Gemini API. Images travel as inline bytes.
type Client struct {
	client    *genai.Client
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// Options configures the Gemini client. BaseURL is only set for gateways and tests.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{client: client, Model: model}, nil
}

func (c *Client) Generate(ctx context.Context, r ai.Request) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	parts := []*genai.Part{genai.NewPartFromText(r.Prompt)}
	for _, m := range r.Media {
		uri, err := design.ParseDataURI(m.URL)
		if err != nil {
			return nil, err
		}
		parts = append(parts, genai.NewPartFromBytes(uri.Data, uri.MIMEType))
	}

	limit := int32(maxOutputTokens)
	if c.MaxTokens > 0 {
		limit = int32(c.MaxTokens)
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(r.Instruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		MaxOutputTokens:   limit,
	}
	if r.Output != nil {
		cfg.ResponseSchema = toSchema(r.Output)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.Model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		if isQuota(err) {
			return nil, fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
		}
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("%w: empty candidate", ai.ErrInvalidResponse)
	}
	return []byte(text), nil
}

func isQuota(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code == http.StatusTooManyRequests
	}
	return false
}

func toSchema(s *ai.Schema) *genai.Schema {
	out := &genai.Schema{Description: s.Description}
	switch s.Kind {
	case ai.KindObject:
		out.Type = genai.TypeObject
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toSchema(p)
		}
		out.Required = append([]string(nil), s.Required...)
		out.PropertyOrdering = append([]string(nil), s.Order...)
	case ai.KindArray:
		out.Type = genai.TypeArray
		if s.Items != nil {
			out.Items = toSchema(s.Items)
		}
	default:
		out.Type = genai.TypeString
	}
	return out
}
