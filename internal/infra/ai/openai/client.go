package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/bryanwahyu/design-alchemist/internal/domain/ai"
)

const (
	maxTokens    = 2048
	defaultModel = "gpt-4o"
)

// Client implements ai.Engine on the chat completions API with json_schema
// structured output.
type Client struct {
	*openai.Client
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// NewClientWithConfig is used for proxies and compatible gateways (and tests).
func NewClientWithConfig(cfg openai.ClientConfig, model string) *Client {
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

func (c *Client) Generate(ctx context.Context, r ai.Request) ([]byte, error) {
	model := c.Model
	if model == "" {
		model = defaultModel
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: r.Prompt}}
	for _, m := range r.Media {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: m.URL, Detail: openai.ImageURLDetailAuto},
		})
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: r.Instruction},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	}
	if r.Output != nil {
		def := toDefinition(r.Output)
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   r.Template,
				Schema: &def,
				Strict: true,
			},
		}
	} else {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	limit := c.MaxTokens
	if limit <= 0 {
		limit = maxTokens
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = limit
	} else {
		req.MaxTokens = limit
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %s", ai.ErrQuotaExceeded, apiErr.Message)
		}
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ai.ErrInvalidResponse)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty content (finish_reason=%s)", ai.ErrInvalidResponse, resp.Choices[0].FinishReason)
	}
	return []byte(content), nil
}

// toDefinition converts the neutral schema. Strict mode needs every object to
// reject additional properties.
func toDefinition(s *ai.Schema) jsonschema.Definition {
	d := jsonschema.Definition{Description: s.Description}
	switch s.Kind {
	case ai.KindObject:
		d.Type = jsonschema.Object
		d.Properties = make(map[string]jsonschema.Definition, len(s.Properties))
		for name, p := range s.Properties {
			d.Properties[name] = toDefinition(p)
		}
		d.Required = append([]string(nil), s.Required...)
		d.AdditionalProperties = false
	case ai.KindArray:
		d.Type = jsonschema.Array
		if s.Items != nil {
			items := toDefinition(s.Items)
			d.Items = &items
		}
	default:
		d.Type = jsonschema.String
	}
	return d
}
