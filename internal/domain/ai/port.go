package ai

import "context"

// Media is inline content sent next to the prompt text. URL is a data URI
// (data:<mime>;base64,<payload>).
type Media struct {
	URL string
}

// Request is one rendered prompt template.
type Request struct {
	// Template is the stable template name, also used as the response schema name.
	Template    string
	Instruction string
	Prompt      string
	Media       []Media
	// Variables holds the template input values the prompt was rendered from.
	Variables map[string]string
	Output    *Schema
}

// Engine runs a prompt template and returns the raw JSON object produced by the model.
// Implementations must return an error wrapping ErrInvalidResponse when the model
// produced no usable JSON.
type Engine interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
}
