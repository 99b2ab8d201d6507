package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/bryanwahyu/design-alchemist/internal/domain/ai"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// analyzeDesignImage runs the flaw analysis stage once, without retry.
func (s *Service) analyzeDesignImage(ctx context.Context, designImage string) (*FlawAnalysis, error) {
	raw, err := s.Engine.Generate(ctx, AnalyzeDesignImagePrompt(designImage))
	if err != nil {
		return nil, err
	}
	var out flawAnalysisOutput
	if err := decodeOutput(raw, &out); err != nil {
		return nil, err
	}
	return out.value(), nil
}

// suggestImprovements runs the improvement stage once, without retry.
func (s *Service) suggestImprovements(ctx context.Context, designImage, description, identifiedFlaws string) (*ImprovementSuggestions, error) {
	raw, err := s.Engine.Generate(ctx, SuggestDesignImprovementsPrompt(designImage, description, identifiedFlaws))
	if err != nil {
		return nil, err
	}
	var out improvementsOutput
	if err := decodeOutput(raw, &out); err != nil {
		return nil, err
	}
	return out.value(), nil
}

// decodeOutput parses the model JSON and checks it against the struct constraints.
func decodeOutput(raw []byte, out any) error {
	body := stripCodeFence(raw)
	if len(body) == 0 {
		return fmt.Errorf("%w: empty body", ai.ErrInvalidResponse)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ai.ErrInvalidResponse, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", ai.ErrInvalidResponse, err)
	}
	return nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models add despite instructions.
func stripCodeFence(raw []byte) []byte {
	b := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(b, []byte("```")) {
		return b
	}
	b = bytes.TrimPrefix(b, []byte("```"))
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[i+1:]
	}
	b = bytes.TrimSuffix(bytes.TrimSpace(b), []byte("```"))
	return bytes.TrimSpace(b)
}
