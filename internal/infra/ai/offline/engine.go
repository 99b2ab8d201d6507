// Package offline answers the design prompts without a network call. It is
// deterministic and only looks at the image header, so it suits local runs and tests.
package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/bryanwahyu/design-alchemist/internal/application/analysis"
	"github.com/bryanwahyu/design-alchemist/internal/domain/ai"
	"github.com/bryanwahyu/design-alchemist/internal/domain/design"
)

const (
	minCanvasSide  = 320
	maxAspectRatio = 4.0
	largePayload   = 3 * 1024 * 1024
)

type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Generate(ctx context.Context, req ai.Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch req.Template {
	case analysis.AnalyzeDesignImageTemplate:
		return e.analyze(req)
	case analysis.SuggestDesignImprovementsTemplate:
		return json.Marshal(analysis.ImprovementSuggestions{
			Improvements: Improvements(req.Variables[analysis.VarIdentifiedFlaws]),
		})
	default:
		return nil, fmt.Errorf("%w: unknown template %q", ai.ErrInvalidResponse, req.Template)
	}
}

func (e *Engine) analyze(req ai.Request) ([]byte, error) {
	if len(req.Media) == 0 {
		return nil, fmt.Errorf("offline: no image attached")
	}
	uri, err := design.ParseDataURI(req.Media[0].URL)
	if err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(uri.Data))
	if err != nil {
		return nil, fmt.Errorf("offline: decode image header: %w", err)
	}
	out := Inspect(cfg.Width, cfg.Height, len(uri.Data))
	return json.Marshal(out)
}

// Inspect applies the size heuristics. Both lists are always non-nil and flaw
// texts never contain the flaw separator.
func Inspect(width, height, size int) analysis.FlawAnalysis {
	out := analysis.FlawAnalysis{Flaws: []string{}, Suggestions: []string{}}
	add := func(flaw, suggestion string) {
		out.Flaws = append(out.Flaws, flaw)
		out.Suggestions = append(out.Suggestions, suggestion)
	}

	if width < minCanvasSide || height < minCanvasSide {
		add(fmt.Sprintf("Canvas is small (%dx%d) so spacing feels cramped and touch targets are tight", width, height),
			"Design at a larger artboard size so spacing and type sizes can breathe")
	}
	if width > 0 && height > 0 {
		ratio := float64(width) / float64(height)
		if ratio < 1 {
			ratio = 1 / ratio
		}
		if ratio > maxAspectRatio {
			add(fmt.Sprintf("Extreme aspect ratio (%.1f:1) weakens the visual hierarchy", ratio),
				"Break the layout into sections with a clear focal point per screen")
		}
	}
	if size > largePayload {
		add("Image payload is very large and hints at unoptimized assets",
			"Export compressed assets and check that imagery does not dominate the layout")
	}
	return out
}

// keyword -> area, checked in order
var areas = []struct{ keyword, area string }{
	{"contrast", "Color and Contrast"},
	{"color", "Color and Contrast"},
	{"font", "Typography"},
	{"text", "Typography"},
	{"type", "Typography"},
	{"spacing", "Alignment and Spacing"},
	{"align", "Alignment and Spacing"},
	{"cramped", "Alignment and Spacing"},
	{"hierarchy", "Visual Hierarchy"},
	{"focal", "Visual Hierarchy"},
	{"consisten", "Consistency"},
	{"button", "UI Usability"},
	{"touch", "UI Usability"},
	{"navigation", "UI Usability"},
	{"asset", "Performance"},
	{"payload", "Performance"},
}

// Improvements turns the joined flaw string back into one improvement per flaw.
func Improvements(identifiedFlaws string) []analysis.Improvement {
	out := []analysis.Improvement{}
	for _, flaw := range strings.Split(identifiedFlaws, analysis.FlawSeparator) {
		flaw = strings.TrimSpace(flaw)
		if flaw == "" {
			continue
		}
		area := areaFor(flaw)
		out = append(out, analysis.Improvement{
			Area:       area,
			Suggestion: "Revisit the " + strings.ToLower(area) + " of the design: " + flaw,
			Reasoning:  "Addressing this keeps the layout readable and consistent for users.",
		})
	}
	return out
}

func areaFor(flaw string) string {
	lower := strings.ToLower(flaw)
	for _, a := range areas {
		if strings.Contains(lower, a.keyword) {
			return a.area
		}
	}
	return "General Layout"
}
