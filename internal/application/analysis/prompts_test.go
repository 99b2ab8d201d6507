package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/design-alchemist/internal/domain/ai"
)

func TestAnalyzeDesignImagePromptCoversCategories(t *testing.T) {
	req := AnalyzeDesignImagePrompt(testImage)
	for _, category := range []string{
		"Alignment and Spacing",
		"Color Palette and Contrast",
		"Typography and Readability",
		"Visual Hierarchy",
		"Consistency",
		"User Interface (UI) element usability",
	} {
		assert.Contains(t, req.Instruction, category)
	}
	assert.Equal(t, ai.KindObject, req.Output.Kind)
	assert.Equal(t, []string{"flaws", "suggestions"}, req.Output.Required)
	assert.Equal(t, ai.KindString, req.Output.Properties["flaws"].Items.Kind)
}

func TestSuggestDesignImprovementsPromptRendersInputs(t *testing.T) {
	req := SuggestDesignImprovementsPrompt(testImage, "checkout page", "f1, f2")
	assert.Contains(t, req.Prompt, "Description of the design: checkout page")
	assert.Contains(t, req.Prompt, "Identified flaws: f1, f2")
	item := req.Output.Properties["improvements"].Items
	assert.Equal(t, []string{"area", "suggestion", "reasoning"}, item.Order)
}
