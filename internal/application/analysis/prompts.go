package analysis

import (
	"fmt"

	"github.com/bryanwahyu/design-alchemist/internal/domain/ai"
)

// Template names, stable across providers.
const (
	AnalyzeDesignImageTemplate        = "analyzeDesignImagePrompt"
	SuggestDesignImprovementsTemplate = "suggestDesignImprovementsPrompt"
)

// Template variable names.
const (
	VarDesignDescription = "designDescription"
	VarIdentifiedFlaws   = "identifiedFlaws"
)

const analyzeDesignImageInstruction = `You are an expert design consultant. Analyze the provided design image.

Your task is to:
1. Identify potential design flaws. Focus specifically on issues related to:
    - Alignment and Spacing (e.g., inconsistent margins, misaligned elements)
    - Color Palette and Contrast (e.g., poor color combinations, insufficient text/background contrast for accessibility)
    - Typography and Readability (e.g., difficult-to-read fonts, inappropriate font sizes, insufficient line height)
    - Visual Hierarchy and Focal Points (e.g., lack of clear primary focus, confusing element importance)
    - Consistency in design elements (e.g., varied button styles, inconsistent iconography)
    - User Interface (UI) element usability (e.g., unclear calls-to-action, small touch targets, confusing navigation)
2. For each identified flaw, provide a concise description. This will be part of the "flaws" output list.
3. For each identified flaw, also provide an actionable suggestion for how to improve it. This will be part of the "suggestions" output list.

Return one JSON object only (no markdown, no code fences) with two lists:
- "flaws": a list of strings, each a description of an identified flaw.
- "suggestions": a list of strings, each an actionable suggestion for the flaw at the same position.

If no significant flaws are found, "flaws" may be empty and "suggestions" may be empty or hold general enhancement tips.`

const suggestDesignImprovementsInstruction = `You are an expert design consultant. A user has uploaded a design and received feedback about flaws in that design.
Your job is to provide a list of specific, actionable suggestions for improving the design based on the identified flaws.

Provide a list of improvements, including the area the suggestion applies to, the specific suggestion, and the reasoning behind the suggestion.
Ensure your suggestions are clear, concise, directly address the identified flaws, and are actionable.

Return one JSON object only (no markdown, no code fences) shaped as {"improvements": [{"area": "...", "suggestion": "...", "reasoning": "..."}]}.`

var flawAnalysisSchema = ai.Object("Design flaws and matching suggestions.",
	ai.Prop("flaws", ai.ArrayOf("A list of potential design flaws identified in the image.",
		ai.String("One design flaw."))),
	ai.Prop("suggestions", ai.ArrayOf("A list of actionable suggestions for improving the design, corresponding to the identified flaws.",
		ai.String("One suggestion."))),
)

var improvementsSchema = ai.Object("Detailed design improvements.",
	ai.Prop("improvements", ai.ArrayOf("A list of specific suggestions for improving the design.",
		ai.Object("One improvement.",
			ai.Prop("area", ai.String("The area of the design the suggestion applies to.")),
			ai.Prop("suggestion", ai.String("A specific suggestion for improvement.")),
			ai.Prop("reasoning", ai.String("The reasoning behind the suggestion.")),
		))),
)

// AnalyzeDesignImagePrompt renders the flaw analysis template.
func AnalyzeDesignImagePrompt(designImage string) ai.Request {
	return ai.Request{
		Template:    AnalyzeDesignImageTemplate,
		Instruction: analyzeDesignImageInstruction,
		Prompt:      "Analyze the attached design image and respond with the JSON object described above.",
		Media:       []ai.Media{{URL: designImage}},
		Variables:   map[string]string{},
		Output:      flawAnalysisSchema,
	}
}

// SuggestDesignImprovementsPrompt renders the improvement template.
func SuggestDesignImprovementsPrompt(designImage, description, identifiedFlaws string) ai.Request {
	return ai.Request{
		Template:    SuggestDesignImprovementsTemplate,
		Instruction: suggestDesignImprovementsInstruction,
		Prompt: fmt.Sprintf("Description of the design: %s\n\nIdentified flaws: %s\n\nThe design is attached.",
			description, identifiedFlaws),
		Media: []ai.Media{{URL: designImage}},
		Variables: map[string]string{
			VarDesignDescription: description,
			VarIdentifiedFlaws:   identifiedFlaws,
		},
		Output: improvementsSchema,
	}
}
