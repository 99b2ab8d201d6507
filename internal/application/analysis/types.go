package analysis

import "encoding/json"

// Messages surfaced verbatim to the caller.
const (
	MsgImageRequired         = "Design image data URI is required."
	MsgInitialAnalysisFailed = "Failed to get initial analysis from AI."
	MsgUnexpected            = "An unexpected error occurred during AI analysis."

	// DefaultDescription replaces an empty design description.
	DefaultDescription = "A user-uploaded design for analysis."

	// FlawSeparator joins a list into the single identifiedFlaws field.
	FlawSeparator = ", "
)

// Improvement is one structured suggestion from the second stage.
type Improvement struct {
	Area       string `json:"area"`
	Suggestion string `json:"suggestion"`
	Reasoning  string `json:"reasoning"`
}

// FlawAnalysis is the first stage output.
type FlawAnalysis struct {
	Flaws       []string `json:"flaws"`
	Suggestions []string `json:"suggestions"`
}

// ImprovementSuggestions is the second stage output.
type ImprovementSuggestions struct {
	Improvements []Improvement `json:"improvements"`
}

// Wire shapes decoded from the model. Pointers separate an absent key from
// an empty value: every key is required, empty strings and lists are not errors.
type flawAnalysisOutput struct {
	Flaws       *[]string `json:"flaws" validate:"required"`
	Suggestions *[]string `json:"suggestions" validate:"required"`
}

type improvementOutput struct {
	Area       *string `json:"area" validate:"required"`
	Suggestion *string `json:"suggestion" validate:"required"`
	Reasoning  *string `json:"reasoning" validate:"required"`
}

// improvementsOutput tolerates a missing improvements key; the orchestrator
// substitutes an empty list for it.
type improvementsOutput struct {
	Improvements []improvementOutput `json:"improvements" validate:"omitempty,dive"`
}

func (o flawAnalysisOutput) value() *FlawAnalysis {
	return &FlawAnalysis{Flaws: *o.Flaws, Suggestions: *o.Suggestions}
}

func (o improvementsOutput) value() *ImprovementSuggestions {
	if o.Improvements == nil {
		return &ImprovementSuggestions{}
	}
	out := make([]Improvement, 0, len(o.Improvements))
	for _, imp := range o.Improvements {
		out = append(out, Improvement{Area: *imp.Area, Suggestion: *imp.Suggestion, Reasoning: *imp.Reasoning})
	}
	return &ImprovementSuggestions{Improvements: out}
}

// Result is the aggregate returned for one design image.
type Result struct {
	Flaws        []string      `json:"flaws"`
	Suggestions  []string      `json:"suggestions"`
	Improvements []Improvement `json:"improvements"`
}

// Error carries a human readable failure message. Cause keeps the upstream
// error for callers that map failures to transport codes; it is never serialized.
type Error struct {
	Message string `json:"error"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

// Outcome holds exactly one of Result or Err.
type Outcome struct {
	Result *Result
	Err    *Error
}

// Failed reports whether the outcome is an error.
func (o Outcome) Failed() bool { return o.Err != nil }

// MarshalJSON encodes either the result object or {"error": "..."}.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Err != nil {
		return json.Marshal(o.Err)
	}
	return json.Marshal(o.Result)
}

func succeed(r *Result) Outcome { return Outcome{Result: r} }

func fail(msg string) Outcome {
	return failWith(msg, nil)
}

func failWith(msg string, cause error) Outcome {
	if msg == "" {
		msg = MsgUnexpected
	}
	return Outcome{Err: &Error{Message: msg, Cause: cause}}
}
