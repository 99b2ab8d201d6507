package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/design-alchemist/internal/application/analysis"
	"github.com/bryanwahyu/design-alchemist/internal/domain/ai"
	"github.com/bryanwahyu/design-alchemist/internal/domain/design"
)

func pngURI(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return design.EncodeDataURI("image/png", buf.Bytes())
}

func TestInspect(t *testing.T) {
	clean := Inspect(1440, 900, 1024)
	assert.Empty(t, clean.Flaws)
	assert.NotNil(t, clean.Flaws)
	assert.NotNil(t, clean.Suggestions)

	small := Inspect(200, 100, 1024)
	require.Len(t, small.Flaws, 1)
	assert.Contains(t, small.Flaws[0], "200x100")

	tall := Inspect(400, 4000, largePayload+1)
	assert.Len(t, tall.Flaws, 2)
	assert.Len(t, tall.Suggestions, 2)
}

func TestImprovements(t *testing.T) {
	got := Improvements("Low contrast on buttons, Misaligned header, ")
	require.Len(t, got, 2)
	assert.Equal(t, "Color and Contrast", got[0].Area)
	assert.Equal(t, "Alignment and Spacing", got[1].Area)
	assert.NotEmpty(t, got[1].Suggestion)

	assert.Empty(t, Improvements(""))
}

func TestEngineRunsBothStages(t *testing.T) {
	svc := analysis.NewService(New(), nil)
	out := svc.Analyze(context.Background(), pngURI(t, 100, 100), "")
	require.False(t, out.Failed())
	require.Len(t, out.Result.Flaws, 1)
	require.Len(t, out.Result.Improvements, 1)
	assert.Equal(t, "Alignment and Spacing", out.Result.Improvements[0].Area)
}

func TestEngineCleanImageSkipsImprovements(t *testing.T) {
	svc := analysis.NewService(New(), nil)
	out := svc.Analyze(context.Background(), pngURI(t, 800, 600), "landing page")
	require.False(t, out.Failed())
	assert.Empty(t, out.Result.Flaws)
	assert.Empty(t, out.Result.Improvements)
}

func TestEngineUnknownTemplate(t *testing.T) {
	_, err := New().Generate(context.Background(), ai.Request{Template: "other"})
	assert.ErrorIs(t, err, ai.ErrInvalidResponse)
}

func TestEngineSuggestOutputShape(t *testing.T) {
	raw, err := New().Generate(context.Background(), ai.Request{
		Template:  analysis.SuggestDesignImprovementsTemplate,
		Variables: map[string]string{analysis.VarIdentifiedFlaws: "Tiny font"},
	})
	require.NoError(t, err)
	var got analysis.ImprovementSuggestions
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got.Improvements, 1)
	assert.Equal(t, "Typography", got.Improvements[0].Area)
}
