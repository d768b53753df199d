package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/crispit/crispit-server/internal/breaker"
	"github.com/crispit/crispit-server/internal/carbon"
	"github.com/crispit/crispit-server/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider returns canned outcomes in order and counts calls.
type mockProvider struct {
	name     string
	outcomes []provider.Outcome
	calls    int
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Generate(_ context.Context, _ provider.Request) provider.Outcome {
	m.calls++
	if len(m.outcomes) == 0 {
		return provider.Transient(errors.New("no canned outcome"))
	}
	out := m.outcomes[0]
	if len(m.outcomes) > 1 {
		m.outcomes = m.outcomes[1:]
	}
	return out
}

func newTestService(primary, secondary *mockProvider) *Service {
	return New(
		primary, secondary,
		breaker.New("primary", nil), breaker.New("secondary", nil),
		carbon.NewIndex(),
	)
}

// tinyPNG is a 1x1 PNG, enough to pass image validation.
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

const appleJSON = `{"isProduce":true,"name":"apple","category":"fruit","freshnessScore":85,"freshnessLevel":"Good","shelfLifeDays":7,"storageTips":["Keep refrigerated"],"indicators":["Firm skin","No bruising"],"sustainableAlternative":{"name":"local apple","reason":"less transport","carbonSavingsPercent":30}}`

func TestFreshnessPrimarySuccess(t *testing.T) {
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Success(appleJSON, provider.Usage{})}}
	secondary := &mockProvider{name: "secondary"}
	svc := newTestService(primary, secondary)

	result, err := svc.AnalyzeFreshness(context.Background(), tinyPNG)
	require.NoError(t, err)
	require.NotNil(t, result.Analysis)

	assert.False(t, result.NotProduce)
	assert.Equal(t, "apple", result.Analysis.ItemName)
	assert.Equal(t, CategoryFruit, result.Analysis.Category)
	assert.Equal(t, 85, result.Analysis.FreshnessScore)
	assert.Equal(t, 7, result.Analysis.EstimatedDaysRemaining)

	// Carbon footprint is joined from the local table.
	require.NotNil(t, result.Analysis.CarbonFootprint)
	assert.InDelta(t, 0.35, result.Analysis.CarbonFootprint.CO2ePerKg, 0.001)
	assert.Contains(t, result.Analysis.CarbonFootprint.Comparison, "phone")

	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, secondary.calls)
}

func TestFreshnessFallbackOnTransientFailure(t *testing.T) {
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Transient(errors.New("upstream 502"))}}
	secondary := &mockProvider{name: "secondary", outcomes: []provider.Outcome{provider.Success(appleJSON, provider.Usage{})}}
	svc := newTestService(primary, secondary)

	result, err := svc.AnalyzeFreshness(context.Background(), tinyPNG)
	require.NoError(t, err)
	assert.Equal(t, "apple", result.Analysis.ItemName)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestFreshnessFallbackOnUnparseableOutput(t *testing.T) {
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Success("I cannot analyze this image.", provider.Usage{})}}
	secondary := &mockProvider{name: "secondary", outcomes: []provider.Outcome{provider.Success(appleJSON, provider.Usage{})}}
	svc := newTestService(primary, secondary)

	result, err := svc.AnalyzeFreshness(context.Background(), tinyPNG)
	require.NoError(t, err)
	assert.Equal(t, "apple", result.Analysis.ItemName)
	assert.Equal(t, 1, secondary.calls)
}

func TestFreshnessBothProvidersExhausted(t *testing.T) {
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Transient(errors.New("boom"))}}
	secondary := &mockProvider{name: "secondary", outcomes: []provider.Outcome{provider.Transient(errors.New("boom too"))}}
	svc := newTestService(primary, secondary)

	_, err := svc.AnalyzeFreshness(context.Background(), tinyPNG)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAnalysisFailed)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestFreshnessRateLimitOpensBreaker(t *testing.T) {
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.RateLimited(0, errors.New("429"))}}
	secondary := &mockProvider{name: "secondary", outcomes: []provider.Outcome{
		provider.Success(appleJSON, provider.Usage{}),
		provider.Success(appleJSON, provider.Usage{}),
	}}
	svc := newTestService(primary, secondary)

	// First call: primary rate-limited, secondary serves.
	_, err := svc.AnalyzeFreshness(context.Background(), tinyPNG)
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)

	// Second call inside the cooldown: primary is skipped entirely.
	_, err = svc.AnalyzeFreshness(context.Background(), tinyPNG)
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 2, secondary.calls)
}

func TestFreshnessNotProduceIsNotAnError(t *testing.T) {
	canned := `{"isProduce":false,"message":"This appears to be a packaged item with a barcode"}`
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Success(canned, provider.Usage{})}}
	svc := newTestService(primary, &mockProvider{name: "secondary"})

	result, err := svc.AnalyzeFreshness(context.Background(), tinyPNG)
	require.NoError(t, err)
	assert.True(t, result.NotProduce)
	assert.Nil(t, result.Analysis)
	assert.Contains(t, result.Message, "packaged")
}

func TestFreshnessRejectsInvalidInput(t *testing.T) {
	svc := newTestService(&mockProvider{name: "primary"}, &mockProvider{name: "secondary"})

	_, err := svc.AnalyzeFreshness(context.Background(), "")
	require.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestFreshnessClampsScore(t *testing.T) {
	canned := `{"isProduce":true,"name":"apple","category":"fruit","freshnessScore":150}`
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Success(canned, provider.Usage{})}}
	svc := newTestService(primary, &mockProvider{name: "secondary"})

	result, err := svc.AnalyzeFreshness(context.Background(), tinyPNG)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Analysis.FreshnessScore)
}

func TestPackagedItemSuccess(t *testing.T) {
	canned := `{"isPackaged":true,"name":"Canned Tomatoes","carbonFootprint":0.9,"sustainableAlternative":"glass jar tomatoes","storageTip":"Store in a cool pantry","nutritionInfo":"","packageType":"can"}`
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Success(canned, provider.Usage{})}}
	svc := newTestService(primary, &mockProvider{name: "secondary"})

	result, err := svc.AnalyzePackaged(context.Background(), tinyPNG)
	require.NoError(t, err)
	require.NotNil(t, result.Item)
	assert.Equal(t, "Canned Tomatoes", result.Item.Name)
	assert.Equal(t, "can", result.Item.PackageType)
	assert.Equal(t, "Check packaging for details", result.Item.NutritionInfo)
}

func TestPackagedMismatchReportsNotPackaged(t *testing.T) {
	canned := `{"isPackaged":false,"message":"This appears to be fresh produce or not a packaged item"}`
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Success(canned, provider.Usage{})}}
	svc := newTestService(primary, &mockProvider{name: "secondary"})

	result, err := svc.AnalyzePackaged(context.Background(), tinyPNG)
	require.NoError(t, err)
	assert.True(t, result.NotPackaged)
	assert.Nil(t, result.Item)
}

func TestDetectLiveParsesDetections(t *testing.T) {
	canned := `{"detections":[{"item_name":"banana","category":"fruit","freshness_score":8,"freshness_description":"ripe","estimated_days_remaining":3,"box":[100,200,400,600]}]}`
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Success(canned, provider.Usage{})}}
	svc := newTestService(primary, &mockProvider{name: "secondary"})

	result, err := svc.DetectLive(context.Background(), tinyPNG)
	require.NoError(t, err)
	require.Len(t, result.Detections, 1)
	assert.Equal(t, "banana", result.Detections[0].ItemName)
	assert.Equal(t, [4]int{100, 200, 400, 600}, result.Detections[0].Box)
	assert.Equal(t, 8, result.Detections[0].FreshnessScore)
}

func TestDetectLiveEmptyFrameIsValid(t *testing.T) {
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Success(`{"detections":[]}`, provider.Usage{})}}
	svc := newTestService(primary, &mockProvider{name: "secondary"})

	result, err := svc.DetectLive(context.Background(), tinyPNG)
	require.NoError(t, err)
	assert.Empty(t, result.Detections)
}

func TestDetectLiveDegradesToEmptyOnFailure(t *testing.T) {
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Transient(errors.New("down"))}}
	secondary := &mockProvider{name: "secondary", outcomes: []provider.Outcome{provider.Transient(errors.New("down too"))}}
	svc := newTestService(primary, secondary)

	result, err := svc.DetectLive(context.Background(), tinyPNG)
	require.NoError(t, err)
	assert.NotNil(t, result.Detections)
	assert.Empty(t, result.Detections)
}

func TestDetectLiveCapsDetections(t *testing.T) {
	canned := `{"detections":[
		{"item_name":"a","category":"fruit","freshness_score":5,"box":[0,0,10,10]},
		{"item_name":"b","category":"fruit","freshness_score":5,"box":[0,0,10,10]},
		{"item_name":"c","category":"fruit","freshness_score":5,"box":[0,0,10,10]},
		{"item_name":"d","category":"fruit","freshness_score":5,"box":[0,0,10,10]},
		{"item_name":"e","category":"fruit","freshness_score":5,"box":[0,0,10,10]},
		{"item_name":"f","category":"fruit","freshness_score":5,"box":[0,0,10,10]}
	]}`
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Success(canned, provider.Usage{})}}
	svc := newTestService(primary, &mockProvider{name: "secondary"})

	result, err := svc.DetectLive(context.Background(), tinyPNG)
	require.NoError(t, err)
	assert.Len(t, result.Detections, maxLiveDetections)
}

func TestGenerateRecipes(t *testing.T) {
	canned := `[{"title":"Banana Bread","description":"Quick loaf","ingredients":["3 ripe bananas","2 cups flour"],"steps":["Mash bananas","Bake 45 min"],"carbon_savings":"saves 0.7 kg CO2e","prep_time":"15 minutes"}]`
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Success(canned, provider.Usage{})}}
	svc := newTestService(primary, &mockProvider{name: "secondary"})

	recipes, err := svc.GenerateRecipes(context.Background(), []string{"banana", " "})
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Banana Bread", recipes[0].Title)
	assert.NotEmpty(t, recipes[0].Ingredients)
	assert.NotEmpty(t, recipes[0].Steps)
}

func TestGenerateRecipesRejectsEmptyList(t *testing.T) {
	svc := newTestService(&mockProvider{name: "primary"}, &mockProvider{name: "secondary"})
	_, err := svc.GenerateRecipes(context.Background(), []string{"", "  "})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestShoppingGuidanceParsesItems(t *testing.T) {
	canned := `{"items":[{"name":"avocado","tips":["Gently press near the stem"],"avoid":"Dark sunken spots","shelfLife":"4 days"}]}`
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Success(canned, provider.Usage{})}}
	svc := newTestService(primary, &mockProvider{name: "secondary"})

	g, err := svc.ShoppingGuidance(context.Background(), []string{"avocado"})
	require.NoError(t, err)
	require.Len(t, g.Items, 1)
	assert.Equal(t, "avocado", g.Items[0].Name)
}

func TestShoppingGuidanceDegradesToGenericTips(t *testing.T) {
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Success("no json here", provider.Usage{})}}
	secondary := &mockProvider{name: "secondary", outcomes: []provider.Outcome{provider.Success("still no json", provider.Usage{})}}
	svc := newTestService(primary, secondary)

	g, err := svc.ShoppingGuidance(context.Background(), []string{"kale", "avocado"})
	require.NoError(t, err)
	require.Len(t, g.Items, 2)
	assert.Equal(t, "kale", g.Items[0].Name)
	assert.NotEmpty(t, g.Items[0].Tips)
}

func TestShoppingGuidanceFailsWhenProvidersDown(t *testing.T) {
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Transient(errors.New("down"))}}
	secondary := &mockProvider{name: "secondary", outcomes: []provider.Outcome{provider.Transient(errors.New("down"))}}
	svc := newTestService(primary, secondary)

	_, err := svc.ShoppingGuidance(context.Background(), []string{"kale"})
	assert.ErrorIs(t, err, ErrAnalysisFailed)
}

func TestShoppingGuidanceRejectsTooManyItems(t *testing.T) {
	svc := newTestService(&mockProvider{name: "primary"}, &mockProvider{name: "secondary"})
	_, err := svc.ShoppingGuidance(context.Background(), []string{"a", "b", "c", "d", "e", "f"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestTextChatRepliesWithTrimmedText(t *testing.T) {
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Success("  Try roasting the carrots.\n", provider.Usage{})}}
	svc := newTestService(primary, &mockProvider{name: "secondary"})

	reply, err := svc.TextChat(context.Background(), "what should I cook?", nil, "apple, carrot", "carrots")
	require.NoError(t, err)
	assert.Equal(t, "Try roasting the carrots.", reply)
}

func TestVoiceChatTextOnly(t *testing.T) {
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Success("Pick firm tomatoes.", provider.Usage{})}}
	svc := newTestService(primary, &mockProvider{name: "secondary"})

	result, err := svc.VoiceChat(context.Background(), VoiceChatInput{Text: "how do I pick tomatoes?"})
	require.NoError(t, err)
	assert.Equal(t, "Pick firm tomatoes.", result.Response)
	assert.Nil(t, result.WakeWordDetected)
	assert.Empty(t, result.Transcript)
}

func TestVoiceChatWakeWordNotDetected(t *testing.T) {
	// First call transcribes the audio; no second call should happen.
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{provider.Success("what's the weather like", provider.Usage{})}}
	svc := newTestService(primary, &mockProvider{name: "secondary"})

	result, err := svc.VoiceChat(context.Background(), VoiceChatInput{
		Audio:    "c29tZSBhdWRpbw==",
		MIMEType: "audio/wav",
		WakeWord: "hey chris",
	})
	require.NoError(t, err)
	require.NotNil(t, result.WakeWordDetected)
	assert.False(t, *result.WakeWordDetected)
	assert.Empty(t, result.Response)
	assert.Equal(t, "what's the weather like", result.Transcript)
	assert.Equal(t, 1, primary.calls)
}

func TestVoiceChatWakeWordDetected(t *testing.T) {
	primary := &mockProvider{name: "primary", outcomes: []provider.Outcome{
		provider.Success("Hey Chris, how do I store basil?", provider.Usage{}),
		provider.Success("Keep basil stems in water at room temperature.", provider.Usage{}),
	}}
	svc := newTestService(primary, &mockProvider{name: "secondary"})

	result, err := svc.VoiceChat(context.Background(), VoiceChatInput{
		Audio:    "c29tZSBhdWRpbw==",
		MIMEType: "audio/wav",
		WakeWord: "hey chris",
	})
	require.NoError(t, err)
	require.NotNil(t, result.WakeWordDetected)
	assert.True(t, *result.WakeWordDetected)
	assert.Equal(t, "Keep basil stems in water at room temperature.", result.Response)
	assert.Equal(t, 2, primary.calls)
}

func TestVoiceChatRequiresInput(t *testing.T) {
	svc := newTestService(&mockProvider{name: "primary"}, &mockProvider{name: "secondary"})
	_, err := svc.VoiceChat(context.Background(), VoiceChatInput{})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
