package shaper_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ryemyster/shaleyeah-toolkernel/registry"
	"github.com/ryemyster/shaleyeah-toolkernel/shaper"
)

func geologicalPayload() map[string]any {
	return map[string]any{
		"geological": map[string]any{
			"reservoirQuality":     "excellent",
			"recommendedAction":    "proceed to drilling",
			"professionalSummary":  "Strong Wolfcamp analog, thick net pay.",
			"hydrocarbonPotential": "high",
			"geologicalConfidence": 0.91,
			"keyRisks":             []any{"faulting", "thin pay zone", "water contact", "offset depletion"},
			"confidence":           87.0,
		},
	}
}

func TestShapeSummaryGeologicalCapsKeyRisks(t *testing.T) {
	resp := shaper.Shape(geologicalPayload(), shaper.Options{
		Server:      "geowiz",
		DetailLevel: registry.DetailSummary,
	})
	require.Equal(t, 87.0, resp.Confidence)
	data := resp.Data.(map[string]any)
	require.Equal(t, "excellent", data["reservoirQuality"])
	require.Len(t, data["keyRisks"], 3)
	require.Contains(t, resp.Summary, "excellent")
	require.Contains(t, resp.Summary, "proceed to drilling")
}

func TestShapeEconomicSummary(t *testing.T) {
	raw := map[string]any{
		"economic": map[string]any{
			"npv":           12_500_000.0,
			"irr":           22.5,
			"roi":           1.8,
			"paybackMonths": 34,
			"confidence":    72.0,
		},
	}
	resp := shaper.Shape(raw, shaper.Options{Server: "econobot", DetailLevel: registry.DetailSummary})
	data := resp.Data.(map[string]any)
	require.Equal(t, 12_500_000.0, data["npv"])
	require.NotContains(t, data, "assumptions")
	require.Contains(t, resp.Summary, "NPV $12.5M")
}

func TestShapeStandardStripsNoisyFieldsAndLongAssumptions(t *testing.T) {
	raw := map[string]any{
		"economic": map[string]any{
			"npv":                 1_000_000.0,
			"sensitivityAnalysis":  map[string]any{"oilPrice": []any{1, 2, 3}},
			"monthlyData":          []any{1, 2, 3},
			"assumptions":          []any{"a", "b", "c", "d", "e", "f", "g"},
			"confidence":           50.0,
		},
	}
	resp := shaper.Shape(raw, shaper.Options{Server: "econobot", DetailLevel: registry.DetailStandard})
	data := resp.Data.(map[string]any)
	economic := data["economic"].(map[string]any)
	require.NotContains(t, economic, "sensitivityAnalysis")
	require.NotContains(t, economic, "monthlyData")
	require.NotContains(t, economic, "assumptions")
	require.Equal(t, 1_000_000.0, economic["npv"])
}

func TestShapeStandardKeepsShortAssumptions(t *testing.T) {
	raw := map[string]any{
		"economic": map[string]any{
			"npv":         1_000_000.0,
			"assumptions": []any{"a", "b"},
			"confidence":  50.0,
		},
	}
	resp := shaper.Shape(raw, shaper.Options{Server: "econobot", DetailLevel: registry.DetailStandard})
	data := resp.Data.(map[string]any)
	economic := data["economic"].(map[string]any)
	require.Contains(t, economic, "assumptions")
}

func TestShapeFullReturnsRawVerbatim(t *testing.T) {
	raw := geologicalPayload()
	resp := shaper.Shape(raw, shaper.Options{Server: "geowiz", DetailLevel: registry.DetailFull})
	require.Equal(t, raw, resp.Data)
}

func TestShapeDefaultsToStandardDetailLevel(t *testing.T) {
	resp := shaper.Shape(geologicalPayload(), shaper.Options{Server: "geowiz"})
	require.Equal(t, registry.DetailStandard, resp.DetailLevel)
}

func TestShapeUnknownDomainEchoesConfidenceOnly(t *testing.T) {
	raw := map[string]any{"title": map[string]any{"confidence": 60.0, "chainClear": true}}
	resp := shaper.Shape(raw, shaper.Options{Server: "title", DetailLevel: registry.DetailSummary})
	require.Equal(t, map[string]any{"confidence": 0.0}, resp.Data)
	require.Equal(t, 0.0, resp.Confidence)
}

func TestShapeConfidenceOverrideWins(t *testing.T) {
	override := 99.0
	resp := shaper.Shape(geologicalPayload(), shaper.Options{Server: "geowiz", Confidence: &override})
	require.Equal(t, 99.0, resp.Confidence)
}
