// Package shaper projects raw domain payloads to summary/standard/full
// detail levels and synthesizes a natural-language summary, as a pure
// function of (raw payload, options).
package shaper

import (
	"fmt"
	"math"

	"github.com/ryemyster/shaleyeah-toolkernel/registry"
	"github.com/ryemyster/shaleyeah-toolkernel/toolapi"
)

// Options carries everything Shape needs besides the raw payload.
type Options struct {
	Server          string
	Persona         string
	ExecutionTimeMs int64
	DetailLevel     registry.DetailLevel
	Confidence      *float64 // when set, wins over any value found in raw
}

// domainKindFor maps a server name to one of the four known domain kinds
// that have a dedicated summary whitelist and NL template. Every other
// server falls back to the generic "unknown domain" handling.
var domainKindFor = map[string]string{
	"geowiz":        "geological",
	"econobot":      "economic",
	"curve-smith":   "curve",
	"risk-analysis": "risk",
}

// Shape is the pure projection function described in §4.2.
func Shape(raw map[string]any, opts Options) toolapi.ToolResponse {
	detail := opts.DetailLevel
	if detail == "" {
		detail = registry.DetailStandard
	}
	domainKind := domainKindFor[opts.Server]

	confidence := extractConfidence(raw, domainKind, opts.Confidence)

	var data any
	switch detail {
	case registry.DetailSummary:
		data = projectSummary(raw, domainKind, confidence)
	case registry.DetailFull:
		data = raw
	default: // standard
		data = projectStandard(raw)
	}

	return toolapi.ToolResponse{
		Success:      true,
		Summary:      naturalLanguageSummary(raw, domainKind, confidence),
		Confidence:   confidence,
		Data:         data,
		DetailLevel:  detail,
		Completeness: 100,
		Metadata: toolapi.Metadata{
			Server:          opts.Server,
			Persona:         opts.Persona,
			ExecutionTimeMs: opts.ExecutionTimeMs,
		},
	}
}

func extractConfidence(raw map[string]any, domainKind string, override *float64) float64 {
	if override != nil {
		return *override
	}
	if domainKind != "" {
		if nested, ok := asMap(raw[domainKind]); ok {
			if v, ok := asFloat(nested["confidence"]); ok {
				return v
			}
		}
	}
	for _, key := range []string{"geological", "economic", "curve", "risk"} {
		if nested, ok := asMap(raw[key]); ok {
			if v, ok := asFloat(nested["confidence"]); ok {
				return v
			}
		}
	}
	if v, ok := asFloat(raw["confidence"]); ok {
		return v
	}
	return 0
}

func lookupField(raw map[string]any, domainKind, field string) (any, bool) {
	if domainKind != "" {
		if nested, ok := asMap(raw[domainKind]); ok {
			if v, ok := nested[field]; ok {
				return v, true
			}
		}
	}
	v, ok := raw[field]
	return v, ok
}

func projectSummary(raw map[string]any, domainKind string, confidence float64) map[string]any {
	out := map[string]any{}
	switch domainKind {
	case "geological":
		copyField(out, raw, domainKind, "reservoirQuality")
		copyField(out, raw, domainKind, "recommendedAction")
		copyField(out, raw, domainKind, "professionalSummary")
		copyField(out, raw, domainKind, "hydrocarbonPotential")
		copyField(out, raw, domainKind, "geologicalConfidence")
		if risks, ok := lookupField(raw, domainKind, "keyRisks"); ok {
			if list, ok := risks.([]any); ok {
				if len(list) > 3 {
					list = list[:3]
				}
				out["keyRisks"] = list
			} else {
				out["keyRisks"] = risks
			}
		}
	case "economic":
		copyField(out, raw, domainKind, "npv")
		copyField(out, raw, domainKind, "irr")
		copyField(out, raw, domainKind, "roi")
		copyField(out, raw, domainKind, "paybackMonths")
		out["confidence"] = confidence
		return out
	case "curve":
		copyField(out, raw, domainKind, "initialRate")
		copyField(out, raw, domainKind, "eur")
		copyField(out, raw, domainKind, "qualityGrade")
		out["confidence"] = confidence
		return out
	case "risk":
		copyField(out, raw, domainKind, "overallRiskScore")
		out["confidence"] = confidence
		return out
	default:
		return map[string]any{"confidence": confidence}
	}
	return out
}

func copyField(out map[string]any, raw map[string]any, domainKind, field string) {
	if v, ok := lookupField(raw, domainKind, field); ok {
		out[field] = v
	}
}

// noisyKeys are stripped entirely from a "standard" projection, wherever
// they occur (top-level or nested under a domain key).
var noisyKeys = map[string]struct{}{
	"sensitivityAnalysis": {},
	"monthlyData":         {},
	"riskFactors":         {},
}

func projectStandard(raw map[string]any) map[string]any {
	return stripNoisy(raw).(map[string]any)
}

func stripNoisy(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, val := range typed {
			if _, noisy := noisyKeys[k]; noisy {
				continue
			}
			if k == "assumptions" {
				if list, ok := val.([]any); ok && len(list) > 6 {
					continue
				}
			}
			out[k] = stripNoisy(val)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, elem := range typed {
			out[i] = stripNoisy(elem)
		}
		return out
	default:
		return v
	}
}

func naturalLanguageSummary(raw map[string]any, domainKind string, confidence float64) string {
	switch domainKind {
	case "geological":
		quality, _ := lookupField(raw, domainKind, "reservoirQuality")
		action, _ := lookupField(raw, domainKind, "recommendedAction")
		return fmt.Sprintf("%v prospect; recommended action: %v (confidence %v%%)", valOrUnknown(quality), valOrUnknown(action), formatPercent(confidence))
	case "economic":
		npv, _ := lookupField(raw, domainKind, "npv")
		irr, _ := lookupField(raw, domainKind, "irr")
		npvF, _ := asFloat(npv)
		return fmt.Sprintf("NPV $%.1fM, IRR %v%% (confidence %v%%)", npvF/1e6, valOrUnknown(irr), formatPercent(confidence))
	case "curve":
		eur, _ := lookupField(raw, domainKind, "eur")
		grade, _ := lookupField(raw, domainKind, "qualityGrade")
		eurF, _ := asFloat(eur)
		return fmt.Sprintf("EUR %vK BOE, grade %v (confidence %v%%)", int64(math.Round(eurF/1000)), valOrUnknown(grade), formatPercent(confidence))
	case "risk":
		score, _ := lookupField(raw, domainKind, "overallRiskScore")
		return fmt.Sprintf("risk score %v/100 (confidence %v%%)", valOrUnknown(score), formatPercent(confidence))
	default:
		return fmt.Sprintf("analysis complete (confidence %v%%)", formatPercent(confidence))
	}
}

func formatPercent(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

func valOrUnknown(v any) any {
	if v == nil {
		return "unknown"
	}
	return v
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
