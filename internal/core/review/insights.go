// Package review holds the pure compliance and summarization engine. Every
// function here is total: malformed optional input degrades to defaults.
package review

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inovadocs/trade-doc-review/internal/core/domain"
)

const (
	defaultComplianceTitle = "Regla documental"
	defaultSpellTitle      = "Ortografía"
	defaultSpellField      = "texto"
)

// NormalizeInsights coerces a backend insights payload into the canonical
// shape. raw may be decoded JSON, raw JSON bytes or an Insights value.
func NormalizeInsights(raw any) domain.Insights {
	switch v := raw.(type) {
	case nil:
		return domain.EmptyInsights()
	case domain.Insights:
		return canonicalInsights(v)
	case *domain.Insights:
		if v == nil {
			return domain.EmptyInsights()
		}
		return canonicalInsights(*v)
	case json.RawMessage:
		return normalizeInsightsJSON(v)
	case []byte:
		return normalizeInsightsJSON(v)
	case map[string]any:
		return domain.Insights{
			Compliance:      normalizeItems(v["compliance"], defaultComplianceTitle, nil),
			Spellcheck:      normalizeItems(v["spellcheck"], defaultSpellTitle, stringPtr(defaultSpellField)),
			Recommendations: normalizeRecommendations(v["recommendations"]),
		}
	default:
		return domain.EmptyInsights()
	}
}

func normalizeInsightsJSON(data []byte) domain.Insights {
	if len(data) == 0 {
		return domain.EmptyInsights()
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return domain.EmptyInsights()
	}
	if _, ok := decoded.(map[string]any); !ok {
		return domain.EmptyInsights()
	}
	return NormalizeInsights(decoded)
}

func canonicalInsights(in domain.Insights) domain.Insights {
	out := domain.EmptyInsights()
	for _, item := range in.Compliance {
		out.Compliance = append(out.Compliance, defaultItem(item, defaultComplianceTitle, nil))
	}
	for _, item := range in.Spellcheck {
		out.Spellcheck = append(out.Spellcheck, defaultItem(item, defaultSpellTitle, stringPtr(defaultSpellField)))
	}
	for _, rec := range in.Recommendations {
		if strings.TrimSpace(rec) != "" {
			out.Recommendations = append(out.Recommendations, rec)
		}
	}
	return out
}

func defaultItem(item domain.InsightItem, title string, field *string) domain.InsightItem {
	if _, ok := domain.ParseSeverity(string(item.Severity)); !ok {
		item.Severity = domain.SeverityWarning
	}
	if item.Title == "" {
		item.Title = title
	}
	if item.Field == nil {
		item.Field = clonePtr(field)
	}
	return item
}

func normalizeItems(raw any, title string, field *string) []domain.InsightItem {
	out := []domain.InsightItem{}
	entries, ok := raw.([]any)
	if !ok {
		return out
	}
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		obj, _ := entry.(map[string]any)
		item := domain.InsightItem{
			Severity: coerceSeverity(obj["severity"]),
			Title:    stringOr(obj["title"], title),
			Detail:   stringOr(obj["detail"], ""),
			Field:    clonePtr(field),
		}
		if v, present := obj["field"]; present && v != nil {
			item.Field = stringPtr(stringify(v))
		}
		out = append(out, item)
	}
	return out
}

func normalizeRecommendations(raw any) []string {
	out := []string{}
	entries, ok := raw.([]any)
	if !ok {
		return out
	}
	for _, entry := range entries {
		text := stringify(entry)
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, text)
	}
	return out
}

func coerceSeverity(v any) domain.Severity {
	s, ok := v.(string)
	if !ok {
		return domain.SeverityWarning
	}
	if severity, ok := domain.ParseSeverity(s); ok {
		return severity
	}
	return domain.SeverityWarning
}

func stringOr(v any, fallback string) string {
	if v == nil {
		return fallback
	}
	return stringify(v)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, bool, json.Number:
		return fmt.Sprint(t)
	default:
		encoded, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(encoded)
	}
}

func stringPtr(s string) *string {
	return &s
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	return stringPtr(*s)
}
