package review

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/inovadocs/trade-doc-review/internal/core/domain"
)

const (
	DefaultReportPrefix = "inova-docs"
	reportPlaceholderID = "documento"
)

// now stamps generated reports; tests replace it.
var now = func() time.Time { return time.Now().UTC() }

// BuildReport assembles the exportable report. It returns nil without a
// document detail. Every call stamps a fresh GeneratedAt.
func BuildReport(
	detail *domain.DocumentDetail,
	compliance []domain.ComplianceFinding,
	autoPlan []domain.AutoPlanItem,
	insights any,
) *domain.Report {
	if detail == nil {
		return nil
	}
	normalized := NormalizeInsights(insights)

	findings := make([]domain.ComplianceFinding, 0, len(compliance))
	for _, item := range compliance {
		findings = append(findings, domain.ComplianceFinding{
			Severity: item.Severity,
			Title:    item.Title,
			Detail:   item.Detail,
		})
	}

	adjustments := make([]domain.ReportAdjustment, 0, len(autoPlan))
	for _, item := range autoPlan {
		adjustments = append(adjustments, domain.ReportAdjustment{Label: item.Label, Detail: item.Detail})
	}

	return &domain.Report{
		GeneratedAt: now(),
		Document: domain.ReportDocument{
			ID:               detail.ID,
			Status:           detail.Status,
			Type:             detail.DocType,
			LanguageDetected: detail.LanguageDetected,
			CreatedAt:        detail.CreatedAt,
			UpdatedAt:        detail.UpdatedAt,
		},
		Compliance:      findings,
		Adjustments:     adjustments,
		Spellcheck:      normalized.Spellcheck,
		Recommendations: normalized.Recommendations,
	}
}

// MarshalReport renders the report as the pretty-printed download body.
func MarshalReport(report *domain.Report) ([]byte, error) {
	if report == nil {
		return nil, domain.WrapError(domain.ErrReportNotReady, "marshal report", fmt.Errorf("report is nil"))
	}
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(body, '\n'), nil
}

// ReportFilename names the download as <prefix>-<docID>.json.
func ReportFilename(prefix, docID string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultReportPrefix
	}
	id := sanitizeFilename(docID)
	if id == "" {
		id = reportPlaceholderID
	}
	return fmt.Sprintf("%s-%s.json", sanitizeFilename(prefix), id)
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	base = strings.ReplaceAll(base, " ", "_")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}
