package review

import (
	"fmt"
	"math"
	"strings"

	"github.com/goodsign/monday"

	"github.com/inovadocs/trade-doc-review/internal/core/domain"
)

const (
	summaryMaxSentences = 3
	summaryMaxLength    = 520
	snippetLimit        = 420
	snippetKeep         = 417

	notAvailable   = "N/D"
	noFindingsText = "No se detectaron incidencias en las reglas evaluadas."

	// Medium date plus short time, rendered with Spanish month names.
	dateLayout = "2 Jan 2006, 15:04"
)

// DefaultSummaryViewOptions caps the view summary at 3 sentences and 520 code points.
func DefaultSummaryViewOptions() SummaryOptions {
	return SummaryOptions{
		MaxSentences: summaryMaxSentences,
		MaxLength:    summaryMaxLength,
		Scoring:      DefaultScoring(),
	}
}

// BuildSummary composes the presentation view model of a session.
func BuildSummary(session domain.Session, opts SummaryOptions) domain.SummaryView {
	if opts.MaxSentences <= 0 {
		opts.MaxSentences = summaryMaxSentences
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = summaryMaxLength
	}

	fullText := joinBlocks(session.TextBlocks)
	return domain.SummaryView{
		Meta:        buildMeta(session),
		Findings:    renderFindings(session.Compliance),
		Adjustments: renderAdjustments(session),
		Keywords:    renderKeywords(session.Keywords),
		TextSnippet: truncateAt(fullText, snippetLimit, snippetKeep),
		TextSummary: SummarizeText(fullText, session.Keywords, opts),
	}
}

func buildMeta(session domain.Session) []domain.MetaField {
	detail := session.Detail
	if detail == nil {
		detail = &domain.DocumentDetail{}
	}

	updated := session.LastUpdatedAt
	if updated.IsZero() {
		updated = detail.UpdatedAt
	}

	return []domain.MetaField{
		{Label: "ID", Value: orDefault(detail.ID, notAvailable)},
		{Label: "Estado", Value: orDefault(string(detail.Status), "sin estado")},
		{Label: "Tipo", Value: FormatDocTypeLabel(detail.DocType)},
		{Label: "Idioma detectado", Value: orDefault(detail.LanguageDetected, "No disponible")},
		{Label: "Última actualización", Value: FormatDate(updated)},
	}
}

// FormatDocTypeLabel maps a document kind to its label, falling back to the
// raw value and then to "No especificado".
func FormatDocTypeLabel(docType domain.DocType) string {
	if docType == "" {
		return "No especificado"
	}
	return docType.Label()
}

// FormatDate renders a timestamp in Spanish. Missing values render as N/D and
// unparseable ones verbatim.
func FormatDate(ts *domain.Timestamp) string {
	if ts.IsZero() {
		return notAvailable
	}
	if ts.Time.IsZero() {
		return ts.Raw
	}
	return monday.Format(ts.Time, dateLayout, monday.LocaleEsES)
}

func renderFindings(findings []domain.ComplianceFinding) []string {
	if len(findings) == 0 {
		return []string{noFindingsText}
	}
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, fmt.Sprintf("%s: %s", f.Title, f.Detail))
	}
	return out
}

func renderAdjustments(session domain.Session) []string {
	out := []string{}
	if !session.AutoApplied {
		return out
	}
	for _, item := range session.AutoPlan {
		out = append(out, fmt.Sprintf("%s → %s", item.Label, item.Detail))
	}
	return out
}

func renderKeywords(keywords []domain.Keyword) []domain.KeywordView {
	out := make([]domain.KeywordView, 0, len(keywords))
	for _, kw := range keywords {
		if strings.TrimSpace(kw.Keyword) == "" {
			continue
		}
		view := domain.KeywordView{Keyword: kw.Keyword}
		if kw.Score != nil && isFinite(*kw.Score) {
			pct := int(math.Floor(*kw.Score*100 + 0.5))
			view.Score = &pct
		}
		out = append(out, view)
	}
	return out
}

func joinBlocks(blocks []domain.TextBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return collapseWhitespace(strings.Join(parts, " "))
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
