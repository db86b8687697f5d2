package domain

import "time"

type Severity string

const (
	SeverityOK      Severity = "ok"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func ParseSeverity(raw string) (Severity, bool) {
	switch s := Severity(raw); s {
	case SeverityOK, SeverityInfo, SeverityWarning, SeverityError:
		return s, true
	default:
		return "", false
	}
}

// InsightItem is a model-provided annotation, either a compliance note or a
// spelling issue.
type InsightItem struct {
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Detail   string   `json:"detail"`
	Field    *string  `json:"field"`
}

type Insights struct {
	Compliance      []InsightItem `json:"compliance"`
	Spellcheck      []InsightItem `json:"spellcheck"`
	Recommendations []string      `json:"recommendations"`
}

func EmptyInsights() Insights {
	return Insights{
		Compliance:      []InsightItem{},
		Spellcheck:      []InsightItem{},
		Recommendations: []string{},
	}
}

type ComplianceFinding struct {
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Detail   string   `json:"detail"`
}

// Headline returns the finding callers surface as the most critical issue.
func Headline(findings []ComplianceFinding) (ComplianceFinding, bool) {
	if len(findings) == 0 {
		return ComplianceFinding{}, false
	}
	return findings[0], true
}

func CountBySeverity(findings []ComplianceFinding) map[Severity]int {
	out := make(map[Severity]int, 4)
	for _, f := range findings {
		out[f.Severity]++
	}
	return out
}

type AutoFixOption string

const (
	OptionNormalizeAmounts    AutoFixOption = "normalize_amounts"
	OptionEnsureIncoterm      AutoFixOption = "ensure_incoterm"
	OptionFlagMissingFields   AutoFixOption = "flag_missing_fields"
	OptionLanguageConsistency AutoFixOption = "language_consistency"
)

// AutoFixOptions lists every option in plan order.
var AutoFixOptions = []AutoFixOption{
	OptionNormalizeAmounts,
	OptionEnsureIncoterm,
	OptionFlagMissingFields,
	OptionLanguageConsistency,
}

func (o AutoFixOption) Valid() bool {
	for _, known := range AutoFixOptions {
		if o == known {
			return true
		}
	}
	return false
}

// AutoPlanItem keeps the option that produced it so a plan can be re-derived
// without parsing its label.
type AutoPlanItem struct {
	Option AutoFixOption `json:"optionKey"`
	Label  string        `json:"label"`
	Detail string        `json:"detail"`
}

type ReportDocument struct {
	ID               string         `json:"id"`
	Status           DocumentStatus `json:"status"`
	Type             DocType        `json:"type,omitempty"`
	LanguageDetected string         `json:"languageDetected,omitempty"`
	CreatedAt        *Timestamp     `json:"createdAt,omitempty"`
	UpdatedAt        *Timestamp     `json:"updatedAt,omitempty"`
}

type ReportAdjustment struct {
	Label  string `json:"label"`
	Detail string `json:"detail"`
}

type Report struct {
	GeneratedAt     time.Time           `json:"generatedAt"`
	Document        ReportDocument      `json:"document"`
	Compliance      []ComplianceFinding `json:"compliance"`
	Adjustments     []ReportAdjustment  `json:"adjustments"`
	Spellcheck      []InsightItem       `json:"spellcheck"`
	Recommendations []string            `json:"recommendations"`
}

type MetaField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type KeywordView struct {
	Keyword string `json:"keyword"`
	Score   *int   `json:"score"`
}

type SummaryView struct {
	Meta        []MetaField   `json:"meta"`
	Findings    []string      `json:"findings"`
	Adjustments []string      `json:"adjustments"`
	Keywords    []KeywordView `json:"keywords"`
	TextSnippet string        `json:"textSnippet"`
	TextSummary string        `json:"textSummary"`
}

// Session is the workflow state of one document. Stored sessions are replaced
// wholesale, never mutated in place.
type Session struct {
	DocID         string              `json:"docId"`
	Status        DocumentStatus      `json:"status"`
	StatusMessage string              `json:"statusMessage"`
	Detail        *DocumentDetail     `json:"detail"`
	TextBlocks    []TextBlock         `json:"textBlocks"`
	Entities      []Entity            `json:"entities"`
	Keywords      []Keyword           `json:"keywords"`
	Compliance    []ComplianceFinding `json:"compliance"`
	Insights      Insights            `json:"insights"`
	AutoPlan      []AutoPlanItem      `json:"autoPlan"`
	AutoApplied   bool                `json:"autoApplied"`
	Report        *Report             `json:"report"`
	LastError     string              `json:"lastError,omitempty"`
	LastUpdatedAt *Timestamp          `json:"lastUpdatedAt,omitempty"`
}

func NewSession(docID string) Session {
	return Session{
		DocID:      docID,
		Status:     StatusIdle,
		TextBlocks: []TextBlock{},
		Entities:   []Entity{},
		Keywords:   []Keyword{},
		Compliance: []ComplianceFinding{},
		Insights:   EmptyInsights(),
		AutoPlan:   []AutoPlanItem{},
	}
}

type Evaluation struct {
	Compliance []ComplianceFinding `json:"compliance"`
	Insights   Insights            `json:"insights"`
	AutoPlan   []AutoPlanItem      `json:"autoPlan"`
	Report     *Report             `json:"report,omitempty"`
	Summary    SummaryView         `json:"summary"`
}

type ExportedReport struct {
	Filename string `json:"filename"`
	Body     []byte `json:"-"`
}

type ReviewCompletedEvent struct {
	EventID     string             `json:"eventId"`
	DocID       string             `json:"docId"`
	DocType     DocType            `json:"docType,omitempty"`
	Findings    int                `json:"findings"`
	Errors      int                `json:"errors"`
	Warnings    int                `json:"warnings"`
	Headline    *ComplianceFinding `json:"headline,omitempty"`
	ReportKey   string             `json:"reportKey"`
	GeneratedAt time.Time          `json:"generatedAt"`
}
