package review

import (
	"fmt"
	"slices"
	"strings"

	"github.com/inovadocs/trade-doc-review/internal/core/domain"
)

const manualEntryDetail = "Revisa el documento e ingresa el dato manualmente."

// requiredEntityRule demands an entity type for a set of document kinds.
type requiredEntityRule struct {
	docTypes   []domain.DocType
	entityType string
	title      string
}

// Evaluated in order; the order of emitted findings follows this table.
var requiredEntityRules = []requiredEntityRule{
	{
		docTypes:   []domain.DocType{domain.DocTypeFacturaComercial, domain.DocTypeDUS},
		entityType: domain.EntityIncoterm,
		title:      "INCOTERM faltante",
	},
	{
		docTypes:   []domain.DocType{domain.DocTypeFacturaComercial, domain.DocTypeDUS},
		entityType: domain.EntityAmount,
		title:      "Monto sin identificar",
	},
	{
		docTypes:   []domain.DocType{domain.DocTypeFacturaComercial, domain.DocTypeDUS, domain.DocTypePackingList},
		entityType: domain.EntityHSCode,
		title:      "HS Code no detectado",
	},
	{
		docTypes:   []domain.DocType{domain.DocTypePackingList, domain.DocTypeBL, domain.DocTypeDUS},
		entityType: domain.EntityContainer,
		title:      "Número de contenedor sin detectar",
	},
	{
		docTypes:   []domain.DocType{domain.DocTypeBL},
		entityType: domain.EntityBLNumber,
		title:      "Número BL ausente",
	},
}

// incotermDocTypes are the kinds whose detected INCOTERM is cross-checked
// against the OCR text.
var incotermDocTypes = []domain.DocType{domain.DocTypeFacturaComercial, domain.DocTypeDUS}

// Only FOB is corroborated; other incoterms always raise the warning.
const incotermToken = "fob"

// ComputeCompliance evaluates the rule table against a document and merges
// the result after the backend-sourced findings. A nil detail yields no findings.
func ComputeCompliance(
	detail *domain.DocumentDetail,
	textBlocks []domain.TextBlock,
	entities []domain.Entity,
	insights any,
) []domain.ComplianceFinding {
	findings := []domain.ComplianceFinding{}
	if detail == nil {
		return findings
	}

	for _, item := range NormalizeInsights(insights).Compliance {
		findings = append(findings, domain.ComplianceFinding{
			Severity: item.Severity,
			Title:    item.Title,
			Detail:   item.Detail,
		})
	}

	status := detail.Status
	if status == "" {
		status = domain.StatusProcessing
	}
	if status != domain.StatusDone {
		findings = append(findings, domain.ComplianceFinding{
			Severity: domain.SeverityWarning,
			Title:    "Procesamiento incompleto",
			Detail:   fmt.Sprintf(`El backend aún marca el documento como "%s".`, status),
		})
	}

	text := lowerText(textBlocks)
	entityTypes := entityTypeSet(entities)

	for _, rule := range requiredEntityRules {
		if !slices.Contains(rule.docTypes, detail.DocType) {
			continue
		}
		if _, ok := entityTypes[rule.entityType]; ok {
			continue
		}
		findings = append(findings, domain.ComplianceFinding{
			Severity: domain.SeverityError,
			Title:    rule.title,
			Detail:   manualEntryDetail,
		})
	}

	if _, hasIncoterm := entityTypes[domain.EntityIncoterm]; hasIncoterm &&
		slices.Contains(incotermDocTypes, detail.DocType) &&
		!strings.Contains(text, incotermToken) {
		findings = append(findings, domain.ComplianceFinding{
			Severity: domain.SeverityWarning,
			Title:    "INCOTERM inconsistente",
			Detail:   "El texto OCR no menciona el INCOTERM detectado.",
		})
	}

	if detail.DocType == "" {
		findings = append(findings, domain.ComplianceFinding{
			Severity: domain.SeverityWarning,
			Title:    "Tipo de documento vacío",
			Detail:   "Asigna un tipo para aplicar las reglas correctas.",
		})
	}

	return findings
}

func lowerText(blocks []domain.TextBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		parts = append(parts, block.Text)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func entityTypeSet(entities []domain.Entity) map[string]struct{} {
	out := make(map[string]struct{}, len(entities))
	for _, entity := range entities {
		out[entity.Type] = struct{}{}
	}
	return out
}
