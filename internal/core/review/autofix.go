package review

import (
	"fmt"
	"slices"
	"strings"

	"github.com/inovadocs/trade-doc-review/internal/core/domain"
)

// PlanState is the slice of session state the planner reads.
type PlanState struct {
	DocID      string
	Entities   []domain.Entity
	TextBlocks []domain.TextBlock
}

// mandatoryEntityTypes are flagged by OptionFlagMissingFields, in this order.
var mandatoryEntityTypes = []string{domain.EntityContainer, domain.EntityBLNumber, domain.EntityHSCode}

// BuildAutoPlan turns selected options into correction actions. Items follow
// the fixed option order; unknown options are ignored.
func BuildAutoPlan(selected []domain.AutoFixOption, state PlanState) []domain.AutoPlanItem {
	plan := []domain.AutoPlanItem{}
	if state.DocID == "" {
		return plan
	}

	for _, option := range domain.AutoFixOptions {
		if !slices.Contains(selected, option) {
			continue
		}
		plan = append(plan, planItem(option, state))
	}
	return plan
}

func planItem(option domain.AutoFixOption, state PlanState) domain.AutoPlanItem {
	item := domain.AutoPlanItem{Option: option}
	switch option {
	case domain.OptionNormalizeAmounts:
		item.Label = "Normalización de montos"
		item.Detail = "Se convertirán todos los valores numéricos al formato 12345.67."
	case domain.OptionEnsureIncoterm:
		item.Label = "Confirmación de INCOTERM"
		if incoterm, ok := findEntity(state.Entities, domain.EntityIncoterm); ok {
			item.Detail = fmt.Sprintf("Se reforzará el INCOTERM %s en cabecera y pie.", incoterm.Value)
		} else {
			item.Detail = "Se solicitará ingresar el INCOTERM manualmente."
		}
	case domain.OptionFlagMissingFields:
		item.Label = "Campos obligatorios"
		missing := missingEntityTypes(state.Entities, mandatoryEntityTypes)
		if len(missing) > 0 {
			item.Detail = fmt.Sprintf("Se marcarán como obligatorios: %s.", strings.Join(missing, ", "))
		} else {
			item.Detail = "Todos los campos obligatorios están presentes."
		}
	case domain.OptionLanguageConsistency:
		item.Label = "Unificación de idioma"
		item.Detail = "Las observaciones del informe se traducirán al español neutro."
	}
	return item
}

// RecomputeAutoPlan re-derives a plan against fresh document data using the
// option keys carried by the previous plan. Items without a known key are dropped.
func RecomputeAutoPlan(
	previous []domain.AutoPlanItem,
	detail *domain.DocumentDetail,
	entities []domain.Entity,
	textBlocks []domain.TextBlock,
) []domain.AutoPlanItem {
	if len(previous) == 0 {
		if previous == nil {
			return []domain.AutoPlanItem{}
		}
		return previous
	}

	state := PlanState{
		Entities:   entities,
		TextBlocks: textBlocks,
	}
	if detail != nil {
		state.DocID = detail.ID
	}

	selected := make([]domain.AutoFixOption, 0, len(previous))
	for _, item := range previous {
		if item.Option.Valid() {
			selected = append(selected, item.Option)
		}
	}
	return BuildAutoPlan(selected, state)
}

// ParseAutoFixOptions converts client-supplied keys, dropping unknown ones and
// duplicates.
func ParseAutoFixOptions(raw []string) []domain.AutoFixOption {
	out := make([]domain.AutoFixOption, 0, len(raw))
	for _, value := range raw {
		option := domain.AutoFixOption(strings.TrimSpace(value))
		if !option.Valid() || slices.Contains(out, option) {
			continue
		}
		out = append(out, option)
	}
	return out
}

func findEntity(entities []domain.Entity, entityType string) (domain.Entity, bool) {
	for _, entity := range entities {
		if entity.Type == entityType {
			return entity, true
		}
	}
	return domain.Entity{}, false
}

func missingEntityTypes(entities []domain.Entity, required []string) []string {
	present := entityTypeSet(entities)
	missing := make([]string, 0, len(required))
	for _, entityType := range required {
		if _, ok := present[entityType]; !ok {
			missing = append(missing, entityType)
		}
	}
	return missing
}
