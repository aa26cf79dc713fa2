package procedures

import (
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/pkg/utils"
)

// Shape identifies which procedure encoding a visit uses
type Shape int

const (
	ShapeNone Shape = iota
	ShapeLegacy
	ShapeCurrent
)

func (s Shape) String() string {
	switch s {
	case ShapeLegacy:
		return "legacy"
	case ShapeCurrent:
		return "current"
	}
	return "none"
}

// Procedure is one categorized procedure performed on a visit
type Procedure struct {
	Category entities.ProcedureCategory `json:"category"`
	Name     string                     `json:"name"`
}

// DetectShape inspects a single visit's block. Any of the three structured
// categories marks it current, whatever else is present.
func DetectShape(block *entities.ProcedureBlock) Shape {
	if block == nil {
		return ShapeNone
	}
	if block.Injections != nil || block.Lasers != nil || block.Surgeries != nil {
		return ShapeCurrent
	}
	if block.ActualProcedures != nil || block.AdvisedProcedures != nil {
		return ShapeLegacy
	}
	return ShapeNone
}

// VisitProcedures returns the procedures performed on one visit for an eye.
// Names are unique within the returned list; placeholders are removed.
func VisitProcedures(visit entities.Visit, eye entities.EyeSelector) []Procedure {
	block := visit.Procedures
	switch DetectShape(block) {
	case ShapeCurrent:
		return currentProcedures(block, eye)
	case ShapeLegacy:
		return legacyProcedures(block, eye)
	}
	return nil
}

// eyeSlots lists the slots an eye reads; both eyes reads every slot
func eyeSlots(eye entities.EyeSelector) []int {
	if eye == entities.EyeBoth {
		return []int{entities.SlotRight, entities.SlotLeft, entities.SlotBoth}
	}
	return []int{eye.Slot()}
}

func legacyProcedures(block *entities.ProcedureBlock, eye entities.EyeSelector) []Procedure {
	if block.ActualProcedures == nil {
		return nil
	}

	var out []Procedure
	seen := make(map[string]bool)
	for _, slot := range eyeSlots(eye) {
		names, _ := block.ActualProcedures.Slot(slot)
		for _, raw := range names {
			name := utils.NormalizeFinding(raw)
			if IsPlaceholder(name) || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, Procedure{Category: Classify(name), Name: name})
		}
	}
	return out
}

func currentProcedures(block *entities.ProcedureBlock, eye entities.EyeSelector) []Procedure {
	groups := []struct {
		items    *entities.EyeProcedureItems
		category entities.ProcedureCategory
	}{
		{block.Injections, entities.ProcedureCategoryInjection},
		{block.Lasers, entities.ProcedureCategoryLaser},
		{block.Surgeries, entities.ProcedureCategorySurgery},
	}

	var out []Procedure
	for _, g := range groups {
		seen := make(map[string]bool)
		for _, slot := range eyeSlots(eye) {
			for _, item := range g.items.Slot(slot) {
				name := displayName(item)
				if IsPlaceholder(name) || seen[name] {
					continue
				}
				seen[name] = true
				out = append(out, Procedure{
					Category: parseCategory(item.Category, g.category),
					Name:     name,
				})
			}
		}
	}
	return out
}

// displayName appends the sub-type in parentheses when one is recorded
func displayName(item entities.ProcedureItem) string {
	name := utils.NormalizeFinding(item.Name)
	subType := utils.NormalizeFinding(item.SubType)
	if name == "" || subType == "" {
		return name
	}
	return name + " (" + subType + ")"
}
