package procedures

import (
	"fmt"

	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
)

// Extract counts every procedure across the visit history for an eye. Shapes are
// detected per visit. Summaries keep the order in which names first appear in
// record.Visits; callers wanting chronological order pass a date-sorted record.
func Extract(record *entities.PatientRecord, eye entities.EyeSelector) []entities.ProcedureSummary {
	if record == nil {
		return []entities.ProcedureSummary{}
	}

	summaries := []entities.ProcedureSummary{}
	index := make(map[string]int)
	for _, visit := range record.Visits {
		for _, p := range VisitProcedures(visit, eye) {
			if i, ok := index[p.Name]; ok {
				summaries[i].Count++
				continue
			}
			index[p.Name] = len(summaries)
			summaries = append(summaries, entities.ProcedureSummary{
				Category: p.Category,
				Name:     p.Name,
				Count:    1,
			})
		}
	}

	for i := range summaries {
		summaries[i].Label = Label(summaries[i].Name, summaries[i].Count)
	}
	return summaries
}

// Label renders a procedure name with its occurrence count when repeated
func Label(name string, count int) string {
	if count > 1 {
		return fmt.Sprintf("%s (%dx)", name, count)
	}
	return name
}
