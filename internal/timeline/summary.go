package timeline

import (
	"strings"

	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/notation"
)

// Summarize deduplicates diagnoses across the history for eye, counting the visits
// each appears on. Results are ordered by first appearance.
func Summarize(record *entities.PatientRecord, eye entities.EyeSelector) []entities.DiseaseSummary {
	out := []entities.DiseaseSummary{}
	if record == nil {
		return out
	}

	index := make(map[string]int)
	for _, v := range SortVisits(record.Visits) {
		names, _ := diagnosisSet(&v, eye)
		for _, name := range names {
			if i, ok := index[name]; ok {
				out[i].VisitCount++
				out[i].LastSeen = v.Date
				continue
			}
			index[name] = len(out)
			out = append(out, entities.DiseaseSummary{
				Name:       name,
				VisitCount: 1,
				FirstSeen:  v.Date,
				LastSeen:   v.Date,
			})
		}
	}
	return out
}

// BuildNotes lists the free-text commentary of every visit that has any, oldest first
func BuildNotes(record *entities.PatientRecord) []entities.ClinicalNote {
	notes := []entities.ClinicalNote{}
	if record == nil {
		return notes
	}

	for _, v := range SortVisits(record.Visits) {
		note := entities.ClinicalNote{
			Date:             v.Date,
			DisplayDate:      notation.FormatDate(v.Date),
			ConsultationType: strings.TrimSpace(v.ConsultationType.String()),
			FollowUp:         strings.TrimSpace(v.FollowUp.String()),
			SystemicHistory:  strings.TrimSpace(v.SystemicHistory.String()),
			Opinion:          strings.TrimSpace(v.Opinion.String()),
		}
		if note.FollowUp == "" && note.SystemicHistory == "" && note.Opinion == "" {
			continue
		}
		notes = append(notes, note)
	}
	return notes
}
