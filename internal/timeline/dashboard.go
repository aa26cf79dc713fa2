package timeline

import (
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/procedures"
)

// BuildDashboard assembles every derived view for one patient and eye. palette should
// be private to this patient; a nil palette gets a fresh default one.
func BuildDashboard(record *entities.PatientRecord, eye entities.EyeSelector, palette *procedures.Palette) entities.Dashboard {
	if palette == nil {
		palette = procedures.NewPalette()
	}
	sorted := sortedRecord(record)

	series := ExtractSeries(sorted, eye, palette)
	series.SortByDate()

	observations := make(map[string][]entities.Interval, len(categories))
	for _, c := range categories {
		observations[c.Key] = BuildIntervals(sorted, c.Key, eye)
	}

	return entities.Dashboard{
		PatientUID:   sorted.UID,
		MRNo:         sorted.MRNo,
		Eye:          eye,
		Series:       series,
		Observations: observations,
		Diagnoses:    BuildDiagnosisIntervals(sorted, eye),
		Medications:  BuildMedicationIntervals(sorted, eye),
		Procedures:   procedures.Extract(sorted, eye),
		Diseases:     Summarize(sorted, eye),
		Notes:        BuildNotes(sorted),
	}
}
