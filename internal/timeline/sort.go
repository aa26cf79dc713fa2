package timeline

import (
	"sort"

	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/notation"
	"github.com/zatekoja/eyetimeline/backend/pkg/utils"
)

// SortVisits returns copies of the dated visits in ascending date order with Date
// rewritten to ISO form. Visits whose date cannot be normalized are dropped. Ties are
// broken by visit number, then by arrival order. The input is not modified.
func SortVisits(visits []entities.Visit) []entities.Visit {
	sorted := make([]entities.Visit, 0, len(visits))
	for _, v := range visits {
		iso := notation.NormalizeDate(v.Date)
		if iso == "" {
			continue
		}
		v.Date = iso
		sorted = append(sorted, v)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].VisitNo < sorted[j].VisitNo
	})
	return sorted
}

// RefreshMetadata recomputes the informational visit count and first/last dates
// from the visit list itself
func RefreshMetadata(record *entities.PatientRecord) {
	if record == nil {
		return
	}
	record.VisitCount = len(record.Visits)
	record.FirstVisit, record.LastVisit = "", ""
	if sorted := SortVisits(record.Visits); len(sorted) > 0 {
		record.FirstVisit = sorted[0].Date
		record.LastVisit = sorted[len(sorted)-1].Date
	}
}

// sortedRecord is a shallow copy of record with its visits date-sorted
func sortedRecord(record *entities.PatientRecord) *entities.PatientRecord {
	if record == nil {
		return &entities.PatientRecord{}
	}
	cp := *record
	cp.Visits = SortVisits(record.Visits)
	return &cp
}

// NormalizeValue canonicalizes a finding for use as an interval key
func NormalizeValue(raw string) string {
	return utils.NormalizeFinding(raw)
}

func sortIntervals(intervals []entities.Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		if intervals[i].Start != intervals[j].Start {
			return intervals[i].Start < intervals[j].Start
		}
		return intervals[i].Task < intervals[j].Task
	})
}
