// Package timeline derives date-ordered views from a patient's visit history: merged
// observation intervals, diagnosis and medication spans, and numeric series.
package timeline

import (
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
)

// BuildIntervals merges the visit history for one category into intervals. The
// diagnosis and medication keys use their set-based algorithms; any other unknown
// key yields an empty list.
//
// A later run of a value already seen extends that value's interval instead of adding
// a second one, so [A, A, "", A] produces a single interval from the first to the last
// A.
func BuildIntervals(record *entities.PatientRecord, key string, eye entities.EyeSelector) []entities.Interval {
	switch key {
	case KeyDiagnosis:
		return BuildDiagnosisIntervals(record, eye)
	case KeyMedication, "medications":
		meds := BuildMedicationIntervals(record, eye)
		out := make([]entities.Interval, 0, len(meds))
		for _, m := range meds {
			out = append(out, entities.Interval{Task: m.Task, Start: m.Start, End: m.End})
		}
		return out
	}

	category, ok := LookupCategory(key)
	if !ok || record == nil {
		return []entities.Interval{}
	}

	visits := SortVisits(record.Visits)
	merged := newSpanSet()

	var current, runStart, prevDate string
	closeRun := func(end string) {
		if current == "" {
			return
		}
		merged.extend(current, runStart, end)
		current = ""
	}

	for i := range visits {
		v := &visits[i]
		value := NormalizeValue(category.Value(v, eye))

		switch {
		case value == "":
			closeRun(endDate(prevDate, v.Date))
		case value != current:
			closeRun(endDate(prevDate, v.Date))
			current = value
			runStart = v.Date
		}
		prevDate = v.Date
	}
	if len(visits) > 0 {
		closeRun(visits[len(visits)-1].Date)
	}

	return merged.intervals()
}

// endDate closes a run at the previous visit, or the current one when there is none
func endDate(prev, current string) string {
	if prev == "" {
		return current
	}
	return prev
}

// spanSet accumulates min-start/max-end spans per key in first-seen order
type spanSet struct {
	keys  []string
	spans map[string]*entities.Interval
}

func newSpanSet() *spanSet {
	return &spanSet{spans: make(map[string]*entities.Interval)}
}

func (s *spanSet) extend(key, start, end string) {
	span, ok := s.spans[key]
	if !ok {
		s.keys = append(s.keys, key)
		s.spans[key] = &entities.Interval{Task: key, Start: start, End: end}
		return
	}
	if start != "" && (span.Start == "" || start < span.Start) {
		span.Start = start
	}
	if end > span.End {
		span.End = end
	}
}

func (s *spanSet) intervals() []entities.Interval {
	out := make([]entities.Interval, 0, len(s.keys))
	for _, k := range s.keys {
		span := s.spans[k]
		if span.Start == "" || span.End == "" {
			continue
		}
		out = append(out, *span)
	}
	sortIntervals(out)
	return out
}

// diagnosisSet returns the normalized diagnoses recorded on a visit for eye. Single
// eyes include the both-eyes slot. ok is false when the visit has no diagnosis block.
func diagnosisSet(v *entities.Visit, eye entities.EyeSelector) ([]string, bool) {
	if v.Diagnosis == nil {
		return nil, false
	}

	slots := []int{eye.Slot(), entities.SlotBoth}
	if eye == entities.EyeBoth {
		slots = []int{entities.SlotRight, entities.SlotLeft, entities.SlotBoth}
	}

	var names []string
	seen := make(map[string]bool)
	for _, slot := range slots {
		list, _ := v.Diagnosis.Slot(slot)
		for _, raw := range list {
			name := NormalizeValue(raw)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, true
}

type conditionTracker struct {
	firstSeen string
	lastSeen  string
}

// BuildDiagnosisIntervals tracks each condition independently. A condition stays open
// while present; it is closed on a later-dated visit whose diagnosis block omits it,
// ending at the date it was last seen. Visits without a diagnosis block are ignored.
// A condition that returns after being closed starts a new interval.
func BuildDiagnosisIntervals(record *entities.PatientRecord, eye entities.EyeSelector) []entities.Interval {
	out := []entities.Interval{}
	if record == nil {
		return out
	}

	var open []string
	trackers := make(map[string]*conditionTracker)

	for _, v := range SortVisits(record.Visits) {
		names, ok := diagnosisSet(&v, eye)
		if !ok {
			continue
		}

		present := make(map[string]bool, len(names))
		for _, name := range names {
			present[name] = true
			if t, ok := trackers[name]; ok {
				t.lastSeen = v.Date
				continue
			}
			trackers[name] = &conditionTracker{firstSeen: v.Date, lastSeen: v.Date}
			open = append(open, name)
		}

		stillOpen := open[:0]
		for _, name := range open {
			t := trackers[name]
			if !present[name] && t.lastSeen != v.Date {
				out = append(out, entities.Interval{Task: name, Start: t.firstSeen, End: t.lastSeen})
				delete(trackers, name)
				continue
			}
			stillOpen = append(stillOpen, name)
		}
		open = stillOpen
	}

	for _, name := range open {
		t := trackers[name]
		out = append(out, entities.Interval{Task: name, Start: t.firstSeen, End: t.lastSeen})
	}

	sortIntervals(out)
	return out
}

// BuildMedicationIntervals widens each drug/eye combination into the span between
// its first and last prescription. Single-eye selectors include both-eye and
// unlabelled entries. Dosage comes from the earliest occurrence that records one.
func BuildMedicationIntervals(record *entities.PatientRecord, eye entities.EyeSelector) []entities.MedicationInterval {
	out := []entities.MedicationInterval{}
	if record == nil {
		return out
	}

	var keys []string
	spans := make(map[string]*entities.MedicationInterval)

	for _, v := range SortVisits(record.Visits) {
		for _, med := range v.Medications {
			drug := NormalizeValue(med.Name.String())
			code := med.EyeCode()
			if drug == "" || !code.Covers(eye) {
				continue
			}

			label := code.Label()
			key := drug
			if label != "" {
				key = drug + " (" + label + ")"
			}
			dosage := NormalizeValue(med.Dosage.String())

			span, ok := spans[key]
			if !ok {
				keys = append(keys, key)
				spans[key] = &entities.MedicationInterval{
					Task:   key,
					Start:  v.Date,
					End:    v.Date,
					Drug:   drug,
					Eye:    label,
					Dosage: dosage,
				}
				continue
			}
			if v.Date < span.Start {
				span.Start = v.Date
			}
			if v.Date > span.End {
				span.End = v.Date
			}
			if span.Dosage == "" {
				span.Dosage = dosage
			}
		}
	}

	for _, k := range keys {
		out = append(out, *spans[k])
	}
	return out
}
