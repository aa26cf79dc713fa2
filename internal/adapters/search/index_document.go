package search

import (
	"time"

	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/procedures"
	"github.com/zatekoja/eyetimeline/backend/internal/timeline"
	"github.com/zatekoja/eyetimeline/backend/pkg/utils"
)

// MaxIndexedTerms caps each string[] field of an indexed patient
const MaxIndexedTerms = 100

// BuildIndexDocument projects a record onto its searchable summary. Diagnoses and
// procedures cover both eyes; every list keeps first-appearance order.
func BuildIndexDocument(record *entities.PatientRecord) *entities.PatientIndexDocument {
	if record == nil {
		return nil
	}

	doc := &entities.PatientIndexDocument{
		UID:                 record.UID,
		MRNo:                record.MRNo,
		Name:                record.Name,
		Diagnoses:           []string{},
		Procedures:          []string{},
		ProcedureCategories: []string{},
		Medications:         []string{},
		VisitCount:          len(record.Visits),
	}

	sorted := timeline.SortVisits(record.Visits)
	if len(sorted) > 0 {
		doc.FirstVisit = sorted[0].Date
		doc.LastVisit = sorted[len(sorted)-1].Date
		if ts, err := time.Parse("2006-01-02", doc.LastVisit); err == nil {
			doc.LastVisitTS = ts.Unix()
		}
	}

	diagnoses := newTermSet(MaxIndexedTerms)
	for _, d := range timeline.Summarize(record, entities.EyeBoth) {
		diagnoses.add(d.Name)
	}
	doc.Diagnoses = diagnoses.terms

	names := newTermSet(MaxIndexedTerms)
	categories := newTermSet(MaxIndexedTerms)
	for _, p := range procedures.Extract(&entities.PatientRecord{Visits: sorted}, entities.EyeBoth) {
		names.add(p.Name)
		categories.add(string(p.Category))
	}
	doc.Procedures = names.terms
	doc.ProcedureCategories = categories.terms

	meds := newTermSet(MaxIndexedTerms)
	for _, v := range sorted {
		for _, m := range v.Medications {
			meds.add(m.Name.String())
		}
	}
	doc.Medications = meds.terms

	return doc
}

// termSet collects normalized, case-insensitively unique terms up to a limit
type termSet struct {
	seen  map[string]struct{}
	terms []string
	limit int
}

func newTermSet(limit int) *termSet {
	return &termSet{seen: make(map[string]struct{}), terms: []string{}, limit: limit}
}

func (s *termSet) add(term string) {
	term = utils.NormalizeFinding(term)
	if term == "" || len(s.terms) >= s.limit {
		return
	}
	key := utils.NormalizeIdentifier(term)
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.terms = append(s.terms, term)
}
