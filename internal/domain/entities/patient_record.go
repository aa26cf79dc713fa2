package entities

import "time"

// PatientRecord is a patient's identity plus the visits in arrival order. VisitCount,
// FirstVisit and LastVisit are informational; derived views read Visits only.
type PatientRecord struct {
	UID        string    `json:"uid" db:"uid"`
	MRNo       string    `json:"mr_no" db:"mr_no"`
	Name       string    `json:"name,omitempty" db:"name"`
	VisitCount int       `json:"visit_count" db:"visit_count"`
	FirstVisit string    `json:"first_visit,omitempty" db:"first_visit"`
	LastVisit  string    `json:"last_visit,omitempty" db:"last_visit"`
	Visits     []Visit   `json:"visits"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// PatientSummary is the list-view projection of a record
type PatientSummary struct {
	UID        string    `json:"uid" db:"uid"`
	MRNo       string    `json:"mr_no" db:"mr_no"`
	Name       string    `json:"name,omitempty" db:"name"`
	VisitCount int       `json:"visit_count" db:"visit_count"`
	FirstVisit string    `json:"first_visit,omitempty" db:"first_visit"`
	LastVisit  string    `json:"last_visit,omitempty" db:"last_visit"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Summary projects the record onto its list-view fields
func (r *PatientRecord) Summary() PatientSummary {
	return PatientSummary{
		UID:        r.UID,
		MRNo:       r.MRNo,
		Name:       r.Name,
		VisitCount: r.VisitCount,
		FirstVisit: r.FirstVisit,
		LastVisit:  r.LastVisit,
		UpdatedAt:  r.UpdatedAt,
	}
}
