package entities

import "sort"

// Interval is a merged date range during which one normalized value held
type Interval struct {
	Task  string `json:"task"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// MedicationInterval is the observed span of one drug/eye combination
type MedicationInterval struct {
	Task   string `json:"task"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Drug   string `json:"drug"`
	Eye    string `json:"eye,omitempty"`
	Dosage string `json:"dosage,omitempty"`
}

// TimeSeriesPoint is one plotted measurement. Near is only set on acuity points.
type TimeSeriesPoint struct {
	Date    string  `json:"date"`
	Display string  `json:"display"`
	Value   float64 `json:"value"`
	Near    string  `json:"near,omitempty"`
}

// ProcedureCategory is the display group for a procedure
type ProcedureCategory string

const (
	ProcedureCategoryInjection ProcedureCategory = "Injection"
	ProcedureCategoryLaser     ProcedureCategory = "Laser"
	ProcedureCategorySurgery   ProcedureCategory = "Surgery"
	ProcedureCategoryOther     ProcedureCategory = "Procedure"
)

// ProcedureEvent is a dated procedure marker on the series chart
type ProcedureEvent struct {
	Date     string            `json:"date"`
	Category ProcedureCategory `json:"category"`
	Name     string            `json:"name"`
	Color    string            `json:"color"`
}

// ProcedureSummary is a deduplicated procedure with its occurrence count
type ProcedureSummary struct {
	Category ProcedureCategory `json:"category"`
	Name     string            `json:"name"`
	Label    string            `json:"label"`
	Count    int               `json:"count"`
}

// Series holds the numeric time series and procedure markers for one eye
type Series struct {
	ProcedureEvents []ProcedureEvent  `json:"procedure_events"`
	Acuity          []TimeSeriesPoint `json:"acuity"`
	Pressure        []TimeSeriesPoint `json:"pressure"`
	Thickness       []TimeSeriesPoint `json:"thickness"`
}

// SortByDate orders every series chronologically, keeping arrival order on ties
func (s *Series) SortByDate() {
	sortPoints(s.Acuity)
	sortPoints(s.Pressure)
	sortPoints(s.Thickness)
	sort.SliceStable(s.ProcedureEvents, func(i, j int) bool {
		return s.ProcedureEvents[i].Date < s.ProcedureEvents[j].Date
	})
}

func sortPoints(points []TimeSeriesPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})
}

// DiseaseSummary is a deduplicated diagnosis across the visit history
type DiseaseSummary struct {
	Name       string `json:"name"`
	VisitCount int    `json:"visit_count"`
	FirstSeen  string `json:"first_seen"`
	LastSeen   string `json:"last_seen"`
}

// ClinicalNote is the free-text commentary recorded on one visit
type ClinicalNote struct {
	Date             string `json:"date"`
	DisplayDate      string `json:"display_date"`
	ConsultationType string `json:"consultation_type,omitempty"`
	FollowUp         string `json:"follow_up,omitempty"`
	SystemicHistory  string `json:"systemic_history,omitempty"`
	Opinion          string `json:"opinion,omitempty"`
}

// Dashboard is the complete derived view-model for one patient and eye
type Dashboard struct {
	PatientUID   string                `json:"patient_uid"`
	MRNo         string                `json:"mr_no"`
	Eye          EyeSelector           `json:"eye"`
	Series       Series                `json:"series"`
	Observations map[string][]Interval `json:"observations"`
	Diagnoses    []Interval            `json:"diagnoses"`
	Medications  []MedicationInterval  `json:"medications"`
	Procedures   []ProcedureSummary    `json:"procedures"`
	Diseases     []DiseaseSummary      `json:"diseases"`
	Notes        []ClinicalNote        `json:"notes"`
}
