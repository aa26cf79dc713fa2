package entities

// PatientIndexDocument is the searchable projection of a patient's history
type PatientIndexDocument struct {
	UID                 string   `json:"id"`
	MRNo                string   `json:"mr_no"`
	Name                string   `json:"name,omitempty"`
	Diagnoses           []string `json:"diagnoses"`
	Procedures          []string `json:"procedures"`
	ProcedureCategories []string `json:"procedure_categories"`
	Medications         []string `json:"medications"`
	VisitCount          int      `json:"visit_count"`
	FirstVisit          string   `json:"first_visit,omitempty"`
	LastVisit           string   `json:"last_visit,omitempty"`
	LastVisitTS         int64    `json:"last_visit_ts"`
}

// FacetCount is one value of a faceted field with its hit count
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PatientSearchResult is one page of patient search hits
type PatientSearchResult struct {
	Patients   []PatientIndexDocument  `json:"patients"`
	Found      int                     `json:"found"`
	Facets     map[string][]FacetCount `json:"facets,omitempty"`
	SearchTime float64                 `json:"search_time_ms"`
}
