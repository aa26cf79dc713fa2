package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
)

func TestBuildIndexDocument(t *testing.T) {
	var record entities.PatientRecord
	require.NoError(t, json.Unmarshal([]byte(`{
		"uid": "P1", "mr_no": "MR1", "name": "Jane",
		"visits": [
			{"visit_no": 2, "date": "2023-06-01",
			 "diagnosis": [["Glaucoma"], [], []],
			 "medications": [{"name": "Timolol 0.5%", "eye": 3}],
			 "procedures": {"lasers": {"re": [{"name": "SLT", "category": "Laser"}]}}},
			{"visit_no": 1, "date": "2023-01-01",
			 "diagnosis": [["Cataract"], ["glaucoma"], []],
			 "medications": [{"name": "timolol 0.5%"}],
			 "procedures": {"actual_procedures": [["Avastin"], []]}},
			{"visit_no": 3, "date": "not a date"}
		]
	}`), &record))

	doc := BuildIndexDocument(&record)

	require.NotNil(t, doc)
	assert.Equal(t, "P1", doc.UID)
	assert.Equal(t, 3, doc.VisitCount)
	assert.Equal(t, "2023-01-01", doc.FirstVisit)
	assert.Equal(t, "2023-06-01", doc.LastVisit)
	assert.Equal(t, int64(1685577600), doc.LastVisitTS)
	assert.Equal(t, []string{"Cataract", "glaucoma"}, doc.Diagnoses)
	assert.Equal(t, []string{"Avastin", "SLT"}, doc.Procedures)
	assert.Equal(t, []string{"Injection", "Laser"}, doc.ProcedureCategories)
	assert.Equal(t, []string{"timolol 0.5%"}, doc.Medications)
}

func TestBuildIndexDocument_Nil(t *testing.T) {
	assert.Nil(t, BuildIndexDocument(nil))
}
