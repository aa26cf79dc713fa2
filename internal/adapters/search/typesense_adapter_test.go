package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
)

func TestBuildSearchParams_Defaults(t *testing.T) {
	params := buildSearchParams(repositories.PatientSearchParams{})

	assert.Equal(t, "*", *params.Q)
	assert.Equal(t, patientQueryBy, *params.QueryBy)
	assert.Equal(t, 1, *params.Page)
	assert.Equal(t, defaultPageSize, *params.PerPage)
	assert.Nil(t, params.FilterBy)
	assert.Nil(t, params.FacetBy)
}

func TestBuildSearchParams_FilterAndPaging(t *testing.T) {
	params := buildSearchParams(repositories.PatientSearchParams{
		Query:             " glaucoma ",
		ProcedureCategory: "Laser",
		Limit:             10,
		Offset:            20,
		IncludeFacets:     true,
	})

	assert.Equal(t, "glaucoma", *params.Q)
	assert.Equal(t, 3, *params.Page)
	require.NotNil(t, params.FilterBy)
	assert.Equal(t, "procedure_categories:=[`Laser`]", *params.FilterBy)
	assert.Equal(t, patientFacetBy, *params.FacetBy)
}

func TestDecodeSearchResult(t *testing.T) {
	var result api.SearchResult
	require.NoError(t, json.Unmarshal([]byte(`{
		"found": 1,
		"search_time_ms": 3,
		"hits": [{"document": {"id": "P1", "mr_no": "MR1", "diagnoses": ["Glaucoma"],
			"procedures": ["SLT"], "procedure_categories": ["Laser"], "medications": [],
			"visit_count": 4, "last_visit": "2023-12-01", "last_visit_ts": 1701388800}}],
		"facet_counts": [{"field_name": "diagnoses", "counts": [{"value": "Glaucoma", "count": 1}]}]
	}`), &result))

	out, err := decodeSearchResult(&result)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Found)
	require.Len(t, out.Patients, 1)
	assert.Equal(t, "P1", out.Patients[0].UID)
	assert.Equal(t, 4, out.Patients[0].VisitCount)
	assert.Equal(t, int64(1701388800), out.Patients[0].LastVisitTS)
	assert.Equal(t, []entities.FacetCount{{Value: "Glaucoma", Count: 1}}, out.Facets["diagnoses"])
}

func TestDecodeSearchResult_Nil(t *testing.T) {
	out, err := decodeSearchResult(nil)
	require.NoError(t, err)
	assert.Empty(t, out.Patients)
}
