package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/procedures"
)

const seriesRecord = `{"uid": "P1", "mr_no": "MR1", "visits": [
	{"visit_no": 2, "date": "2023-06-01",
	 "visual_acuity": {"distance": {"re": "660", "le": "blurred"}, "near": {"re": "N8"}},
	 "investigations": {"iop": "CNM", "report": "CMT 280"},
	 "procedures": {"injections": {"re": ["Avastin"]}}},
	{"visit_no": 1, "date": "2023-01-01",
	 "visual_acuity": {"distance": ["618P", "66", "66"], "near": ["N6", "N6"]},
	 "investigations": {"iop": ["16", "18 mmHg"], "report": "OCT: RE 250um LE 310um"},
	 "procedures": {"actual_procedures": [["Avastin"], ["PRP"]]}},
	{"visit_no": 3, "date": "2023-09-01",
	 "investigations": {"iop": ["0", "-"], "report": "none"}}
]}`

func TestExtractSeries_RightEye(t *testing.T) {
	record := decodeRecord(t, seriesRecord)
	palette := procedures.NewPalette("#111", "#222")

	series := ExtractSeries(record, entities.EyeRight, palette)

	require.Len(t, series.Acuity, 2)
	assert.Equal(t, entities.TimeSeriesPoint{Date: "2023-06-01", Display: "6/60", Value: 0.5, Near: "N8"}, series.Acuity[0])
	assert.Equal(t, "6/18P", series.Acuity[1].Display)
	assert.InDelta(t, 1.0, series.Acuity[1].Value, 1e-9)

	require.Len(t, series.Pressure, 1)
	assert.Equal(t, entities.TimeSeriesPoint{Date: "2023-01-01", Display: "16", Value: 16}, series.Pressure[0])

	require.Len(t, series.Thickness, 2)
	assert.Equal(t, 280.0, series.Thickness[0].Value)
	assert.Equal(t, 250.0, series.Thickness[1].Value)

	require.Len(t, series.ProcedureEvents, 2)
	assert.Equal(t, series.ProcedureEvents[0].Color, series.ProcedureEvents[1].Color)
	assert.Equal(t, "#111", series.ProcedureEvents[0].Color)

	series.SortByDate()
	assert.Equal(t, "2023-01-01", series.Acuity[0].Date)
	assert.Equal(t, "2023-01-01", series.Thickness[0].Date)
	assert.Equal(t, "2023-01-01", series.ProcedureEvents[0].Date)
}

func TestExtractSeries_LeftEye(t *testing.T) {
	record := decodeRecord(t, seriesRecord)

	series := ExtractSeries(record, entities.EyeLeft, nil)

	// "blurred" has no ordinal and is skipped
	require.Len(t, series.Acuity, 1)
	assert.Equal(t, 1.5, series.Acuity[0].Value)

	require.Len(t, series.Pressure, 1)
	assert.Equal(t, 18.0, series.Pressure[0].Value)
	assert.Equal(t, "18 mmHg", series.Pressure[0].Display)

	require.Len(t, series.Thickness, 2)
	assert.Equal(t, 280.0, series.Thickness[0].Value)
	assert.Equal(t, 310.0, series.Thickness[1].Value)

	require.Len(t, series.ProcedureEvents, 1)
	assert.Equal(t, "PRP", series.ProcedureEvents[0].Name)
	assert.Empty(t, series.ProcedureEvents[0].Color)
}

func TestExtractSeries_BothEyes(t *testing.T) {
	record := decodeRecord(t, seriesRecord)

	series := ExtractSeries(record, entities.EyeBoth, procedures.NewPalette())

	// binocular acuity only exists on the array-shaped visit
	require.Len(t, series.Acuity, 1)
	assert.Equal(t, "6/6", series.Acuity[0].Display)

	// pressure falls back to the right-eye slot
	require.Len(t, series.Pressure, 1)
	assert.Equal(t, 16.0, series.Pressure[0].Value)

	// thickness uses the right-eye value
	require.Len(t, series.Thickness, 2)
	assert.Equal(t, 250.0, series.Thickness[1].Value)

	assert.Len(t, series.ProcedureEvents, 3)
}

func TestExtractSeries_EmptyRecord(t *testing.T) {
	series := ExtractSeries(nil, entities.EyeRight, nil)
	assert.NotNil(t, series.Acuity)
	assert.Empty(t, series.Acuity)
	assert.Empty(t, series.ProcedureEvents)
}

func TestSummarize(t *testing.T) {
	record := decodeRecord(t, `{"uid": "P1", "visits": [
		{"date": "2023-03-01", "diagnosis": [["Cataract"], [], ["DR"]]},
		{"date": "2023-01-01", "diagnosis": [["DR"], [], []]},
		{"date": "2023-02-01", "diagnosis": [["Cataract."], [], []]}
	]}`)

	got := Summarize(record, entities.EyeRight)

	assert.Equal(t, []entities.DiseaseSummary{
		{Name: "DR", VisitCount: 2, FirstSeen: "2023-01-01", LastSeen: "2023-03-01"},
		{Name: "Cataract", VisitCount: 2, FirstSeen: "2023-02-01", LastSeen: "2023-03-01"},
	}, got)
}

func TestBuildNotes(t *testing.T) {
	record := decodeRecord(t, `{"uid": "P1", "visits": [
		{"date": "2023-02-01", "consultation_type": "Review", "follow_up": " 1 month "},
		{"date": "2023-01-01", "consultation_type": "New"},
		{"date": "2023-03-01", "opinion": "Retina referral", "systemic_history": "DM"}
	]}`)

	got := BuildNotes(record)

	require.Len(t, got, 2)
	assert.Equal(t, entities.ClinicalNote{
		Date: "2023-02-01", DisplayDate: "01/02/2023", ConsultationType: "Review", FollowUp: "1 month",
	}, got[0])
	assert.Equal(t, "Retina referral", got[1].Opinion)
}

func TestBuildDashboard(t *testing.T) {
	record := decodeRecord(t, seriesRecord)
	record.Visits[0].AnteriorSegment = &entities.AnteriorSegment{Lens: entities.SharedValue("NS2")}

	d := BuildDashboard(record, entities.EyeRight, nil)

	assert.Equal(t, "P1", d.PatientUID)
	assert.Equal(t, "MR1", d.MRNo)
	assert.Len(t, d.Observations, len(Categories()))
	assert.Equal(t, []entities.Interval{{Task: "NS2", Start: "2023-06-01", End: "2023-06-01"}}, d.Observations["lens"])
	assert.Equal(t, "2023-01-01", d.Series.Acuity[0].Date)

	require.Len(t, d.Procedures, 1)
	assert.Equal(t, "Avastin (2x)", d.Procedures[0].Label)

	// the caller's record keeps its arrival order
	assert.Equal(t, "2023-06-01", record.Visits[0].Date)
}
