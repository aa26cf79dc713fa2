package freetext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestExtractPairedMeasurement(t *testing.T) {
	testCases := []struct {
		name      string
		text      string
		primary   *int
		secondary *int
	}{
		{"both sides labelled", "RE 250um LE 300um", intPtr(250), intPtr(300)},
		{"od/os labels with colons", "OCT macula OD: 412 OS: 288 microns", intPtr(412), intPtr(288)},
		{"last label wins", "RE 250 RE 260 LE 300", intPtr(260), intPtr(300)},
		{"single generic match broadcast", "CMT 280", intPtr(280), intPtr(280)},
		{"two generic matches in textual order", "central macular thickness 310, CMT 295", intPtr(310), intPtr(295)},
		{"one label plus one generic fills the gap", "LE 300 and CMT 250", intPtr(250), intPtr(300)},
		{"one label plus two generics leaves gap", "LE 300, CMT 250, CMT 260", nil, intPtr(300)},
		{"three generic matches unresolved", "CMT 250 CMT 260 CMT 270", nil, nil},
		{"no matches", "macula dry, no fluid", nil, nil},
		{"out of range discarded", "RE 2500 LE 300", nil, intPtr(300)},
		{"sentinel none", "none", nil, nil},
		{"sentinel case-insensitive", "N/A", nil, nil},
		{"empty", "", nil, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractPairedMeasurement(tc.text)
			assert.Equal(t, tc.primary, got.Primary)
			assert.Equal(t, tc.secondary, got.Secondary)
		})
	}
}

func TestExtractPairedMeasurement_LabelsTakePriorityOverGeneric(t *testing.T) {
	got := ExtractPairedMeasurement("CMT 999; RE 250 LE 300")
	assert.Equal(t, intPtr(250), got.Primary)
	assert.Equal(t, intPtr(300), got.Secondary)
}

func TestIsNoData(t *testing.T) {
	assert.True(t, IsNoData("  "))
	assert.True(t, IsNoData("Nil"))
	assert.False(t, IsNoData("CMT 250"))
}
