package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompressAcuity(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"618P", "6/18P"},
		{"66", "6/6"},
		{"660", "6/60"},
		{"CF", "CF"},
		{"hm", "HM"},
		{"nlp", "NLP"},
		{"fcmf", "FCMF"},
		{"6/18", "6/18"},
		{"20/40", "20/40"},
		{"N6", "N6"},
		{"6", "6"},
		{"", ""},
		{"blurred", "blurred"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, DecompressAcuity(tc.input))
		})
	}
}

func TestDecompressAcuity_Idempotent(t *testing.T) {
	for _, raw := range []string{"618P", "66", "CF", "6/9"} {
		once := DecompressAcuity(raw)
		assert.Equal(t, once, DecompressAcuity(once), raw)
	}
}

func TestAcuityToOrdinal(t *testing.T) {
	testCases := []struct {
		input    string
		expected float64
	}{
		{"6/6", 1.5},
		{"6/60", 0.5},
		{"20/20", 1.5},
		{"20/200", 0.5},
		{"6/18P", 1.0},
		{"PL", -1.5},
		{"lp", -1.5},
		{"CF", -0.5},
		{"HM", -1.0},
		{"NLP", -2.0},
		{"NO PL", -2.0},
		{"N6", 1.5},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := AcuityToOrdinal(tc.input)
			require.True(t, ok)
			assert.InDelta(t, tc.expected, got, 1e-9)
		})
	}
}

func TestAcuityToOrdinal_GenericFraction(t *testing.T) {
	got, ok := AcuityToOrdinal("6/120")
	require.True(t, ok)
	assert.InDelta(t, 0.199, got, 0.001)

	got, ok = AcuityToOrdinal("N12")
	require.True(t, ok)
	assert.InDelta(t, 1.5-0.30103, got, 0.0001)
}

func TestAcuityToOrdinal_Unparseable(t *testing.T) {
	for _, raw := range []string{"", "   ", "blurred", "0/0", "6/0"} {
		_, ok := AcuityToOrdinal(raw)
		assert.False(t, ok, raw)
	}
}

func TestAcuityToOrdinal_SpecialTokensBelowFractions(t *testing.T) {
	floor, ok := AcuityToOrdinal("6/120")
	require.True(t, ok)

	for _, tok := range []string{"CF", "HM", "PL", "LP", "NLP", "NPL", "NO PL", "NAS"} {
		got, ok := AcuityToOrdinal(tok)
		require.True(t, ok, tok)
		assert.Less(t, got, floor, tok)
	}
}

func TestOrdinalToAcuity_CloseToTable(t *testing.T) {
	for _, label := range []string{"6/6", "6/9", "6/18", "6/60", "3/60"} {
		ord, ok := AcuityToOrdinal(label)
		require.True(t, ok)

		back := OrdinalToAcuity(ord)
		backOrd, ok := AcuityToOrdinal(back)
		require.True(t, ok, back)
		assert.InDelta(t, ord, backOrd, tableTolerance, label)
	}
}

func TestOrdinalToAcuity_SpecialRanges(t *testing.T) {
	assert.Equal(t, "CF", OrdinalToAcuity(OrdinalCountingFingers))
	assert.Equal(t, "HM", OrdinalToAcuity(OrdinalHandMovements))
	assert.Equal(t, "PL", OrdinalToAcuity(OrdinalPerceptionOfLight))
	assert.Equal(t, "NLP", OrdinalToAcuity(OrdinalNoPerception))
}

func TestOrdinalToAcuity_ApproximateFraction(t *testing.T) {
	// LogMAR 1.4 sits between table rows
	assert.Equal(t, "6/151", OrdinalToAcuity(0.1))
}
