// Package notation converts between compact clinical shorthand and normalized forms:
// visual acuity tokens, the ordinal acuity axis used for charting, and visit dates.
package notation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ordinalOffset shifts LogMAR so that 6/6 (LogMAR 0) plots at 1.5 and larger is better
const ordinalOffset = 1.5

// tableTolerance is how close a LogMAR value must be to a table entry to reuse its label
const tableTolerance = 0.05

// Ordinal positions for qualitative acuity, all below any fraction in the table.
const (
	OrdinalCountingFingers   = -0.5
	OrdinalHandMovements     = -1.0
	OrdinalPerceptionOfLight = -1.5
	OrdinalNoPerception      = -2.0
)

// specialTokens pass through DecompressAcuity unchanged apart from upper-casing
var specialTokens = []string{"CF", "HM", "PL", "LP", "NLP", "NPL", "FCMF", "FCF"}

var specialOrdinals = map[string]float64{
	"CF":    OrdinalCountingFingers,
	"FCF":   OrdinalCountingFingers,
	"FCMF":  OrdinalCountingFingers,
	"HM":    OrdinalHandMovements,
	"PL":    OrdinalPerceptionOfLight,
	"LP":    OrdinalPerceptionOfLight,
	"NLP":   OrdinalNoPerception,
	"NPL":   OrdinalNoPerception,
	"NO PL": OrdinalNoPerception,
	"NAS":   OrdinalNoPerception,
}

type acuityEntry struct {
	label  string
	logMAR float64
}

// snellenTable lists the metric family first; reverse lookups only use metric labels.
// The 20/x family maps onto the same LogMAR scale.
var snellenTable = []acuityEntry{
	{"6/3", -0.3},
	{"6/4", -0.2},
	{"6/5", -0.1},
	{"6/6", 0.0},
	{"6/7.5", 0.1},
	{"6/9", 0.2},
	{"6/12", 0.3},
	{"6/15", 0.4},
	{"6/18", 0.5},
	{"6/24", 0.6},
	{"6/30", 0.7},
	{"6/36", 0.8},
	{"6/48", 0.9},
	{"6/60", 1.0},
	{"5/60", 1.1},
	{"4/60", 1.2},
	{"3/60", 1.3},
	{"2/60", 1.5},
	{"1/60", 1.8},
	{"20/10", -0.3},
	{"20/15", -0.1},
	{"20/20", 0.0},
	{"20/25", 0.1},
	{"20/30", 0.2},
	{"20/40", 0.3},
	{"20/50", 0.4},
	{"20/60", 0.5},
	{"20/70", 0.5},
	{"20/80", 0.6},
	{"20/100", 0.7},
	{"20/120", 0.8},
	{"20/160", 0.9},
	{"20/200", 1.0},
	{"20/400", 1.3},
}

var snellenIndex = func() map[string]float64 {
	idx := make(map[string]float64, len(snellenTable))
	for _, e := range snellenTable {
		idx[e.label] = e.logMAR
	}
	return idx
}()

var (
	compactAcuityRe = regexp.MustCompile(`^(\d)(\d+)(\D*)$`)
	fractionRe      = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*/\s*(\d+(?:\.\d+)?)`)
	nearVisionRe    = regexp.MustCompile(`^N\s*(\d+(?:\.\d+)?)`)
)

// IsSpecialAcuity reports whether raw is one of the qualitative acuity tokens
func IsSpecialAcuity(raw string) bool {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	for _, tok := range specialTokens {
		if upper == tok {
			return true
		}
	}
	return false
}

// DecompressAcuity expands compact acuity shorthand: "618P" becomes "6/18P" and "66"
// becomes "6/6". Qualitative tokens are upper-cased, fractions pass through, and
// anything else is returned unchanged.
func DecompressAcuity(raw string) string {
	if IsSpecialAcuity(raw) {
		return strings.ToUpper(strings.TrimSpace(raw))
	}
	if strings.Contains(raw, "/") {
		return raw
	}

	m := compactAcuityRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return raw
	}
	return m[1] + "/" + m[2] + m[3]
}

// AcuityToOrdinal maps a normalized acuity string onto the charting axis
// (1.5 - LogMAR). ok is false when no rule applies and the point must be skipped.
func AcuityToOrdinal(value string) (float64, bool) {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" {
		return 0, false
	}

	if logMAR, ok := snellenIndex[v]; ok {
		return ordinalOffset - logMAR, true
	}

	if m := fractionRe.FindStringSubmatch(v); m != nil {
		if logMAR, ok := snellenIndex[m[1]+"/"+m[2]]; ok {
			return ordinalOffset - logMAR, true
		}
		num, errN := strconv.ParseFloat(m[1], 64)
		den, errD := strconv.ParseFloat(m[2], 64)
		if errN == nil && errD == nil && num > 0 && den > 0 {
			return ordinalOffset - math.Log10(den/num), true
		}
	}

	if m := nearVisionRe.FindStringSubmatch(v); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err == nil && n > 0 {
			return ordinalOffset - math.Log10(n/6), true
		}
	}

	if ord, ok := specialOrdinals[v]; ok {
		return ord, true
	}
	return 0, false
}

// OrdinalToAcuity approximates the acuity label for a chart position. It is lossy and
// intended for axis labels and tooltips only.
func OrdinalToAcuity(value float64) string {
	logMAR := ordinalOffset - value

	for _, e := range snellenTable {
		if strings.HasPrefix(e.label, "20/") {
			continue
		}
		if math.Abs(e.logMAR-logMAR) <= tableTolerance {
			return e.label
		}
	}

	switch {
	case value <= (OrdinalNoPerception+OrdinalPerceptionOfLight)/2:
		return "NLP"
	case value <= (OrdinalPerceptionOfLight+OrdinalHandMovements)/2:
		return "PL"
	case value <= (OrdinalHandMovements+OrdinalCountingFingers)/2:
		return "HM"
	case value <= OrdinalCountingFingers/2:
		return "CF"
	}

	return fmt.Sprintf("6/%d", int(math.Round(6*math.Pow(10, logMAR))))
}
