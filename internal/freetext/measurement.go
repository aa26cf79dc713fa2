// Package freetext mines per-eye numeric measurements out of free-form clinical reports.
// It is a best-effort parser with a fixed priority order, not a clinical validator.
package freetext

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/zatekoja/eyetimeline/backend/pkg/utils"
)

// Accepted range for an extracted measurement, inclusive
const (
	MinMeasurement = 0
	MaxMeasurement = 1500
)

// noDataSentinels short-circuit extraction when the whole report is one of them
var noDataSentinels = []string{"none", "nil", "na", "n/a", "nad", "not done", "-"}

var (
	sideLabelRe = regexp.MustCompile(`(?i)\b(RE|LE|OD|OS)\s*[:=\-]?\s*(\d+)\s*(?:µm|um|microns?)?`)

	// Generic, unlabeled keyword forms
	cmtKeywordRe     = regexp.MustCompile(`(?i)\bCMT\b\s*(?:of|is|was|[:=\-])?\s*(\d+)`)
	centralKeywordRe = regexp.MustCompile(`(?i)\bcentral\s+(?:macular\s+|foveal\s+|retinal\s+)?thickness\s*(?:of|is|was|[:=\-])?\s*(\d+)`)
)

// PairedMeasurement carries one value per eye. Nil means unresolved.
type PairedMeasurement struct {
	Primary   *int `json:"primary"`
	Secondary *int `json:"secondary"`
}

// IsNoData reports whether text is empty or a "no data" sentinel
func IsNoData(text string) bool {
	return strings.TrimSpace(text) == "" || utils.MatchesAnyFold(text, noDataSentinels)
}

type genericMatch struct {
	pos   int
	token string
}

// ExtractPairedMeasurement pulls a right (primary) and left (secondary) eye value out
// of a report.
//
// Explicit side labels win, last match per side. When at most one side is labelled the
// generic keyword matches are gathered in textual order and assigned only in these cases:
// one side missing and exactly one match fills it; no labels and exactly two matches
// fill primary then secondary; no labels and exactly one match fills both. Any other
// combination leaves the unlabelled sides nil.
func ExtractPairedMeasurement(text string) PairedMeasurement {
	if IsNoData(text) {
		return PairedMeasurement{}
	}

	var primaryTok, secondaryTok string
	for _, m := range sideLabelRe.FindAllStringSubmatch(text, -1) {
		switch strings.ToUpper(m[1]) {
		case "RE", "OD":
			primaryTok = m[2]
		case "LE", "OS":
			secondaryTok = m[2]
		}
	}

	havePrimary := primaryTok != ""
	haveSecondary := secondaryTok != ""

	if !(havePrimary && haveSecondary) {
		matches := genericMatches(text)

		switch {
		case havePrimary != haveSecondary:
			if len(matches) == 1 {
				if havePrimary {
					secondaryTok = matches[0].token
				} else {
					primaryTok = matches[0].token
				}
			}
		case len(matches) == 2:
			primaryTok = matches[0].token
			secondaryTok = matches[1].token
		case len(matches) == 1:
			primaryTok = matches[0].token
			secondaryTok = matches[0].token
		}
	}

	return PairedMeasurement{
		Primary:   parseMeasurement(primaryTok),
		Secondary: parseMeasurement(secondaryTok),
	}
}

func genericMatches(text string) []genericMatch {
	var matches []genericMatch
	for _, re := range []*regexp.Regexp{cmtKeywordRe, centralKeywordRe} {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			matches = append(matches, genericMatch{
				pos:   idx[0],
				token: text[idx[2]:idx[3]],
			})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].pos < matches[j].pos
	})
	return matches
}

// parseMeasurement strips non-digits and keeps values inside the accepted range
func parseMeasurement(token string) *int {
	digits := utils.DigitsOnly(token)
	if digits == "" {
		return nil
	}
	v, err := strconv.Atoi(digits)
	if err != nil || v < MinMeasurement || v > MaxMeasurement {
		return nil
	}
	return &v
}
