package notation

import (
	"regexp"
	"strings"
)

var (
	isoDateRe     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	displayDateRe = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})$`)
)

// NormalizeDate returns the ISO "YYYY-MM-DD" storage form of a visit date. It accepts
// ISO dates (with or without a time part) and "DD/MM/YYYY" display dates. Calendar
// validity is not checked; anything else yields "".
func NormalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := isoDateRe.FindStringSubmatch(raw); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	if m := displayDateRe.FindStringSubmatch(raw); m != nil {
		return m[3] + "-" + pad2(m[2]) + "-" + pad2(m[1])
	}
	return ""
}

// FormatDate renders an ISO date as "DD/MM/YYYY". Malformed input yields "".
func FormatDate(iso string) string {
	m := isoDateRe.FindStringSubmatch(strings.TrimSpace(iso))
	if m == nil {
		return ""
	}
	return m[3] + "/" + m[2] + "/" + m[1]
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
