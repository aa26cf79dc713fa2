package utils

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	trailingPunctRe = regexp.MustCompile(`[\s.,;:!?\-/\\|]+$`)
	leadingDigitsRe = regexp.MustCompile(`^\s*[-+]?(\d+(\.\d*)?|\.\d+)`)
	nonDigitRe      = regexp.MustCompile(`\D`)
)

// CollapseWhitespace trims s and replaces every whitespace run with a single space
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// StripTrailingPunctuation removes trailing punctuation and whitespace
func StripTrailingPunctuation(s string) string {
	return trailingPunctRe.ReplaceAllString(s, "")
}

// NormalizeFinding canonicalizes a free-text clinical finding for use as a grouping key.
// Case is preserved.
func NormalizeFinding(s string) string {
	return StripTrailingPunctuation(CollapseWhitespace(s))
}

// LeadingNumber returns the numeric prefix of s ("18 mmHg" -> "18")
func LeadingNumber(s string) (string, bool) {
	m := leadingDigitsRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[0]), true
}

// DigitsOnly strips every non-digit character from s
func DigitsOnly(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}

// MatchesAnyFold reports whether s equals any candidate, case-insensitively, after trimming
func MatchesAnyFold(s string, candidates []string) bool {
	s = strings.TrimSpace(s)
	for _, c := range candidates {
		if strings.EqualFold(s, c) {
			return true
		}
	}
	return false
}

// ContainsAnyFold returns the first keyword contained in s, case-insensitively
func ContainsAnyFold(s string, keywords []string) (string, bool) {
	lower := strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return k, true
		}
	}
	return "", false
}

// NormalizeIdentifier lower-cases value and joins its alphanumeric runs with
// underscores ("Avastin (Intravitreal)" -> "avastin_intravitreal")
func NormalizeIdentifier(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	lastUnderscore := false
	for _, ch := range trimmed {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}
