package entities

import (
	"bytes"
	"strconv"
	"strings"
)

// ClinicalText is a free-text visit field. Numbers are kept as their literal text,
// arrays are joined with "; ", and any other shape decodes to "".
type ClinicalText string

// String returns the text
func (t ClinicalText) String() string {
	return string(t)
}

// UnmarshalJSON implements json.Unmarshaler
func (t *ClinicalText) UnmarshalJSON(data []byte) error {
	*t = ""
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		parts, _ := stringList(data)
		kept := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				kept = append(kept, p)
			}
		}
		*t = ClinicalText(strings.Join(kept, "; "))
		return nil
	}
	if v, ok := scalarText(data); ok {
		*t = ClinicalText(v)
	}
	return nil
}

// VisitNumber is the ordinal of a visit. Strings holding a number are accepted;
// anything unparseable decodes to 0.
type VisitNumber int

// UnmarshalJSON implements json.Unmarshaler
func (n *VisitNumber) UnmarshalJSON(data []byte) error {
	*n = 0
	v, ok := scalarText(data)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return nil
	}
	*n = VisitNumber(int(f))
	return nil
}
