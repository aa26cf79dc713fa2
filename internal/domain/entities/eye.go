package entities

import "strings"

// EyeSelector identifies which eye (or both) a derived view is computed for
type EyeSelector string

const (
	EyeRight EyeSelector = "re"
	EyeLeft  EyeSelector = "le"
	EyeBoth  EyeSelector = "be"
)

// Slot indexes into eye-indexed arrays: 0 = right, 1 = left, 2 = both.
const (
	SlotRight = 0
	SlotLeft  = 1
	SlotBoth  = 2
)

// ParseEyeSelector accepts re/le/be and the od/os/ou and right/left/both aliases
func ParseEyeSelector(raw string) (EyeSelector, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "re", "od", "right":
		return EyeRight, true
	case "le", "os", "left":
		return EyeLeft, true
	case "be", "ou", "both":
		return EyeBoth, true
	}
	return "", false
}

// Slot returns the array index this selector reads from
func (e EyeSelector) Slot() int {
	switch e {
	case EyeLeft:
		return SlotLeft
	case EyeBoth:
		return SlotBoth
	default:
		return SlotRight
	}
}

// Label returns the upper-case clinical label (RE, LE, BE)
func (e EyeSelector) Label() string {
	return strings.ToUpper(string(e))
}

// IsValid reports whether e is one of the three defined selectors
func (e EyeSelector) IsValid() bool {
	switch e {
	case EyeRight, EyeLeft, EyeBoth:
		return true
	}
	return false
}

// slotForKey maps an object key in a per-eye block to its slot
func slotForKey(key string) (int, bool) {
	sel, ok := ParseEyeSelector(key)
	if !ok {
		return 0, false
	}
	return sel.Slot(), true
}
