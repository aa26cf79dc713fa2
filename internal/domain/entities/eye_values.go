package entities

import (
	"bytes"
	"encoding/json"
	"strings"
)

// EyeValues holds a per-eye string finding stored in any of the record's historical
// shapes: a scalar shared by both eyes, an eye-indexed array, or an object keyed by eye.
// Unparseable shapes decode to an empty value rather than failing the whole record.
type EyeValues struct {
	shared  *string
	slots   [3]string
	present [3]bool
}

// SharedValue builds an EyeValues whose single value applies to every eye
func SharedValue(value string) EyeValues {
	return EyeValues{shared: &value}
}

// EyeArray builds an eye-indexed EyeValues; position i fills slot i
func EyeArray(values ...string) EyeValues {
	var ev EyeValues
	for i, v := range values {
		if i > SlotBoth {
			break
		}
		ev.slots[i] = v
		ev.present[i] = true
	}
	return ev
}

// IsEmpty reports whether nothing was recorded
func (ev EyeValues) IsEmpty() bool {
	return ev.shared == nil && !ev.present[0] && !ev.present[1] && !ev.present[2]
}

// IsShared reports whether the value is a scalar applying to every eye
func (ev EyeValues) IsShared() bool {
	return ev.shared != nil
}

// Slot returns the raw value stored at index i
func (ev EyeValues) Slot(i int) (string, bool) {
	if i < 0 || i > SlotBoth || !ev.present[i] {
		return "", false
	}
	return ev.slots[i], true
}

// Get returns the value for eye without any fallback. A shared scalar applies to all eyes.
func (ev EyeValues) Get(eye EyeSelector) (string, bool) {
	if ev.shared != nil {
		return *ev.shared, true
	}
	return ev.Slot(eye.Slot())
}

// GetWithFallback returns the value for eye, falling back to slot 0 when the
// requested slot was never recorded.
func (ev EyeValues) GetWithFallback(eye EyeSelector) (string, bool) {
	if v, ok := ev.Get(eye); ok {
		return v, true
	}
	return ev.Slot(SlotRight)
}

// UnmarshalJSON implements json.Unmarshaler
func (ev *EyeValues) UnmarshalJSON(data []byte) error {
	*ev = EyeValues{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		for i, item := range items {
			if i > SlotBoth {
				break
			}
			if v, ok := scalarText(item); ok {
				ev.slots[i] = v
				ev.present[i] = true
			}
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil
		}
		for key, item := range obj {
			slot, ok := slotForKey(key)
			if !ok {
				continue
			}
			if v, ok := scalarText(item); ok {
				ev.slots[slot] = v
				ev.present[slot] = true
			}
		}
	default:
		if v, ok := scalarText(data); ok {
			ev.shared = &v
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Slots are written in object form.
func (ev EyeValues) MarshalJSON() ([]byte, error) {
	if ev.shared != nil {
		return json.Marshal(*ev.shared)
	}
	if ev.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(slotObject(ev.present, func(i int) interface{} { return ev.slots[i] }))
}

// EyeLists holds per-eye string lists (diagnoses, legacy procedure names). A bare string
// applies to every eye; array slots may themselves be strings or string arrays.
type EyeLists struct {
	shared  *string
	slots   [3][]string
	present [3]bool
}

// EyeListArray builds an eye-indexed EyeLists; position i fills slot i
func EyeListArray(lists ...[]string) EyeLists {
	var el EyeLists
	for i, l := range lists {
		if i > SlotBoth {
			break
		}
		el.slots[i] = l
		el.present[i] = true
	}
	return el
}

// IsEmpty reports whether nothing was recorded
func (el EyeLists) IsEmpty() bool {
	return el.shared == nil && !el.present[0] && !el.present[1] && !el.present[2]
}

// Slot returns the list stored at index i. A shared string is returned for every slot.
func (el EyeLists) Slot(i int) ([]string, bool) {
	if el.shared != nil {
		return []string{*el.shared}, true
	}
	if i < 0 || i > SlotBoth || !el.present[i] {
		return nil, false
	}
	return el.slots[i], true
}

// UnmarshalJSON implements json.Unmarshaler
func (el *EyeLists) UnmarshalJSON(data []byte) error {
	*el = EyeLists{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		for i, item := range items {
			if i > SlotBoth {
				break
			}
			if list, ok := stringList(item); ok {
				el.slots[i] = list
				el.present[i] = true
			}
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil
		}
		for key, item := range obj {
			slot, ok := slotForKey(key)
			if !ok {
				continue
			}
			if list, ok := stringList(item); ok {
				el.slots[slot] = list
				el.present[slot] = true
			}
		}
	default:
		if v, ok := scalarText(data); ok {
			el.shared = &v
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (el EyeLists) MarshalJSON() ([]byte, error) {
	if el.shared != nil {
		return json.Marshal(*el.shared)
	}
	if el.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(slotObject(el.present, func(i int) interface{} {
		if el.slots[i] == nil {
			return []string{}
		}
		return el.slots[i]
	}))
}

// EyeCode is the numeric or string eye marker on a medication: 1 = RE, 2 = LE, 3 = BE.
// Anything else (including oral routes) carries no eye label.
type EyeCode int

const (
	EyeCodeNone  EyeCode = 0
	EyeCodeRight EyeCode = 1
	EyeCodeLeft  EyeCode = 2
	EyeCodeBoth  EyeCode = 3
)

// Label returns RE, LE, BE or an empty string
func (c EyeCode) Label() string {
	switch c {
	case EyeCodeRight:
		return "RE"
	case EyeCodeLeft:
		return "LE"
	case EyeCodeBoth:
		return "BE"
	}
	return ""
}

// Covers reports whether a medication marked with c applies to eye
func (c EyeCode) Covers(eye EyeSelector) bool {
	switch eye {
	case EyeRight:
		return c != EyeCodeLeft
	case EyeLeft:
		return c != EyeCodeRight
	}
	return true
}

// UnmarshalJSON implements json.Unmarshaler
func (c *EyeCode) UnmarshalJSON(data []byte) error {
	*c = EyeCodeNone
	v, ok := scalarText(data)
	if !ok {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "re", "od", "right":
		*c = EyeCodeRight
	case "2", "le", "os", "left":
		*c = EyeCodeLeft
	case "3", "be", "ou", "both":
		*c = EyeCodeBoth
	}
	return nil
}

// scalarText decodes a JSON string or number into its text form
func scalarText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", false
	}
	return n.String(), true
}

// stringList decodes either a single scalar or an array of scalars
func stringList(raw json.RawMessage) ([]string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}
	if raw[0] != '[' {
		v, ok := scalarText(raw)
		if !ok {
			return nil, false
		}
		if strings.TrimSpace(v) == "" {
			return []string{}, true
		}
		return []string{v}, true
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	list := make([]string, 0, len(items))
	for _, item := range items {
		if v, ok := scalarText(item); ok {
			list = append(list, v)
		}
	}
	return list, true
}

func slotObject(present [3]bool, value func(i int) interface{}) map[string]interface{} {
	keys := [3]string{"re", "le", "be"}
	out := make(map[string]interface{}, 3)
	for i, ok := range present {
		if ok {
			out[keys[i]] = value(i)
		}
	}
	return out
}
