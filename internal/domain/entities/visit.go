package entities

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Visit is one clinical encounter snapshot. Visits are read-only input to the
// timeline engine; every sub-record is optional.
type Visit struct {
	VisitNo          VisitNumber      `json:"visit_no"`
	Date             string           `json:"date"`
	ConsultationType ClinicalText     `json:"consultation_type,omitempty"`
	Diagnosis        *EyeLists        `json:"diagnosis,omitempty"`
	VisualAcuity     *VisualAcuity    `json:"visual_acuity,omitempty"`
	AnteriorSegment  *AnteriorSegment `json:"anterior_segment,omitempty"`
	OcularMotility   *OcularMotility  `json:"ocular_motility,omitempty"`
	Fundus           *Fundus          `json:"fundus,omitempty"`
	Medications      []Medication     `json:"medications,omitempty"`
	Procedures       *ProcedureBlock  `json:"procedures,omitempty"`
	Investigations   *Investigations  `json:"investigations,omitempty"`
	FollowUp         ClinicalText     `json:"follow_up,omitempty"`
	SystemicHistory  ClinicalText     `json:"systemic_history,omitempty"`
	Opinion          ClinicalText     `json:"opinion,omitempty"`
}

// VisualAcuity holds distance and near acuity per eye
type VisualAcuity struct {
	Distance EyeValues `json:"distance"`
	Near     EyeValues `json:"near"`
}

// AnteriorSegment holds slit-lamp findings
type AnteriorSegment struct {
	Lids            EyeValues `json:"lids"`
	Conjunctiva     EyeValues `json:"conjunctiva"`
	Cornea          EyeValues `json:"cornea"`
	AnteriorChamber EyeValues `json:"anterior_chamber"`
	Iris            EyeValues `json:"iris"`
	Pupil           EyeValues `json:"pupil"`
	Lens            EyeValues `json:"lens"`
}

// OcularMotility holds extra-ocular movement findings
type OcularMotility struct {
	Movements EyeValues `json:"movements"`
}

// Fundus holds posterior segment findings
type Fundus struct {
	Disc   EyeValues `json:"disc"`
	Macula EyeValues `json:"macula"`
	Retina EyeValues `json:"retina"`
}

// Medication is one prescribed drug on a visit
type Medication struct {
	Name   ClinicalText `json:"name"`
	Dosage ClinicalText `json:"dosage,omitempty"`
	Eye    EyeCode      `json:"eye,omitempty"`
	Route  ClinicalText `json:"route,omitempty"`
}

// oralRoutes are route markers for systemic drugs
var oralRoutes = map[string]bool{"oral": true, "po": true, "p.o.": true, "by mouth": true, "tab": true, "tablet": true}

// IsOral reports whether the drug is taken by mouth
func (m Medication) IsOral() bool {
	return oralRoutes[strings.ToLower(strings.TrimSpace(string(m.Route)))]
}

// EyeCode is the eye marker used for grouping. Oral drugs are never eye-labelled.
func (m Medication) EyeCode() EyeCode {
	if m.IsOral() {
		return EyeCodeNone
	}
	return m.Eye
}

// Investigations holds the pressure reading and the free-text imaging report
type Investigations struct {
	IOP    EyeValues    `json:"iop"`
	Report ClinicalText `json:"report,omitempty"`
}

// ProcedureBlock carries procedures in one of two coexisting shapes. The legacy shape
// uses advised/actual eye-indexed name lists; the current shape uses the three
// pre-categorized injections/lasers/surgeries blocks.
type ProcedureBlock struct {
	AdvisedProcedures *EyeLists          `json:"advised_procedures,omitempty"`
	ActualProcedures  *EyeLists          `json:"actual_procedures,omitempty"`
	Injections        *EyeProcedureItems `json:"injections,omitempty"`
	Lasers            *EyeProcedureItems `json:"lasers,omitempty"`
	Surgeries         *EyeProcedureItems `json:"surgeries,omitempty"`
}

// ProcedureItem is one structured procedure in the current shape
type ProcedureItem struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	SubType  string `json:"sub_type,omitempty"`
}

// UnmarshalJSON accepts either an object or a bare procedure name
func (p *ProcedureItem) UnmarshalJSON(data []byte) error {
	*p = ProcedureItem{}
	if v, ok := scalarText(data); ok {
		p.Name = v
		return nil
	}

	type plain ProcedureItem
	var item plain
	if err := json.Unmarshal(data, &item); err != nil {
		return nil
	}
	*p = ProcedureItem(item)
	return nil
}

// EyeProcedureItems holds per-eye structured procedures for one category
type EyeProcedureItems struct {
	RE []ProcedureItem `json:"re,omitempty"`
	LE []ProcedureItem `json:"le,omitempty"`
	BE []ProcedureItem `json:"be,omitempty"`
}

// Slot returns the items for slot i
func (e *EyeProcedureItems) Slot(i int) []ProcedureItem {
	if e == nil {
		return nil
	}
	switch i {
	case SlotRight:
		return e.RE
	case SlotLeft:
		return e.LE
	case SlotBoth:
		return e.BE
	}
	return nil
}

// UnmarshalJSON accepts an object keyed by eye or an eye-indexed array
func (e *EyeProcedureItems) UnmarshalJSON(data []byte) error {
	*e = EyeProcedureItems{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	slots := [3]*[]ProcedureItem{&e.RE, &e.LE, &e.BE}
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
			*slots[i] = decodeItems(item)
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil
		}
		for key, item := range obj {
			if slot, ok := slotForKey(key); ok {
				*slots[slot] = decodeItems(item)
			}
		}
	}
	return nil
}

func decodeItems(raw json.RawMessage) []ProcedureItem {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] != '[' {
		var single ProcedureItem
		_ = json.Unmarshal(raw, &single)
		if single.Name == "" {
			return nil
		}
		return []ProcedureItem{single}
	}

	var items []ProcedureItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}
