package timeline

import "github.com/zatekoja/eyetimeline/backend/internal/domain/entities"

// Reserved keys routed by BuildIntervals to the set-based algorithms
const (
	KeyDiagnosis  = "diagnosis"
	KeyMedication = "medication"
)

// Category is one of the fixed anatomical observation fields
type Category struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Group      string `json:"group"`
	EyeIndexed bool   `json:"eye_indexed"`

	field func(v *entities.Visit) (entities.EyeValues, bool)
}

// Value resolves the raw finding on a visit for eye. Eye-indexed fields read the
// eye's slot and fall back to slot 0; other fields ignore the selector.
func (c Category) Value(v *entities.Visit, eye entities.EyeSelector) string {
	values, ok := c.field(v)
	if !ok {
		return ""
	}
	if !c.EyeIndexed {
		eye = entities.EyeRight
	}
	raw, _ := values.GetWithFallback(eye)
	return raw
}

func anterior(get func(a *entities.AnteriorSegment) entities.EyeValues) func(v *entities.Visit) (entities.EyeValues, bool) {
	return func(v *entities.Visit) (entities.EyeValues, bool) {
		if v.AnteriorSegment == nil {
			return entities.EyeValues{}, false
		}
		return get(v.AnteriorSegment), true
	}
}

func fundus(get func(f *entities.Fundus) entities.EyeValues) func(v *entities.Visit) (entities.EyeValues, bool) {
	return func(v *entities.Visit) (entities.EyeValues, bool) {
		if v.Fundus == nil {
			return entities.EyeValues{}, false
		}
		return get(v.Fundus), true
	}
}

var categories = []Category{
	{Key: "lids", Label: "Lids", Group: "anterior_segment", EyeIndexed: true,
		field: anterior(func(a *entities.AnteriorSegment) entities.EyeValues { return a.Lids })},
	{Key: "conjunctiva", Label: "Conjunctiva", Group: "anterior_segment", EyeIndexed: true,
		field: anterior(func(a *entities.AnteriorSegment) entities.EyeValues { return a.Conjunctiva })},
	{Key: "cornea", Label: "Cornea", Group: "anterior_segment", EyeIndexed: true,
		field: anterior(func(a *entities.AnteriorSegment) entities.EyeValues { return a.Cornea })},
	{Key: "anterior_chamber", Label: "Anterior Chamber", Group: "anterior_segment", EyeIndexed: true,
		field: anterior(func(a *entities.AnteriorSegment) entities.EyeValues { return a.AnteriorChamber })},
	{Key: "iris", Label: "Iris", Group: "anterior_segment", EyeIndexed: true,
		field: anterior(func(a *entities.AnteriorSegment) entities.EyeValues { return a.Iris })},
	{Key: "pupil", Label: "Pupil", Group: "anterior_segment", EyeIndexed: true,
		field: anterior(func(a *entities.AnteriorSegment) entities.EyeValues { return a.Pupil })},
	{Key: "lens", Label: "Lens", Group: "anterior_segment", EyeIndexed: true,
		field: anterior(func(a *entities.AnteriorSegment) entities.EyeValues { return a.Lens })},
	{Key: "motility", Label: "Ocular Motility", Group: "ocular_motility", EyeIndexed: false,
		field: func(v *entities.Visit) (entities.EyeValues, bool) {
			if v.OcularMotility == nil {
				return entities.EyeValues{}, false
			}
			return v.OcularMotility.Movements, true
		}},
	{Key: "disc", Label: "Disc", Group: "fundus", EyeIndexed: true,
		field: fundus(func(f *entities.Fundus) entities.EyeValues { return f.Disc })},
	{Key: "macula", Label: "Macula", Group: "fundus", EyeIndexed: true,
		field: fundus(func(f *entities.Fundus) entities.EyeValues { return f.Macula })},
	{Key: "retina", Label: "Retina", Group: "fundus", EyeIndexed: true,
		field: fundus(func(f *entities.Fundus) entities.EyeValues { return f.Retina })},
}

var categoryIndex = func() map[string]Category {
	idx := make(map[string]Category, len(categories))
	for _, c := range categories {
		idx[c.Key] = c
	}
	return idx
}()

// Categories returns the observation categories in display order
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// LookupCategory finds an observation category by key
func LookupCategory(key string) (Category, bool) {
	c, ok := categoryIndex[key]
	return c, ok
}
