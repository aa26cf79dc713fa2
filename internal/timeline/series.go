package timeline

import (
	"math"
	"strconv"
	"strings"

	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/freetext"
	"github.com/zatekoja/eyetimeline/backend/internal/notation"
	"github.com/zatekoja/eyetimeline/backend/internal/procedures"
	"github.com/zatekoja/eyetimeline/backend/pkg/utils"
)

// pressureUnmeasured marks a pressure reading that could not be taken
var pressureUnmeasured = []string{"cnm", "could not measure", "not measurable"}

// ExtractSeries walks the visits once in arrival order and collects the acuity,
// pressure and thickness series plus procedure markers. Output is not sorted; call
// SortByDate before plotting. Colors come from palette, which may be nil.
func ExtractSeries(record *entities.PatientRecord, eye entities.EyeSelector, palette *procedures.Palette) entities.Series {
	series := entities.Series{
		ProcedureEvents: []entities.ProcedureEvent{},
		Acuity:          []entities.TimeSeriesPoint{},
		Pressure:        []entities.TimeSeriesPoint{},
		Thickness:       []entities.TimeSeriesPoint{},
	}
	if record == nil {
		return series
	}

	for i := range record.Visits {
		v := &record.Visits[i]
		date := notation.NormalizeDate(v.Date)
		if date == "" {
			continue
		}

		for _, p := range procedures.VisitProcedures(*v, eye) {
			event := entities.ProcedureEvent{Date: date, Category: p.Category, Name: p.Name}
			if palette != nil {
				event.Color = palette.ColorFor(p.Name)
			}
			series.ProcedureEvents = append(series.ProcedureEvents, event)
		}

		if point, ok := acuityPoint(v, eye, date); ok {
			series.Acuity = append(series.Acuity, point)
		}
		if point, ok := pressurePoint(v, eye, date); ok {
			series.Pressure = append(series.Pressure, point)
		}
		if point, ok := thicknessPoint(v, eye, date); ok {
			series.Thickness = append(series.Thickness, point)
		}
	}
	return series
}

func acuityPoint(v *entities.Visit, eye entities.EyeSelector, date string) (entities.TimeSeriesPoint, bool) {
	if v.VisualAcuity == nil {
		return entities.TimeSeriesPoint{}, false
	}

	raw, ok := v.VisualAcuity.Distance.Get(eye)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return entities.TimeSeriesPoint{}, false
	}
	distance := notation.DecompressAcuity(raw)
	ordinal, ok := notation.AcuityToOrdinal(distance)
	if !ok {
		return entities.TimeSeriesPoint{}, false
	}

	point := entities.TimeSeriesPoint{Date: date, Display: distance, Value: ordinal}
	if near, ok := v.VisualAcuity.Near.Get(eye); ok && strings.TrimSpace(near) != "" {
		point.Near = notation.DecompressAcuity(strings.TrimSpace(near))
	}
	return point, true
}

func pressurePoint(v *entities.Visit, eye entities.EyeSelector, date string) (entities.TimeSeriesPoint, bool) {
	if v.Investigations == nil {
		return entities.TimeSeriesPoint{}, false
	}

	var raw string
	var ok bool
	if eye == entities.EyeBoth {
		raw, ok = v.Investigations.IOP.GetWithFallback(entities.EyeBoth)
	} else {
		raw, ok = v.Investigations.IOP.Get(eye)
	}
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" || utils.MatchesAnyFold(raw, pressureUnmeasured) {
		return entities.TimeSeriesPoint{}, false
	}

	token, ok := utils.LeadingNumber(raw)
	if !ok {
		return entities.TimeSeriesPoint{}, false
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(value) || value <= 0 {
		return entities.TimeSeriesPoint{}, false
	}
	return entities.TimeSeriesPoint{Date: date, Display: raw, Value: value}, true
}

// thicknessPoint reads the report; both eyes use the right-eye (primary) value
func thicknessPoint(v *entities.Visit, eye entities.EyeSelector, date string) (entities.TimeSeriesPoint, bool) {
	if v.Investigations == nil {
		return entities.TimeSeriesPoint{}, false
	}

	m := freetext.ExtractPairedMeasurement(v.Investigations.Report.String())
	value := m.Primary
	if eye == entities.EyeLeft {
		value = m.Secondary
	}
	if value == nil {
		return entities.TimeSeriesPoint{}, false
	}
	return entities.TimeSeriesPoint{
		Date:    date,
		Display: strconv.Itoa(*value),
		Value:   float64(*value),
	}, true
}
