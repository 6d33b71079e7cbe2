package measure

import (
	"fmt"
	"strconv"
)

// Measure is a numeric value paired with its unit of measurement.
// Transducers use it for set points.
type Measure struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// NewMeasure creates a Measure, rejecting unknown units.
func NewMeasure(value float64, unit Unit) (*Measure, error) {
	if !unit.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}
	return &Measure{Value: value, Unit: unit}, nil
}

// MeasurementUnit returns the unit the value is expressed in.
func (m *Measure) MeasurementUnit() Unit {
	if m == nil {
		return ""
	}
	return m.Unit
}

// String returns the measure as "<value> <unit>", e.g. "21.5 celsius".
func (m *Measure) String() string {
	if m == nil {
		return "<nil>"
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64) + " " + string(m.Unit)
}
