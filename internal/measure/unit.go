package measure

import (
	"fmt"
	"strings"
)

// Unit is a unit of measurement.
type Unit string

// Unit constants.
const (
	UnitCelsius            Unit = "celsius"
	UnitFahrenheit         Unit = "fahrenheit"
	UnitKelvin             Unit = "kelvin"
	UnitPercent            Unit = "percent"
	UnitRelativeHumidity   Unit = "relative_humidity"
	UnitLux                Unit = "lux"
	UnitPPM                Unit = "ppm"
	UnitPascal             Unit = "pascal"
	UnitKilopascal         Unit = "kilopascal"
	UnitWatts              Unit = "watts"
	UnitKilowattHours      Unit = "kilowatt_hours"
	UnitVolts              Unit = "volts"
	UnitAmperes            Unit = "amperes"
	UnitCubicMetersPerHour Unit = "cubic_meters_per_hour"
	UnitDecibels           Unit = "decibels"
	UnitBoolean            Unit = "boolean"
)

// AllUnits returns all valid unit values.
func AllUnits() []Unit {
	return []Unit{
		UnitCelsius, UnitFahrenheit, UnitKelvin, UnitPercent,
		UnitRelativeHumidity, UnitLux, UnitPPM, UnitPascal,
		UnitKilopascal, UnitWatts, UnitKilowattHours, UnitVolts,
		UnitAmperes, UnitCubicMetersPerHour, UnitDecibels, UnitBoolean,
	}
}

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	for _, known := range AllUnits() {
		if u == known {
			return true
		}
	}
	return false
}

// ParseUnit converts a string to a Unit. Matching is case-insensitive.
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if !u.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
	return u, nil
}

// SensorMeasure is the physical quantity a sensor observes.
type SensorMeasure string

// SensorMeasure constants.
const (
	SensorMeasureTemperature SensorMeasure = "temperature"
	SensorMeasureHumidity    SensorMeasure = "humidity"
	SensorMeasureIlluminance SensorMeasure = "illuminance"
	SensorMeasureCO2         SensorMeasure = "co2"
	SensorMeasurePressure    SensorMeasure = "pressure"
	SensorMeasurePower       SensorMeasure = "power"
	SensorMeasureEnergy      SensorMeasure = "energy"
	SensorMeasureVoltage     SensorMeasure = "voltage"
	SensorMeasureCurrent     SensorMeasure = "current"
	SensorMeasureAirFlow     SensorMeasure = "air_flow"
	SensorMeasureNoise       SensorMeasure = "noise"
	SensorMeasureOccupancy   SensorMeasure = "occupancy"
)

// sensorUnits maps each sensor quantity to the units it may be reported in.
var sensorUnits = map[SensorMeasure][]Unit{
	SensorMeasureTemperature: {UnitCelsius, UnitFahrenheit, UnitKelvin},
	SensorMeasureHumidity:    {UnitRelativeHumidity, UnitPercent},
	SensorMeasureIlluminance: {UnitLux},
	SensorMeasureCO2:         {UnitPPM},
	SensorMeasurePressure:    {UnitPascal, UnitKilopascal},
	SensorMeasurePower:       {UnitWatts},
	SensorMeasureEnergy:      {UnitKilowattHours},
	SensorMeasureVoltage:     {UnitVolts},
	SensorMeasureCurrent:     {UnitAmperes},
	SensorMeasureAirFlow:     {UnitCubicMetersPerHour},
	SensorMeasureNoise:       {UnitDecibels},
	SensorMeasureOccupancy:   {UnitBoolean},
}

// UnitsFor returns the units a sensor quantity may be reported in.
// Returns nil for an unknown quantity.
func UnitsFor(m SensorMeasure) []Unit {
	units, ok := sensorUnits[m]
	if !ok {
		return nil
	}
	out := make([]Unit, len(units))
	copy(out, units)
	return out
}

// ValidateSensorType reports whether unit u is a legal reporting unit
// for the sensor quantity m.
func ValidateSensorType(m SensorMeasure, u Unit) bool {
	for _, allowed := range sensorUnits[m] {
		if allowed == u {
			return true
		}
	}
	return false
}
