// Package measure provides the value types a transducer works with.
//
// It covers three concerns:
//   - Units of measurement (Unit) and the sensor quantities they belong to
//   - Measures: a numeric value paired with its unit (used for set points)
//   - Records: the historical entries a transducer accumulates, either a
//     SensorData reading or a TriggerHistory actuation
//
// Records are comparable values. Two records are equal when every field
// matches, which is what Transducer.RemoveData relies on.
//
// # Wire Format
//
// Records travel over MQTT, REST, and SQLite as the same JSON envelope:
//
//	{"id":"...","kind":"sensor_data","value":21.5,"timestamp":"2026-01-18T12:00:00Z"}
//	{"id":"...","kind":"trigger_history","command":"on","value":1,"timestamp":"..."}
//
// Use EncodeRecord and DecodeRecord to convert between the two forms.
package measure
