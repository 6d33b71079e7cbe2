package measure

import (
	"errors"
	"testing"
	"time"
)

func TestParseUnit(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Unit
		wantErr bool
	}{
		{name: "lower case", input: "celsius", want: UnitCelsius},
		{name: "mixed case", input: "Fahrenheit", want: UnitFahrenheit},
		{name: "surrounding space", input: "  lux ", want: UnitLux},
		{name: "unknown", input: "furlongs", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUnit(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidUnit) {
					t.Errorf("ParseUnit(%q) error = %v, want ErrInvalidUnit", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseUnit(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseUnit(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateSensorType(t *testing.T) {
	tests := []struct {
		measure SensorMeasure
		unit    Unit
		want    bool
	}{
		{SensorMeasureTemperature, UnitCelsius, true},
		{SensorMeasureTemperature, UnitKelvin, true},
		{SensorMeasureTemperature, UnitLux, false},
		{SensorMeasureCO2, UnitPPM, true},
		{SensorMeasureHumidity, UnitRelativeHumidity, true},
		{SensorMeasureOccupancy, UnitBoolean, true},
		{SensorMeasure("unknown"), UnitCelsius, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.measure)+"/"+string(tt.unit), func(t *testing.T) {
			if got := ValidateSensorType(tt.measure, tt.unit); got != tt.want {
				t.Errorf("ValidateSensorType(%q, %q) = %v, want %v", tt.measure, tt.unit, got, tt.want)
			}
		})
	}
}

func TestUnitsFor_ReturnsCopy(t *testing.T) {
	units := UnitsFor(SensorMeasureTemperature)
	if len(units) != 3 {
		t.Fatalf("UnitsFor(temperature) len = %d, want 3", len(units))
	}
	units[0] = UnitLux

	if !ValidateSensorType(SensorMeasureTemperature, UnitCelsius) {
		t.Error("mutating UnitsFor result changed the allowed units")
	}
	if UnitsFor("unknown") != nil {
		t.Error("UnitsFor(unknown) should be nil")
	}
}

func TestNewMeasure(t *testing.T) {
	m, err := NewMeasure(21.5, UnitCelsius)
	if err != nil {
		t.Fatalf("NewMeasure() error = %v", err)
	}
	if m.MeasurementUnit() != UnitCelsius {
		t.Errorf("MeasurementUnit() = %q, want celsius", m.MeasurementUnit())
	}
	if m.String() != "21.5 celsius" {
		t.Errorf("String() = %q, want %q", m.String(), "21.5 celsius")
	}

	if _, err := NewMeasure(1, Unit("bogus")); !errors.Is(err, ErrInvalidUnit) {
		t.Errorf("NewMeasure(bogus) error = %v, want ErrInvalidUnit", err)
	}

	var nilMeasure *Measure
	if nilMeasure.MeasurementUnit() != "" {
		t.Error("nil measure should have empty unit")
	}
	if nilMeasure.String() != "<nil>" {
		t.Errorf("nil String() = %q", nilMeasure.String())
	}
}

func TestNewSensorData(t *testing.T) {
	at := time.Date(2026, 1, 18, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	d := NewSensorData(42, at)

	if d.ID == "" {
		t.Error("ID should be generated")
	}
	if d.Kind() != KindSensorData {
		t.Errorf("Kind() = %q", d.Kind())
	}
	if !d.ObservedAt().Equal(at) {
		t.Errorf("ObservedAt() = %v, want %v", d.ObservedAt(), at)
	}
	if d.ObservedAt().Location() != time.UTC {
		t.Errorf("timestamp location = %v, want UTC", d.ObservedAt().Location())
	}

	other := NewSensorData(42, at)
	if d == other {
		t.Error("separately created readings must not be equal")
	}
	copied := d
	if copied != d {
		t.Error("a copied reading must equal the original")
	}
}

func TestNewTriggerHistory(t *testing.T) {
	h, err := NewTriggerHistory(TriggerOn, 1, time.Time{})
	if err != nil {
		t.Fatalf("NewTriggerHistory() error = %v", err)
	}
	if h.Kind() != KindTriggerHistory {
		t.Errorf("Kind() = %q", h.Kind())
	}
	if h.Timestamp.IsZero() {
		t.Error("zero timestamp should default to now")
	}

	if _, err := NewTriggerHistory("explode", 1, time.Time{}); !errors.Is(err, ErrInvalidTrigger) {
		t.Errorf("NewTriggerHistory(explode) error = %v, want ErrInvalidTrigger", err)
	}
}

func TestEncodeDecodeRecord(t *testing.T) {
	at := time.Date(2026, 1, 18, 12, 0, 0, 0, time.UTC)
	trigger, err := NewTriggerHistory(TriggerClose, 0, at)
	if err != nil {
		t.Fatalf("NewTriggerHistory() error = %v", err)
	}

	records := []Record{NewSensorData(19.5, at), trigger}
	for _, r := range records {
		env, err := EncodeRecord(r)
		if err != nil {
			t.Fatalf("EncodeRecord(%T) error = %v", r, err)
		}
		got, err := DecodeRecord(env)
		if err != nil {
			t.Fatalf("DecodeRecord(%+v) error = %v", env, err)
		}
		if got != r {
			t.Errorf("decoded %+v, want %+v", got, r)
		}
	}

	if _, err := EncodeRecord(nil); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("EncodeRecord(nil) error = %v, want ErrInvalidRecord", err)
	}
	if _, err := DecodeRecord(RecordJSON{Kind: "weather"}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("DecodeRecord(unknown kind) error = %v, want ErrInvalidRecord", err)
	}
	if _, err := DecodeRecord(RecordJSON{Kind: KindTriggerHistory, Command: "boom"}); !errors.Is(err, ErrInvalidTrigger) {
		t.Errorf("DecodeRecord(bad command) error = %v, want ErrInvalidTrigger", err)
	}
}

func TestParseRecords(t *testing.T) {
	t.Run("single object", func(t *testing.T) {
		records, err := ParseRecords([]byte(`{"kind":"sensor_data","value":21.5}`))
		if err != nil {
			t.Fatalf("ParseRecords() error = %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("len = %d, want 1", len(records))
		}
		d, ok := records[0].(SensorData)
		if !ok {
			t.Fatalf("record type = %T, want SensorData", records[0])
		}
		if d.Value != 21.5 || d.ID == "" {
			t.Errorf("record = %+v", d)
		}
	})

	t.Run("array keeps order", func(t *testing.T) {
		payload := `[
			{"id":"a","kind":"sensor_data","value":1,"timestamp":"2026-01-18T12:00:00Z"},
			{"id":"b","kind":"trigger_history","command":"off","value":0,"timestamp":"2026-01-18T12:00:01Z"}
		]`
		records, err := ParseRecords([]byte(payload))
		if err != nil {
			t.Fatalf("ParseRecords() error = %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("len = %d, want 2", len(records))
		}
		if records[0].RecordID() != "a" || records[1].RecordID() != "b" {
			t.Errorf("order = %s,%s", records[0].RecordID(), records[1].RecordID())
		}
		if records[1].Kind() != KindTriggerHistory {
			t.Errorf("second kind = %q", records[1].Kind())
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		if _, err := ParseRecords([]byte("  ")); !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("error = %v, want ErrInvalidRecord", err)
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		if _, err := ParseRecords([]byte(`{"kind":`)); !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("error = %v, want ErrInvalidRecord", err)
		}
	})
}
