package transducer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-transducers/internal/measure"
)

type writtenPoint struct {
	measurement string
	tags        map[string]string
	fields      map[string]any
	ts          time.Time
}

type mockPointWriter struct {
	mu     sync.Mutex
	points []writtenPoint
}

func (m *mockPointWriter) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, ts time.Time) {
	m.mu.Lock()
	m.points = append(m.points, writtenPoint{measurement, tags, fields, ts})
	m.mu.Unlock()
}

func TestHistoryWriter_DataRecorded(t *testing.T) {
	w := &mockPointWriter{}
	h := NewHistoryWriter(w)
	tr := mustNew(t, "zone-1", "brick:Z1")

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reading := measure.NewSensorData(21.5, at)
	trigger, err := measure.NewTriggerHistory(measure.TriggerOn, 1, at.Add(time.Minute))
	if err != nil {
		t.Fatalf("NewTriggerHistory() error = %v", err)
	}

	h.DataRecorded(context.Background(), tr, []measure.Record{reading, trigger})

	if len(w.points) != 2 {
		t.Fatalf("wrote %d points, want 2", len(w.points))
	}

	tests := []struct {
		name        string
		point       writtenPoint
		measurement string
		value       float64
		ts          time.Time
		command     string
	}{
		{"reading", w.points[0], MeasurementReading, 21.5, at, ""},
		{"trigger", w.points[1], MeasurementTrigger, 1, at.Add(time.Minute), "on"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.point
			if p.measurement != tt.measurement {
				t.Errorf("measurement = %q, want %q", p.measurement, tt.measurement)
			}
			if p.tags["transducer_id"] != tr.ID() || p.tags["name"] != "zone-1" || p.tags["registry_id"] != "brick:Z1" {
				t.Errorf("tags = %v", p.tags)
			}
			if p.tags["command"] != tt.command {
				t.Errorf("command tag = %q, want %q", p.tags["command"], tt.command)
			}
			if p.fields["value"] != tt.value {
				t.Errorf("value = %v, want %v", p.fields["value"], tt.value)
			}
			if !p.ts.Equal(tt.ts) {
				t.Errorf("ts = %v, want %v", p.ts, tt.ts)
			}
		})
	}

	// The trigger's command tag must not leak into the shared tag set.
	if _, ok := w.points[0].tags["command"]; ok {
		t.Error("reading point carries a command tag")
	}
}

func TestHistoryWriter_SetPointChanged(t *testing.T) {
	w := &mockPointWriter{}
	h := NewHistoryWriter(w)
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	tr := mustNew(t, "zone-2", "")
	if err := tr.SetSetPoint(mustMeasure(t, 400, measure.UnitPPM), ""); err != nil {
		t.Fatalf("SetSetPoint() error = %v", err)
	}
	h.SetPointChanged(context.Background(), tr)

	if err := tr.SetSetPoint(nil, ""); err != nil {
		t.Fatalf("SetSetPoint(nil) error = %v", err)
	}
	h.SetPointChanged(context.Background(), tr)

	if len(w.points) != 2 {
		t.Fatalf("wrote %d points, want 2", len(w.points))
	}
	set, cleared := w.points[0], w.points[1]
	if set.measurement != MeasurementSetPoint || set.tags["unit"] != "ppm" || set.fields["value"] != 400.0 || set.fields["cleared"] != false {
		t.Errorf("set point = %+v", set)
	}
	if _, ok := set.tags["registry_id"]; ok {
		t.Error("empty registry_id should not be tagged")
	}
	if cleared.fields["cleared"] != true || cleared.fields["value"] != nil {
		t.Errorf("cleared point = %+v", cleared)
	}
	if !set.ts.Equal(fixed) {
		t.Errorf("ts = %v, want %v", set.ts, fixed)
	}
}
