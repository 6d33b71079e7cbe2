package transducer

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-transducers/internal/measure"
)

// InfluxDB measurement names written by HistoryWriter.
const (
	MeasurementReading  = "transducer_reading"
	MeasurementTrigger  = "transducer_trigger"
	MeasurementSetPoint = "transducer_set_point"
)

// PointWriter queues a time-series point. *influxdb.Client satisfies it.
type PointWriter interface {
	WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, ts time.Time)
}

// HistoryWriter is a Sink that mirrors recorded data and set point changes
// into a time-series store.
type HistoryWriter struct {
	w   PointWriter
	now func() time.Time
}

// NewHistoryWriter returns a Sink writing to w.
func NewHistoryWriter(w PointWriter) *HistoryWriter {
	return &HistoryWriter{w: w, now: time.Now}
}

func historyTags(t *Transducer) map[string]string {
	tags := map[string]string{
		"transducer_id": t.ID(),
		"name":          t.Name(),
	}
	if rid := t.RegistryID(); rid != "" {
		tags["registry_id"] = rid
	}
	return tags
}

// DataRecorded writes one point per record at its observation time.
func (h *HistoryWriter) DataRecorded(_ context.Context, t *Transducer, records []measure.Record) {
	base := historyTags(t)
	for _, r := range records {
		switch v := r.(type) {
		case measure.SensorData:
			h.w.WritePointWithTime(MeasurementReading, base,
				map[string]any{"value": v.Value, "record_id": v.ID}, v.Timestamp)
		case measure.TriggerHistory:
			tags := make(map[string]string, len(base)+1)
			for k, val := range base {
				tags[k] = val
			}
			tags["command"] = string(v.Command)
			h.w.WritePointWithTime(MeasurementTrigger, tags,
				map[string]any{"value": v.Value, "record_id": v.ID}, v.Timestamp)
		}
	}
}

// SetPointChanged writes the new set point. A cleared set point is written
// with cleared=true and no value.
func (h *HistoryWriter) SetPointChanged(_ context.Context, t *Transducer) {
	tags := historyTags(t)
	fields := map[string]any{"cleared": true}
	if sp := t.SetPoint(); sp != nil {
		tags["unit"] = string(sp.Unit)
		fields = map[string]any{"value": sp.Value, "cleared": false}
	}
	h.w.WritePointWithTime(MeasurementSetPoint, tags, fields, h.now())
}
