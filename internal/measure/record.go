package measure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordKind identifies the concrete type behind a Record.
type RecordKind string

// RecordKind constants.
const (
	KindSensorData     RecordKind = "sensor_data"
	KindTriggerHistory RecordKind = "trigger_history"
)

// Record is a historical entry accumulated by a transducer.
//
// Implementations are comparable value types so that == identifies
// the same record.
type Record interface {
	RecordID() string
	Kind() RecordKind
	ObservedAt() time.Time
}

// TriggerType is the command an actuator was triggered with.
type TriggerType string

// TriggerType constants.
const (
	TriggerOn    TriggerType = "on"
	TriggerOff   TriggerType = "off"
	TriggerOpen  TriggerType = "open"
	TriggerClose TriggerType = "close"
	TriggerSet   TriggerType = "set"
)

// Valid reports whether t is a known trigger type.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerOn, TriggerOff, TriggerOpen, TriggerClose, TriggerSet:
		return true
	}
	return false
}

// SensorData is a single reading taken by a sensor.
type SensorData struct {
	ID        string
	Value     float64
	Timestamp time.Time
}

// NewSensorData creates a reading with a fresh ID.
// A zero timestamp means "now".
func NewSensorData(value float64, at time.Time) SensorData {
	return SensorData{
		ID:        uuid.New().String(),
		Value:     value,
		Timestamp: normaliseTime(at),
	}
}

// RecordID implements Record.
func (d SensorData) RecordID() string { return d.ID }

// Kind implements Record.
func (SensorData) Kind() RecordKind { return KindSensorData }

// ObservedAt implements Record.
func (d SensorData) ObservedAt() time.Time { return d.Timestamp }

// TriggerHistory records an actuator being triggered.
type TriggerHistory struct {
	ID        string
	Command   TriggerType
	Value     float64
	Timestamp time.Time
}

// NewTriggerHistory creates a trigger entry with a fresh ID.
// A zero timestamp means "now".
func NewTriggerHistory(command TriggerType, value float64, at time.Time) (TriggerHistory, error) {
	if !command.Valid() {
		return TriggerHistory{}, fmt.Errorf("%w: %q", ErrInvalidTrigger, command)
	}
	return TriggerHistory{
		ID:        uuid.New().String(),
		Command:   command,
		Value:     value,
		Timestamp: normaliseTime(at),
	}, nil
}

// RecordID implements Record.
func (h TriggerHistory) RecordID() string { return h.ID }

// Kind implements Record.
func (TriggerHistory) Kind() RecordKind { return KindTriggerHistory }

// ObservedAt implements Record.
func (h TriggerHistory) ObservedAt() time.Time { return h.Timestamp }

// normaliseTime converts to UTC and strips the monotonic clock reading,
// so a record survives a storage round trip unchanged.
func normaliseTime(at time.Time) time.Time {
	if at.IsZero() {
		at = time.Now()
	}
	return at.UTC().Round(0)
}

// RecordJSON is the wire envelope for a Record.
type RecordJSON struct {
	ID        string     `json:"id,omitempty"`
	Kind      RecordKind `json:"kind"`
	Command   string     `json:"command,omitempty"`
	Value     float64    `json:"value"`
	Timestamp time.Time  `json:"timestamp"`
}

// EncodeRecord converts a Record to its wire envelope.
func EncodeRecord(r Record) (RecordJSON, error) {
	switch v := r.(type) {
	case SensorData:
		return RecordJSON{ID: v.ID, Kind: KindSensorData, Value: v.Value, Timestamp: v.Timestamp}, nil
	case TriggerHistory:
		return RecordJSON{ID: v.ID, Kind: KindTriggerHistory, Command: string(v.Command), Value: v.Value, Timestamp: v.Timestamp}, nil
	case nil:
		return RecordJSON{}, fmt.Errorf("%w: nil record", ErrInvalidRecord)
	default:
		return RecordJSON{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidRecord, r)
	}
}

// DecodeRecord converts a wire envelope to a Record.
// A missing ID is generated and a missing timestamp defaults to now.
func DecodeRecord(j RecordJSON) (Record, error) {
	id := j.ID
	if id == "" {
		id = uuid.New().String()
	}

	switch j.Kind {
	case KindSensorData, "":
		return SensorData{ID: id, Value: j.Value, Timestamp: normaliseTime(j.Timestamp)}, nil
	case KindTriggerHistory:
		cmd := TriggerType(j.Command)
		if !cmd.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTrigger, j.Command)
		}
		return TriggerHistory{ID: id, Command: cmd, Value: j.Value, Timestamp: normaliseTime(j.Timestamp)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidRecord, j.Kind)
	}
}

// ParseRecords decodes a JSON payload holding either one record envelope
// or an array of them.
func ParseRecords(payload []byte) ([]Record, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidRecord)
	}

	var envelopes []RecordJSON
	if payload[0] == '[' {
		if err := json.Unmarshal(payload, &envelopes); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
		}
	} else {
		var single RecordJSON
		if err := json.Unmarshal(payload, &single); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
		}
		envelopes = []RecordJSON{single}
	}

	records := make([]Record, 0, len(envelopes))
	for _, env := range envelopes {
		r, err := DecodeRecord(env)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// EncodeRecords converts records to their wire envelopes, preserving order.
func EncodeRecords(records []Record) ([]RecordJSON, error) {
	out := make([]RecordJSON, 0, len(records))
	for _, r := range records {
		env, err := EncodeRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, nil
}
