package transducer

import (
	"fmt"

	"github.com/nerrad567/gray-logic-transducers/internal/measure"
)

// Snapshot is the serialisable form of a Transducer.
// It is what the REST API returns and what the repository stores.
type Snapshot struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	RegistryID string           `json:"registry_id,omitempty"`
	SetPoint   *measure.Measure `json:"set_point,omitempty"`
	Metadata   map[string]any   `json:"metadata"`
	DataCount  int              `json:"data_count"`
}

// Snapshot captures the current state. Records are counted, not copied.
func (t *Transducer) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Snapshot{
		ID:         t.id,
		Name:       t.name,
		RegistryID: t.registryID,
		SetPoint:   copyMeasure(t.setPoint),
		Metadata:   deepCopyMap(t.metadata),
		DataCount:  len(t.data),
	}
}

// FromSnapshot rebuilds a Transducer with the snapshot's ID.
// The name rule applies exactly as in New.
func FromSnapshot(s Snapshot, data []measure.Record) (*Transducer, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}

	t, err := New(s.Name, s.RegistryID)
	if err != nil {
		return nil, err
	}
	t.id = s.ID
	t.setPoint = copyMeasure(s.SetPoint)
	if s.Metadata != nil {
		t.metadata = deepCopyMap(s.Metadata)
	}
	if data != nil {
		t.data = append(t.data, data...)
	}
	return t, nil
}
