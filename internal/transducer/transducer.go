package transducer

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-transducers/internal/measure"
)

// Logger defines the logging interface used by this package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MetadataSensorMeasure is the metadata key naming the physical quantity a
// transducer observes, e.g. "temperature". The Registry uses it to restrict
// set point units.
const MetadataSensorMeasure = "sensor_measure"

// Transducer is a named sensor or actuator in a building model.
//
// It holds an identity, an optional set point, free-form metadata, and the
// readings or trigger events it has accumulated. Two transducers are equal
// when their names are equal; nothing else takes part in equality.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Transducer struct {
	mu sync.RWMutex

	id         string
	name       string
	registryID string
	setPoint   *measure.Measure
	metadata   map[string]any
	data       []measure.Record

	logger Logger
}

// New creates a transducer with a generated ID.
// registryID may be empty. Returns ErrValidation if name is empty.
func New(name, registryID string) (*Transducer, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	return &Transducer{
		id:         uuid.New().String(),
		name:       name,
		registryID: registryID,
		metadata:   make(map[string]any),
		data:       make([]measure.Record, 0),
		logger:     noopLogger{},
	}, nil
}

// SetLogger sets the logger used for diagnostics.
func (t *Transducer) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	t.mu.Lock()
	t.logger = logger
	t.mu.Unlock()
}

// ID returns the identifier generated at construction.
func (t *Transducer) ID() string {
	return t.id
}

// Name returns the transducer name.
func (t *Transducer) Name() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.name
}

// SetName replaces the name. An empty value returns ErrValidation and
// keeps the previous name.
func (t *Transducer) SetName(value string) error {
	if value == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	t.mu.Lock()
	t.name = value
	t.mu.Unlock()
	return nil
}

// RegistryID returns the external registry identifier (may be empty).
func (t *Transducer) RegistryID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.registryID
}

// SetRegistryID replaces the external registry identifier.
func (t *Transducer) SetRegistryID(value string) {
	t.mu.Lock()
	t.registryID = value
	t.mu.Unlock()
}

// SetPoint returns a copy of the set point, or nil if none is set.
func (t *Transducer) SetPoint() *measure.Measure {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copyMeasure(t.setPoint)
}

// SetSetPoint assigns the set point.
//
// When both value and expected are given, the value's unit must equal
// expected; otherwise a *UnitMismatchError is returned and the previous set
// point is kept. A nil value clears the set point.
func (t *Transducer) SetSetPoint(value *measure.Measure, expected measure.Unit) error {
	if value != nil && expected != "" && value.Unit != expected {
		return &UnitMismatchError{Got: value.Unit, Want: expected}
	}

	t.mu.Lock()
	t.setPoint = copyMeasure(value)
	t.mu.Unlock()
	return nil
}

// Metadata returns a deep copy of the metadata map.
// Mutating the result does not affect the transducer.
func (t *Transducer) Metadata() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return deepCopyMap(t.metadata)
}

// MetadataValue returns a copy of the value stored under key.
func (t *Transducer) MetadataValue(key string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.metadata[key]
	if !ok {
		return nil, false
	}
	return deepCopyValue(v), true
}

// AddMetadata sets key to value, replacing any existing value.
func (t *Transducer) AddMetadata(key string, value any) {
	t.mu.Lock()
	t.metadata[key] = deepCopyValue(value)
	t.mu.Unlock()
}

// RemoveMetadata deletes key and reports whether it existed.
// A missing key is logged and otherwise ignored.
func (t *Transducer) RemoveMetadata(key string) bool {
	t.mu.Lock()
	_, ok := t.metadata[key]
	if ok {
		delete(t.metadata, key)
	}
	logger, name := t.logger, t.name
	t.mu.Unlock()

	if !ok {
		logger.Warn("metadata key not found", "transducer", name, "key", key)
	}
	return ok
}

// AddData appends records in order. Readings and trigger events may be
// mixed. A nil slice returns ErrValidation; an empty one is a no-op.
func (t *Transducer) AddData(records []measure.Record) error {
	if records == nil {
		return fmt.Errorf("%w: data must be a list of sensor readings or trigger events", ErrValidation)
	}

	t.mu.Lock()
	t.data = append(t.data, records...)
	t.mu.Unlock()
	return nil
}

// RemoveData removes the first record equal to r and reports whether
// one was removed.
func (t *Transducer) RemoveData(r measure.Record) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, existing := range t.data {
		if existing == r {
			t.data = append(t.data[:i], t.data[i+1:]...)
			return true
		}
	}
	return false
}

// Data returns the accumulated records in insertion order.
func (t *Transducer) Data() []measure.Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]measure.Record, len(t.data))
	copy(out, t.data)
	return out
}

// Equal reports whether t and other have the same name.
// ID, registry ID, set point, metadata, and data are ignored.
func (t *Transducer) Equal(other *Transducer) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Name() == other.Name()
}

// String returns a human-readable summary. Data is not included.
func (t *Transducer) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	setPoint := "none"
	if t.setPoint != nil {
		setPoint = t.setPoint.String()
	}

	return fmt.Sprintf("Transducer(ID: %s, Name: %s, Registry ID: %s, Set Point: %s, Metadata: %s)",
		t.id, t.name, t.registryID, setPoint, formatMetadata(t.metadata))
}

// Clone returns an independent copy with the same ID.
func (t *Transducer) Clone() *Transducer {
	t.mu.RLock()
	defer t.mu.RUnlock()

	data := make([]measure.Record, len(t.data))
	copy(data, t.data)

	return &Transducer{
		id:         t.id,
		name:       t.name,
		registryID: t.registryID,
		setPoint:   copyMeasure(t.setPoint),
		metadata:   deepCopyMap(t.metadata),
		data:       data,
		logger:     t.logger,
	}
}

// formatMetadata renders metadata with sorted keys for stable output.
func formatMetadata(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, m[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func copyMeasure(m *measure.Measure) *measure.Measure {
	if m == nil {
		return nil
	}
	cpy := *m
	return &cpy
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value. Maps, slices, arrays, and
// pointers of any element type are copied; other values are returned as is.
func deepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	return deepCopyReflect(reflect.ValueOf(v)).Interface()
}

func deepCopyReflect(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(deepCopyReflect(v.Elem()))
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopyReflect(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopyReflect(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopyReflect(v.Index(i)))
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(deepCopyReflect(v.Elem()))
		return out
	default:
		return v
	}
}
