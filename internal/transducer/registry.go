package transducer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-transducers/internal/measure"
)

// Sink receives change notifications from the Registry.
//
// Sinks are called after the change has been persisted. They must not block
// for long and must not call back into the Registry.
type Sink interface {
	DataRecorded(ctx context.Context, t *Transducer, records []measure.Record)
	SetPointChanged(ctx context.Context, t *Transducer)
}

// Registry provides transducer management with caching and thread safety.
// It wraps a Repository, keeps names unique, and fans changes out to Sinks.
//
// Every mutation is applied to a clone, persisted, and only then swapped
// into the cache, so a failed call leaves the cached state untouched.
//
// All public methods are thread-safe.
type Registry struct {
	repo Repository

	writeMu sync.Mutex // serialises mutations so name checks and writes are atomic

	cacheMu sync.RWMutex
	cache   map[string]*Transducer // by ID
	byName  map[string]string      // name -> ID

	sinksMu sync.RWMutex
	sinks   []Sink

	logger Logger
}

// NewRegistry creates a new transducer registry.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Transducer),
		byName: make(map[string]string),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry and the transducers it holds.
func (r *Registry) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.cacheMu.Lock()
	r.logger = logger
	for _, t := range r.cache {
		t.SetLogger(logger)
	}
	r.cacheMu.Unlock()
}

// AddSink registers a sink for change notifications.
func (r *Registry) AddSink(s Sink) {
	if s == nil {
		return
	}
	r.sinksMu.Lock()
	r.sinks = append(r.sinks, s)
	r.sinksMu.Unlock()
}

// RefreshCache reloads all transducers from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.refreshLocked(ctx)
}

func (r *Registry) refreshLocked(ctx context.Context) error {
	list, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading transducers: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Transducer, len(list))
	r.byName = make(map[string]string, len(list))
	for _, t := range list {
		t.SetLogger(r.logger)
		r.cache[t.ID()] = t
		r.byName[t.Name()] = t.ID()
	}

	r.logger.Info("transducer cache refreshed", "count", len(list))
	return nil
}

// Create registers a new transducer.
// Returns ErrValidation for an empty name and ErrTransducerExists when the
// name is already registered.
func (r *Registry) Create(ctx context.Context, name, registryID string) (*Transducer, error) {
	t, err := New(name, registryID)
	if err != nil {
		return nil, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if r.nameTaken(name, "") {
		return nil, fmt.Errorf("%w: %q", ErrTransducerExists, name)
	}
	if err := r.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	r.store(t)
	r.logger.Info("transducer created", "id", t.ID(), "name", name)
	return t.Clone(), nil
}

// Get retrieves a transducer by ID.
// The returned transducer is a clone; callers can safely modify it.
func (r *Registry) Get(ctx context.Context, id string) (*Transducer, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()
	if ok {
		return cached.Clone(), nil
	}

	// Fall back to repository (might have been written by another process).
	// writeMu keeps a concurrent Delete from finishing between the read and
	// the cache store.
	r.writeMu.Lock()
	t, err := r.lookup(ctx, id)
	r.writeMu.Unlock()
	if err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// GetByName retrieves a transducer by its unique name.
func (r *Registry) GetByName(ctx context.Context, name string) (*Transducer, error) {
	r.cacheMu.RLock()
	id, ok := r.byName[name]
	r.cacheMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTransducerNotFound, name)
	}
	return r.Get(ctx, id)
}

// List returns all transducers ordered by name.
// The returned transducers are clones.
func (r *Registry) List(ctx context.Context) ([]*Transducer, error) {
	r.cacheMu.RLock()
	if len(r.cache) == 0 {
		r.cacheMu.RUnlock()
		return r.repo.List(ctx)
	}
	out := make([]*Transducer, 0, len(r.cache))
	for _, t := range r.cache {
		out = append(out, t.Clone())
	}
	r.cacheMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

// Count returns the number of cached transducers.
func (r *Registry) Count() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// Update renames a transducer and/or replaces its registry ID in one
// persisted mutation. Nil fields are left as they are; if any change is
// rejected, none is applied.
//
// Returns ErrValidation for an empty name and ErrTransducerExists when
// another transducer already uses the name.
func (r *Registry) Update(ctx context.Context, id string, name, registryID *string) (*Transducer, error) {
	return r.mutate(ctx, id, func(t *Transducer) error {
		if name != nil {
			if r.nameTaken(*name, id) {
				return fmt.Errorf("%w: %q", ErrTransducerExists, *name)
			}
			if err := t.SetName(*name); err != nil {
				return err
			}
		}
		if registryID != nil {
			t.SetRegistryID(*registryID)
		}
		return nil
	})
}

// SetSetPoint assigns the set point, checking its unit against expected.
// A rejected unit returns *UnitMismatchError and changes nothing.
//
// When the transducer's sensor_measure metadata names a quantity, the unit
// must also be one of that quantity's reporting units, otherwise
// ErrUnitNotAllowed is returned.
func (r *Registry) SetSetPoint(ctx context.Context, id string, value *measure.Measure, expected measure.Unit) (*Transducer, error) {
	t, err := r.mutate(ctx, id, func(t *Transducer) error {
		if err := checkSensorUnit(t, value); err != nil {
			return err
		}
		return t.SetSetPoint(value, expected)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("set point changed", "id", id, "set_point", value.String())
	r.forEachSink(func(s Sink) { s.SetPointChanged(ctx, t.Clone()) })
	return t, nil
}

// AddMetadata sets a metadata key.
//
// The sensor_measure key must name a known quantity, and an existing set
// point must be in one of its units.
func (r *Registry) AddMetadata(ctx context.Context, id, key string, value any) (*Transducer, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: metadata key is required", ErrValidation)
	}

	var quantity measure.SensorMeasure
	if key == MetadataSensorMeasure {
		m, err := parseSensorMeasure(value)
		if err != nil {
			return nil, err
		}
		quantity, value = m, string(m)
	}

	return r.mutate(ctx, id, func(t *Transducer) error {
		if quantity != "" {
			if sp := t.SetPoint(); sp != nil && !measure.ValidateSensorType(quantity, sp.Unit) {
				return unitNotAllowed(quantity, sp.Unit)
			}
		}
		t.AddMetadata(key, value)
		return nil
	})
}

// RemoveMetadata deletes a metadata key and reports whether it existed.
func (r *Registry) RemoveMetadata(ctx context.Context, id, key string) (bool, error) {
	var removed bool
	_, err := r.mutate(ctx, id, func(t *Transducer) error {
		removed = t.RemoveMetadata(key)
		if !removed {
			return errUnchanged
		}
		return nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return false, err
	}
	return removed, nil
}

// RecordData appends readings or trigger events to a transducer and
// forwards them to every sink.
// A nil slice returns ErrValidation; an empty one is a no-op.
func (r *Registry) RecordData(ctx context.Context, id string, records []measure.Record) error {
	if records == nil {
		return fmt.Errorf("%w: data must be a list of sensor readings or trigger events", ErrValidation)
	}
	if len(records) == 0 {
		return nil
	}

	r.writeMu.Lock()
	current, err := r.lookup(ctx, id)
	if err != nil {
		r.writeMu.Unlock()
		return err
	}
	if err := r.repo.AppendData(ctx, id, records); err != nil {
		r.writeMu.Unlock()
		return err
	}
	next := current.Clone()
	_ = next.AddData(records) //nolint:errcheck // records is non-nil
	r.store(next)
	r.writeMu.Unlock()

	r.logger.Debug("data recorded", "id", id, "count", len(records))
	snapshot := next.Clone()
	r.forEachSink(func(s Sink) { s.DataRecorded(ctx, snapshot, records) })
	return nil
}

// RemoveData removes the first record with recordID and reports whether
// one was removed.
func (r *Registry) RemoveData(ctx context.Context, id, recordID string) (bool, error) {
	var removed bool
	_, err := r.mutateWith(ctx, id, func(t *Transducer) error {
		for _, rec := range t.Data() {
			if rec.RecordID() == recordID {
				removed = t.RemoveData(rec)
				break
			}
		}
		if !removed {
			return errUnchanged
		}
		return nil
	}, func(ctx context.Context, t *Transducer) error {
		_, err := r.repo.RemoveData(ctx, id, recordID)
		return err
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return false, err
	}
	return removed, nil
}

// ListData returns recent records for a transducer, newest first.
func (r *Registry) ListData(ctx context.Context, id string, limit int) ([]measure.Record, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}
	return r.repo.ListData(ctx, id, limit)
}

// Delete removes a transducer and its data.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	if t, ok := r.cache[id]; ok {
		delete(r.byName, t.Name())
		delete(r.cache, id)
	}
	r.cacheMu.Unlock()

	r.logger.Info("transducer deleted", "id", id)
	return nil
}

// PruneData deletes stored records older than the retention period and
// reloads the cache so in-memory data matches.
func (r *Registry) PruneData(ctx context.Context, olderThan time.Duration) (int64, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	n, err := r.repo.PruneData(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := r.refreshLocked(ctx); err != nil {
			return n, err
		}
	}
	return n, nil
}

// parseSensorMeasure validates a sensor_measure metadata value.
func parseSensorMeasure(value any) (measure.SensorMeasure, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrValidation, MetadataSensorMeasure)
	}
	m := measure.SensorMeasure(strings.ToLower(strings.TrimSpace(s)))
	if measure.UnitsFor(m) == nil {
		return "", fmt.Errorf("%w: unknown %s %q", ErrValidation, MetadataSensorMeasure, s)
	}
	return m, nil
}

// checkSensorUnit rejects a set point whose unit does not fit the
// transducer's sensor_measure. Transducers without one accept any unit.
func checkSensorUnit(t *Transducer, value *measure.Measure) error {
	if value == nil {
		return nil
	}
	raw, ok := t.MetadataValue(MetadataSensorMeasure)
	if !ok {
		return nil
	}
	m, err := parseSensorMeasure(raw)
	if err != nil {
		return nil //nolint:nilerr // values stored before validation existed are ignored
	}
	if !measure.ValidateSensorType(m, value.Unit) {
		return unitNotAllowed(m, value.Unit)
	}
	return nil
}

func unitNotAllowed(m measure.SensorMeasure, u measure.Unit) error {
	return fmt.Errorf("%w: %q is not a %s unit (allowed: %v)", ErrUnitNotAllowed, u, m, measure.UnitsFor(m))
}

// errUnchanged signals that a mutation was a no-op and need not be persisted.
var errUnchanged = errors.New("transducer: unchanged")

// mutate applies fn to a clone of the cached transducer and persists it
// with Repository.Update.
func (r *Registry) mutate(ctx context.Context, id string, fn func(*Transducer) error) (*Transducer, error) {
	return r.mutateWith(ctx, id, fn, r.repo.Update)
}

func (r *Registry) mutateWith(ctx context.Context, id string, fn func(*Transducer) error, persist func(context.Context, *Transducer) error) (*Transducer, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	current, err := r.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := persist(ctx, next); err != nil {
		return nil, err
	}

	r.store(next)
	return next.Clone(), nil
}

// lookup returns the cached transducer, loading it on a miss.
// Callers must hold writeMu and must not modify the result.
func (r *Registry) lookup(ctx context.Context, id string) (*Transducer, error) {
	r.cacheMu.RLock()
	t, ok := r.cache[id]
	r.cacheMu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(t)
	return t, nil
}

// store places t in the cache, replacing any entry with the same ID.
func (r *Registry) store(t *Transducer) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	t.SetLogger(r.logger)
	if old, ok := r.cache[t.ID()]; ok && old.Name() != t.Name() {
		delete(r.byName, old.Name())
	}
	r.cache[t.ID()] = t
	r.byName[t.Name()] = t.ID()
}

// nameTaken reports whether name belongs to a transducer other than exceptID.
func (r *Registry) nameTaken(name, exceptID string) bool {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	id, ok := r.byName[name]
	return ok && id != exceptID
}

func (r *Registry) forEachSink(fn func(Sink)) {
	r.sinksMu.RLock()
	sinks := make([]Sink, len(r.sinks))
	copy(sinks, r.sinks)
	r.sinksMu.RUnlock()

	for _, s := range sinks {
		fn(s)
	}
}
