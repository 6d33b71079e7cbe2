package transducer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-transducers/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-transducers/internal/measure"
)

// MQTTClient is the subset of *mqtt.Client used by Ingest.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Ingest outcomes reported to the observer.
const (
	OutcomeAccepted = "accepted"
	OutcomeInvalid  = "invalid"
	OutcomeUnknown  = "unknown_transducer"
	OutcomeFailed   = "failed"
)

// IngestConfig controls the MQTT bridge.
type IngestConfig struct {
	QoS byte

	// PublishSetPoints publishes retained set point messages on change.
	PublishSetPoints bool
}

// Ingest bridges MQTT and the Registry.
//
// Inbound: payloads on graylogic/transducer/{segment}/data are decoded as a
// record envelope or an array of them and recorded against the transducer
// named (or, failing that, identified) by {segment}.
//
// Outbound: as a Sink, set point changes are published retained on
// graylogic/transducer/{segment}/setpoint.
type Ingest struct {
	registry *Registry
	client   MQTTClient
	cfg      IngestConfig
	logger   Logger

	mu      sync.RWMutex
	ctx     context.Context
	observe func(outcome string)
}

// NewIngest creates an Ingest. Call Start to subscribe and register it with
// the registry via AddSink to publish set points.
func NewIngest(registry *Registry, client MQTTClient, cfg IngestConfig) *Ingest {
	return &Ingest{
		registry: registry,
		client:   client,
		cfg:      cfg,
		logger:   noopLogger{},
		ctx:      context.Background(),
	}
}

// SetLogger sets the logger for ingest diagnostics.
func (in *Ingest) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	in.logger = logger
}

// SetObserver registers a callback run once per inbound message with its
// outcome. Used for metrics.
func (in *Ingest) SetObserver(fn func(outcome string)) {
	in.mu.Lock()
	in.observe = fn
	in.mu.Unlock()
}

// Start subscribes to every transducer data topic. ctx bounds the registry
// calls made for inbound messages.
func (in *Ingest) Start(ctx context.Context) error {
	in.mu.Lock()
	in.ctx = ctx
	in.mu.Unlock()

	topic := mqtt.Topics{}.AllTransducerData()
	if err := in.client.Subscribe(topic, in.cfg.QoS, in.HandleMessage); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	in.logger.Info("transducer ingest started", "topic", topic)
	return nil
}

// Stop unsubscribes from the data topics.
func (in *Ingest) Stop() error {
	return in.client.Unsubscribe(mqtt.Topics{}.AllTransducerData())
}

// HandleMessage processes one data message. Errors are returned to the MQTT
// client, which logs them.
func (in *Ingest) HandleMessage(topic string, payload []byte) error {
	outcome, err := in.handle(topic, payload)
	in.report(outcome)
	return err
}

func (in *Ingest) handle(topic string, payload []byte) (string, error) {
	in.mu.RLock()
	ctx := in.ctx
	in.mu.RUnlock()

	segment := mqtt.Segment(topic, 2)
	if segment == "" {
		return OutcomeInvalid, fmt.Errorf("%w: no transducer in topic %q", ErrValidation, topic)
	}

	records, err := measure.ParseRecords(payload)
	if err != nil {
		return OutcomeInvalid, fmt.Errorf("decoding %s: %w", topic, err)
	}

	t, err := in.resolve(ctx, segment)
	if err != nil {
		if errors.Is(err, ErrTransducerNotFound) {
			return OutcomeUnknown, fmt.Errorf("%w: %q", err, segment)
		}
		return OutcomeFailed, err
	}

	if err := in.registry.RecordData(ctx, t.ID(), records); err != nil {
		return OutcomeFailed, fmt.Errorf("recording data for %s: %w", t.Name(), err)
	}
	in.logger.Debug("ingested transducer data", "transducer", t.Name(), "records", len(records))
	return OutcomeAccepted, nil
}

// resolve finds a transducer by name, falling back to ID.
func (in *Ingest) resolve(ctx context.Context, segment string) (*Transducer, error) {
	t, err := in.registry.GetByName(ctx, segment)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrTransducerNotFound) {
		return nil, err
	}
	return in.registry.Get(ctx, segment)
}

func (in *Ingest) report(outcome string) {
	in.mu.RLock()
	fn := in.observe
	in.mu.RUnlock()
	if fn != nil {
		fn(outcome)
	}
}

// TopicSegment returns the topic level used for t: its name when that is a
// valid single level, otherwise its ID.
func TopicSegment(t *Transducer) string {
	if name := t.Name(); mqtt.ValidSegment(name) {
		return name
	}
	return t.ID()
}

// setPointMessage is the retained set point payload.
type setPointMessage struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	SetPoint  *measure.Measure `json:"set_point"`
	Timestamp time.Time        `json:"timestamp"`
}

// DataRecorded is a no-op; inbound data already arrived over MQTT or the API.
func (in *Ingest) DataRecorded(context.Context, *Transducer, []measure.Record) {}

// SetPointChanged publishes the new set point retained. A cleared set point
// is published with "set_point": null.
func (in *Ingest) SetPointChanged(_ context.Context, t *Transducer) {
	if !in.cfg.PublishSetPoints {
		return
	}

	payload, err := json.Marshal(setPointMessage{
		ID:        t.ID(),
		Name:      t.Name(),
		SetPoint:  t.SetPoint(),
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		in.logger.Error("encoding set point", "transducer", t.Name(), "error", err)
		return
	}

	topic := mqtt.Topics{}.TransducerSetPoint(TopicSegment(t))
	if err := in.client.Publish(topic, payload, in.cfg.QoS, true); err != nil {
		in.logger.Warn("publishing set point failed", "topic", topic, "error", err)
	}
}
