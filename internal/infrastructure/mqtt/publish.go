package mqtt

import "fmt"

// maxPayloadSize caps outgoing messages at 1MB, matching Mosquitto's
// default message_size_limit in our deployments.
const maxPayloadSize = 1 << 20

// Publish sends payload to topic and waits for the broker to acknowledge.
//
// Set points are published retained so a late subscriber sees the current
// target immediately:
//
//	err := client.Publish(mqtt.Topics{}.TransducerSetPoint("ahu-1"), body, 1, true)
//
// Parameters:
//   - topic: a concrete topic; wildcards are not valid here
//   - payload: message body, at most maxPayloadSize bytes
//   - qos: 0, 1 or 2
//   - retained: whether the broker keeps the message for new subscribers
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected, or wrapping
//     ErrPublishFailed on oversize payloads, timeouts and broker errors
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishRetained publishes a retained message at the configured QoS.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}
