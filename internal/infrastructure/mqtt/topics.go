package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the transducer service.
//
//	graylogic/transducer/{segment}/data       inbound readings and trigger events
//	graylogic/transducer/{segment}/setpoint   retained set point, published on change
//	graylogic/system/{client_id}/status       retained online/offline status (LWT)
//
// {segment} is a transducer name when it is a valid topic level, otherwise
// its ID.
const (
	TopicPrefixTransducer = "graylogic/transducer"
	TopicPrefixSystem     = "graylogic/system"
)

// Topics provides builders for the service's MQTT topics.
//
//	topic := mqtt.Topics{}.TransducerData("ahu-1-supply-temp")
//	// graylogic/transducer/ahu-1-supply-temp/data
type Topics struct{}

// TransducerData returns the inbound data topic for one transducer.
func (Topics) TransducerData(segment string) string {
	return fmt.Sprintf("%s/%s/data", TopicPrefixTransducer, segment)
}

// TransducerSetPoint returns the retained set point topic for one transducer.
func (Topics) TransducerSetPoint(segment string) string {
	return fmt.Sprintf("%s/%s/setpoint", TopicPrefixTransducer, segment)
}

// AllTransducerData matches every transducer's data topic.
//
// Pattern: graylogic/transducer/+/data
func (Topics) AllTransducerData() string {
	return TopicPrefixTransducer + "/+/data"
}

// SystemStatus returns the status topic for a client.
//
// Example: graylogic/system/graylogic-transducerd/status
func (Topics) SystemStatus(clientID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixSystem, clientID)
}

// ValidSegment reports whether s can be used as a single topic level:
// non-empty and free of separators and wildcards.
func ValidSegment(s string) bool {
	return s != "" && !strings.ContainsAny(s, "/+#\x00")
}

// Segment returns the level at position idx of topic, or "" if the topic is
// shorter. Index 2 of graylogic/transducer/{segment}/data is the segment.
func Segment(topic string, idx int) string {
	parts := strings.Split(topic, "/")
	if idx < 0 || idx >= len(parts) {
		return ""
	}
	return parts[idx]
}
