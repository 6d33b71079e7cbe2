// Package mqtt connects the transducer service to the site's MQTT bus.
//
// Field gateways publish readings and trigger events to
// graylogic/transducer/{name}/data; the service publishes set point changes,
// retained, to graylogic/transducer/{name}/setpoint. A retained status
// message on graylogic/system/{client_id}/status is backed by a Last Will so
// consumers can tell a crash from a clean shutdown.
//
//	Gateways ↔ MQTT Broker ↔ graylogic-transducerd
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllTransducerData(), 1, ingest.HandleMessage)
//
// Reconnects use paho's exponential backoff between
// mqtt.reconnect.initial_delay and mqtt.reconnect.max_delay seconds.
// Subscriptions made through the Client are restored after each reconnect.
package mqtt
