// Package influxdb writes transducer history to InfluxDB v2.
//
// The SQLite store keeps a bounded window of readings for the API; InfluxDB
// holds the long-term series for dashboards. Points are written through the
// non-blocking, batched write API of influxdb-client-go.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // history export turned off
//	}
//	defer client.Close()
//
//	registry.AddSink(transducer.NewHistoryWriter(client))
//
// Batch size and flush interval come from influxdb.batch_size and
// influxdb.flush_interval (seconds).
package influxdb
