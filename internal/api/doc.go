// Package api serves the transducer registry over HTTP and WebSocket.
//
// Routes live under /api/v1:
//
//	GET    /health                              dependency status
//	GET    /metrics                             Prometheus exposition
//	GET    /transducers                         list
//	POST   /transducers                         create (manage)
//	GET    /transducers/{id}                    fetch
//	PATCH  /transducers/{id}                    rename, registry ID (manage)
//	DELETE /transducers/{id}                    delete (manage)
//	PUT    /transducers/{id}/setpoint           assign or clear (operate)
//	PUT    /transducers/{id}/metadata/{key}     set key (operate)
//	DELETE /transducers/{id}/metadata/{key}     remove key (operate)
//	GET    /transducers/{id}/data               recent records
//	POST   /transducers/{id}/data               append records (operate)
//	DELETE /transducers/{id}/data/{recordID}    remove record (operate)
//	GET    /transducers/{id}/history            InfluxDB range query
//	GET    /ws                                  live event stream
//
// # Security
//
// Routes marked manage or operate require a bearer JWT whose role carries
// that permission. Reads and the WebSocket stream are open. With no
// security.jwt.secret configured every route is open.
//
// # Events
//
// The Hub is registered with the registry as a transducer.Sink. Clients
// subscribe to "transducer.data_recorded" and "transducer.set_point_changed".
package api
