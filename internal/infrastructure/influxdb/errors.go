package influxdb

import "errors"

// Sentinel errors; check with errors.Is.
var (
	ErrNotConnected     = errors.New("influxdb: not connected")
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed wraps errors delivered to the SetOnError callback.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrQueryFailed wraps Flux query and result decoding errors.
	ErrQueryFailed = errors.New("influxdb: query failed")

	// ErrInvalidQuery is returned before any request is sent.
	ErrInvalidQuery = errors.New("influxdb: invalid query")

	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
