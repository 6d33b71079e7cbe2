// Package logging provides structured logging for the transducer service.
//
// It wraps log/slog: JSON output for production, text for development, and
// service/version fields on every entry.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	registry.SetLogger(logger.Component("registry"))
//	logger.Info("listening", "addr", addr)
//
// Never log secrets: JWT secrets, bearer tokens, or the InfluxDB token.
package logging
