// Package logging provides structured logging for rfxcom2mqtt.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Runtime level changes (the bridge exposes a log-level select over MQTT)
//   - Record streaming to subscribers (the admin WebSocket forwards live logs)
//
// # Usage
//
//	logger := logging.New(logging.Options{Level: "info", Format: "json"}, "1.0.0")
//	logger.Info("starting service", "port", 8099)
//	logger.SetLevel("debug") // applies immediately, no restart
package logging
