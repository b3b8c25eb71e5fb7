// Package api provides the admin HTTP REST API and WebSocket server for
// rfxcom2mqtt.
//
// It exposes the device registry, entity states, bridge identity and
// runtime settings to the web frontend, and streams log records over a
// WebSocket for live troubleshooting. Mutating endpoints delegate to
// callbacks supplied by the controller so that device and bridge actions
// go through the same dispatch path as MQTT commands.
//
// The server follows the same lifecycle pattern as the other components:
//
//	server := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
