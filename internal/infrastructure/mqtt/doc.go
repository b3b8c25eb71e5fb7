// Package mqtt wraps paho.mqtt.golang for rfxcom2mqtt.
//
// It provides connection management with Last Will and Testament on the
// bridge status topic, publishing relative to the configured base topic,
// and a listener model: components register themselves with the topic
// filters they want, and inbound messages are routed to every listener
// whose filter matches.
//
// # Topic namespace
//
//	<base>/devices/...          device state (retained)
//	<base>/cmd/...              inbound entity commands
//	<base>/bridge/status        availability (will topic)
//	<base>/bridge/info          bridge info document
//	<base>/bridge/request/...   bridge-level requests (log level, actions)
//
// Discovery documents are published under a separate prefix (typically
// "homeassistant") via the Base publish option.
package mqtt
