package discovery

import (
	"encoding/json"
	"fmt"

	"github.com/rfxcom2mqtt/backend/internal/infrastructure/mqtt"
	"github.com/rfxcom2mqtt/backend/internal/rfx"
)

// BridgeInfo is the process-wide bridge identity document published on the
// info topic: coordinator hardware, running version and active log level.
type BridgeInfo struct {
	Coordinator rfx.Info `json:"coordinator"`
	Version     string   `json:"version"`
	LogLevel    string   `json:"logLevel"`
}

// handleBridgeRequest processes bridge-level request topics. The only
// request carried over MQTT is the log-level change from the bridge's
// select entity; it takes effect process-wide immediately and is persisted
// to the settings file.
func (e *Engine) handleBridgeRequest(msg mqtt.Message) {
	if msg.Topic != e.mqtt.Topics().BridgeRequest("log_level") {
		e.logger.Warn("unknown bridge request", "topic", msg.Topic)
		return
	}

	var req struct {
		LogLevel string `json:"log_level"`
	}
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		e.logger.Error("malformed log level request", "payload", string(msg.Payload), "error", err)
		return
	}

	if err := e.settings.SetLogLevel(req.LogLevel); err != nil {
		e.logger.Error("rejected log level request", "level", req.LogLevel, "error", err)
		return
	}
	e.logger.SetLevel(req.LogLevel)
	e.logger.Info("update log level to : " + req.LogLevel)
}

// PublishBridgeDiscovery announces the four fixed bridge entities:
// coordinator-version sensor, bridge-version sensor, connection-state
// binary sensor and the log-level select control.
func (e *Engine) PublishBridgeDiscovery(info *BridgeInfo) {
	if !e.settings.Get().Homeassistant.Discovery {
		return
	}
	t := e.mqtt.Topics()

	bridgeDevice := map[string]any{
		"identifiers":  []string{"rfxcom2mqtt_bridge"},
		"model":        "Bridge",
		"name":         "Rfxcom2Mqtt Bridge",
		"manufacturer": "Rfxcom2Mqtt",
		"hw_version":   fmt.Sprintf("%s %d", info.Coordinator.HardwareVersion, info.Coordinator.FirmwareVersion),
		"sw_version":   e.origin.SW,
	}

	common := map[string]any{
		"availability":      []map[string]any{{"topic": t.Will()}},
		"availability_mode": "all",
		"device":            bridgeDevice,
		"origin":            e.origin,
	}

	coordinator := map[string]any{
		"entity_category": "diagnostic",
		"icon":            "mdi:chip",
		"name":            "Coordinator Version",
		"object_id":       "bridge_rfxcom2mqtt_coordinator_version",
		"state_topic":     t.Info(),
		"unique_id":       "bridge_rfxcom2mqtt_coordinator_version",
		"value_template":  "{{ value_json.coordinator.firmwareVersion }}",
	}
	mergeDoc(coordinator, common)
	e.publishDiscovery("sensor/bridge_rfxcom2mqtt_coordinator_version/version/config", coordinator)

	version := map[string]any{
		"entity_category": "diagnostic",
		"name":            "Version",
		"object_id":       "bridge_rfxcom2mqtt_version",
		"state_topic":     t.Info(),
		"unique_id":       "bridge_rfxcom2mqtt_version",
		"value_template":  "{{ value_json.version }}",
	}
	mergeDoc(version, common)
	e.publishDiscovery("sensor/bridge_rfxcom2mqtt_version/version/config", version)

	connection := map[string]any{
		"device_class":    "connectivity",
		"entity_category": "diagnostic",
		"name":            "Connection State",
		"payload_on":      "online",
		"payload_off":     "offline",
		"object_id":       "bridge_rfxcom2mqtt_connection_state",
		"state_topic":     t.Will(),
		"unique_id":       "bridge_rfxcom2mqtt_connection_state",
		"value_template":  "{{ value }}",
	}
	mergeDoc(connection, common)
	e.publishDiscovery("binary_sensor/bridge_rfxcom2mqtt_version/connection_state/config", connection)

	logLevel := map[string]any{
		"entity_category":  "config",
		"name":             "Log level",
		"object_id":        "bridge_rfxcom2mqtt_log_level",
		"state_topic":      t.Info(),
		"command_topic":    t.BridgeRequest("log_level"),
		"command_template": `{"log_level": "{{ value }}" }`,
		"options":          []string{"info", "warn", "error", "debug"},
		"unique_id":        "bridge_rfxcom2mqtt_log_level",
		"value_template":   "{{ value_json.logLevel | lower }}",
	}
	mergeDoc(logLevel, common)
	e.publishDiscovery("select/bridge_rfxcom2mqtt_log_level/log_level/config", logLevel)
}
