package mqtt

import "fmt"

// Topic suffixes relative to the base topic. The structural layout is fixed;
// only the base prefix is user-configurable.
const (
	// TopicDevices is the parent of all device state topics.
	TopicDevices = "devices"

	// TopicWill is the bridge availability topic, also used as LWT.
	TopicWill = "bridge/status"

	// TopicInfo carries the bridge info document.
	TopicInfo = "bridge/info"

	// TopicCommand is the parent of all inbound entity command topics.
	TopicCommand = "cmd"

	// TopicBridgeRequest is the parent of bridge-level request topics.
	TopicBridgeRequest = "bridge/request"
)

// Topics builds rfxcom2mqtt topic strings for a given base prefix.
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct {
	Base string
}

// Will returns the bridge availability topic.
//
// Example: rfxcom2mqtt/bridge/status
func (t Topics) Will() string {
	return fmt.Sprintf("%s/%s", t.Base, TopicWill)
}

// Info returns the bridge info topic.
//
// Example: rfxcom2mqtt/bridge/info
func (t Topics) Info() string {
	return fmt.Sprintf("%s/%s", t.Base, TopicInfo)
}

// DeviceState returns the state topic for an entity topic path.
//
// Example: rfxcom2mqtt/devices/0x011B/2
func (t Topics) DeviceState(entityTopic string) string {
	return fmt.Sprintf("%s/%s/%s", t.Base, TopicDevices, entityTopic)
}

// Command returns the command topic for a device, without the trailing
// unit segment.
//
// Example: rfxcom2mqtt/cmd/lighting2/AC/0x011B
func (t Topics) Command(deviceType, subTypeValue, entityTopic string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", t.Base, TopicCommand, deviceType, subTypeValue, entityTopic)
}

// CommandSet returns the full command topic with the "set" sentinel.
//
// Example: rfxcom2mqtt/cmd/lighting2/AC/0x011B/set
func (t Topics) CommandSet(deviceType, subTypeValue, entityTopic string) string {
	return t.Command(deviceType, subTypeValue, entityTopic) + "/set"
}

// BridgeRequest returns a bridge-level request topic.
//
// Example: rfxcom2mqtt/bridge/request/log_level
func (t Topics) BridgeRequest(action string) string {
	return fmt.Sprintf("%s/%s/%s", t.Base, TopicBridgeRequest, action)
}

// AllCommands returns a pattern matching every command topic.
//
// Pattern: rfxcom2mqtt/cmd/#
func (t Topics) AllCommands() string {
	return fmt.Sprintf("%s/%s/#", t.Base, TopicCommand)
}

// AllBridgeRequests returns a pattern matching every bridge request topic.
//
// Pattern: rfxcom2mqtt/bridge/request/#
func (t Topics) AllBridgeRequests() string {
	return fmt.Sprintf("%s/%s/#", t.Base, TopicBridgeRequest)
}
