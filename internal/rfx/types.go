package rfx

import "context"

// Info describes the coordinator hardware reported by a status event.
type Info struct {
	ReceiverTypeCode int      `json:"receiverTypeCode"`
	ReceiverType     string   `json:"receiverType"`
	HardwareVersion  string   `json:"hardwareVersion"`
	FirmwareVersion  int      `json:"firmwareVersion"`
	FirmwareType     string   `json:"firmwareType"`
	EnabledProtocols []string `json:"enabledProtocols"`
}

// Event is one decoded radio event.
//
// The identity core is typed; everything protocol-specific (temperature,
// humidity, rssi, batteryLevel, ...) lives in the open Fields bag. The
// discovery engine classifies Fields against a static table rather than
// branching per protocol type.
type Event struct {
	// ID is the raw protocol address, usually a hex string ("0x011B...").
	ID string
	// Type is the protocol family ("lighting2", "temperaturehumidity1", ...).
	Type string
	// Subtype is the numeric subtype code within the family.
	Subtype int
	// SubTypeValue is the human label resolved from Subtype ("AC").
	SubTypeValue string
	// SeqNbr is the transceiver sequence number.
	SeqNbr int
	// UnitCode addresses one load of a multi-unit device. Empty when the
	// protocol has no unit concept.
	UnitCode string
	// CommandNumber is the protocol command code, nil for pure sensors.
	CommandNumber *int
	// Command is the decoded command label ("On", "Off").
	Command string
	// Group marks a command addressing all units of the device at once.
	Group bool
	// Fields holds the protocol-specific measurement fields.
	Fields map[string]any
}

// DeviceID returns the identity used for the device registry. lighting4
// devices have no address of their own; the transmitted data word is the
// identity.
func (e *Event) DeviceID() string {
	if e.Type == "lighting4" {
		if data, ok := e.Fields["data"].(string); ok && data != "" {
			return data
		}
	}
	return e.ID
}

// Payload flattens the event into the open document stored in the entity
// state store and published as device state.
func (e *Event) Payload() map[string]any {
	p := make(map[string]any, len(e.Fields)+8)
	for k, v := range e.Fields {
		p[k] = v
	}
	p["id"] = e.ID
	p["type"] = e.Type
	p["subtype"] = e.Subtype
	p["subTypeValue"] = e.SubTypeValue
	p["seqnbr"] = e.SeqNbr
	if e.UnitCode != "" {
		p["unitCode"] = e.UnitCode
	}
	if e.CommandNumber != nil {
		p["commandNumber"] = *e.CommandNumber
	}
	if e.Command != "" {
		p["command"] = e.Command
	}
	p["group"] = e.Group
	return p
}

// StatusCallback receives coordinator info on transceiver status events.
type StatusCallback func(info Info)

// EventCallback receives decoded radio events per enabled protocol.
type EventCallback func(protocolType string, event *Event)

// Transceiver is the narrow interface the core consumes. The real serial
// implementation and the Mock both satisfy it.
type Transceiver interface {
	// Initialise opens the device.
	Initialise(ctx context.Context) error

	// OnStatus registers the coordinator status callback.
	OnStatus(cb StatusCallback)

	// OnDisconnect registers a callback fired when the device drops.
	OnDisconnect(cb func())

	// SubscribeProtocolsEvent registers the radio event callback for all
	// enabled receive protocols.
	SubscribeProtocolsEvent(cb EventCallback)

	// SendCommand issues a device command. rfxFunction is the protocol
	// function name resolved by command translation ("switchOn", "sendData").
	SendCommand(deviceType, subTypeValue, rfxFunction, entityTopic string)

	// GetStatus probes the device and reports "online" or "offline".
	GetStatus(cb func(status string))

	// GetSubType resolves a numeric subtype to its label for a device type.
	GetSubType(deviceType string, subtype int) string

	// Stop closes the device.
	Stop()
}

// IsGroup reports whether a command number addresses the whole device
// (all units) for a given protocol family. Command codes from the RFXCOM
// protocol: lighting1 group on/off are 5/6, lighting2 are 4/3, lighting6
// are 2/3.
func IsGroup(deviceType string, commandNumber int) bool {
	switch deviceType {
	case "lighting1":
		return commandNumber == 5 || commandNumber == 6
	case "lighting2":
		return commandNumber == 3 || commandNumber == 4
	case "lighting6":
		return commandNumber == 2 || commandNumber == 3
	}
	return false
}
