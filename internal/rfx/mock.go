package rfx

import (
	"context"

	"github.com/rfxcom2mqtt/backend/internal/infrastructure/config"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/logging"
)

// mockEvents is the fixed sample set replayed on every subscription. It
// covers a multi-unit switch plus one event per supported sensor family so
// discovery and state handling can be exercised end to end without
// hardware.
func mockEvents() []*Event {
	off := 0
	return []*Event{
		{
			ID:            "0x011Bmocked_device2",
			Type:          "lighting2",
			Subtype:       0,
			SeqNbr:        7,
			UnitCode:      "1",
			CommandNumber: &off,
			Command:       "Off",
			Fields:        map[string]any{"level": 0, "rssi": 5},
		},
		{
			ID:            "0x011Bmocked_device2",
			Type:          "lighting2",
			Subtype:       0,
			SeqNbr:        7,
			UnitCode:      "2",
			CommandNumber: &off,
			Command:       "On",
			Fields:        map[string]any{"level": 0, "rssi": 5},
		},
		{
			ID:      "temphumbaro_device",
			Type:    "tempHumBaro1",
			Subtype: 1,
			SeqNbr:  1,
			Fields: map[string]any{
				"temperature":    "19",
				"humidity":       "60",
				"humidityStatus": "Off",
				"barometer":      "1040",
				"forecast":       "",
				"batteryLevel":   100,
				"rssi":           5,
			},
		},
		{
			ID:      "temphum_device",
			Type:    "temperatureHumidity1",
			Subtype: 1,
			SeqNbr:  1,
			Fields: map[string]any{
				"temperature":    "19",
				"humidity":       "60",
				"humidityStatus": "Off",
				"batteryLevel":   100,
				"rssi":           5,
			},
		},
		{
			ID:      "temp_device",
			Type:    "temperature1",
			Subtype: 1,
			SeqNbr:  1,
			Fields:  map[string]any{"temperature": "19", "batteryLevel": 100, "rssi": 5},
		},
		{
			ID:      "bbp1_device",
			Type:    "bbq1",
			Subtype: 1,
			SeqNbr:  1,
			Fields:  map[string]any{"temperature": "19", "batteryLevel": 100, "rssi": 5},
		},
		{
			ID:      "uv1_device",
			Type:    "uv1",
			Subtype: 1,
			SeqNbr:  1,
			Fields:  map[string]any{"temperature": "19", "uv": 2, "batteryLevel": 100, "rssi": 5},
		},
		{
			ID:      "hum_device",
			Type:    "humidity1",
			Subtype: 0,
			SeqNbr:  1,
			Fields: map[string]any{
				"humidity":       "60",
				"humidityStatus": "Off",
				"batteryLevel":   100,
				"rssi":           5,
			},
		},
		{
			ID:      "weight_device",
			Type:    "weight1",
			Subtype: 1,
			SeqNbr:  1,
			Fields:  map[string]any{"weight": 60, "batteryLevel": 100, "rssi": 5},
		},
		{
			ID:      "waterlevel_device",
			Type:    "waterlevel",
			Subtype: 0,
			SeqNbr:  1,
			Fields:  map[string]any{"temperature": "10", "level": 50, "batteryLevel": 100, "rssi": 5},
		},
	}
}

// Mock is a Transceiver that replays a deterministic sample event set.
// It stands in for the serial device in tests and in mock mode.
type Mock struct {
	cfg    config.RfxcomConfig
	logger *logging.Logger

	statusCb     StatusCallback
	disconnectCb func()
}

// NewMock creates a mock transceiver.
func NewMock(cfg config.RfxcomConfig, logger *logging.Logger) *Mock {
	return &Mock{cfg: cfg, logger: logger}
}

func (m *Mock) Initialise(_ context.Context) error {
	m.logger.Info("Mock device initialised")
	return nil
}

func (m *Mock) OnStatus(cb StatusCallback) {
	m.logger.Info("Mock on status")
	m.statusCb = cb
	cb(Info{
		ReceiverTypeCode: 83,
		ReceiverType:     "Mock",
		HardwareVersion:  "1.2",
		FirmwareVersion:  242,
		FirmwareType:     "Ext",
		EnabledProtocols: []string{"LIGHTING4", "LACROSSE", "AC", "OREGON", "HOMECONFORT"},
	})
}

func (m *Mock) OnDisconnect(cb func()) {
	m.logger.Info("Mock on disconnect")
	m.disconnectCb = cb
}

// SubscribeProtocolsEvent replays the sample set synchronously. SubTypeValue
// and the group flag are resolved the same way the serial implementation
// resolves them before handing events to the callback.
func (m *Mock) SubscribeProtocolsEvent(cb EventCallback) {
	m.logger.Info("Mock subscribe protocols event")
	for _, ev := range mockEvents() {
		ev.SubTypeValue = m.GetSubType(ev.Type, ev.Subtype)
		if ev.CommandNumber != nil {
			ev.Group = IsGroup(ev.Type, *ev.CommandNumber)
		}
		cb(ev.Type, ev)
	}
}

func (m *Mock) SendCommand(deviceType, subTypeValue, rfxFunction, entityTopic string) {
	m.logger.Info("Mock send command",
		"deviceType", deviceType,
		"subTypeValue", subTypeValue,
		"function", rfxFunction,
		"entity", entityTopic)
}

func (m *Mock) GetStatus(cb func(status string)) {
	m.logger.Info("Mock get status")
	cb("online")
}

func (m *Mock) GetSubType(deviceType string, subtype int) string {
	return SubTypeName(deviceType, subtype)
}

func (m *Mock) Stop() {
	m.logger.Info("Mock stop")
}
