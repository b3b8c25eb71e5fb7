package discovery

import (
	"github.com/rfxcom2mqtt/backend/internal/rfx"
	"github.com/rfxcom2mqtt/backend/internal/store"
)

// fieldRule describes how one payload measurement field classifies into a
// sensor descriptor.
type fieldRule struct {
	semantic    string
	label       string
	description string
}

// sensorFields is the static field-to-semantic-type table. Classification
// iterates the event's open field bag against it instead of branching per
// protocol family; new measurement fields only need a row here.
var sensorFields = map[string]fieldRule{
	"rssi":           {"linkquality", "Linkquality", "Link quality (signal strength)"},
	"batteryLevel":   {"battery", "Battery", "Remaining battery in %"},
	"batteryVoltage": {"battery_voltage", "Battery voltage", "Reported battery voltage"},
	"temperature":    {"temperature", "Temperature", "Measured temperature value"},
	"humidity":       {"humidity", "Humidity", "Measured relative humidity"},
	"co2":            {"co2", "CO2", "Measured CO2 concentration"},
	"power":          {"power", "Power", "Instantaneous measured power"},
	"energy":         {"energy", "Energy", "Cumulative measured energy"},
	"barometer":      {"pressure", "Barometer", "Measured atmospheric pressure"},
	"count":          {"count", "Count", "Counter value"},
	"weight":         {"weight", "Weight", "Measured weight"},
	"uv":             {"uv", "UV", "Measured UV index"},
}

// classifyEvent extends rec's sub-entity maps from one event. Descriptors
// are insert-once: a field already classified keeps its original descriptor
// and only the entity state value changes on later events.
//
// Select and cover kinds have no classification rule in the current
// protocol table; events for them simply produce no descriptor.
func classifyEvent(rec *store.DeviceRecord, ev *rfx.Event, entity Entity) {
	deviceID := ev.DeviceID()

	for field, rule := range sensorFields {
		if _, ok := ev.Fields[field]; !ok {
			continue
		}
		rec.AddSensor(store.SensorDescriptor{
			ID:          deviceID + "_" + field,
			Name:        rule.label,
			Description: rule.description,
			Property:    field,
			Type:        rule.semantic,
		})
	}

	switch ev.Type {
	case "lighting1", "lighting2", "lighting3", "lighting5", "lighting6":
		valueOn, valueOff := "On", "Off"
		if ev.Group {
			valueOn, valueOff = "Group On", "Group off"
		}
		rec.AddSwitch(store.SwitchDescriptor{
			ID:          entity.ID,
			Name:        entity.Name,
			Description: "On/off state of the switch",
			Property:    "command",
			Type:        "binary",
			ValueOn:     valueOn,
			ValueOff:    valueOff,
			UnitCode:    ev.UnitCode,
			Group:       ev.Group,
		})
	case "security1":
		rec.AddBinarySensor(store.BinarySensorDescriptor{
			ID:          deviceID + "_deviceStatus",
			Name:        "Status",
			Description: "Reported security device status",
			Property:    "deviceStatus",
			Type:        "binary",
			ValueOn:     "1",
			ValueOff:    "0",
		})
	}
}
