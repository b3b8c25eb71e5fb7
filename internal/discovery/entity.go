package discovery

import (
	"strconv"
	"strings"

	"github.com/rfxcom2mqtt/backend/internal/infrastructure/config"
)

// Entity is the addressing triple derived for one sub-entity of a device.
type Entity struct {
	// ID is the stable entity id: "<subTypeValue>_<id without 0x>", unit
	// suffixed for unit commands, "_group" suffixed for group commands.
	ID string
	// Name is the display name derived from the raw device id.
	Name string
	// Topic is the topic path segment under devices/, honouring the name
	// overrides from device configuration.
	Topic string
}

// DeriveEntity computes the entity addressing for a device event or
// command. It is pure: the same inputs always yield the same entity, so
// discovery documents and retained state topics stay stable across
// restarts.
//
// A group command addresses all units at once and maps to a distinct
// "_group" entity, never merged with a specific unit's entity.
func DeriveEntity(id, subTypeValue, unitCode string, group bool, conf *config.DeviceConfig) Entity {
	entityID := subTypeValue + "_" + strings.TrimPrefix(id, "0x")
	name := id
	topic := id
	if conf != nil && conf.Name != "" {
		topic = conf.Name
	}

	switch {
	case group:
		entityID += "_group"
		name += "_group"
	case unitCode != "":
		entityID += "_" + unitCode
		name += "_" + unitCode
		topic += "/" + unitCode
		if conf != nil {
			for _, unit := range conf.Units {
				if strconv.Itoa(unit.UnitCode) == unitCode && unit.Name != "" {
					topic = unit.Name
				}
			}
		}
	}

	return Entity{ID: entityID, Name: name, Topic: topic}
}
