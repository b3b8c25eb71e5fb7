package discovery

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rfxcom2mqtt/backend/internal/infrastructure/config"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/logging"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/mqtt"
	"github.com/rfxcom2mqtt/backend/internal/rfx"
	"github.com/rfxcom2mqtt/backend/internal/store"
)

// Publisher is the slice of the MQTT client the engine needs.
type Publisher interface {
	Publish(topic string, payload []byte, opts mqtt.PublishOptions) error
	Topics() mqtt.Topics
}

// origin is the discovery origin block attached to every document.
type origin struct {
	Name string `json:"name"`
	SW   string `json:"sw"`
	URL  string `json:"url"`
}

// Engine drives device discovery: it classifies RF events into device
// records, maintains entity state, publishes discovery documents and
// handles inbound command and bridge request messages.
//
// The engine performs no internal locking. The controller serializes all
// RF and MQTT callbacks onto a single dispatch loop, so only one handler
// runs at a time.
type Engine struct {
	mqtt     Publisher
	rfxtrx   rfx.Transceiver
	settings *config.Service
	devices  *store.DeviceStore
	state    *store.StateStore
	logger   *logging.Logger
	origin   origin
}

// NewEngine creates the discovery engine. logger must be the root logger so
// log-level requests take effect process-wide.
func NewEngine(
	client Publisher,
	rfxtrx rfx.Transceiver,
	settings *config.Service,
	devices *store.DeviceStore,
	state *store.StateStore,
	version string,
	logger *logging.Logger,
) *Engine {
	return &Engine{
		mqtt:     client,
		rfxtrx:   rfxtrx,
		settings: settings,
		devices:  devices,
		state:    state,
		logger:   logger,
		origin: origin{
			Name: "Rfxcom2MQTT",
			SW:   version,
			URL:  "https://rfxcom2mqtt.github.io/rfxcom2mqtt/",
		},
	}
}

// SubscribeTopic declares the command and bridge request filters.
func (e *Engine) SubscribeTopic() []string {
	t := e.mqtt.Topics()
	return []string{t.AllCommands(), t.AllBridgeRequests()}
}

// OnMQTTMessage routes inbound messages to the command or bridge request
// handler.
func (e *Engine) OnMQTTMessage(msg mqtt.Message) {
	t := e.mqtt.Topics()
	switch {
	case mqtt.MatchesFilter(msg.Topic, t.AllCommands()):
		e.handleCommand(msg)
	case mqtt.MatchesFilter(msg.Topic, t.AllBridgeRequests()):
		e.handleBridgeRequest(msg)
	default:
		e.logger.Warn("topic error, should start with "+t.Base, "topic", msg.Topic)
	}
}

// HandleEvent runs the full publish cycle for one classified RF event:
// device record update, name overrides, entity state, classification and
// discovery documents for every descriptor on the device. Documents are
// republished on every event so a late-joining discovery consumer always
// converges.
func (e *Engine) HandleEvent(ev *rfx.Event) {
	settings := e.settings.Get()
	deviceID := ev.DeviceID()
	deviceConf := settings.DeviceConfig(deviceID)
	entity := DeriveEntity(deviceID, ev.SubTypeValue, ev.UnitCode, ev.Group, deviceConf)
	defaultName := ev.SubTypeValue + "_" + strings.TrimPrefix(deviceID, "0x")
	prefix := settings.Homeassistant.DiscoveryDevice

	rec := e.devices.Get(deviceID)
	rec.Type = ev.Type
	rec.Subtype = ev.Subtype
	rec.SubTypeValue = ev.SubTypeValue
	if rec.OriginalName == "" {
		rec.OriginalName = defaultName
	}
	if deviceConf != nil && deviceConf.FriendlyName != "" {
		rec.Name = deviceConf.FriendlyName
	} else if rec.Name == "" {
		rec.Name = defaultName
	}
	rec.AddIdentifier(prefix + "_" + defaultName)
	rec.AddIdentifier(prefix + "_" + rec.Name)
	rec.AddEntity(entity.ID)

	classifyEvent(&rec, ev, entity)
	applyUnitNames(&rec, deviceConf)

	rec = e.devices.Set(deviceID, rec)
	e.state.Set(entity.ID, ev.Payload(), "event")

	e.PublishDeviceDiscovery(&rec, entity.Topic)
}

// applyUnitNames renames switch sub-entities from the per-unit overrides in
// device configuration. Applied after classification so the override also
// reaches descriptors created before the configuration change.
func applyUnitNames(rec *store.DeviceRecord, conf *config.DeviceConfig) {
	if conf == nil {
		return
	}
	for _, unit := range conf.Units {
		name := unit.FriendlyName
		if name == "" {
			name = unit.Name
		}
		if name == "" {
			continue
		}
		code := strconv.Itoa(unit.UnitCode)
		for id, sw := range rec.Switches {
			if sw.UnitCode == code && !sw.Group {
				sw.Name = name
				rec.Switches[id] = sw
			}
		}
	}
}

// PublishDeviceDiscovery publishes one discovery document per descriptor on
// the device, merged with the common availability/device/origin block.
// eventTopic is the entity topic of the triggering event, used as the state
// topic for sensor documents.
func (e *Engine) PublishDeviceDiscovery(rec *store.DeviceRecord, eventTopic string) {
	settings := e.settings.Get()
	if !settings.Homeassistant.Discovery {
		return
	}
	deviceConf := settings.DeviceConfig(rec.ID)
	prefix := settings.Homeassistant.DiscoveryDevice

	deviceTopic := rec.ID
	if deviceConf != nil && deviceConf.Name != "" {
		deviceTopic = deviceConf.Name
	}

	deviceBlock := map[string]any{
		"identifiers":  rec.Identifiers,
		"name":         rec.Name,
		"manufacturer": rec.Manufacturer,
		"via_device":   rec.ViaDevice,
	}

	common := func(stateTopic string) map[string]any {
		return map[string]any{
			"availability":          []map[string]any{{"topic": e.mqtt.Topics().Will()}},
			"device":                deviceBlock,
			"json_attributes_topic": e.mqtt.Topics().DeviceState(stateTopic),
			"origin":                e.origin,
			"state_topic":           e.mqtt.Topics().DeviceState(stateTopic),
		}
	}

	for _, sensor := range rec.Sensors {
		doc := map[string]any{
			"enabled_by_default": true,
			"name":               rec.Name + " " + sensor.Name,
			"object_id":          deviceTopic + "_" + sensor.Type,
			"unique_id":          deviceTopic + "_" + sensor.Type + "_" + prefix,
			"value_template":     "{{ value_json." + sensor.Property + " }}",
		}
		mergeDoc(doc, sensorLookup[sensor.Type])
		mergeDoc(doc, common(eventTopic))
		e.publishDiscovery("sensor/"+deviceTopic+"/"+sensor.Type+"/config", doc)
	}

	for _, bin := range rec.BinarySensors {
		doc := map[string]any{
			"enabled_by_default": true,
			"name":               rec.Name + " " + bin.Name,
			"object_id":          deviceTopic + "_" + bin.Property,
			"unique_id":          deviceTopic + "_" + bin.Property + "_" + prefix,
			"payload_on":         bin.ValueOn,
			"payload_off":        bin.ValueOff,
			"value_template":     "{{ value_json." + bin.Property + " }}",
		}
		mergeDoc(doc, common(eventTopic))
		e.publishDiscovery("binary_sensor/"+deviceTopic+"/"+bin.Property+"/config", doc)
	}

	for _, sw := range rec.Switches {
		swTopic := switchTopic(deviceTopic, sw, deviceConf)
		doc := map[string]any{
			"enabled_by_default": true,
			"payload_on":         sw.ValueOn,
			"payload_off":        sw.ValueOff,
			"state_on":           sw.ValueOn,
			"state_off":          sw.ValueOff,
			"command_topic":      e.mqtt.Topics().CommandSet(rec.Type, rec.SubTypeValue, swTopic),
			"name":               sw.Name,
			"object_id":          sw.ID,
			"unique_id":          sw.ID + "_" + prefix,
			"value_template":     "{{ value_json." + sw.Property + " }}",
		}
		mergeDoc(doc, common(swTopic))
		e.publishDiscovery("switch/"+swTopic+"/config", doc)
	}

	// Selects and covers have no classification rule yet; nothing is
	// published for them.
}

// switchTopic rebuilds the entity topic path for a switch descriptor from
// its stored unit code and group flag.
func switchTopic(deviceTopic string, sw store.SwitchDescriptor, conf *config.DeviceConfig) string {
	if sw.Group || sw.UnitCode == "" {
		return deviceTopic
	}
	topic := deviceTopic + "/" + sw.UnitCode
	if conf != nil {
		for _, unit := range conf.Units {
			if strconv.Itoa(unit.UnitCode) == sw.UnitCode && unit.Name != "" {
				topic = unit.Name
			}
		}
	}
	return topic
}

func mergeDoc(doc map[string]any, extra map[string]any) {
	for k, v := range extra {
		doc[k] = v
	}
}

// publishDiscovery publishes one document, retained, under the discovery
// prefix.
func (e *Engine) publishDiscovery(topic string, doc map[string]any) {
	payload, err := json.Marshal(doc)
	if err != nil {
		e.logger.Error("failed to encode discovery document", "topic", topic, "error", err)
		return
	}
	opts := mqtt.PublishOptions{
		QoS:    1,
		Retain: true,
		Base:   e.settings.Get().Homeassistant.DiscoveryTopic,
	}
	if err := e.mqtt.Publish(topic, payload, opts); err != nil {
		e.logger.Error("failed to publish discovery document", "topic", topic, "error", err)
	}
}

// handleCommand implements the inbound command path: parse the structured
// topic, translate the payload, issue the RF function and publish the
// merged entity state back, retained.
func (e *Engine) handleCommand(msg mqtt.Message) {
	value := string(msg.Payload)
	e.logger.Info("mqtt command received", "topic", msg.Topic, "value", value)

	segments := strings.Split(msg.Topic, "/")
	if segments[0] != e.mqtt.Topics().Base {
		e.logger.Warn("topic error, should start with " + e.mqtt.Topics().Base)
		return
	}
	if len(segments) < 5 {
		e.logger.Warn("malformed command topic", "topic", msg.Topic)
		return
	}
	deviceType := segments[2]
	subTypeValue := segments[3]
	id := segments[4]
	unitCode := ""
	if len(segments) > 5 && segments[5] != "set" && segments[5] != "" {
		unitCode = segments[5]
	}

	entity := DeriveEntity(id, subTypeValue, unitCode, false, nil)

	cmd, err := TranslateCommand(deviceType, value)
	if err != nil {
		e.logger.Error(err.Error(), "topic", msg.Topic)
		return
	}

	update := map[string]any{
		"id":          id,
		"deviceType":  deviceType,
		"command":     value,
		"rfxFunction": cmd.RfxFunction,
	}
	if cmd.CommandNumber != nil {
		update["commandNumber"] = *cmd.CommandNumber
	}
	if cmd.Opt != "" {
		update["rfxOpt"] = cmd.Opt
	}
	if unitCode != "" {
		update["unitCode"] = unitCode
	}
	merged := e.state.Set(entity.ID, update, "command")

	e.rfxtrx.SendCommand(deviceType, subTypeValue, cmd.RfxFunction, entity.Topic)

	payload, err := json.Marshal(merged)
	if err != nil {
		e.logger.Error("failed to encode entity state", "entity", entity.ID, "error", err)
		return
	}
	topic := mqtt.TopicDevices + "/" + entity.Topic
	if err := e.mqtt.Publish(topic, payload, mqtt.PublishOptions{QoS: 1, Retain: true}); err != nil {
		e.logger.Error("failed to publish entity state", "entity", entity.ID, "error", err)
	}
}
