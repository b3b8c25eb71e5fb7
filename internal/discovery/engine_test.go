package discovery

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rfxcom2mqtt/backend/internal/infrastructure/config"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/logging"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/mqtt"
	"github.com/rfxcom2mqtt/backend/internal/rfx"
	"github.com/rfxcom2mqtt/backend/internal/store"
)

type published struct {
	topic   string
	payload []byte
	opts    mqtt.PublishOptions
}

type fakePublisher struct {
	topics    mqtt.Topics
	published []published
}

func (f *fakePublisher) Publish(topic string, payload []byte, opts mqtt.PublishOptions) error {
	f.published = append(f.published, published{topic: topic, payload: payload, opts: opts})
	return nil
}

func (f *fakePublisher) Topics() mqtt.Topics { return f.topics }

func (f *fakePublisher) byTopic(topic string) *published {
	for i := range f.published {
		if f.published[i].topic == topic {
			return &f.published[i]
		}
	}
	return nil
}

type sentCommand struct {
	deviceType   string
	subTypeValue string
	rfxFunction  string
	entityTopic  string
}

type fakeTransceiver struct {
	commands []sentCommand
}

func (f *fakeTransceiver) Initialise(context.Context) error            { return nil }
func (f *fakeTransceiver) OnStatus(rfx.StatusCallback)                 {}
func (f *fakeTransceiver) OnDisconnect(func())                         {}
func (f *fakeTransceiver) SubscribeProtocolsEvent(rfx.EventCallback)   {}
func (f *fakeTransceiver) GetStatus(cb func(string))                   { cb("online") }
func (f *fakeTransceiver) GetSubType(t string, s int) string           { return rfx.SubTypeName(t, s) }
func (f *fakeTransceiver) Stop()                                       {}
func (f *fakeTransceiver) SendCommand(deviceType, subTypeValue, rfxFunction, entityTopic string) {
	f.commands = append(f.commands, sentCommand{deviceType, subTypeValue, rfxFunction, entityTopic})
}

func newTestEngine(t *testing.T) (*Engine, *fakePublisher, *fakeTransceiver, *config.Service, *store.DeviceStore, *store.StateStore) {
	t.Helper()
	dir := t.TempDir()
	svc, err := config.LoadService(filepath.Join(dir, "config.yml"))
	if err != nil {
		t.Fatal(err)
	}
	logger := logging.Default()
	devices := store.NewDeviceStore(svc.Get().CacheState, dir, logger)
	state := store.NewStateStore(svc.Get().CacheState, dir, logger)
	pub := &fakePublisher{topics: mqtt.Topics{Base: svc.Get().MQTT.BaseTopic}}
	trx := &fakeTransceiver{}
	engine := NewEngine(pub, trx, svc, devices, state, "1.2.1", logger)
	return engine, pub, trx, svc, devices, state
}

func lighting2Event(unitCode string, commandNumber int, command string) *rfx.Event {
	n := commandNumber
	return &rfx.Event{
		ID:            "0x011B22",
		Type:          "lighting2",
		Subtype:       0,
		SubTypeValue:  "AC",
		SeqNbr:        7,
		UnitCode:      unitCode,
		CommandNumber: &n,
		Command:       command,
		Group:         rfx.IsGroup("lighting2", commandNumber),
		Fields:        map[string]any{"rssi": 5, "level": 0},
	}
}

func TestHandleEventBuildsDeviceRecord(t *testing.T) {
	engine, _, _, _, devices, state := newTestEngine(t)

	engine.HandleEvent(lighting2Event("1", 1, "On"))

	rec := devices.Get("0x011B22")
	if rec.Type != "lighting2" || rec.SubTypeValue != "AC" {
		t.Errorf("identity not merged: %+v", rec)
	}
	if rec.Name != "AC_011B22" || rec.OriginalName != "AC_011B22" {
		t.Errorf("derived names wrong: name=%q original=%q", rec.Name, rec.OriginalName)
	}
	if len(rec.Entities) != 1 || rec.Entities[0] != "AC_011B22_1" {
		t.Errorf("entities = %v, want [AC_011B22_1]", rec.Entities)
	}
	if _, ok := rec.Sensors["0x011B22_rssi"]; !ok {
		t.Errorf("rssi not classified: %v", rec.Sensors)
	}
	sw, ok := rec.Switches["AC_011B22_1"]
	if !ok {
		t.Fatalf("switch not classified: %v", rec.Switches)
	}
	if sw.UnitCode != "1" || sw.Group || sw.ValueOn != "On" || sw.ValueOff != "Off" {
		t.Errorf("switch descriptor wrong: %+v", sw)
	}

	got := state.Get("AC_011B22_1")
	if got["command"] != "On" {
		t.Errorf("entity state not stored: %v", got)
	}
}

func TestHandleEventGroupCommandGetsOwnEntity(t *testing.T) {
	engine, _, _, _, devices, _ := newTestEngine(t)

	engine.HandleEvent(lighting2Event("1", 1, "On"))
	engine.HandleEvent(lighting2Event("1", 4, "Group On"))

	rec := devices.Get("0x011B22")
	sw, ok := rec.Switches["AC_011B22_group"]
	if !ok {
		t.Fatalf("group switch missing: %v", rec.Switches)
	}
	if !sw.Group || sw.ValueOn != "Group On" || sw.ValueOff != "Group off" {
		t.Errorf("group switch descriptor wrong: %+v", sw)
	}
	if _, ok := rec.Switches["AC_011B22_1"]; !ok {
		t.Error("unit switch lost after group event")
	}
}

func TestHandleEventClassificationIsInsertOnce(t *testing.T) {
	engine, _, _, _, devices, state := newTestEngine(t)

	ev := &rfx.Event{
		ID: "temp_device", Type: "temperature1", Subtype: 1, SubTypeValue: "TEMP2",
		Fields: map[string]any{"temperature": "19", "batteryLevel": 100, "rssi": 5},
	}
	engine.HandleEvent(ev)
	first := devices.Get("temp_device").Sensors["temp_device_temperature"]

	ev2 := &rfx.Event{
		ID: "temp_device", Type: "temperature1", Subtype: 1, SubTypeValue: "TEMP2",
		Fields: map[string]any{"temperature": "21", "batteryLevel": 99, "rssi": 4},
	}
	engine.HandleEvent(ev2)

	rec := devices.Get("temp_device")
	if len(rec.Sensors) != 3 {
		t.Errorf("sensor count = %d, want 3", len(rec.Sensors))
	}
	if rec.Sensors["temp_device_temperature"] != first {
		t.Error("descriptor replaced, first classification must win")
	}
	if got := state.Get("TEMP2_temp_device"); got["temperature"] != "21" {
		t.Errorf("state value not updated: %v", got)
	}
}

func TestHandleEventPublishesDiscoveryDocuments(t *testing.T) {
	engine, pub, _, svc, _, _ := newTestEngine(t)

	engine.HandleEvent(lighting2Event("1", 1, "On"))

	swDoc := pub.byTopic("switch/0x011B22/1/config")
	if swDoc == nil {
		t.Fatalf("switch discovery document not published, got %v", topicsOf(pub))
	}
	if swDoc.opts.Base != svc.Get().Homeassistant.DiscoveryTopic {
		t.Errorf("discovery published under base %q, want discovery prefix", swDoc.opts.Base)
	}
	if !swDoc.opts.Retain {
		t.Error("discovery documents must be retained")
	}

	var doc map[string]any
	if err := json.Unmarshal(swDoc.payload, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["command_topic"] != "rfxcom2mqtt/cmd/lighting2/AC/0x011B22/1/set" {
		t.Errorf("command_topic = %v", doc["command_topic"])
	}
	if doc["state_topic"] != "rfxcom2mqtt/devices/0x011B22/1" {
		t.Errorf("state_topic = %v", doc["state_topic"])
	}
	if doc["payload_on"] != "On" || doc["payload_off"] != "Off" {
		t.Errorf("switch payloads wrong: %v", doc)
	}

	if pub.byTopic("sensor/0x011B22/linkquality/config") == nil {
		t.Errorf("linkquality discovery document not published, got %v", topicsOf(pub))
	}
}

func TestHandleEventDiscoveryDisabled(t *testing.T) {
	engine, pub, _, svc, _, _ := newTestEngine(t)
	if err := svc.Apply(func(s *config.Settings) { s.Homeassistant.Discovery = false }); err != nil {
		t.Fatal(err)
	}

	engine.HandleEvent(lighting2Event("1", 1, "On"))

	if len(pub.published) != 0 {
		t.Errorf("no discovery documents expected, got %v", topicsOf(pub))
	}
}

func topicsOf(pub *fakePublisher) []string {
	var out []string
	for _, p := range pub.published {
		out = append(out, p.topic)
	}
	return out
}

func TestHandleCommandIssuesRF(t *testing.T) {
	engine, pub, trx, _, _, state := newTestEngine(t)

	engine.OnMQTTMessage(mqtt.Message{
		Topic:   "rfxcom2mqtt/cmd/lighting2/AC/0x011B22/1/set",
		Payload: []byte("on"),
	})

	if len(trx.commands) != 1 {
		t.Fatalf("RF commands = %d, want 1", len(trx.commands))
	}
	cmd := trx.commands[0]
	if cmd.deviceType != "lighting2" || cmd.subTypeValue != "AC" || cmd.rfxFunction != "switchOn" || cmd.entityTopic != "0x011B22/1" {
		t.Errorf("RF command wrong: %+v", cmd)
	}

	got := state.Get("AC_011B22_1")
	if got["rfxFunction"] != "switchOn" || got["command"] != "on" {
		t.Errorf("entity state wrong: %v", got)
	}
	if got["commandNumber"] != 1 {
		t.Errorf("commandNumber = %v, want 1", got["commandNumber"])
	}

	stateDoc := pub.byTopic("devices/0x011B22/1")
	if stateDoc == nil {
		t.Fatalf("entity state not published, got %v", topicsOf(pub))
	}
	if !stateDoc.opts.Retain {
		t.Error("entity state publish must be retained")
	}
}

func TestHandleCommandUnsupportedType(t *testing.T) {
	engine, pub, trx, _, _, state := newTestEngine(t)

	engine.OnMQTTMessage(mqtt.Message{
		Topic:   "rfxcom2mqtt/cmd/temperaturehumidity1/TH2/0xAABB/set",
		Payload: []byte("On"),
	})

	if len(trx.commands) != 0 {
		t.Error("unsupported device type must not issue an RF command")
	}
	if len(pub.published) != 0 {
		t.Error("unsupported device type must not publish")
	}
	if state.Exists("TH2_AABB") {
		t.Error("unsupported device type must not touch entity state")
	}
}

func TestHandleCommandRejectsWrongBase(t *testing.T) {
	engine, pub, trx, _, _, state := newTestEngine(t)

	engine.OnMQTTMessage(mqtt.Message{
		Topic:   "other/cmd/lighting2/AC/0x011B22/1/set",
		Payload: []byte("on"),
	})

	if len(trx.commands) != 0 || len(pub.published) != 0 {
		t.Error("foreign base prefix must have zero side effects")
	}
	if len(state.GetAll()) != 0 {
		t.Error("foreign base prefix must not mutate state")
	}
}

func TestBridgeLogLevelRequest(t *testing.T) {
	engine, _, _, svc, _, _ := newTestEngine(t)

	engine.OnMQTTMessage(mqtt.Message{
		Topic:   "rfxcom2mqtt/bridge/request/log_level",
		Payload: []byte(`{"log_level": "debug"}`),
	})

	if engine.logger.Level() != "debug" {
		t.Errorf("logger level = %q, want debug", engine.logger.Level())
	}
	if svc.Get().LogLevel != "debug" {
		t.Errorf("settings loglevel = %q, want debug", svc.Get().LogLevel)
	}
}

func TestBridgeLogLevelRequestRejectsUnknownLevel(t *testing.T) {
	engine, _, _, svc, _, _ := newTestEngine(t)

	engine.OnMQTTMessage(mqtt.Message{
		Topic:   "rfxcom2mqtt/bridge/request/log_level",
		Payload: []byte(`{"log_level": "bogus"}`),
	})

	if engine.logger.Level() != "info" {
		t.Errorf("logger level = %q after rejected request, want info", engine.logger.Level())
	}
	if svc.Get().LogLevel != "info" {
		t.Errorf("settings loglevel = %q after rejected request, want info", svc.Get().LogLevel)
	}

	// The settings file must still load on the next start.
	if _, err := config.LoadService(svc.Path()); err != nil {
		t.Errorf("LoadService() reload error = %v", err)
	}
}

func TestPublishBridgeDiscovery(t *testing.T) {
	engine, pub, _, _, _, _ := newTestEngine(t)

	info := &BridgeInfo{
		Coordinator: rfx.Info{HardwareVersion: "1.2", FirmwareVersion: 242},
		Version:     "1.2.1",
		LogLevel:    "info",
	}
	engine.PublishBridgeDiscovery(info)

	want := []string{
		"sensor/bridge_rfxcom2mqtt_coordinator_version/version/config",
		"sensor/bridge_rfxcom2mqtt_version/version/config",
		"binary_sensor/bridge_rfxcom2mqtt_version/connection_state/config",
		"select/bridge_rfxcom2mqtt_log_level/log_level/config",
	}
	for _, topic := range want {
		if pub.byTopic(topic) == nil {
			t.Errorf("bridge document %q not published", topic)
		}
	}

	sel := pub.byTopic("select/bridge_rfxcom2mqtt_log_level/log_level/config")
	if sel == nil {
		t.Fatal("select document missing")
	}
	var doc map[string]any
	if err := json.Unmarshal(sel.payload, &doc); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(doc["command_topic"].(string), "bridge/request/log_level") {
		t.Errorf("select command_topic = %v", doc["command_topic"])
	}
}

func TestApplyUnitNamesRenamesSwitches(t *testing.T) {
	engine, _, _, svc, devices, _ := newTestEngine(t)

	engine.HandleEvent(lighting2Event("1", 1, "On"))

	err := svc.ApplyDeviceOverride(config.DeviceConfig{
		ID:    "0x011B22",
		Units: []config.UnitConfig{{UnitCode: 1, Name: "ceiling"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	engine.HandleEvent(lighting2Event("1", 0, "Off"))

	rec := devices.Get("0x011B22")
	if rec.Switches["AC_011B22_1"].Name != "ceiling" {
		t.Errorf("switch name = %q, want ceiling", rec.Switches["AC_011B22_1"].Name)
	}
}
