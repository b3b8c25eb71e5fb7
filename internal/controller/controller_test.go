package controller

import (
	"path/filepath"
	"testing"

	"github.com/rfxcom2mqtt/backend/internal/api"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/config"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/logging"
	"github.com/rfxcom2mqtt/backend/internal/rfx"
	"github.com/rfxcom2mqtt/backend/internal/store"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("RFXCOM2MQTT_DATA", dir)

	svc, err := config.LoadService(filepath.Join(dir, "config.yml"))
	if err != nil {
		t.Fatalf("LoadService() error = %v", err)
	}
	err = svc.Apply(func(s *config.Settings) {
		s.Mock = true
		s.CacheState.Enable = false
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	return New(svc, "1.2.1", logging.Default(), nil)
}

func seedSwitchDevice(t *testing.T, c *Controller) {
	t.Helper()

	rec := store.NewDeviceRecord("0x011B22")
	rec.Type = "lighting2"
	rec.SubTypeValue = "AC"
	rec.Name = "0x011B22"
	rec.AddSwitch(store.SwitchDescriptor{
		ID:       "ac_011B22_1",
		Name:     "0x011B22_1",
		Property: "command",
		Type:     "switch",
		ValueOn:  "On",
		ValueOff: "Off",
		UnitCode: "1",
	})
	c.devices.Set("0x011B22", rec)
}

func TestBridgeActionRequestsRestart(t *testing.T) {
	c := newTestController(t)

	if err := c.RunAction(api.Action{Type: "bridge", Action: "restart"}); err != nil {
		t.Fatalf("RunAction() error = %v", err)
	}

	select {
	case req := <-c.shutdown:
		if !req.restart {
			t.Errorf("restart = false, want true")
		}
	default:
		t.Fatal("no shutdown request queued")
	}
}

func TestBridgeActionStop(t *testing.T) {
	c := newTestController(t)

	if err := c.RunAction(api.Action{Type: "bridge", Action: "stop"}); err != nil {
		t.Fatalf("RunAction() error = %v", err)
	}

	select {
	case req := <-c.shutdown:
		if req.restart {
			t.Errorf("restart = true, want false")
		}
	default:
		t.Fatal("no shutdown request queued")
	}
}

func TestBridgeActionUnknown(t *testing.T) {
	c := newTestController(t)

	if err := c.RunAction(api.Action{Type: "bridge", Action: "reboot"}); err == nil {
		t.Error("RunAction() error = nil, want error for unknown bridge action")
	}
	if err := c.RunAction(api.Action{Type: "scene", Action: "run"}); err == nil {
		t.Error("RunAction() error = nil, want error for unknown action type")
	}
}

func TestRequestStopDropsDuplicates(t *testing.T) {
	c := newTestController(t)

	c.RequestStop(false)
	c.RequestStop(true)

	req := <-c.shutdown
	if req.restart {
		t.Errorf("first request should win, got restart = true")
	}
	select {
	case <-c.shutdown:
		t.Error("duplicate shutdown request queued")
	default:
	}
}

func TestDeviceActionEnqueuesCommand(t *testing.T) {
	c := newTestController(t)
	seedSwitchDevice(t, c)

	err := c.RunAction(api.Action{
		Type:     "device",
		Action:   "off",
		DeviceID: "0x011B22",
		EntityID: "ac_011B22_1",
	})
	if err != nil {
		t.Fatalf("RunAction() error = %v", err)
	}

	select {
	case msg := <-c.mqttMsgs:
		want := "rfxcom2mqtt/cmd/lighting2/AC/0x011B22/1/set"
		if msg.Topic != want {
			t.Errorf("topic = %q, want %q", msg.Topic, want)
		}
		if string(msg.Payload) != "off" {
			t.Errorf("payload = %q, want off", msg.Payload)
		}
	default:
		t.Fatal("no command message queued")
	}
}

func TestDeviceActionWithoutEntityUsesDeviceTopic(t *testing.T) {
	c := newTestController(t)
	seedSwitchDevice(t, c)

	err := c.RunAction(api.Action{
		Type:     "device",
		Action:   "on",
		DeviceID: "0x011B22",
	})
	if err != nil {
		t.Fatalf("RunAction() error = %v", err)
	}

	msg := <-c.mqttMsgs
	want := "rfxcom2mqtt/cmd/lighting2/AC/0x011B22/set"
	if msg.Topic != want {
		t.Errorf("topic = %q, want %q", msg.Topic, want)
	}
}

func TestDeviceActionUnknownDevice(t *testing.T) {
	c := newTestController(t)

	err := c.RunAction(api.Action{Type: "device", Action: "off", DeviceID: "0xDEAD"})
	if err == nil {
		t.Error("RunAction() error = nil, want error for unknown device")
	}
}

func TestRenameDevice(t *testing.T) {
	c := newTestController(t)
	seedSwitchDevice(t, c)

	if err := c.Rename("0x011B22", "Hall Light", 0); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	rec := c.devices.Get("0x011B22")
	if rec.Name != "Hall Light" {
		t.Errorf("record name = %q, want Hall Light", rec.Name)
	}
	conf := func() *config.DeviceConfig {
		s := c.settings.Get()
		return s.DeviceConfig("0x011B22")
	}()
	if conf == nil || conf.FriendlyName != "Hall Light" {
		t.Errorf("settings override = %+v, want friendly name Hall Light", conf)
	}
}

func TestRenameUnit(t *testing.T) {
	c := newTestController(t)
	seedSwitchDevice(t, c)

	if err := c.Rename("0x011B22", "Porch", 1); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	rec := c.devices.Get("0x011B22")
	sw, ok := rec.Switches["ac_011B22_1"]
	if !ok || sw.Name != "Porch" {
		t.Errorf("switch = %+v, want name Porch", sw)
	}
	if rec.Name != "0x011B22" {
		t.Errorf("device name changed by unit rename: %q", rec.Name)
	}
}

func TestRenameValidation(t *testing.T) {
	c := newTestController(t)

	if err := c.Rename("0xDEAD", "Name", 0); err == nil {
		t.Error("Rename() error = nil, want error for unknown device")
	}
	seedSwitchDevice(t, c)
	if err := c.Rename("0x011B22", "", 0); err == nil {
		t.Error("Rename() error = nil, want error for empty name")
	}
}

func TestHandleStatusUpdatesBridgeInfo(t *testing.T) {
	c := newTestController(t)

	c.handleStatus(rfx.Info{
		ReceiverTypeCode: 83,
		ReceiverType:     "Mock",
		HardwareVersion:  "1.2",
		FirmwareVersion:  242,
		FirmwareType:     "Ext",
	})

	info := c.BridgeInfo()
	if info.Coordinator.ReceiverType != "Mock" {
		t.Errorf("coordinator = %+v", info.Coordinator)
	}
	if info.Version != "1.2.1" {
		t.Errorf("version = %q, want 1.2.1", info.Version)
	}
	if info.LogLevel == "" {
		t.Error("log level not captured")
	}
}
