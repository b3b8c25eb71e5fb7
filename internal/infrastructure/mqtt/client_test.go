package mqtt

import (
	"errors"
	"testing"

	"github.com/rfxcom2mqtt/backend/internal/infrastructure/config"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/logging"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		BaseTopic: "rfxcom2mqtt",
		Server:    "127.0.0.1",
		Port:      1883,
		ClientID:  "rfxcom2mqtt-test",
		QoS:       0,
	}
}

func TestTopics(t *testing.T) {
	topics := Topics{Base: "rfxcom2mqtt"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"will", topics.Will(), "rfxcom2mqtt/bridge/status"},
		{"info", topics.Info(), "rfxcom2mqtt/bridge/info"},
		{"device state", topics.DeviceState("0x011B22/1"), "rfxcom2mqtt/devices/0x011B22/1"},
		{"command", topics.Command("lighting2", "AC", "0x011B22"), "rfxcom2mqtt/cmd/lighting2/AC/0x011B22"},
		{"command set", topics.CommandSet("lighting2", "AC", "0x011B22/1"), "rfxcom2mqtt/cmd/lighting2/AC/0x011B22/1/set"},
		{"bridge request", topics.BridgeRequest("log_level"), "rfxcom2mqtt/bridge/request/log_level"},
		{"all commands", topics.AllCommands(), "rfxcom2mqtt/cmd/#"},
		{"all bridge requests", topics.AllBridgeRequests(), "rfxcom2mqtt/bridge/request/#"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s topic = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestMatchesFilter(t *testing.T) {
	tests := []struct {
		topic  string
		filter string
		want   bool
	}{
		{"rfxcom2mqtt/cmd/lighting2/AC/0x011B22/1/set", "rfxcom2mqtt/cmd/#", true},
		{"rfxcom2mqtt/bridge/request/log_level", "rfxcom2mqtt/bridge/request/#", true},
		{"rfxcom2mqtt/bridge/request/log_level", "rfxcom2mqtt/cmd/#", false},
		{"other/cmd/lighting2/AC/0x011B22/set", "rfxcom2mqtt/cmd/#", false},
		{"rfxcom2mqtt/bridge/status", "rfxcom2mqtt/bridge/status", true},
		{"rfxcom2mqtt/bridge/status", "rfxcom2mqtt/bridge/info", false},
	}
	for _, tt := range tests {
		if got := MatchesFilter(tt.topic, tt.filter); got != tt.want {
			t.Errorf("MatchesFilter(%q, %q) = %v, want %v", tt.topic, tt.filter, got, tt.want)
		}
	}
}

func TestPublishValidation(t *testing.T) {
	client := New(testConfig(), "rfxcom2mqtt", logging.Default())

	err := client.Publish("", []byte("x"), PublishOptions{})
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: error = %v, want ErrInvalidTopic", err)
	}

	big := make([]byte, maxPayloadSize+1)
	err = client.Publish("devices/0x01", big, PublishOptions{})
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("oversized payload: error = %v, want ErrPublishFailed", err)
	}
}

func TestPublishNotConnected(t *testing.T) {
	client := New(testConfig(), "rfxcom2mqtt", logging.Default())

	err := client.Publish("devices/0x01", []byte("on"), PublishOptions{})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("error = %v, want ErrNotConnected", err)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Username = "user"
	cfg.Password = "pass"

	opts, err := buildClientOptions(cfg, Topics{Base: cfg.BaseTopic})
	if err != nil {
		t.Fatalf("buildClientOptions() error = %v", err)
	}

	if got := opts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
		t.Errorf("broker = %q, want tcp://127.0.0.1:1883", got)
	}
	if opts.ClientID != "rfxcom2mqtt-test" {
		t.Errorf("client id = %q", opts.ClientID)
	}
	if opts.WillTopic != "rfxcom2mqtt/bridge/status" || string(opts.WillPayload) != "offline" {
		t.Errorf("will = %q %q", opts.WillTopic, opts.WillPayload)
	}
	if !opts.WillRetained {
		t.Error("will not retained")
	}
}

func TestBuildClientOptionsGeneratedClientID(t *testing.T) {
	cfg := testConfig()
	cfg.ClientID = ""

	opts, err := buildClientOptions(cfg, Topics{Base: cfg.BaseTopic})
	if err != nil {
		t.Fatalf("buildClientOptions() error = %v", err)
	}
	if opts.ClientID == "" {
		t.Error("client id not generated")
	}
}

func TestBuildClientOptionsTLSScheme(t *testing.T) {
	cfg := testConfig()
	cfg.TLS = true

	opts, err := buildClientOptions(cfg, Topics{Base: cfg.BaseTopic})
	if err != nil {
		t.Fatalf("buildClientOptions() error = %v", err)
	}
	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("scheme = %q, want ssl", got)
	}
}
