package rfx

import (
	"context"
	"fmt"

	"github.com/rfxcom2mqtt/backend/internal/infrastructure/config"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/logging"
)

// New returns the transceiver for the configured transport. Mock mode
// replays the sample event set. Serial RFXtrx433 support is not part of
// this build; a non-mock configuration gets a placeholder whose Initialise
// fails, which leaves the bridge running MQTT-only per the error policy.
func New(cfg config.RfxcomConfig, mock bool, logger *logging.Logger) Transceiver {
	if mock {
		return NewMock(cfg, logger)
	}
	return &serialUnavailable{port: cfg.USBPort, logger: logger}
}

type serialUnavailable struct {
	port   string
	logger *logging.Logger
}

func (s *serialUnavailable) Initialise(_ context.Context) error {
	return fmt.Errorf("serial transceiver on %q is not supported in this build, set mock: true", s.port)
}

func (s *serialUnavailable) OnStatus(StatusCallback)               {}
func (s *serialUnavailable) OnDisconnect(func())                   {}
func (s *serialUnavailable) SubscribeProtocolsEvent(EventCallback) {}

func (s *serialUnavailable) SendCommand(deviceType, subTypeValue, rfxFunction, entityTopic string) {
	s.logger.Error("transceiver unavailable, dropping command",
		"deviceType", deviceType, "function", rfxFunction, "entity", entityTopic)
}

func (s *serialUnavailable) GetStatus(cb func(status string)) { cb("offline") }

func (s *serialUnavailable) GetSubType(deviceType string, subtype int) string {
	return SubTypeName(deviceType, subtype)
}

func (s *serialUnavailable) Stop() {}
