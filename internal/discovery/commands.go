package discovery

import (
	"fmt"
	"strings"
)

// Command is the RF action resolved from a textual MQTT command payload.
type Command struct {
	// RfxFunction is the protocol function name understood by the
	// transceiver ("switchOn", "switchOff", "setLevel", "sendData",
	// "chime").
	RfxFunction string
	// CommandNumber is the protocol command code, set for on/off commands.
	CommandNumber *int
	// Opt carries the function option, the level value for setLevel.
	Opt string
	// Group marks the group-scope variant of an on/off command.
	Group bool
}

// Protocol command codes for on/off, unit and group scope.
const (
	commandOff      = 0
	commandOn       = 1
	commandGroupOff = 3
	commandGroupOn  = 4
)

func isLightingFamily(deviceType string) bool {
	switch deviceType {
	case "lighting1", "lighting2", "lighting3", "lighting5", "lighting6":
		return true
	}
	return false
}

// TranslateCommand resolves a textual command payload to an RF action for a
// device type.
//
// Lighting-family payloads are lower-cased and tokenized on spaces; a
// leading "group" token selects the group command variant. lighting4 and
// chime1 take the whole payload verbatim as the data for a single fixed
// function. Any other device type is unsupported: the caller logs the
// returned error and performs no RF action.
func TranslateCommand(deviceType, value string) (Command, error) {
	if isLightingFamily(deviceType) {
		return translateLighting(value)
	}

	switch deviceType {
	case "lighting4":
		return Command{RfxFunction: "sendData"}, nil
	case "chime1":
		return Command{RfxFunction: "chime"}, nil
	}

	return Command{}, fmt.Errorf("device type (%s) not supported", deviceType)
}

func translateLighting(value string) (Command, error) {
	tokens := strings.Split(strings.ToLower(value), " ")
	group := tokens[0] == "group"
	verb := tokens[0]
	if group && len(tokens) > 1 {
		verb = tokens[1]
	}

	switch verb {
	case "on":
		n := commandOn
		if group {
			n = commandGroupOn
		}
		return Command{RfxFunction: "switchOn", CommandNumber: &n, Group: group}, nil
	case "off":
		n := commandOff
		if group {
			n = commandGroupOff
		}
		return Command{RfxFunction: "switchOff", CommandNumber: &n, Group: group}, nil
	case "level":
		// Level has no group variant.
		if group || len(tokens) < 2 {
			return Command{}, fmt.Errorf("command (%s) not supported", value)
		}
		return Command{RfxFunction: "setLevel", Opt: tokens[1]}, nil
	}

	return Command{}, fmt.Errorf("command (%s) not supported", value)
}
