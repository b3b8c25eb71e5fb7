// rfxcom2mqtt bridges an RFXCOM RF transceiver to MQTT with Home Assistant
// MQTT discovery.
//
// Radio events become retained JSON state topics and discovery documents;
// MQTT commands are translated back into transceiver functions. An optional
// admin HTTP server exposes the device registry, entity states and live
// logs to the web frontend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/rfxcom2mqtt/backend/internal/controller"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/config"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.2.1 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	app := &cli.App{
		Name:    "rfxcom2mqtt",
		Usage:   "RFXCOM to MQTT bridge with Home Assistant discovery",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				EnvVars: []string{"RFXCOM2MQTT_CONFIG"},
				Value:   "",
				Usage:   "path to the YAML settings file (defaults to the data directory)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "",
				Usage:   "override the configured log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:    "log-format",
				EnvVars: []string{"LOG_FORMAT"},
				Value:   "json",
				Usage:   "log output format (json, text)",
			},
		},
		Action: runCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCommand(c *cli.Context) error {
	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return run(ctx, c.String("config"), c.String("log-level"), c.String("log-format"))
}

// run loads settings and drives the controller lifecycle. A restart request
// from the bridge rebuilds everything from freshly loaded settings; any
// other exit is final.
func run(ctx context.Context, configPath, logLevel, logFormat string) error {
	if configPath == "" {
		configPath = config.ConfigPath()
	}

	for {
		settings, err := config.LoadService(configPath)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		s := settings.Get()

		level := logLevel
		if level == "" {
			level = s.LogLevel
		}
		stream := logging.NewStream()
		log := logging.NewWithStream(logging.Options{
			Level:  level,
			Format: logFormat,
			Output: "stdout",
		}, version, stream)
		log.Info("starting rfxcom2mqtt",
			"version", version,
			"commit", commit,
			"config", configPath,
		)

		ctrl := controller.New(settings, version, log, stream)
		restart, err := ctrl.Run(ctx)
		if err != nil {
			return err
		}
		if !restart {
			log.Info("rfxcom2mqtt stopped")
			return nil
		}
		log.Info("restarting rfxcom2mqtt")
	}
}
