// Package config handles loading and persisting rfxcom2mqtt configuration.
//
// This package manages:
//   - Loading configuration from a YAML file
//   - Overriding with environment variables
//   - Default value handling and validation
//   - Writing runtime changes (log level, per-device overrides) back to disk
//
// Unlike most configuration layers, settings here are read/write: the admin
// API and the bridge log-level control mutate the configuration at runtime
// and those changes must survive a restart. All mutation goes through the
// Service type, which serialises writes.
//
// Usage:
//
//	svc, err := config.LoadService(config.DataPath())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(svc.Get().MQTT.BaseTopic)
package config
