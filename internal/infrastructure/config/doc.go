// Package config loads and validates the bridge configuration.
//
// Values are resolved in three layers: built-in defaults, then the YAML
// file, then ALEXABRIDGE_* environment variables. Secrets (the InfluxDB
// token, MQTT and Redis passwords) are expected to come from the
// environment.
//
// Usage:
//
//	cfg, err := config.Load("configs/alexabridge.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
