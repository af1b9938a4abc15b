// Package mqtt publishes bridge events to an MQTT broker.
//
// The bridge announces its availability on {prefix}/system/status (retained,
// with a Last Will for unexpected disconnects) and publishes one JSON event
// per handled directive on {prefix}/events/{namespace}/{endpoint}. Nothing
// is subscribed: the broker is an outbound fan-out for home automation
// dashboards and rules.
//
// Security Considerations:
//   - Enable TLS (mqtt.broker.tls) when the broker is not on localhost
//   - Credentials should come from ALEXABRIDGE_MQTT_USERNAME/PASSWORD
package mqtt
