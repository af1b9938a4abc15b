package mqtt

import "strings"

// DefaultTopicPrefix is used when the configuration leaves it empty.
const DefaultTopicPrefix = "alexabridge"

// Topics builds the bridge's topic names under a common prefix.
//
//	topics := mqtt.Topics{Prefix: "alexabridge"}
//	topics.DirectiveEvent("Alexa.PowerController", "kitchen_light")
//	// Returns: "alexabridge/events/Alexa.PowerController/kitchen_light"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	p := strings.TrimRight(t.Prefix, "/")
	if p == "" {
		return DefaultTopicPrefix
	}
	return p
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: alexabridge/system/status
func (t Topics) SystemStatus() string {
	return t.prefix() + "/system/status"
}

// DirectiveEvent returns the topic for a directive handled on an endpoint.
// Directives without an endpoint (discovery, authorization) use "_".
//
// Example: alexabridge/events/Alexa.BrightnessController/hall_dimmer
func (t Topics) DirectiveEvent(namespace, endpointID string) string {
	if endpointID == "" {
		endpointID = "_"
	}
	return t.prefix() + "/events/" + topicSegment(namespace) + "/" + topicSegment(endpointID)
}

// AllDirectiveEvents returns a wildcard matching every directive event.
//
// Example: alexabridge/events/#
func (t Topics) AllDirectiveEvents() string {
	return t.prefix() + "/events/#"
}

// topicSegment replaces characters that would alter the topic structure.
func topicSegment(s string) string {
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(s)
}

// validTopic reports whether topic can be published to.
func validTopic(topic string) bool {
	return topic != "" && !strings.ContainsAny(topic, "+#")
}
