package discovery

import (
	"strings"

	"github.com/nerrad567/gray-logic-alexa/internal/openhab"
)

// Legacy item tags recognised when an item carries no Alexa metadata.
const (
	tagLighting           = "Lighting"
	tagSwitchable         = "Switchable"
	tagThermostat         = "Thermostat"
	tagCurrentTemperature = "CurrentTemperature"
	tagTargetTemperature  = "TargetTemperature"
	tagLowerTemperature   = "LowerTemperature"
	tagUpperTemperature   = "UpperTemperature"
	tagHeatingCoolingMode = "HeatingCoolingMode"
	tagFahrenheit         = "Fahrenheit"
	tagCelsius            = "Celsius"
)

// thermostatTags maps member tags of a thermostat group to their tokens.
var thermostatTags = []struct {
	tag   string
	token string
}{
	{tagCurrentTemperature, "TemperatureSensor.temperature"},
	{tagTargetTemperature, "ThermostatController.targetSetpoint"},
	{tagLowerTemperature, "ThermostatController.lowerSetpoint"},
	{tagUpperTemperature, "ThermostatController.upperSetpoint"},
	{tagHeatingCoolingMode, "ThermostatController.thermostatMode"},
}

// withMetadata returns a copy of item carrying the given Alexa metadata.
func withMetadata(item openhab.Item, tokens []string, config map[string]any) openhab.Item {
	md := make(map[string]openhab.Metadata, len(item.Metadata)+1)
	for k, v := range item.Metadata {
		md[k] = v
	}
	md[openhab.MetadataNamespace] = openhab.Metadata{Value: strings.Join(tokens, ","), Config: config}
	item.Metadata = md
	return item
}

// legacyTokens synthesises metadata tokens from the tag convention.
// inherited carries config pushed down from a legacy group endpoint.
func legacyTokens(item openhab.Item, inherited map[string]any) ([]string, map[string]any) {
	var tokens []string
	config := make(map[string]any, len(inherited)+1)
	for k, v := range inherited {
		config[k] = v
	}

	switch {
	case item.HasTag(tagLighting):
		tokens = append(tokens, "PowerController.powerState")
		switch item.BaseType() {
		case "Dimmer":
			tokens = append(tokens, "BrightnessController.brightness")
		case "Color":
			tokens = append(tokens, "BrightnessController.brightness", "ColorController.color")
		}
		config["category"] = "LIGHT"
	case item.HasTag(tagSwitchable):
		tokens = append(tokens, "PowerController.powerState")
		config["category"] = "SWITCH"
	}

	for _, tt := range thermostatTags {
		if item.HasTag(tt.tag) {
			tokens = append(tokens, tt.token)
		}
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	return tokens, config
}

// legacyScale returns the scale config a legacy thermostat group pushes down.
func legacyScale(group openhab.Item) map[string]any {
	switch {
	case group.HasTag(tagFahrenheit):
		return map[string]any{"scale": "Fahrenheit"}
	case group.HasTag(tagCelsius):
		return map[string]any{"scale": "Celsius"}
	}
	return nil
}

// applyLegacy rewrites the index in place so that tag-only items carry
// equivalent Alexa metadata. Thermostat-tagged groups become
// Endpoint.THERMOSTAT groups and push their scale down to members.
func applyLegacy(index map[string]openhab.Item, order []string) {
	for _, name := range order {
		item := index[name]
		if _, ok := item.AlexaMetadata(); ok {
			continue
		}

		if item.IsGroup() && item.HasTag(tagThermostat) {
			inherited := legacyScale(item)
			index[name] = withMetadata(item, []string{"Endpoint.THERMOSTAT"}, nil)
			for _, m := range item.Members {
				member, ok := index[m.Name]
				if !ok {
					continue
				}
				if _, ok := member.AlexaMetadata(); ok {
					continue
				}
				if tokens, cfg := legacyTokens(member, inherited); tokens != nil {
					index[m.Name] = withMetadata(member, tokens, cfg)
				}
			}
			continue
		}

		if tokens, cfg := legacyTokens(item, nil); tokens != nil {
			index[name] = withMetadata(item, tokens, cfg)
		}
	}
}
