package capability

import (
	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
)

// Item types.
const (
	typeColor         = "Color"
	typeContact       = "Contact"
	typeDimmer        = "Dimmer"
	typeNumber        = "Number"
	typePlayer        = "Player"
	typeRollershutter = "Rollershutter"
	typeString        = "String"
	typeSwitch        = "Switch"
)

// Interface names as they appear in metadata.
const (
	PowerController            = "PowerController"
	BrightnessController       = "BrightnessController"
	PercentageController       = "PercentageController"
	PowerLevelController       = "PowerLevelController"
	ColorController            = "ColorController"
	ColorTemperatureController = "ColorTemperatureController"
	ThermostatController       = "ThermostatController"
	TemperatureSensor          = "TemperatureSensor"
	LockController             = "LockController"
	ChannelController          = "ChannelController"
	InputController            = "InputController"
	PlaybackController         = "PlaybackController"
	SceneController            = "SceneController"
	Speaker                    = "Speaker"
	StepSpeaker                = "StepSpeaker"
	ToggleController           = "ToggleController"
	ContactSensor              = "ContactSensor"
	MotionSensor               = "MotionSensor"
)

// Property names.
const (
	PropPowerState       = "powerState"
	PropBrightness       = "brightness"
	PropPercentage       = "percentage"
	PropPowerLevel       = "powerLevel"
	PropColor            = "color"
	PropColorTemperature = "colorTemperatureInKelvin"
	PropTargetSetpoint   = "targetSetpoint"
	PropUpperSetpoint    = "upperSetpoint"
	PropLowerSetpoint    = "lowerSetpoint"
	PropThermostatMode   = "thermostatMode"
	PropTemperature      = "temperature"
	PropLockState        = "lockState"
	PropChannel          = "channel"
	PropInput            = "input"
	PropPlayback         = "playback"
	PropScene            = "scene"
	PropVolume           = "volume"
	PropMuted            = "muted"
	PropToggleState      = "toggleState"
	PropDetectionState   = "detectionState"
)

// defaultPlaybackOperations are advertised when supportedOperations is unset.
var defaultPlaybackOperations = []string{
	"Play", "Pause", "Stop", "StartOver", "Previous", "Next", "Rewind", "FastForward",
}

func reportable(name string, types ...string) PropertyDef {
	return PropertyDef{Name: name, ItemTypes: types, Reportable: true}
}

func commandOnly(name string, types ...string) PropertyDef {
	return PropertyDef{Name: name, ItemTypes: types}
}

// simple renders a capability reporting every reportable property present.
func simple(d *Descriptor) RenderFunc {
	return func(instance string, props map[string]Parameters) alexa.Capability {
		c := alexa.NewCapability(d.Namespace(), presentReportable(d, props)...)
		c.Instance = instance
		return c
	}
}

func presentReportable(d *Descriptor, props map[string]Parameters) []string {
	var names []string
	for _, p := range d.Properties {
		if _, ok := props[p.Name]; ok && p.Reportable {
			names = append(names, p.Name)
		}
	}
	return names
}

// builtins returns the descriptors in display category priority order.
func builtins() []*Descriptor {
	thermostat := &Descriptor{
		Interface: ThermostatController,
		Properties: []PropertyDef{
			reportable(PropTargetSetpoint, typeNumber),
			reportable(PropUpperSetpoint, typeNumber),
			reportable(PropLowerSetpoint, typeNumber),
			reportable(PropThermostatMode, typeNumber, typeString, typeSwitch),
		},
		DefaultCategory: "THERMOSTAT",
	}
	thermostat.Render = func(_ string, props map[string]Parameters) alexa.Capability {
		c := alexa.NewCapability(thermostat.Namespace(), presentReportable(thermostat, props)...)
		cfg := alexa.ThermostatConfiguration{}
		if mode, ok := props[PropThermostatMode]; ok {
			cfg.SupportedModes = mode.List(ParamSupportedModes)
			if len(cfg.SupportedModes) == 0 {
				cfg.SupportedModes = mode.ModeTable().Modes()
			}
		}
		c.Configuration = cfg
		return c
	}

	lock := &Descriptor{
		Interface:       LockController,
		Properties:      []PropertyDef{reportable(PropLockState, typeSwitch, typeNumber, typeString)},
		DefaultCategory: "SMARTLOCK",
	}
	lock.Render = simple(lock)

	color := &Descriptor{
		Interface:       ColorController,
		Properties:      []PropertyDef{reportable(PropColor, typeColor)},
		DefaultCategory: "LIGHT",
	}
	color.Render = simple(color)

	colorTemp := &Descriptor{
		Interface:       ColorTemperatureController,
		Properties:      []PropertyDef{reportable(PropColorTemperature, typeDimmer, typeNumber)},
		DefaultCategory: "LIGHT",
	}
	colorTemp.Render = simple(colorTemp)

	brightness := &Descriptor{
		Interface:       BrightnessController,
		Properties:      []PropertyDef{reportable(PropBrightness, typeColor, typeDimmer)},
		DefaultCategory: "LIGHT",
	}
	brightness.Render = simple(brightness)

	channel := &Descriptor{
		Interface:       ChannelController,
		Properties:      []PropertyDef{reportable(PropChannel, typeNumber, typeString)},
		DefaultCategory: "TV",
	}
	channel.Render = simple(channel)

	input := &Descriptor{
		Interface:       InputController,
		Properties:      []PropertyDef{reportable(PropInput, typeString)},
		DefaultCategory: "TV",
	}
	input.Render = func(_ string, props map[string]Parameters) alexa.Capability {
		c := alexa.NewCapability(input.Namespace(), presentReportable(input, props)...)
		for _, name := range props[PropInput].List(ParamSupportedInputs) {
			c.Inputs = append(c.Inputs, alexa.Input{Name: name})
		}
		return c
	}

	playback := &Descriptor{
		Interface:       PlaybackController,
		Properties:      []PropertyDef{commandOnly(PropPlayback, typePlayer)},
		DefaultCategory: "OTHER",
	}
	playback.Render = func(_ string, props map[string]Parameters) alexa.Capability {
		c := alexa.NewCapability(playback.Namespace())
		c.SupportedOperations = props[PropPlayback].List(ParamSupportedOperations)
		if len(c.SupportedOperations) == 0 {
			c.SupportedOperations = defaultPlaybackOperations
		}
		return c
	}

	speaker := &Descriptor{
		Interface: Speaker,
		Properties: []PropertyDef{
			reportable(PropVolume, typeDimmer, typeNumber),
			reportable(PropMuted, typeSwitch),
		},
		DefaultCategory: "SPEAKER",
	}
	speaker.Render = simple(speaker)

	stepSpeaker := &Descriptor{
		Interface: StepSpeaker,
		Properties: []PropertyDef{
			commandOnly(PropVolume, typeDimmer, typeNumber),
			commandOnly(PropMuted, typeSwitch),
		},
		DefaultCategory: "SPEAKER",
	}
	stepSpeaker.Render = simple(stepSpeaker)

	scene := &Descriptor{
		Interface:       SceneController,
		Properties:      []PropertyDef{commandOnly(PropScene, typeSwitch)},
		DefaultCategory: "SCENE_TRIGGER",
	}
	scene.Render = func(_ string, props map[string]Parameters) alexa.Capability {
		c := alexa.NewCapability(scene.Namespace())
		deactivation := props[PropScene].Bool(ParamSupportsDeactivation)
		c.SupportsDeactivation = &deactivation
		return c
	}

	tempSensor := &Descriptor{
		Interface:       TemperatureSensor,
		Properties:      []PropertyDef{reportable(PropTemperature, typeNumber)},
		DefaultCategory: "TEMPERATURE_SENSOR",
	}
	tempSensor.Render = simple(tempSensor)

	contact := &Descriptor{
		Interface:       ContactSensor,
		Properties:      []PropertyDef{reportable(PropDetectionState, typeContact, typeSwitch)},
		DefaultCategory: "CONTACT_SENSOR",
	}
	contact.Render = simple(contact)

	motion := &Descriptor{
		Interface:       MotionSensor,
		Properties:      []PropertyDef{reportable(PropDetectionState, typeContact, typeSwitch)},
		DefaultCategory: "MOTION_SENSOR",
	}
	motion.Render = simple(motion)

	powerLevel := &Descriptor{
		Interface:       PowerLevelController,
		Properties:      []PropertyDef{reportable(PropPowerLevel, typeDimmer)},
		DefaultCategory: "OTHER",
	}
	powerLevel.Render = simple(powerLevel)

	percentage := &Descriptor{
		Interface:       PercentageController,
		Properties:      []PropertyDef{reportable(PropPercentage, typeDimmer, typeRollershutter)},
		DefaultCategory: "OTHER",
	}
	percentage.Render = simple(percentage)

	toggle := &Descriptor{
		Interface:       ToggleController,
		Properties:      []PropertyDef{reportable(PropToggleState, typeSwitch)},
		DefaultCategory: "OTHER",
		MultiInstance:   true,
	}
	toggle.Render = func(instance string, props map[string]Parameters) alexa.Capability {
		c := alexa.NewCapability(toggle.Namespace(), presentReportable(toggle, props)...)
		c.Instance = instance
		params := props[PropToggleState]
		locale, ok := params.String(ParamLocale)
		if !ok {
			locale = "en-US"
		}
		names := params.List(ParamFriendlyNames)
		if len(names) == 0 {
			names = []string{instance}
		}
		c.CapabilityResources = alexa.TextNames(locale, names...)
		return c
	}

	power := &Descriptor{
		Interface:       PowerController,
		Properties:      []PropertyDef{reportable(PropPowerState, typeColor, typeDimmer, typeSwitch)},
		DefaultCategory: "SWITCH",
	}
	power.Render = simple(power)

	return []*Descriptor{
		thermostat, lock, color, colorTemp, brightness, channel, input,
		playback, speaker, stepSpeaker, scene, tempSensor, contact, motion,
		powerLevel, percentage, toggle, power,
	}
}
