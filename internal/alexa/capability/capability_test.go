package capability

import (
	"reflect"
	"testing"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
)

func TestSupports(t *testing.T) {
	tests := []struct {
		iface    string
		prop     string
		itemType string
		want     bool
	}{
		{PowerController, PropPowerState, "Switch", true},
		{PowerController, PropPowerState, "Dimmer", true},
		{PowerController, PropPowerState, "String", false},
		{"Alexa.BrightnessController", PropBrightness, "Color", true},
		{BrightnessController, PropBrightness, "Switch", false},
		{ThermostatController, PropTargetSetpoint, "Number:Temperature", true},
		{ThermostatController, PropThermostatMode, "String", true},
		{TemperatureSensor, PropTemperature, "Number:Temperature", true},
		{LockController, PropLockState, "Contact", false},
		{LockController, PropLockState, "Number", true},
		{LockController, PropLockState, "String", true},
		{PlaybackController, PropPlayback, "Player", true},
		{ToggleController, PropToggleState, "Switch", true},
		{PowerController, "bogus", "Switch", false},
		{"FanController", "speed", "Number", false},
	}

	for _, tt := range tests {
		t.Run(tt.iface+"."+tt.prop+"/"+tt.itemType, func(t *testing.T) {
			if got := Supports(tt.iface, tt.prop, tt.itemType); got != tt.want {
				t.Errorf("Supports(%s, %s, %s) = %v, want %v", tt.iface, tt.prop, tt.itemType, got, tt.want)
			}
		})
	}
}

func TestDescriptorsComplete(t *testing.T) {
	for _, d := range Default.Descriptors() {
		if d.Render == nil {
			t.Errorf("%s has no renderer", d.Interface)
		}
		if !IsDisplayCategory(d.DefaultCategory) {
			t.Errorf("%s default category %q is not an Alexa display category", d.Interface, d.DefaultCategory)
		}
		if len(d.Properties) == 0 {
			t.Errorf("%s declares no properties", d.Interface)
		}
	}
}

func TestRenderPower(t *testing.T) {
	d, _ := Lookup(PowerController)
	c := d.Render("", map[string]Parameters{PropPowerState: {}})

	if c.Interface != "Alexa.PowerController" || c.Version != "3" || c.Type != "AlexaInterface" {
		t.Errorf("capability = %+v", c)
	}
	if c.Properties == nil || len(c.Properties.Supported) != 1 || c.Properties.Supported[0].Name != PropPowerState {
		t.Fatalf("properties = %+v", c.Properties)
	}
	if !c.Properties.Retrievable {
		t.Error("powerState should be retrievable")
	}
}

func TestRenderThermostat(t *testing.T) {
	d, _ := Lookup(ThermostatController)

	c := d.Render("", map[string]Parameters{
		PropTargetSetpoint: {},
		PropThermostatMode: {ParamBinding: "nest"},
	})
	names := []string{}
	for _, p := range c.Properties.Supported {
		names = append(names, p.Name)
	}
	if !reflect.DeepEqual(names, []string{PropTargetSetpoint, PropThermostatMode}) {
		t.Errorf("supported = %v", names)
	}
	cfg, ok := c.Configuration.(alexa.ThermostatConfiguration)
	if !ok {
		t.Fatalf("configuration type = %T", c.Configuration)
	}
	if !reflect.DeepEqual(cfg.SupportedModes, []string{"OFF", "HEAT", "COOL", "AUTO", "ECO"}) {
		t.Errorf("supported modes = %v", cfg.SupportedModes)
	}

	c = d.Render("", map[string]Parameters{
		PropThermostatMode: {ParamSupportedModes: "HEAT,OFF"},
	})
	cfg = c.Configuration.(alexa.ThermostatConfiguration)
	if !reflect.DeepEqual(cfg.SupportedModes, []string{"HEAT", "OFF"}) {
		t.Errorf("explicit supported modes = %v", cfg.SupportedModes)
	}
}

func TestRenderSpecialShapes(t *testing.T) {
	t.Run("playback defaults", func(t *testing.T) {
		d, _ := Lookup(PlaybackController)
		c := d.Render("", map[string]Parameters{PropPlayback: {}})
		if c.Properties != nil {
			t.Error("playback has no reportable properties")
		}
		if len(c.SupportedOperations) != len(defaultPlaybackOperations) {
			t.Errorf("operations = %v", c.SupportedOperations)
		}
	})

	t.Run("input list", func(t *testing.T) {
		d, _ := Lookup(InputController)
		c := d.Render("", map[string]Parameters{PropInput: {ParamSupportedInputs: []any{"HDMI 1", "TV"}}})
		if len(c.Inputs) != 2 || c.Inputs[0].Name != "HDMI 1" {
			t.Errorf("inputs = %v", c.Inputs)
		}
	})

	t.Run("scene deactivation", func(t *testing.T) {
		d, _ := Lookup(SceneController)
		c := d.Render("", map[string]Parameters{PropScene: {ParamSupportsDeactivation: true}})
		if c.SupportsDeactivation == nil || !*c.SupportsDeactivation {
			t.Errorf("supportsDeactivation = %v", c.SupportsDeactivation)
		}
	})

	t.Run("toggle instance", func(t *testing.T) {
		d, _ := Lookup(ToggleController)
		if !d.MultiInstance {
			t.Fatal("ToggleController should be multi-instance")
		}
		c := d.Render("Oscillate", map[string]Parameters{PropToggleState: {}})
		if c.Instance != "Oscillate" {
			t.Errorf("instance = %q", c.Instance)
		}
		if c.CapabilityResources == nil || c.CapabilityResources.FriendlyNames[0].Value.Text != "Oscillate" {
			t.Errorf("resources = %+v", c.CapabilityResources)
		}
	})
}

func TestParameters(t *testing.T) {
	p := Parameters{
		"setpointRange":   "60:80",
		"badRange":        "80:60",
		"increment":       "5",
		"inverted":        true,
		"channelMappings": "CNN=200, HBO = 501,broken",
		"objectMap":       map[string]any{"ESPN": float64(206)},
		"list":            " a, ,b ",
		"number":          float64(7),
		"LOCKED":          "1:locked",
		"UNLOCKED":        "2",
		"HEAT":            "comfort",
	}

	if lo, hi, ok := p.Range("setpointRange"); !ok || lo != 60 || hi != 80 {
		t.Errorf("Range() = %v, %v, %v", lo, hi, ok)
	}
	if _, _, ok := p.Range("badRange"); ok {
		t.Error("inverted range should be rejected")
	}
	if f, ok := p.Float("increment"); !ok || f != 5 {
		t.Errorf("Float() = %v, %v", f, ok)
	}
	if !p.Bool("inverted") || p.Bool("missing") {
		t.Error("Bool() mismatch")
	}
	if got := p.Mapping("channelMappings"); !reflect.DeepEqual(got, map[string]string{"CNN": "200", "HBO": "501"}) {
		t.Errorf("Mapping(string) = %v", got)
	}
	if got := p.Mapping("objectMap"); got["ESPN"] != "206" {
		t.Errorf("Mapping(object) = %v", got)
	}
	if got := p.List("list"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("List() = %v", got)
	}
	if s, _ := p.String("number"); s != "7" {
		t.Errorf("String(number) = %q", s)
	}
	lm := p.LockMapping()
	if !reflect.DeepEqual(lm["LOCKED"], []string{"1", "locked"}) || len(lm["JAMMED"]) != 0 {
		t.Errorf("LockMapping() = %v", lm)
	}
	if v, _ := p.ModeTable().ToSystem("HEAT"); v != "comfort" {
		t.Errorf("ModeTable HEAT = %q", v)
	}

	c := p.Clone()
	c["inverted"] = false
	if !p.Bool("inverted") {
		t.Error("Clone() shares storage with the original")
	}
}

func TestIsDisplayCategory(t *testing.T) {
	if !IsDisplayCategory("LIGHT") || IsDisplayCategory("light") || IsDisplayCategory("LAMP") {
		t.Error("IsDisplayCategory mismatch")
	}
}
