package directive

import (
	"context"
	"math"
	"strconv"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/capability"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/normalize"
)

// defaultColorTemperatureStep is the Kelvin step of Increase/Decrease
// directives without an increment parameter.
const defaultColorTemperatureStep = 500

func onOff(name string) string {
	switch name {
	case "TurnOn", "Activate":
		return "ON"
	default:
		return "OFF"
	}
}

func formatInt(v float64) string {
	return strconv.Itoa(int(math.Round(v)))
}

// ─── Power / Toggle ────────────────────────────────────────────────

func (d *Dispatcher) setPowerState(ctx context.Context, r *Request) (*alexa.Response, error) {
	e, err := r.Entry(capability.PropPowerState)
	if err != nil {
		return nil, err
	}
	if err := d.send(ctx, r, command{e.Item.Name, onOff(r.Directive.Header.Name)}); err != nil {
		return nil, err
	}
	return d.respond(ctx, r, r.Key())
}

func (d *Dispatcher) setToggleState(ctx context.Context, r *Request) (*alexa.Response, error) {
	e, err := r.Entry(capability.PropToggleState)
	if err != nil {
		return nil, err
	}
	if err := d.send(ctx, r, command{e.Item.Name, onOff(r.Directive.Header.Name)}); err != nil {
		return nil, err
	}
	return d.respond(ctx, r, r.Key())
}

// ─── Brightness / Percentage / PowerLevel ──────────────────────────

// percentSpec describes one interface served by the shared percentage
// handler.
type percentSpec struct {
	namespace  string
	property   string
	setName    string
	adjustName string
	deltaField string
}

var percentSpecs = []percentSpec{
	{"Alexa.BrightnessController", capability.PropBrightness, "SetBrightness", "AdjustBrightness", "brightnessDelta"},
	{"Alexa.PercentageController", capability.PropPercentage, "SetPercentage", "AdjustPercentage", "percentageDelta"},
	{"Alexa.PowerLevelController", capability.PropPowerLevel, "SetPowerLevel", "AdjustPowerLevel", "powerLevelDelta"},
}

func percentSpecFor(namespace string) percentSpec {
	for _, s := range percentSpecs {
		if s.namespace == namespace {
			return s
		}
	}
	return percentSpec{}
}

func (d *Dispatcher) setPercent(ctx context.Context, r *Request) (*alexa.Response, error) {
	spec := percentSpecFor(r.Directive.Header.Namespace)
	e, err := r.Entry(spec.property)
	if err != nil {
		return nil, err
	}

	var payload map[string]float64
	if err := r.Decode(&payload); err != nil {
		return nil, err
	}
	value, ok := payload[spec.property]
	if !ok {
		return nil, alexa.ErrInvalidValue("missing " + spec.property)
	}

	value = clampPercent(value)
	if e.Parameters.Bool(capability.ParamInverted) {
		value = 100 - value
	}
	if err := d.send(ctx, r, command{e.Item.Name, formatInt(value)}); err != nil {
		return nil, err
	}
	return d.respond(ctx, r, r.Key())
}

func (d *Dispatcher) adjustPercent(ctx context.Context, r *Request) (*alexa.Response, error) {
	spec := percentSpecFor(r.Directive.Header.Namespace)
	e, err := r.Entry(spec.property)
	if err != nil {
		return nil, err
	}

	var payload map[string]float64
	if err := r.Decode(&payload); err != nil {
		return nil, err
	}
	delta, ok := payload[spec.deltaField]
	if !ok {
		return nil, alexa.ErrInvalidValue("missing " + spec.deltaField)
	}
	inverted := e.Parameters.Bool(capability.ParamInverted)

	item, err := d.readState(ctx, r, e)
	if err != nil {
		return nil, err
	}
	current, err := normalize.Percent(item.State, item.EffectiveType())
	if err != nil {
		return nil, alexa.ErrEndpointUnreachable(item.Name + " state is not numeric")
	}
	if inverted {
		current = 100 - current
	}

	target := clampPercent(current + stepDelta(delta, e.Parameters))
	if inverted {
		target = 100 - target
	}
	if err := d.send(ctx, r, command{e.Item.Name, formatInt(target)}); err != nil {
		return nil, err
	}
	return d.respond(ctx, r, r.Key())
}

// stepDelta applies the increment parameter: when set it replaces the
// magnitude of delta and keeps its sign.
func stepDelta(delta float64, p capability.Parameters) float64 {
	inc, ok := p.Float(capability.ParamIncrement)
	if !ok || inc <= 0 || delta == 0 {
		return delta
	}
	return math.Copysign(inc, delta)
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// ─── Color ─────────────────────────────────────────────────────────

func (d *Dispatcher) setColor(ctx context.Context, r *Request) (*alexa.Response, error) {
	e, err := r.Entry(capability.PropColor)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Color *alexa.Color `json:"color"`
	}
	if err := r.Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Color == nil {
		return nil, alexa.ErrInvalidValue("missing color")
	}

	hsb := normalize.HSB{
		Hue:        normalize.Round(payload.Color.Hue, 2),
		Saturation: normalize.Round(payload.Color.Saturation*100, 2),
		Brightness: normalize.Round(payload.Color.Brightness*100, 2),
	}
	if err := d.send(ctx, r, command{e.Item.Name, hsb.String()}); err != nil {
		return nil, err
	}
	return d.respond(ctx, r, capability.ColorController)
}

// ─── Color temperature ─────────────────────────────────────────────

func (d *Dispatcher) setColorTemperature(ctx context.Context, r *Request) (*alexa.Response, error) {
	e, err := r.Entry(capability.PropColorTemperature)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Kelvin *float64 `json:"colorTemperatureInKelvin"`
	}
	if err := r.Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Kelvin == nil {
		return nil, alexa.ErrInvalidValue("missing colorTemperatureInKelvin")
	}

	value := normalize.ColorTemperature(*payload.Kelvin, e.Item.Type)
	if err := d.send(ctx, r, command{e.Item.Name, formatInt(value)}); err != nil {
		return nil, err
	}
	return d.respond(ctx, r, capability.ColorTemperatureController)
}

func (d *Dispatcher) adjustColorTemperature(ctx context.Context, r *Request) (*alexa.Response, error) {
	e, err := r.Entry(capability.PropColorTemperature)
	if err != nil {
		return nil, err
	}

	item, err := d.readState(ctx, r, e)
	if err != nil {
		return nil, err
	}
	current, err := normalize.ParseNumber(item.State)
	// A zero Kelvin reading means colour mode; on a Dimmer 0% is cold white.
	colorMode := err != nil || (current == 0 && baseType(e.Item.Type) != "Dimmer")
	if colorMode && r.PropertyMap.Has(capability.ColorController) {
		return nil, alexa.ErrNotSupportedInCurrentMode("COLOR", "The light is currently set to a color")
	}
	if err != nil {
		return nil, alexa.ErrEndpointUnreachable(item.Name + " state is not numeric")
	}

	kelvin := normalize.ColorTemperature(current, e.Item.Type)
	step, ok := e.Parameters.Float(capability.ParamIncrement)
	if !ok || step <= 0 {
		step = defaultColorTemperatureStep
	}
	if r.Directive.Header.Name == "DecreaseColorTemperature" {
		step = -step
	}

	kelvin = math.Max(normalize.KelvinMin, math.Min(normalize.KelvinMax, kelvin+step))
	value := normalize.ColorTemperature(kelvin, e.Item.Type)
	if err := d.send(ctx, r, command{e.Item.Name, formatInt(value)}); err != nil {
		return nil, err
	}
	return d.respond(ctx, r, capability.ColorTemperatureController)
}

// ─── Lock ──────────────────────────────────────────────────────────

func (d *Dispatcher) setLockState(ctx context.Context, r *Request) (*alexa.Response, error) {
	e, err := r.Entry(capability.PropLockState)
	if err != nil {
		return nil, err
	}

	target := normalize.LockUnlocked
	if r.Directive.Header.Name == "Lock" {
		target = normalize.LockLocked
	}
	value, ok := normalize.LockCommand(target, e.Item.Type, e.Parameters.LockMapping())
	if !ok {
		return nil, alexa.ErrInvalidValue("No command mapped for " + target)
	}
	if err := d.send(ctx, r, command{e.Item.Name, value}); err != nil {
		return nil, err
	}
	return d.respond(ctx, r, capability.LockController)
}

// ─── Scene ─────────────────────────────────────────────────────────

func (d *Dispatcher) activateScene(ctx context.Context, r *Request) (*alexa.Response, error) {
	e, err := r.Entry(capability.PropScene)
	if err != nil {
		return nil, err
	}
	if err := d.send(ctx, r, command{e.Item.Name, onOff(r.Directive.Header.Name)}); err != nil {
		return nil, err
	}

	name := alexa.NameActivationStarted
	if r.Directive.Header.Name == "Deactivate" {
		name = alexa.NameDeactivationStarted
	}
	return alexa.NewSceneEvent(r.Directive, name, d.now()), nil
}

// ─── Playback ──────────────────────────────────────────────────────

// playbackCommands maps PlaybackController directives to Player commands.
var playbackCommands = map[string]string{
	"Play":        "PLAY",
	"Pause":       "PAUSE",
	"Stop":        "PAUSE",
	"Next":        "NEXT",
	"Previous":    "PREVIOUS",
	"StartOver":   "PREVIOUS",
	"Rewind":      "REWIND",
	"FastForward": "FASTFORWARD",
}

func (d *Dispatcher) playback(ctx context.Context, r *Request) (*alexa.Response, error) {
	e, err := r.Entry(capability.PropPlayback)
	if err != nil {
		return nil, err
	}
	if err := d.send(ctx, r, command{e.Item.Name, playbackCommands[r.Directive.Header.Name]}); err != nil {
		return nil, err
	}
	return alexa.NewResponse(r.Directive, nil), nil
}
