package directive

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/capability"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/normalize"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/propertymap"
)

// Per-scale defaults for comfortRange and minimumTemperatureDelta.
const (
	defaultComfortRangeF = 2.0
	defaultComfortRangeC = 1.0
	defaultMinDeltaF     = 2.0
	defaultMinDeltaC     = 1.0
)

// temperature is an Alexa temperature payload value.
type temperature struct {
	Value float64 `json:"value"`
	Scale string  `json:"scale"`
}

// in converts t into the given scale.
func (t temperature) in(to normalize.Scale, isDelta bool) float64 {
	from, ok := normalize.ParseScale(t.Scale)
	if !ok {
		return t.Value
	}
	return normalize.TemperatureScale(t.Value, from, to, isDelta)
}

// thermostat holds the bound thermostat properties of an endpoint.
type thermostat struct {
	target *propertymap.Entry
	upper  *propertymap.Entry
	lower  *propertymap.Entry
	mode   *propertymap.Entry
}

func thermostatOf(r *Request) thermostat {
	props := r.PropertyMap[capability.ThermostatController]
	get := func(name string) *propertymap.Entry {
		if e, ok := props[name]; ok {
			return &e
		}
		return nil
	}
	return thermostat{
		target: get(capability.PropTargetSetpoint),
		upper:  get(capability.PropUpperSetpoint),
		lower:  get(capability.PropLowerSetpoint),
		mode:   get(capability.PropThermostatMode),
	}
}

// setpoint is one pending setpoint write, in the item's own scale.
type setpoint struct {
	property string
	entry    *propertymap.Entry
	value    float64
}

// currentMode reads the thermostat mode. resolved is false when there is no
// mode item or its state does not map to an Alexa mode.
func (d *Dispatcher) currentMode(ctx context.Context, r *Request, t thermostat) (mode string, resolved bool, err error) {
	if t.mode == nil {
		return "", false, nil
	}
	item, err := d.readState(ctx, r, *t.mode)
	if err != nil {
		return "", false, err
	}
	mode, resolved = t.mode.Parameters.ModeTable().ToAlexa(item.State)
	return mode, resolved, nil
}

func (d *Dispatcher) ensureNotOff(ctx context.Context, r *Request, t thermostat) (string, bool, error) {
	mode, resolved, err := d.currentMode(ctx, r, t)
	if err != nil {
		return "", false, err
	}
	if resolved && mode == normalize.ModeOff {
		return "", false, alexa.ErrThermostat(alexa.ErrTypeThermostatIsOff, "The thermostat is off")
	}
	return mode, resolved, nil
}

func (d *Dispatcher) setTargetTemperature(ctx context.Context, r *Request) (*alexa.Response, error) {
	var payload struct {
		Target *temperature `json:"targetSetpoint"`
		Upper  *temperature `json:"upperSetpoint"`
		Lower  *temperature `json:"lowerSetpoint"`
	}
	if err := r.Decode(&payload); err != nil {
		return nil, err
	}

	t := thermostatOf(r)
	mode, resolved, err := d.ensureNotOff(ctx, r, t)
	if err != nil {
		return nil, err
	}

	var writes []setpoint
	switch {
	case payload.Target != nil && payload.Upper != nil && payload.Lower != nil:
		if t.target == nil || t.upper == nil || t.lower == nil {
			return nil, alexa.ErrThermostat(alexa.ErrTypeTripleSetpointsUnsupported, "Triple setpoints are not supported")
		}
		writes = []setpoint{
			{capability.PropTargetSetpoint, t.target, payload.Target.in(itemScale(*t.target), false)},
			{capability.PropUpperSetpoint, t.upper, payload.Upper.in(itemScale(*t.upper), false)},
			{capability.PropLowerSetpoint, t.lower, payload.Lower.in(itemScale(*t.lower), false)},
		}

	case payload.Upper != nil && payload.Lower != nil:
		if t.upper == nil || t.lower == nil ||
			(resolved && (mode == normalize.ModeHeat || mode == normalize.ModeCool)) {
			return nil, alexa.ErrThermostat(alexa.ErrTypeDualSetpointsUnsupported, "Dual setpoints are not supported")
		}
		writes = []setpoint{
			{capability.PropUpperSetpoint, t.upper, payload.Upper.in(itemScale(*t.upper), false)},
			{capability.PropLowerSetpoint, t.lower, payload.Lower.in(itemScale(*t.lower), false)},
		}

	case payload.Target != nil:
		switch {
		case t.target != nil:
			writes = []setpoint{{capability.PropTargetSetpoint, t.target, payload.Target.in(itemScale(*t.target), false)}}
		case t.upper != nil && t.lower != nil:
			scale := itemScale(*t.upper)
			target := payload.Target.in(scale, false)
			comfort := scaled(t.upper.Parameters, capability.ParamComfortRange, scale, defaultComfortRangeF, defaultComfortRangeC)
			writes = []setpoint{
				{capability.PropUpperSetpoint, t.upper, target + comfort},
				{capability.PropLowerSetpoint, t.lower, payload.Target.in(itemScale(*t.lower), false) - comfort},
			}
		default:
			return nil, alexa.ErrInvalidValue("No target setpoint defined")
		}

	case payload.Upper != nil && t.upper != nil:
		writes = []setpoint{{capability.PropUpperSetpoint, t.upper, payload.Upper.in(itemScale(*t.upper), false)}}

	case payload.Lower != nil && t.lower != nil:
		writes = []setpoint{{capability.PropLowerSetpoint, t.lower, payload.Lower.in(itemScale(*t.lower), false)}}

	default:
		return nil, alexa.ErrInvalidValue("No supported setpoint requested")
	}

	return d.writeSetpoints(ctx, r, writes)
}

func (d *Dispatcher) adjustTargetTemperature(ctx context.Context, r *Request) (*alexa.Response, error) {
	var payload struct {
		Delta *temperature `json:"targetSetpointDelta"`
	}
	if err := r.Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Delta == nil {
		return nil, alexa.ErrInvalidValue("missing targetSetpointDelta")
	}

	t := thermostatOf(r)
	if _, _, err := d.ensureNotOff(ctx, r, t); err != nil {
		return nil, err
	}

	var pending []setpoint
	switch {
	case t.target != nil:
		pending = []setpoint{{property: capability.PropTargetSetpoint, entry: t.target}}
	case t.upper != nil && t.lower != nil:
		pending = []setpoint{
			{property: capability.PropUpperSetpoint, entry: t.upper},
			{property: capability.PropLowerSetpoint, entry: t.lower},
		}
	default:
		return nil, alexa.ErrInvalidValue("No target setpoint defined")
	}

	names := make([]string, 0, len(pending))
	for _, w := range pending {
		names = append(names, w.entry.Item.StateItem())
	}
	items, err := d.readItems(ctx, r, names...)
	if err != nil {
		return nil, err
	}

	for i := range pending {
		w := &pending[i]
		item := items[w.entry.Item.StateItem()]
		current, err := normalize.ParseNumber(item.State)
		if err != nil {
			return nil, alexa.ErrEndpointUnreachable(item.Name + " state is not numeric")
		}
		w.value = current + payload.Delta.in(itemScale(*w.entry), true)
	}
	return d.writeSetpoints(ctx, r, pending)
}

// writeSetpoints validates every write before sending any of them.
func (d *Dispatcher) writeSetpoints(ctx context.Context, r *Request, writes []setpoint) (*alexa.Response, error) {
	var upper, lower *setpoint
	for i := range writes {
		w := &writes[i]
		if lo, hi, ok := w.entry.Parameters.Range(capability.ParamSetpointRange); ok && (w.value < lo || w.value > hi) {
			return nil, alexa.ErrTemperatureOutOfRange(lo, hi, string(itemScale(*w.entry)))
		}
		switch w.property {
		case capability.PropUpperSetpoint:
			upper = w
		case capability.PropLowerSetpoint:
			lower = w
		}
	}

	if upper != nil && lower != nil {
		scale := itemScale(*upper.entry)
		minDelta := scaled(upper.entry.Parameters, capability.ParamMinimumTemperatureDelta, scale, defaultMinDeltaF, defaultMinDeltaC)
		if upper.value-lower.value < minDelta {
			return nil, alexa.ErrSetpointsTooClose(minDelta, string(scale))
		}
	}

	cmds := make([]command, 0, len(writes))
	for _, w := range writes {
		cmds = append(cmds, command{w.entry.Item.Name, formatTemperature(w.value, *w.entry)})
	}
	if err := d.send(ctx, r, cmds...); err != nil {
		return nil, err
	}
	return d.respond(ctx, r, capability.ThermostatController)
}

func (d *Dispatcher) setThermostatMode(ctx context.Context, r *Request) (*alexa.Response, error) {
	var payload struct {
		Mode *struct {
			Value string `json:"value"`
		} `json:"thermostatMode"`
	}
	if err := r.Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Mode == nil || payload.Mode.Value == "" {
		return nil, alexa.ErrInvalidValue("missing thermostatMode")
	}
	return d.writeMode(ctx, r, strings.ToUpper(payload.Mode.Value))
}

func (d *Dispatcher) resumeSchedule(ctx context.Context, r *Request) (*alexa.Response, error) {
	return d.writeMode(ctx, r, normalize.ModeAuto)
}

func (d *Dispatcher) writeMode(ctx context.Context, r *Request, mode string) (*alexa.Response, error) {
	e, err := r.Entry(capability.PropThermostatMode)
	if err != nil {
		return nil, err
	}

	unsupported := alexa.ErrThermostat(alexa.ErrTypeUnsupportedThermostatMode, fmt.Sprintf("Mode %s is not supported", mode))
	if supported := e.Parameters.List(capability.ParamSupportedModes); len(supported) > 0 && !slices.Contains(supported, mode) {
		return nil, unsupported
	}
	raw, ok := e.Parameters.ModeTable().ToSystem(mode)
	if !ok {
		return nil, unsupported
	}

	if err := d.send(ctx, r, command{e.Item.Name, raw}); err != nil {
		return nil, err
	}
	return d.respond(ctx, r, capability.ThermostatController)
}

// scaled reads a temperature-difference parameter with per-scale defaults.
func scaled(p capability.Parameters, key string, scale normalize.Scale, fahrenheit, celsius float64) float64 {
	if v, ok := p.Float(key); ok && v > 0 {
		return v
	}
	if scale == normalize.Fahrenheit {
		return fahrenheit
	}
	return celsius
}

// formatTemperature renders a setpoint command, adding the unit for
// dimensioned items so openHAB does not assume its system unit.
func formatTemperature(v float64, e propertymap.Entry) string {
	s := normalize.FormatNumber(normalize.Round(v, 1))
	if !strings.HasSuffix(e.Item.Type, ":Temperature") {
		return s
	}
	if itemScale(e) == normalize.Fahrenheit {
		return s + " °F"
	}
	return s + " °C"
}
