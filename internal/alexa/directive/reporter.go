package directive

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/capability"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/normalize"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/propertymap"
	"github.com/nerrad567/gray-logic-alexa/internal/openhab"
)

// Detection states reported by contact and motion sensors.
const (
	detected    = "DETECTED"
	notDetected = "NOT_DETECTED"
)

// properties reads every item backing keys (all interfaces when keys is
// empty) and renders their reportable properties. A single unavailable
// item fails the whole call; properties whose value cannot be resolved are
// left out.
func (d *Dispatcher) properties(ctx context.Context, r *Request, keys ...string) ([]alexa.Property, error) {
	usages := r.PropertyMap.GetItemsByInterfaces(keys...)
	if len(usages) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(usages))
	for _, u := range usages {
		names = append(names, u.Item.StateItem())
	}
	items, err := d.readItems(ctx, r, names...)
	if err != nil {
		return nil, err
	}

	ts := alexa.Timestamp(d.now())
	var out []alexa.Property
	for _, u := range usages {
		item := items[u.Item.StateItem()]
		for _, ck := range u.Capabilities {
			desc, ok := capability.Lookup(ck.Interface)
			if !ok {
				continue
			}
			if def, ok := desc.Property(ck.Property); !ok || !def.Reportable {
				continue
			}
			entry, _ := r.PropertyMap.Entry(ck.Interface, ck.Instance, ck.Property)

			value, ok, err := propertyValue(ck, entry, item)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			out = append(out, alexa.Property{
				Namespace:    desc.Namespace(),
				Instance:     ck.Instance,
				Name:         ck.Property,
				Value:        value,
				TimeOfSample: ts,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Namespace != out[j].Namespace {
			return out[i].Namespace < out[j].Namespace
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// propertyValue converts an item state into the Alexa value of one
// property. ok is false when the state does not map to a value and the
// property should be suppressed.
func propertyValue(ck propertymap.CapabilityKey, e propertymap.Entry, item openhab.Item) (value any, ok bool, err error) {
	itemType := item.EffectiveType()
	if itemType == "" {
		itemType = e.Item.Type
	}
	state := item.State
	if displayed(ck.Property) {
		state = displayState(item, itemType)
	}
	unreachable := func() (any, bool, error) {
		return nil, false, alexa.ErrEndpointUnreachable(fmt.Sprintf("%s state %q cannot be reported as %s", item.Name, state, ck.Property))
	}

	switch ck.Property {
	case capability.PropPowerState, capability.PropToggleState:
		v, ok := normalize.PowerState(state, itemType)
		return v, ok, nil

	case capability.PropBrightness, capability.PropPercentage, capability.PropPowerLevel:
		pct, err := normalize.Percent(state, itemType)
		if err != nil {
			return unreachable()
		}
		if e.Parameters.Bool(capability.ParamInverted) {
			pct = 100 - pct
		}
		return int(math.Round(pct)), true, nil

	case capability.PropVolume:
		pct, err := normalize.Percent(state, itemType)
		if err != nil {
			return unreachable()
		}
		return int(math.Round(pct)), true, nil

	case capability.PropMuted:
		return state == "ON", true, nil

	case capability.PropColor:
		hsb, err := normalize.ParseHSB(state)
		if err != nil {
			return unreachable()
		}
		return alexa.Color{
			Hue:        hsb.Hue,
			Saturation: normalize.Round(hsb.Saturation/100, 4),
			Brightness: normalize.Round(hsb.Brightness/100, 4),
		}, true, nil

	case capability.PropColorTemperature:
		n, err := normalize.ParseNumber(state)
		if err != nil {
			return unreachable()
		}
		if n == 0 && baseType(itemType) != "Dimmer" {
			// Zero Kelvin means the light is in colour mode.
			return nil, false, nil
		}
		return int(normalize.ColorTemperature(n, itemType)), true, nil

	case capability.PropTargetSetpoint, capability.PropUpperSetpoint,
		capability.PropLowerSetpoint, capability.PropTemperature:
		n, err := normalize.ParseNumber(state)
		if err != nil {
			return unreachable()
		}
		scale := itemScale(e)
		return alexa.Temperature{Value: normalize.Round(n, 1), Scale: string(scale)}, true, nil

	case capability.PropThermostatMode:
		mode, ok := e.Parameters.ModeTable().ToAlexa(state)
		return mode, ok, nil

	case capability.PropLockState:
		ls, ok := normalize.LockState(state, itemType, e.Parameters.LockMapping())
		return ls, ok, nil

	case capability.PropChannel:
		return alexa.ChannelValue{Number: state}, true, nil

	case capability.PropInput:
		return state, true, nil

	case capability.PropDetectionState:
		active := state == "OPEN" || state == "ON"
		if e.Parameters.Bool(capability.ParamInverted) {
			active = !active
		}
		if active {
			return detected, true, nil
		}
		return notDetected, true, nil
	}
	return nil, false, nil
}

// displayed reports whether a property is read from the item's formatted
// display state rather than its raw state.
func displayed(property string) bool {
	switch property {
	case capability.PropBrightness, capability.PropPercentage, capability.PropPowerLevel,
		capability.PropVolume, capability.PropColorTemperature,
		capability.PropTargetSetpoint, capability.PropUpperSetpoint,
		capability.PropLowerSetpoint, capability.PropTemperature,
		capability.PropChannel, capability.PropInput:
		return true
	}
	return false
}

// displayState renders the item state through its state description
// pattern. Transformation patterns such as "MAP(tv.map):%s" are resolved
// by openHAB only and leave the raw state in place, as do Color items.
func displayState(item openhab.Item, itemType string) string {
	pattern := item.Pattern()
	if pattern == "" || baseType(itemType) == "Color" || transformPattern.MatchString(pattern) {
		return item.State
	}
	return normalize.ItemState(item.State, pattern)
}

// transformPattern matches openHAB transformation patterns ("MAP(x):%s").
var transformPattern = regexp.MustCompile(`^[A-Z]+\(.*\):`)

func baseType(itemType string) string {
	base, _, _ := strings.Cut(itemType, ":")
	return base
}

// itemScale returns the scale temperatures are stored in on the item.
func itemScale(e propertymap.Entry) normalize.Scale {
	if s, ok := e.Parameters.Scale(); ok {
		return s
	}
	return normalize.Celsius
}

// connectivity is the EndpointHealth property added to state reports.
func (d *Dispatcher) connectivity() alexa.Property {
	return alexa.Property{
		Namespace:    alexa.NamespaceHealth,
		Name:         "connectivity",
		Value:        alexa.Connectivity{Value: "OK"},
		TimeOfSample: alexa.Timestamp(d.now()),
	}
}
