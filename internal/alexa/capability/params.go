package capability

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa/normalize"
)

// Parameter keys understood in item metadata config.
const (
	ParamCategory                = "category"
	ParamScale                   = "scale"
	ParamSetpointRange           = "setpointRange"
	ParamComfortRange            = "comfortRange"
	ParamBinding                 = "binding"
	ParamSupportedModes          = "supportedModes"
	ParamIncrement               = "increment"
	ParamInverted                = "inverted"
	ParamChannelMappings         = "channelMappings"
	ParamSupportedInputs         = "supportedInputs"
	ParamSupportedOperations     = "supportedOperations"
	ParamSupportsDeactivation    = "supportsDeactivation"
	ParamFriendlyNames           = "friendlyNames"
	ParamMinimumTemperatureDelta = "minimumTemperatureDelta"
	ParamLocale                  = "locale"
)

// Parameters is the free-form configuration attached to a property. Values
// come straight from openHAB metadata JSON, so each accessor accepts both
// native JSON types and their string spellings.
type Parameters map[string]any

// Clone returns a shallow copy.
func (p Parameters) Clone() Parameters {
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String returns the value of key rendered as a string.
func (p Parameters) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return normalize.FormatNumber(t), true
	default:
		return fmt.Sprint(t), true
	}
}

// Float returns the numeric value of key.
func (p Parameters) Float(key string) (float64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// Bool reports whether key is set to true.
func (p Parameters) Bool(key string) bool {
	switch t := p[key].(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	}
	return false
}

// List returns a list value, accepting JSON arrays and comma-separated
// strings. Empty entries are dropped.
func (p Parameters) List(key string) []string {
	var raw []string
	switch t := p[key].(type) {
	case []any:
		for _, e := range t {
			raw = append(raw, fmt.Sprint(e))
		}
	case []string:
		raw = t
	case string:
		raw = strings.Split(t, ",")
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Range returns a "min:max" range.
func (p Parameters) Range(key string) (lo, hi float64, ok bool) {
	s, ok := p.String(key)
	if !ok {
		return 0, 0, false
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	hi, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}

// Mapping returns a name to value table given either as a JSON object or as
// "NAME=VALUE,NAME=VALUE".
func (p Parameters) Mapping(key string) map[string]string {
	out := make(map[string]string)
	switch t := p[key].(type) {
	case map[string]any:
		for k, v := range t {
			out[k] = fmt.Sprint(v)
		}
	case string:
		for _, pair := range strings.Split(t, ",") {
			k, v, found := strings.Cut(pair, "=")
			if !found {
				continue
			}
			if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" {
				out[k] = v
			}
		}
	}
	return out
}

// Scale returns the configured temperature scale.
func (p Parameters) Scale() (normalize.Scale, bool) {
	s, ok := p.String(ParamScale)
	if !ok {
		return "", false
	}
	return normalize.ParseScale(s)
}

// ModeTable resolves the thermostat mode table from the OFF/HEAT/... keys and
// the binding parameter.
func (p Parameters) ModeTable() normalize.ModeTable {
	explicit := make(map[string]string)
	for _, m := range normalize.AlexaModes {
		if v, ok := p.String(m); ok {
			explicit[m] = v
		}
	}
	binding, _ := p.String(ParamBinding)
	return normalize.ResolveModeTable(explicit, binding)
}

// LockMapping returns the LOCKED/UNLOCKED/JAMMED raw state lists. Each value
// is a ':'-separated list of raw states.
func (p Parameters) LockMapping() normalize.LockMapping {
	out := make(normalize.LockMapping)
	for _, ls := range normalize.LockStates {
		s, ok := p.String(ls)
		if !ok {
			continue
		}
		for _, raw := range strings.Split(s, ":") {
			if raw = strings.TrimSpace(raw); raw != "" {
				out[ls] = append(out[ls], raw)
			}
		}
	}
	return out
}
