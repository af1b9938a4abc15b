package normalize

import (
	"strconv"
	"strings"
)

// Alexa thermostat modes.
const (
	ModeOff  = "OFF"
	ModeHeat = "HEAT"
	ModeCool = "COOL"
	ModeAuto = "AUTO"
	ModeEco  = "ECO"
)

// AlexaModes is the closed set of Alexa thermostat modes, in display order.
var AlexaModes = []string{ModeOff, ModeHeat, ModeCool, ModeAuto, ModeEco}

// ModeTable maps Alexa thermostat modes to system values.
type ModeTable map[string]string

// bindingModeTables holds the built-in tables keyed by binding name.
var bindingModeTables = map[string]ModeTable{
	"default": {ModeOff: "off", ModeHeat: "heat", ModeCool: "cool", ModeAuto: "auto", ModeEco: "eco"},
	"nest":    {ModeOff: "off", ModeHeat: "heat", ModeCool: "cool", ModeAuto: "heat-cool", ModeEco: "eco"},
	"ecobee":  {ModeOff: "off", ModeHeat: "heat", ModeCool: "cool", ModeAuto: "auto"},
	"zwave":   {ModeOff: "0", ModeHeat: "1", ModeCool: "2", ModeAuto: "3", ModeEco: "11"},
}

// ResolveModeTable picks the mode table for a thermostat.
//
// An explicit mapping wins when it names at least one Alexa mode; otherwise
// the built-in table of binding is used, falling back to the generic table.
// Binding names are matched case-insensitively and a trailing version number
// ("zwave1") or thing suffix ("nest:device") is ignored.
//
// Parameters:
//   - explicit: User-supplied Alexa mode to system value mapping (may be nil)
//   - binding: openHAB binding the thermostat belongs to (may be empty)
//
// Returns:
//   - ModeTable: The table to use in both directions
func ResolveModeTable(explicit map[string]string, binding string) ModeTable {
	user := make(ModeTable)
	for _, m := range AlexaModes {
		if v, ok := explicit[m]; ok && v != "" {
			user[m] = v
		}
	}
	if len(user) > 0 {
		return user
	}

	if t, ok := bindingModeTables[bindingKey(binding)]; ok {
		return t
	}
	return bindingModeTables["default"]
}

func bindingKey(binding string) string {
	b := strings.ToLower(strings.TrimSpace(binding))
	if i := strings.IndexByte(b, ':'); i >= 0 {
		b = b[:i]
	}
	return strings.TrimRight(b, "0123456789")
}

// ToSystem returns the system value for an Alexa mode.
func (t ModeTable) ToSystem(mode string) (string, bool) {
	v, ok := t[strings.ToUpper(mode)]
	return v, ok
}

// ToAlexa reverse-maps a system value. Values are compared as strings
// (case-insensitively) and, when both sides are numeric, as numbers. An
// unmatched value is returned unchanged with resolved false.
func (t ModeTable) ToAlexa(raw string) (mode string, resolved bool) {
	raw = strings.TrimSpace(raw)
	for _, m := range AlexaModes {
		v, ok := t[m]
		if !ok {
			continue
		}
		if strings.EqualFold(v, raw) || numericEqual(v, raw) {
			return m, true
		}
	}
	return raw, false
}

// Modes returns the Alexa modes the table can encode, in display order.
func (t ModeTable) Modes() []string {
	out := make([]string, 0, len(t))
	for _, m := range AlexaModes {
		if _, ok := t[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

func numericEqual(a, b string) bool {
	fa, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return false
	}
	fb, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return false
	}
	return fa == fb
}
