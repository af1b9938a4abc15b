package normalize

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrNotNumeric is returned when a state cannot be read as a number.
var ErrNotNumeric = errors.New("normalize: state is not numeric")

// ErrInvalidColor is returned when a Color item state is not "h,s,b".
var ErrInvalidColor = errors.New("normalize: invalid HSB state")

// formatVerb matches the first printf verb in an openHAB state pattern.
var formatVerb = regexp.MustCompile(`%[-+ #0]*\d*(?:\.\d+)?[dfsxXeEgG]`)

// ParseNumber reads a numeric state, ignoring a trailing unit
// ("21.5 °C" -> 21.5).
func ParseNumber(state string) (float64, error) {
	fields := strings.Fields(state)
	if len(fields) == 0 {
		return 0, ErrNotNumeric
	}
	f, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, state)
	}
	return f, nil
}

// Unit returns the unit suffix of a quantity state ("21.5 °C" -> "°C").
func Unit(state string) string {
	fields := strings.Fields(state)
	if len(fields) < 2 {
		return ""
	}
	return strings.Join(fields[1:], " ")
}

// ItemState renders a raw state through an openHAB display pattern such as
// "%.1f °C", "%d %%" or "%s". The "%unit%" placeholder is replaced with the
// state's own unit. An empty pattern, or a numeric verb applied to a
// non-numeric state, returns state unchanged.
func ItemState(state, pattern string) string {
	if pattern == "" {
		return state
	}

	const percentMark = "\x00"
	out := strings.ReplaceAll(pattern, "%unit%", Unit(state))
	out = strings.ReplaceAll(out, "%%", percentMark)

	loc := formatVerb.FindStringIndex(out)
	if loc == nil {
		return strings.ReplaceAll(out, percentMark, "%")
	}

	verb := out[loc[0]:loc[1]]
	var rendered string
	switch verb[len(verb)-1] {
	case 's':
		rendered = fmt.Sprintf(verb, state)
	case 'd', 'x', 'X':
		n, err := ParseNumber(state)
		if err != nil {
			return state
		}
		rendered = fmt.Sprintf(verb, int64(math.Round(n)))
	default:
		n, err := ParseNumber(state)
		if err != nil {
			return state
		}
		rendered = fmt.Sprintf(verb, n)
	}

	out = out[:loc[0]] + rendered + out[loc[1]:]
	return strings.ReplaceAll(out, percentMark, "%")
}

// PowerState reads an ON/OFF power state. Dimmer and Color items are on
// when their level is above zero.
func PowerState(state, itemType string) (string, bool) {
	switch state {
	case "ON", "OFF":
		return state, true
	}

	switch baseType(itemType) {
	case "Dimmer", "Color", "Rollershutter":
		pct, err := Percent(state, itemType)
		if err != nil {
			return "", false
		}
		if pct > 0 {
			return "ON", true
		}
		return "OFF", true
	}
	return "", false
}

// Percent reads a 0..100 level. Color states contribute their brightness
// component; ON and OFF read as 100 and 0.
func Percent(state, itemType string) (float64, error) {
	switch state {
	case "ON":
		return 100, nil
	case "OFF":
		return 0, nil
	}
	if baseType(itemType) == "Color" {
		hsb, err := ParseHSB(state)
		if err != nil {
			return 0, err
		}
		return hsb.Brightness, nil
	}
	return ParseNumber(state)
}

// HSB is an openHAB colour state: hue in degrees, saturation and brightness
// in percent.
type HSB struct {
	Hue        float64
	Saturation float64
	Brightness float64
}

// ParseHSB parses "h,s,b".
func ParseHSB(state string) (HSB, error) {
	parts := strings.Split(state, ",")
	if len(parts) != 3 {
		return HSB{}, fmt.Errorf("%w: %q", ErrInvalidColor, state)
	}
	var vals [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return HSB{}, fmt.Errorf("%w: %q", ErrInvalidColor, state)
		}
		vals[i] = f
	}
	return HSB{Hue: vals[0], Saturation: vals[1], Brightness: vals[2]}, nil
}

// String formats the colour as an openHAB HSB command.
func (c HSB) String() string {
	return FormatNumber(c.Hue) + "," + FormatNumber(c.Saturation) + "," + FormatNumber(c.Brightness)
}

// FormatNumber renders f without a trailing ".0" for whole numbers.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
