// Package normalize converts between Alexa value encodings and openHAB item
// states: temperature scales, thermostat modes, lock states, colour
// temperature and display patterns.
//
// Every function is pure. Inputs that cannot be mapped are reported through
// an explicit resolved flag rather than an error so callers can decide per
// property whether to suppress the value or fail the directive.
package normalize

import (
	"math"
	"strings"
)

// Scale is a temperature scale in Alexa vocabulary.
type Scale string

// Supported temperature scales.
const (
	Celsius    Scale = "CELSIUS"
	Fahrenheit Scale = "FAHRENHEIT"
	Kelvin     Scale = "KELVIN"
)

const (
	// fahrenheitOffset is the additive term between Celsius and Fahrenheit.
	fahrenheitOffset = 32.0

	// fahrenheitRatio is the multiplicative term from Celsius to Fahrenheit.
	fahrenheitRatio = 9.0 / 5.0

	// kelvinOffset is the additive term between Celsius and Kelvin.
	kelvinOffset = 273.15
)

// ParseScale accepts Alexa scale names and the openHAB/metadata spellings
// ("Celsius", "°F", "C"). Unknown input returns ("", false).
func ParseScale(s string) (Scale, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CELSIUS", "C", "°C":
		return Celsius, true
	case "FAHRENHEIT", "F", "°F":
		return Fahrenheit, true
	case "KELVIN", "K":
		return Kelvin, true
	}
	return "", false
}

// ScaleFromUnit infers a scale from a unit string embedded in a state or
// pattern such as "21.5 °C" or "%.1f °F".
func ScaleFromUnit(s string) (Scale, bool) {
	switch {
	case strings.Contains(s, "°F"):
		return Fahrenheit, true
	case strings.Contains(s, "°C"):
		return Celsius, true
	}
	return "", false
}

// TemperatureScale converts value between scales.
//
// When isDelta is true the value is a temperature difference and the additive
// offsets are skipped. Equal scales (or an empty scale on either side) return
// value unchanged.
//
// Parameters:
//   - value: Temperature or temperature difference
//   - from: Scale of value
//   - to: Desired scale
//   - isDelta: Whether value is a difference rather than an absolute reading
//
// Returns:
//   - float64: Converted value
func TemperatureScale(value float64, from, to Scale, isDelta bool) float64 {
	if from == to || from == "" || to == "" {
		return value
	}

	c := toCelsius(value, from, isDelta)
	switch to {
	case Fahrenheit:
		if isDelta {
			return c * fahrenheitRatio
		}
		return c*fahrenheitRatio + fahrenheitOffset
	case Kelvin:
		if isDelta {
			return c
		}
		return c + kelvinOffset
	default:
		return c
	}
}

func toCelsius(value float64, from Scale, isDelta bool) float64 {
	switch from {
	case Fahrenheit:
		if isDelta {
			return value / fahrenheitRatio
		}
		return (value - fahrenheitOffset) / fahrenheitRatio
	case Kelvin:
		if isDelta {
			return value
		}
		return value - kelvinOffset
	default:
		return value
	}
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
