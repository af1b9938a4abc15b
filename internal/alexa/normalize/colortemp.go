package normalize

import "math"

// Colour temperature bounds in Kelvin.
const (
	// KelvinMin and KelvinMax bound every Kelvin value returned to Alexa.
	KelvinMin = 1000
	KelvinMax = 10000

	// kelvinWarm and kelvinCold are the endpoints of a percentage
	// white-spectrum dimmer: 0% is cold, 100% is warm.
	kelvinWarm = 2200
	kelvinCold = 7000

	// percentCeiling separates percentages from Kelvin readings.
	percentCeiling = 100
)

// ColorTemperature converts between Kelvin and the item's own encoding.
//
// For Dimmer items the direction is detected from the magnitude of value:
// anything above 100 is Kelvin and is converted to a percentage, anything
// else is a percentage and is converted to Kelvin. Number items hold Kelvin
// directly. Kelvin results are clamped to [KelvinMin, KelvinMax].
//
// Parameters:
//   - value: Kelvin or percentage
//   - itemType: openHAB item type of the colour temperature item
//
// Returns:
//   - float64: Converted value, rounded to a whole number
func ColorTemperature(value float64, itemType string) float64 {
	if baseType(itemType) != "Dimmer" {
		return clampKelvin(math.Round(value))
	}

	span := float64(kelvinCold - kelvinWarm)
	if value > percentCeiling {
		pct := (kelvinCold - clamp(value, kelvinWarm, kelvinCold)) / span * percentCeiling
		return math.Round(pct)
	}

	k := kelvinCold - clamp(value, 0, percentCeiling)/percentCeiling*span
	return clampKelvin(math.Round(k))
}

func clampKelvin(k float64) float64 {
	return clamp(k, KelvinMin, KelvinMax)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
