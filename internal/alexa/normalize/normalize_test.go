package normalize

import (
	"errors"
	"math"
	"testing"
)

// ─── Temperature ───────────────────────────────────────────────────

func TestTemperatureScale(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		from    Scale
		to      Scale
		isDelta bool
		want    float64
	}{
		{"C to F", 20, Celsius, Fahrenheit, false, 68},
		{"F to C", 212, Fahrenheit, Celsius, false, 100},
		{"C to F delta", 5, Celsius, Fahrenheit, true, 9},
		{"F to C delta", 9, Fahrenheit, Celsius, true, 5},
		{"C to K", 0, Celsius, Kelvin, false, 273.15},
		{"K to F", 273.15, Kelvin, Fahrenheit, false, 32},
		{"same scale", 21.5, Celsius, Celsius, false, 21.5},
		{"empty scale", 21.5, "", Fahrenheit, false, 21.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TemperatureScale(tt.value, tt.from, tt.to, tt.isDelta)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TemperatureScale(%v, %s, %s, %v) = %v, want %v", tt.value, tt.from, tt.to, tt.isDelta, got, tt.want)
			}
		})
	}
}

func TestTemperatureScaleIdentity(t *testing.T) {
	for _, s := range []Scale{Celsius, Fahrenheit, Kelvin} {
		for _, v := range []float64{-40, 0, 19.5, 100, 451} {
			for _, delta := range []bool{false, true} {
				if got := TemperatureScale(v, s, s, delta); got != v {
					t.Errorf("TemperatureScale(%v, %s, %s, %v) = %v, want identity", v, s, s, delta, got)
				}
			}
		}
	}
}

func TestTemperatureScaleRoundTrip(t *testing.T) {
	for v := -50.0; v <= 120; v += 0.7 {
		f := TemperatureScale(v, Celsius, Fahrenheit, false)
		back := TemperatureScale(f, Fahrenheit, Celsius, false)
		if math.Abs(back-v) > 1e-9 {
			t.Fatalf("round trip of %v = %v", v, back)
		}
	}
}

func TestParseScale(t *testing.T) {
	tests := []struct {
		in   string
		want Scale
		ok   bool
	}{
		{"Celsius", Celsius, true},
		{"fahrenheit", Fahrenheit, true},
		{"°F", Fahrenheit, true},
		{"K", Kelvin, true},
		{"rankine", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseScale(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseScale(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}

	if s, ok := ScaleFromUnit("%.1f °F"); !ok || s != Fahrenheit {
		t.Errorf("ScaleFromUnit(°F) = %q, %v", s, ok)
	}
	if _, ok := ScaleFromUnit("%.1f"); ok {
		t.Error("ScaleFromUnit without unit should not resolve")
	}
}

// ─── Thermostat modes ──────────────────────────────────────────────

func TestModeTableRoundTrip(t *testing.T) {
	bindings := []string{"", "nest", "ecobee1", "zwave", "ZWave:thermostat"}

	for _, b := range bindings {
		table := ResolveModeTable(nil, b)
		for _, m := range table.Modes() {
			raw, ok := table.ToSystem(m)
			if !ok {
				t.Fatalf("binding %q: ToSystem(%s) not resolved", b, m)
			}
			back, ok := table.ToAlexa(raw)
			if !ok || back != m {
				t.Errorf("binding %q: %s -> %q -> %s (resolved %v)", b, m, raw, back, ok)
			}
		}
	}
}

func TestResolveModeTable(t *testing.T) {
	t.Run("explicit mapping wins", func(t *testing.T) {
		table := ResolveModeTable(map[string]string{"HEAT": "comfort", "OFF": "standby", "other": "x"}, "nest")
		if got, _ := table.ToSystem("HEAT"); got != "comfort" {
			t.Errorf("HEAT = %q, want comfort", got)
		}
		if _, ok := table.ToSystem("COOL"); ok {
			t.Error("COOL should not be encodable with an explicit mapping that omits it")
		}
	})

	t.Run("explicit mapping without alexa modes falls back", func(t *testing.T) {
		table := ResolveModeTable(map[string]string{"foo": "bar"}, "nest")
		if got, _ := table.ToSystem("AUTO"); got != "heat-cool" {
			t.Errorf("AUTO = %q, want heat-cool", got)
		}
	})

	t.Run("unknown binding uses default", func(t *testing.T) {
		table := ResolveModeTable(nil, "mystery")
		if got, _ := table.ToSystem("eco"); got != "eco" {
			t.Errorf("eco = %q", got)
		}
	})
}

func TestModeToAlexa(t *testing.T) {
	zwave := ResolveModeTable(nil, "zwave")
	tests := []struct {
		name     string
		table    ModeTable
		raw      string
		want     string
		resolved bool
	}{
		{"numeric", zwave, "1", ModeHeat, true},
		{"numeric decimal", zwave, "2.0", ModeCool, true},
		{"case insensitive", ResolveModeTable(nil, ""), "HEAT", ModeHeat, true},
		{"unmatched passes through", zwave, "42", "42", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.table.ToAlexa(tt.raw)
			if got != tt.want || ok != tt.resolved {
				t.Errorf("ToAlexa(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.resolved)
			}
		})
	}
}

// ─── Lock state ────────────────────────────────────────────────────

func TestLockState(t *testing.T) {
	tests := []struct {
		name     string
		state    string
		itemType string
		mapping  LockMapping
		want     string
		resolved bool
	}{
		{"switch on", "ON", "Switch", nil, LockLocked, true},
		{"switch off", "OFF", "Switch", nil, LockUnlocked, true},
		{"contact closed", "CLOSED", "Contact", nil, LockLocked, true},
		{"contact open", "OPEN", "Contact", nil, LockUnlocked, true},
		{"number jammed", "3", "Number", nil, LockJammed, true},
		{"number unknown", "7", "Number", nil, "", false},
		{"string literal", "unlocked", "String", nil, LockUnlocked, true},
		{"string garbage", "ajar", "String", nil, "", false},
		{"user mapping", "4", "Number", LockMapping{LockLocked: {"4"}, LockUnlocked: {"5", "6"}}, LockLocked, true},
		{"user mapping second raw", "6", "Number", LockMapping{LockLocked: {"4"}, LockUnlocked: {"5", "6"}}, LockUnlocked, true},
		{"user mapping authoritative", "1", "Number", LockMapping{LockLocked: {"4"}}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LockState(tt.state, tt.itemType, tt.mapping)
			if got != tt.want || ok != tt.resolved {
				t.Errorf("LockState(%q, %q) = %q, %v; want %q, %v", tt.state, tt.itemType, got, ok, tt.want, tt.resolved)
			}
		})
	}
}

func TestLockCommand(t *testing.T) {
	if got, ok := LockCommand(LockLocked, "Switch", nil); !ok || got != "ON" {
		t.Errorf("Switch LOCKED = %q, %v", got, ok)
	}
	if got, ok := LockCommand(LockUnlocked, "Number", nil); !ok || got != "2" {
		t.Errorf("Number UNLOCKED = %q, %v", got, ok)
	}
	if got, ok := LockCommand(LockLocked, "Number", LockMapping{LockLocked: {"9", "10"}}); !ok || got != "9" {
		t.Errorf("mapped LOCKED = %q, %v", got, ok)
	}
	if _, ok := LockCommand(LockLocked, "Contact", nil); ok {
		t.Error("Contact items cannot be commanded")
	}
}

// ─── Colour temperature ────────────────────────────────────────────

func TestColorTemperature(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		itemType string
		want     float64
	}{
		{"dimmer percent cold", 0, "Dimmer", 7000},
		{"dimmer percent warm", 100, "Dimmer", 2200},
		{"dimmer percent mid", 50, "Dimmer", 4600},
		{"dimmer kelvin to percent", 4600, "Dimmer", 50},
		{"dimmer kelvin beyond warm", 1500, "Dimmer", 100},
		{"number passthrough", 3000, "Number", 3000},
		{"number clamp high", 20000, "Number", 10000},
		{"number clamp low", 500, "Number:Temperature", 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColorTemperature(tt.value, tt.itemType); got != tt.want {
				t.Errorf("ColorTemperature(%v, %s) = %v, want %v", tt.value, tt.itemType, got, tt.want)
			}
		})
	}
}

// ─── Item state ────────────────────────────────────────────────────

func TestItemState(t *testing.T) {
	tests := []struct {
		name    string
		state   string
		pattern string
		want    string
	}{
		{"no pattern", "21.456", "", "21.456"},
		{"float", "21.456", "%.1f °C", "21.5 °C"},
		{"integer", "42.6", "%d %%", "43 %"},
		{"string", "HEAT", "Mode: %s", "Mode: HEAT"},
		{"unit placeholder", "70.25 °F", "%.0f %unit%", "70 °F"},
		{"non numeric keeps state", "NULL", "%.1f", "NULL"},
		{"literal only", "x", "100%%", "100%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ItemState(tt.state, tt.pattern); got != tt.want {
				t.Errorf("ItemState(%q, %q) = %q, want %q", tt.state, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	if got, err := ParseNumber("21.5 °C"); err != nil || got != 21.5 {
		t.Errorf("ParseNumber() = %v, %v", got, err)
	}
	for _, bad := range []string{"", "NULL", "UNDEF", "NaN"} {
		if _, err := ParseNumber(bad); !errors.Is(err, ErrNotNumeric) {
			t.Errorf("ParseNumber(%q) error = %v, want ErrNotNumeric", bad, err)
		}
	}
}

func TestPowerStateAndPercent(t *testing.T) {
	tests := []struct {
		state    string
		itemType string
		power    string
		pct      float64
	}{
		{"ON", "Switch", "ON", 100},
		{"0", "Dimmer", "OFF", 0},
		{"35", "Dimmer", "ON", 35},
		{"120,50,0", "Color", "OFF", 0},
		{"120,50,80", "Color", "ON", 80},
	}
	for _, tt := range tests {
		power, ok := PowerState(tt.state, tt.itemType)
		if !ok || power != tt.power {
			t.Errorf("PowerState(%q, %s) = %q, %v; want %q", tt.state, tt.itemType, power, ok, tt.power)
		}
		pct, err := Percent(tt.state, tt.itemType)
		if err != nil || pct != tt.pct {
			t.Errorf("Percent(%q, %s) = %v, %v; want %v", tt.state, tt.itemType, pct, err, tt.pct)
		}
	}

	if _, ok := PowerState("bright", "String"); ok {
		t.Error("String state should not resolve to a power state")
	}
}

func TestHSB(t *testing.T) {
	c, err := ParseHSB("350.5, 71, 100")
	if err != nil {
		t.Fatalf("ParseHSB() error = %v", err)
	}
	if c.Hue != 350.5 || c.Saturation != 71 || c.Brightness != 100 {
		t.Errorf("ParseHSB() = %+v", c)
	}
	if c.String() != "350.5,71,100" {
		t.Errorf("String() = %q", c.String())
	}
	if _, err := ParseHSB("1,2"); !errors.Is(err, ErrInvalidColor) {
		t.Errorf("ParseHSB(short) error = %v", err)
	}
}
