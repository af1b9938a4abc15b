package normalize

import (
	"strconv"
	"strings"
)

// Alexa lock states.
const (
	LockLocked   = "LOCKED"
	LockUnlocked = "UNLOCKED"
	LockJammed   = "JAMMED"
)

// LockStates is the closed set of Alexa lock states.
var LockStates = []string{LockLocked, LockUnlocked, LockJammed}

// LockMapping maps an Alexa lock state to the raw item states that mean it.
type LockMapping map[string][]string

// LockState maps a raw item state to an Alexa lock state.
//
// A non-empty user mapping is authoritative: raw states it does not list are
// unresolved even if the type default would match them. Without a mapping
// the item type decides:
//   - Contact: CLOSED is LOCKED, OPEN is UNLOCKED
//   - Switch: ON is LOCKED, OFF is UNLOCKED
//   - Number: 1 LOCKED, 2 UNLOCKED, 3 JAMMED
//   - String: case-insensitive literal match
//
// Returns:
//   - string: Alexa lock state, or "" when unresolved
//   - bool: true when the state resolved
func LockState(state, itemType string, mapping LockMapping) (string, bool) {
	state = strings.TrimSpace(state)

	if len(mapping) > 0 {
		for _, ls := range LockStates {
			for _, raw := range mapping[ls] {
				if strings.EqualFold(raw, state) || numericEqual(raw, state) {
					return ls, true
				}
			}
		}
		return "", false
	}

	switch baseType(itemType) {
	case "Contact":
		switch state {
		case "CLOSED":
			return LockLocked, true
		case "OPEN":
			return LockUnlocked, true
		}
	case "Switch":
		switch state {
		case "ON":
			return LockLocked, true
		case "OFF":
			return LockUnlocked, true
		}
	case "Number":
		n, err := strconv.ParseFloat(state, 64)
		if err != nil {
			return "", false
		}
		switch n {
		case 1:
			return LockLocked, true
		case 2:
			return LockUnlocked, true
		case 3:
			return LockJammed, true
		}
	case "String":
		for _, ls := range LockStates {
			if strings.EqualFold(ls, state) {
				return ls, true
			}
		}
	}
	return "", false
}

// LockCommand returns the raw command that moves an item of itemType to the
// Alexa lock state. A user mapping sends the first raw state listed.
func LockCommand(lockState, itemType string, mapping LockMapping) (string, bool) {
	if len(mapping) > 0 {
		if raws := mapping[lockState]; len(raws) > 0 {
			return raws[0], true
		}
		return "", false
	}

	switch baseType(itemType) {
	case "Switch":
		switch lockState {
		case LockLocked:
			return "ON", true
		case LockUnlocked:
			return "OFF", true
		}
	case "Number":
		switch lockState {
		case LockLocked:
			return "1", true
		case LockUnlocked:
			return "2", true
		}
	case "String":
		if lockState == LockLocked || lockState == LockUnlocked {
			return lockState, true
		}
	}
	return "", false
}

// baseType strips a dimension suffix ("Number:Temperature" -> "Number").
func baseType(itemType string) string {
	if i := strings.IndexByte(itemType, ':'); i >= 0 {
		return itemType[:i]
	}
	return itemType
}
