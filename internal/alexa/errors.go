package alexa

import (
	"errors"
	"fmt"
)

// Error types returned in ErrorResponse payloads.
const (
	ErrTypeInvalidValue               = "INVALID_VALUE"
	ErrTypeInvalidDirective           = "INVALID_DIRECTIVE"
	ErrTypeEndpointUnreachable        = "ENDPOINT_UNREACHABLE"
	ErrTypeNoSuchEndpoint             = "NO_SUCH_ENDPOINT"
	ErrTypeInvalidCredential          = "INVALID_AUTHORIZATION_CREDENTIAL"
	ErrTypeInternalError              = "INTERNAL_ERROR"
	ErrTypeNotSupportedInCurrentMode  = "NOT_SUPPORTED_IN_CURRENT_MODE"
	ErrTypeValueOutOfRange            = "VALUE_OUT_OF_RANGE"
	ErrTypeTemperatureValueOutOfRange = "TEMPERATURE_VALUE_OUT_OF_RANGE"
	ErrTypeThermostatIsOff            = "THERMOSTAT_IS_OFF"
	ErrTypeDualSetpointsUnsupported   = "DUAL_SETPOINTS_UNSUPPORTED"
	ErrTypeTripleSetpointsUnsupported = "TRIPLE_SETPOINTS_UNSUPPORTED"
	ErrTypeUnsupportedThermostatMode  = "UNSUPPORTED_THERMOSTAT_MODE"
	ErrTypeRequestedSetpointsTooClose = "REQUESTED_SETPOINTS_TOO_CLOSE"
	ErrTypeAcceptGrantFailed          = "ACCEPT_GRANT_FAILED"
)

const (
	namespaceThermostat                 = "Alexa.ThermostatController"
	defaultUnreachableMessage           = "Unable to reach device"
	defaultInvalidValueMessage          = "Invalid value"
	defaultTemperatureOutOfRangeMessage = "Requested temperature is out of range"
)

// Error is an Alexa-visible failure. Handlers return it unchanged; any other
// error is converted at the dispatcher boundary.
type Error struct {
	// Namespace overrides the ErrorResponse header namespace. Empty means
	// the generic "Alexa" namespace.
	Namespace string
	Type      string
	Message   string
	// Payload holds extra payload fields such as validRange.
	Payload map[string]any
}

// Error implements error.
func (e *Error) Error() string {
	if e.Message == "" {
		return "alexa: " + e.Type
	}
	return fmt.Sprintf("alexa: %s: %s", e.Type, e.Message)
}

// AsError reports whether err is or wraps an *Error.
func AsError(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// ErrInvalidValue returns an INVALID_VALUE error.
func ErrInvalidValue(msg string) *Error {
	if msg == "" {
		msg = defaultInvalidValueMessage
	}
	return &Error{Type: ErrTypeInvalidValue, Message: msg}
}

// ErrInvalidDirective returns an INVALID_DIRECTIVE error.
func ErrInvalidDirective(msg string) *Error {
	return &Error{Type: ErrTypeInvalidDirective, Message: msg}
}

// ErrEndpointUnreachable returns an ENDPOINT_UNREACHABLE error.
func ErrEndpointUnreachable(msg string) *Error {
	if msg == "" {
		msg = defaultUnreachableMessage
	}
	return &Error{Type: ErrTypeEndpointUnreachable, Message: msg}
}

// ErrNoSuchEndpoint returns a NO_SUCH_ENDPOINT error.
func ErrNoSuchEndpoint(msg string) *Error {
	return &Error{Type: ErrTypeNoSuchEndpoint, Message: msg}
}

// ErrInvalidCredential returns an INVALID_AUTHORIZATION_CREDENTIAL error.
func ErrInvalidCredential(msg string) *Error {
	return &Error{Type: ErrTypeInvalidCredential, Message: msg}
}

// ErrInternal returns an INTERNAL_ERROR error.
func ErrInternal(msg string) *Error {
	return &Error{Type: ErrTypeInternalError, Message: msg}
}

// ErrNotSupportedInCurrentMode reports that the device is in mode and cannot
// honour the directive.
func ErrNotSupportedInCurrentMode(mode, msg string) *Error {
	return &Error{
		Type:    ErrTypeNotSupportedInCurrentMode,
		Message: msg,
		Payload: map[string]any{"currentDeviceMode": mode},
	}
}

// ErrTemperatureOutOfRange returns TEMPERATURE_VALUE_OUT_OF_RANGE carrying
// the valid range in the given scale.
func ErrTemperatureOutOfRange(minimum, maximum float64, scale string) *Error {
	return &Error{
		Type:    ErrTypeTemperatureValueOutOfRange,
		Message: defaultTemperatureOutOfRangeMessage,
		Payload: map[string]any{
			"validRange": map[string]any{
				"minimumValue": Temperature{Value: minimum, Scale: scale},
				"maximumValue": Temperature{Value: maximum, Scale: scale},
			},
		},
	}
}

// ErrThermostat returns a ThermostatController-namespaced error.
func ErrThermostat(errType, msg string) *Error {
	return &Error{Namespace: namespaceThermostat, Type: errType, Message: msg}
}

// ErrSetpointsTooClose returns REQUESTED_SETPOINTS_TOO_CLOSE carrying the
// minimum delta.
func ErrSetpointsTooClose(delta float64, scale string) *Error {
	return &Error{
		Namespace: namespaceThermostat,
		Type:      ErrTypeRequestedSetpointsTooClose,
		Message:   "The requested temperature results in setpoints too close",
		Payload: map[string]any{
			"minimumTemperatureDelta": Temperature{Value: delta, Scale: scale},
		},
	}
}

// ErrAcceptGrantFailed returns ACCEPT_GRANT_FAILED.
func ErrAcceptGrantFailed(msg string) *Error {
	return &Error{Namespace: NamespaceAuthorization, Type: ErrTypeAcceptGrantFailed, Message: msg}
}
