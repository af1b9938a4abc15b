// Package directive dispatches Alexa control, state and discovery
// directives to per-capability handlers.
//
// Each directive is handled independently: the endpoint's property map is
// rebuilt from the directive cookie and passed explicitly, so concurrent
// directives never share mutable state.
package directive

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/propertymap"
	"github.com/nerrad567/gray-logic-alexa/internal/openhab"
	"github.com/nerrad567/gray-logic-alexa/internal/settings"
)

// tracerName identifies spans created by the dispatcher.
const tracerName = "github.com/nerrad567/gray-logic-alexa/internal/alexa/directive"

// Outcome values reported to the Observer.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeIgnored = "ignored"
)

// ItemClient reads and commands openHAB items.
type ItemClient interface {
	GetItem(ctx context.Context, token, name string) (openhab.Item, error)
	PostItemCommand(ctx context.Context, token, name, command string) error
}

// Discoverer renders the endpoints of an account.
type Discoverer interface {
	Discover(ctx context.Context, token string) ([]alexa.DiscoveryEndpoint, error)
}

// GrantStore persists the authorization grant of a linked account.
type GrantStore interface {
	SaveUserSettings(ctx context.Context, userID string, s settings.UserSettings) error
}

// Record describes a handled directive.
type Record struct {
	Namespace  string
	Name       string
	EndpointID string
	Outcome    string
	ErrorType  string
	Duration   time.Duration
	At         time.Time
}

// Observer receives a Record for every directive. Observe must not block.
type Observer interface {
	Observe(r Record)
}

// Logger defines the logging interface used by the Dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Deps holds the dispatcher collaborators. Items is required; the rest may
// be nil.
type Deps struct {
	Items      ItemClient
	Discoverer Discoverer
	Grants     GrantStore
	Observer   Observer
	Logger     Logger

	// Now overrides the clock for timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Dispatcher routes directives to handlers.
type Dispatcher struct {
	items      ItemClient
	discoverer Discoverer
	grants     GrantStore
	observer   Observer
	logger     Logger
	tracer     trace.Tracer
	now        func() time.Time
	routes     map[route]handlerFunc
}

type route struct {
	namespace string
	name      string
}

type handlerFunc func(ctx context.Context, r *Request) (*alexa.Response, error)

// New creates a dispatcher.
func New(deps Deps) *Dispatcher {
	d := &Dispatcher{
		items:      deps.Items,
		discoverer: deps.Discoverer,
		grants:     deps.Grants,
		observer:   deps.Observer,
		logger:     deps.Logger,
		tracer:     otel.Tracer(tracerName),
		now:        deps.Now,
	}
	if d.logger == nil {
		d.logger = noopLogger{}
	}
	if d.now == nil {
		d.now = time.Now
	}
	d.routes = d.buildRoutes()
	return d
}

// Supports reports whether a handler exists for namespace and name.
func (d *Dispatcher) Supports(namespace, name string) bool {
	_, ok := d.routes[route{namespace, name}]
	return ok
}

// Handle processes one directive.
//
// Unknown namespace/name pairs return nil: no response is sent for them.
// Every other directive yields either a success response or an
// ErrorResponse; errors never escape as Go errors.
//
// Parameters:
//   - ctx: Context for openHAB calls
//   - req: Decoded directive
//
// Returns:
//   - *alexa.Response: Response to send, or nil when the directive is ignored
func (d *Dispatcher) Handle(ctx context.Context, req alexa.Request) *alexa.Response {
	dir := req.Directive
	h := dir.Header
	started := d.now()

	ctx, span := d.tracer.Start(ctx, "alexa."+h.QualifiedName(),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("alexa.namespace", h.Namespace),
			attribute.String("alexa.name", h.Name),
			attribute.String("alexa.endpoint_id", dir.EndpointID()),
		))
	defer span.End()

	handler, ok := d.routes[route{h.Namespace, h.Name}]
	if !ok {
		d.logger.Debug("ignoring unsupported directive", "namespace", h.Namespace, "name", h.Name)
		d.observe(dir, OutcomeIgnored, "", started)
		return nil
	}

	d.logger.Debug("directive received", "namespace", h.Namespace, "name", h.Name, "endpoint_id", dir.EndpointID())

	r, err := d.newRequest(dir, started)
	var resp *alexa.Response
	if err == nil {
		resp, err = handler(ctx, r)
	}

	if err != nil {
		ae := toAlexaError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, ae.Type)
		d.logger.Warn("directive failed",
			"namespace", h.Namespace, "name", h.Name, "endpoint_id", dir.EndpointID(),
			"error_type", ae.Type, "error", err, "duration_ms", d.now().Sub(started).Milliseconds())
		d.observe(dir, OutcomeError, ae.Type, started)
		return alexa.NewErrorResponse(dir, ae)
	}

	d.logger.Info("directive handled",
		"namespace", h.Namespace, "name", h.Name, "endpoint_id", dir.EndpointID(),
		"duration_ms", d.now().Sub(started).Milliseconds())
	d.observe(dir, OutcomeSuccess, "", started)
	return resp
}

func (d *Dispatcher) observe(dir alexa.Directive, outcome, errType string, started time.Time) {
	if d.observer == nil {
		return
	}
	d.observer.Observe(Record{
		Namespace:  dir.Header.Namespace,
		Name:       dir.Header.Name,
		EndpointID: dir.EndpointID(),
		Outcome:    outcome,
		ErrorType:  errType,
		Duration:   d.now().Sub(started),
		At:         started,
	})
}

func (d *Dispatcher) newRequest(dir alexa.Directive, started time.Time) (*Request, error) {
	r := &Request{
		Directive:   dir,
		Token:       dir.Token(),
		PropertyMap: propertymap.New(),
		Started:     started,
	}
	if cookie := dir.Cookie(alexa.CookiePropertyMap); cookie != "" {
		pm, err := propertymap.Load(cookie)
		if err != nil {
			return nil, alexa.ErrInvalidDirective("endpoint cookie is not a valid property map")
		}
		r.PropertyMap = pm
	}
	return r, nil
}

// toAlexaError converts any handler error into an Alexa error. Transport
// failures never reach Alexa verbatim.
func toAlexaError(err error) *alexa.Error {
	if ae, ok := alexa.AsError(err); ok {
		return ae
	}
	switch {
	case errors.Is(err, openhab.ErrMissingToken), openhab.IsUnauthorized(err):
		return alexa.ErrInvalidCredential("openHAB rejected the access token")
	case openhab.IsNotFound(err):
		return alexa.ErrNoSuchEndpoint("openHAB item not found")
	default:
		return alexa.ErrEndpointUnreachable("")
	}
}

func (d *Dispatcher) buildRoutes() map[route]handlerFunc {
	routes := map[route]handlerFunc{
		{alexa.NamespaceAlexa, "ReportState"}:                            d.reportState,
		{alexa.NamespaceDiscovery, "Discover"}:                           d.discover,
		{alexa.NamespaceAuthorization, "AcceptGrant"}:                    d.acceptGrant,
		{"Alexa.PowerController", "TurnOn"}:                              d.setPowerState,
		{"Alexa.PowerController", "TurnOff"}:                             d.setPowerState,
		{"Alexa.ColorController", "SetColor"}:                            d.setColor,
		{"Alexa.ColorTemperatureController", "SetColorTemperature"}:      d.setColorTemperature,
		{"Alexa.ColorTemperatureController", "IncreaseColorTemperature"}: d.adjustColorTemperature,
		{"Alexa.ColorTemperatureController", "DecreaseColorTemperature"}: d.adjustColorTemperature,
		{"Alexa.ThermostatController", "SetTargetTemperature"}:           d.setTargetTemperature,
		{"Alexa.ThermostatController", "AdjustTargetTemperature"}:        d.adjustTargetTemperature,
		{"Alexa.ThermostatController", "SetThermostatMode"}:              d.setThermostatMode,
		{"Alexa.ThermostatController", "ResumeSchedule"}:                 d.resumeSchedule,
		{"Alexa.LockController", "Lock"}:                                 d.setLockState,
		{"Alexa.LockController", "Unlock"}:                               d.setLockState,
		{"Alexa.ChannelController", "ChangeChannel"}:                     d.changeChannel,
		{"Alexa.ChannelController", "SkipChannels"}:                      d.skipChannels,
		{"Alexa.InputController", "SelectInput"}:                         d.selectInput,
		{alexa.NamespaceScene, "Activate"}:                               d.activateScene,
		{alexa.NamespaceScene, "Deactivate"}:                             d.activateScene,
		{"Alexa.Speaker", "SetVolume"}:                                   d.setVolume,
		{"Alexa.Speaker", "AdjustVolume"}:                                d.adjustVolume,
		{"Alexa.Speaker", "SetMute"}:                                     d.setMute,
		{"Alexa.StepSpeaker", "AdjustVolume"}:                            d.stepVolume,
		{"Alexa.StepSpeaker", "SetMute"}:                                 d.setMute,
		{"Alexa.ToggleController", "TurnOn"}:                             d.setToggleState,
		{"Alexa.ToggleController", "TurnOff"}:                            d.setToggleState,
	}

	for _, spec := range percentSpecs {
		routes[route{spec.namespace, spec.setName}] = d.setPercent
		routes[route{spec.namespace, spec.adjustName}] = d.adjustPercent
	}
	for name := range playbackCommands {
		routes[route{"Alexa.PlaybackController", name}] = d.playback
	}
	return routes
}
