package alexa

import "time"

// Event names.
const (
	NameResponse            = "Response"
	NameStateReport         = "StateReport"
	NameErrorResponse       = "ErrorResponse"
	NameDiscoverResponse    = "Discover.Response"
	NameAcceptGrantResponse = "AcceptGrant.Response"
	NameActivationStarted   = "ActivationStarted"
	NameDeactivationStarted = "DeactivationStarted"
)

// header builds an event header that echoes the directive correlation token.
func (d Directive) header(namespace, name string) Header {
	return Header{
		Namespace:        namespace,
		Name:             name,
		PayloadVersion:   PayloadVersion,
		MessageID:        NewMessageID(),
		CorrelationToken: d.Header.CorrelationToken,
	}
}

// endpointRef echoes the directive endpoint without its cookie.
func (d Directive) endpointRef() *EndpointRef {
	if d.Endpoint == nil {
		return nil
	}
	return &EndpointRef{Scope: d.Endpoint.Scope, EndpointID: d.Endpoint.EndpointID}
}

// NewResponse returns an Alexa.Response confirming a control directive with
// the given context properties.
func NewResponse(d Directive, props []Property) *Response {
	return &Response{
		Context: &Context{Properties: nonNil(props)},
		Event: Event{
			Header:   d.header(NamespaceAlexa, NameResponse),
			Endpoint: d.endpointRef(),
			Payload:  struct{}{},
		},
	}
}

// NewStateReport returns the answer to Alexa.ReportState.
func NewStateReport(d Directive, props []Property) *Response {
	return &Response{
		Context: &Context{Properties: nonNil(props)},
		Event: Event{
			Header:   d.header(NamespaceAlexa, NameStateReport),
			Endpoint: d.endpointRef(),
			Payload:  struct{}{},
		},
	}
}

// NewErrorResponse renders e as an ErrorResponse event.
func NewErrorResponse(d Directive, e *Error) *Response {
	ns := e.Namespace
	if ns == "" {
		ns = NamespaceAlexa
	}
	payload := make(map[string]any, len(e.Payload)+2)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload["type"] = e.Type
	payload["message"] = e.Message

	return &Response{
		Event: Event{
			Header:   d.header(ns, NameErrorResponse),
			Endpoint: d.endpointRef(),
			Payload:  payload,
		},
	}
}

// NewDiscoverResponse wraps the discovered endpoints.
func NewDiscoverResponse(d Directive, endpoints []DiscoveryEndpoint) *Response {
	if endpoints == nil {
		endpoints = []DiscoveryEndpoint{}
	}
	return &Response{
		Event: Event{
			Header:  d.header(NamespaceDiscovery, NameDiscoverResponse),
			Payload: DiscoveryPayload{Endpoints: endpoints},
		},
	}
}

// NewAcceptGrantResponse acknowledges an Alexa.Authorization AcceptGrant.
func NewAcceptGrantResponse(d Directive) *Response {
	return &Response{
		Event: Event{
			Header:  d.header(NamespaceAuthorization, NameAcceptGrantResponse),
			Payload: struct{}{},
		},
	}
}

// NewSceneEvent returns an ActivationStarted or DeactivationStarted event.
// Scenes report the activation asynchronously instead of a state-backed
// confirmation.
func NewSceneEvent(d Directive, name string, at time.Time) *Response {
	return &Response{
		Context: &Context{Properties: []Property{}},
		Event: Event{
			Header:   d.header(NamespaceScene, name),
			Endpoint: d.endpointRef(),
			Payload: map[string]any{
				"cause":     map[string]string{"type": "VOICE_INTERACTION"},
				"timestamp": Timestamp(at),
			},
		},
	}
}

func nonNil(props []Property) []Property {
	if props == nil {
		return []Property{}
	}
	return props
}
