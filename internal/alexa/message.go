// Package alexa defines the Alexa Smart Home message envelope: inbound
// directives, outbound responses, discovery descriptors and typed errors.
//
// The types mirror the Smart Home Skill API v3 JSON shapes closely enough to
// be marshalled directly onto the wire. Nothing in this package talks to the
// network.
package alexa

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PayloadVersion is the only Smart Home API version handled.
const PayloadVersion = "3"

// Common namespaces.
const (
	NamespaceAlexa         = "Alexa"
	NamespaceDiscovery     = "Alexa.Discovery"
	NamespaceAuthorization = "Alexa.Authorization"
	NamespaceHealth        = "Alexa.EndpointHealth"
	NamespaceScene         = "Alexa.SceneController"
)

// CookiePropertyMap is the endpoint cookie key that carries the serialised
// property map between discovery and control directives.
const CookiePropertyMap = "propertyMap"

// Request is the top-level inbound document.
type Request struct {
	Directive Directive `json:"directive"`
}

// Directive is one inbound Alexa request.
type Directive struct {
	Header   Header          `json:"header"`
	Endpoint *EndpointRef    `json:"endpoint,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Header carries routing and correlation metadata for directives and events.
type Header struct {
	Namespace        string `json:"namespace"`
	Name             string `json:"name"`
	Instance         string `json:"instance,omitempty"`
	PayloadVersion   string `json:"payloadVersion"`
	MessageID        string `json:"messageId"`
	CorrelationToken string `json:"correlationToken,omitempty"`
}

// Scope holds the bearer token Alexa forwards from account linking.
type Scope struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// EndpointRef identifies the target endpoint of a directive or event.
type EndpointRef struct {
	Scope      *Scope            `json:"scope,omitempty"`
	EndpointID string            `json:"endpointId"`
	Cookie     map[string]string `json:"cookie,omitempty"`
}

// Token returns the bearer token of the directive. The endpoint scope wins;
// discovery and authorization directives carry it in the payload instead.
func (d Directive) Token() string {
	if d.Endpoint != nil && d.Endpoint.Scope != nil && d.Endpoint.Scope.Token != "" {
		return d.Endpoint.Scope.Token
	}

	var p struct {
		Scope   *Scope `json:"scope"`
		Grantee *Scope `json:"grantee"`
	}
	if len(d.Payload) == 0 || json.Unmarshal(d.Payload, &p) != nil {
		return ""
	}
	switch {
	case p.Scope != nil:
		return p.Scope.Token
	case p.Grantee != nil:
		return p.Grantee.Token
	}
	return ""
}

// EndpointID returns the target endpoint id or "" when the directive has no
// endpoint.
func (d Directive) EndpointID() string {
	if d.Endpoint == nil {
		return ""
	}
	return d.Endpoint.EndpointID
}

// Cookie returns the value of an endpoint cookie key.
func (d Directive) Cookie(key string) string {
	if d.Endpoint == nil {
		return ""
	}
	return d.Endpoint.Cookie[key]
}

// DecodePayload unmarshals the directive payload into v.
func (d Directive) DecodePayload(v any) error {
	if len(d.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(d.Payload, v)
}

// Response is the top-level outbound document.
type Response struct {
	Context *Context `json:"context,omitempty"`
	Event   Event    `json:"event"`
}

// Context holds reported property values.
type Context struct {
	Properties []Property `json:"properties"`
}

// Event is the outbound event body.
type Event struct {
	Header   Header       `json:"header"`
	Endpoint *EndpointRef `json:"endpoint,omitempty"`
	Payload  any          `json:"payload"`
}

// Property is one reported state value.
type Property struct {
	Namespace                 string `json:"namespace"`
	Instance                  string `json:"instance,omitempty"`
	Name                      string `json:"name"`
	Value                     any    `json:"value"`
	TimeOfSample              string `json:"timeOfSample"`
	UncertaintyInMilliseconds int    `json:"uncertaintyInMilliseconds"`
}

// Temperature is the Alexa temperature value object.
type Temperature struct {
	Value float64 `json:"value"`
	Scale string  `json:"scale"`
}

// Color is the Alexa HSB colour value object. Hue is in degrees, saturation
// and brightness in [0,1].
type Color struct {
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Brightness float64 `json:"brightness"`
}

// ChannelValue is the Alexa channel value object.
type ChannelValue struct {
	Number            string `json:"number,omitempty"`
	CallSign          string `json:"callSign,omitempty"`
	AffiliateCallSign string `json:"affiliateCallSign,omitempty"`
}

// Connectivity is the EndpointHealth connectivity value object.
type Connectivity struct {
	Value string `json:"value"`
}

// NewMessageID returns a fresh message id.
func NewMessageID() string {
	return uuid.NewString()
}

// Timestamp formats t the way Alexa expects timeOfSample values.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.00Z")
}

// QualifiedName returns "Namespace.Name" for the header, used in logs and
// metrics labels.
func (h Header) QualifiedName() string {
	var b strings.Builder
	b.WriteString(h.Namespace)
	b.WriteByte('.')
	b.WriteString(h.Name)
	return b.String()
}
