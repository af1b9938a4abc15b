package alexa

import (
	"encoding/json"
	"testing"
	"time"
)

const controlDirective = `{
  "directive": {
    "header": {
      "namespace": "Alexa.BrightnessController",
      "name": "SetBrightness",
      "payloadVersion": "3",
      "messageId": "m-1",
      "correlationToken": "corr-1"
    },
    "endpoint": {
      "scope": {"type": "BearerToken", "token": "tok-endpoint"},
      "endpointId": "light1",
      "cookie": {"propertyMap": "{}"}
    },
    "payload": {"brightness": 42}
  }
}`

func TestDirectiveDecode(t *testing.T) {
	var req Request
	if err := json.Unmarshal([]byte(controlDirective), &req); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	d := req.Directive

	if d.Token() != "tok-endpoint" {
		t.Errorf("Token() = %q, want tok-endpoint", d.Token())
	}
	if d.EndpointID() != "light1" {
		t.Errorf("EndpointID() = %q, want light1", d.EndpointID())
	}
	if d.Cookie(CookiePropertyMap) != "{}" {
		t.Errorf("Cookie() = %q", d.Cookie(CookiePropertyMap))
	}
	if d.Header.QualifiedName() != "Alexa.BrightnessController.SetBrightness" {
		t.Errorf("QualifiedName() = %q", d.Header.QualifiedName())
	}

	var p struct {
		Brightness int `json:"brightness"`
	}
	if err := d.DecodePayload(&p); err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if p.Brightness != 42 {
		t.Errorf("brightness = %d, want 42", p.Brightness)
	}
}

func TestDirectiveTokenFromPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"discovery scope", `{"scope":{"type":"BearerToken","token":"tok-disc"}}`, "tok-disc"},
		{"accept grant grantee", `{"grant":{"type":"OAuth2.AuthorizationCode","code":"c"},"grantee":{"type":"BearerToken","token":"tok-grant"}}`, "tok-grant"},
		{"no token", `{}`, ""},
		{"invalid json", `{`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Directive{Payload: json.RawMessage(tt.payload)}
			if got := d.Token(); got != tt.want {
				t.Errorf("Token() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewResponseEchoesCorrelation(t *testing.T) {
	var req Request
	if err := json.Unmarshal([]byte(controlDirective), &req); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	resp := NewResponse(req.Directive, nil)
	if resp.Event.Header.Name != NameResponse || resp.Event.Header.Namespace != NamespaceAlexa {
		t.Errorf("header = %+v", resp.Event.Header)
	}
	if resp.Event.Header.CorrelationToken != "corr-1" {
		t.Errorf("correlation token = %q", resp.Event.Header.CorrelationToken)
	}
	if resp.Event.Header.MessageID == "" || resp.Event.Header.MessageID == "m-1" {
		t.Errorf("message id = %q, want a fresh id", resp.Event.Header.MessageID)
	}
	if resp.Event.Endpoint == nil || resp.Event.Endpoint.EndpointID != "light1" {
		t.Fatalf("endpoint = %+v", resp.Event.Endpoint)
	}
	if resp.Event.Endpoint.Cookie != nil {
		t.Error("response endpoint should not echo the cookie")
	}
	if resp.Context == nil || resp.Context.Properties == nil {
		t.Error("context properties should be an empty list, not null")
	}
}

func TestNewErrorResponse(t *testing.T) {
	d := Directive{Header: Header{Namespace: "Alexa.ThermostatController", Name: "SetTargetTemperature"}}

	resp := NewErrorResponse(d, ErrTemperatureOutOfRange(60, 80, "FAHRENHEIT"))
	if resp.Event.Header.Name != NameErrorResponse || resp.Event.Header.Namespace != NamespaceAlexa {
		t.Errorf("header = %+v", resp.Event.Header)
	}
	payload, ok := resp.Event.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload type = %T", resp.Event.Payload)
	}
	if payload["type"] != ErrTypeTemperatureValueOutOfRange {
		t.Errorf("type = %v", payload["type"])
	}
	if _, ok := payload["validRange"]; !ok {
		t.Error("validRange missing from payload")
	}

	resp = NewErrorResponse(d, ErrThermostat(ErrTypeThermostatIsOff, "off"))
	if resp.Event.Header.Namespace != "Alexa.ThermostatController" {
		t.Errorf("namespace = %q", resp.Event.Header.Namespace)
	}
}

func TestAsError(t *testing.T) {
	var err error = ErrInvalidValue("")
	ae, ok := AsError(err)
	if !ok || ae.Type != ErrTypeInvalidValue {
		t.Fatalf("AsError() = %v, %v", ae, ok)
	}
	if ae.Message == "" {
		t.Error("default message not applied")
	}
	if _, ok := AsError(nil); ok {
		t.Error("AsError(nil) should be false")
	}
}

func TestNewSceneEvent(t *testing.T) {
	d := Directive{
		Header:   Header{Namespace: NamespaceScene, Name: "Activate", CorrelationToken: "c"},
		Endpoint: &EndpointRef{EndpointID: "movie"},
	}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	resp := NewSceneEvent(d, NameActivationStarted, at)
	if resp.Event.Header.Namespace != NamespaceScene || resp.Event.Header.Name != NameActivationStarted {
		t.Errorf("header = %+v", resp.Event.Header)
	}
	payload := resp.Event.Payload.(map[string]any)
	if payload["timestamp"] != "2026-01-02T03:04:05.00Z" {
		t.Errorf("timestamp = %v", payload["timestamp"])
	}
}

func TestTextNames(t *testing.T) {
	res := TextNames("en-US", "Oscillate", "@Setting.FanSpeed")
	if len(res.FriendlyNames) != 2 {
		t.Fatalf("got %d names", len(res.FriendlyNames))
	}
	if res.FriendlyNames[0].Type != "text" || res.FriendlyNames[0].Value.Text != "Oscillate" {
		t.Errorf("text name = %+v", res.FriendlyNames[0])
	}
	if res.FriendlyNames[1].Type != "asset" || res.FriendlyNames[1].Value.AssetID != "Alexa.Setting.FanSpeed" {
		t.Errorf("asset name = %+v", res.FriendlyNames[1])
	}
	if TextNames("en-US") != nil {
		t.Error("no names should give nil resources")
	}
}
