package openhab

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL + "/", UserAgent: "alexabridge-test"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no scheme", "openhab.local:8080"},
		{"garbage", "://"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(Config{BaseURL: tt.url}); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("NewClient(%q) error = %v, want ErrInvalidConfig", tt.url, err)
			}
		})
	}
}

func TestGetItem(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/rest/items/light1" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "alexabridge-test" {
			t.Errorf("User-Agent = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"name":"light1","type":"Dimmer","state":"42","stateDescription":{"pattern":"%d %%"}}`)
	})

	item, err := c.GetItem(context.Background(), "tok", "light1")
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if item.Name != "light1" || item.Type != "Dimmer" || item.State != "42" {
		t.Errorf("item = %+v", item)
	}
	if item.Pattern() != "%d %%" {
		t.Errorf("Pattern() = %q", item.Pattern())
	}
}

func TestGetItemsRecursively(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/rest/items" || q.Get("metadata") != "alexa" || q.Get("recursive") != "true" {
			t.Errorf("request = %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `[
		  {"name":"thermostat","type":"Group","members":[
		    {"name":"temp","type":"Number:Temperature","state":"21 °C",
		     "metadata":{"alexa":{"value":"TemperatureSensor.temperature","config":{"scale":"Celsius"}}}}
		  ],"metadata":{"alexa":{"value":"Endpoint.THERMOSTAT"}}}
		]`)
	})

	items, err := c.GetItemsRecursively(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetItemsRecursively() error = %v", err)
	}
	if len(items) != 1 || len(items[0].Members) != 1 {
		t.Fatalf("items = %+v", items)
	}
	member := items[0].Members[0]
	md, ok := member.AlexaMetadata()
	if !ok || md.Value != "TemperatureSensor.temperature" || md.Config["scale"] != "Celsius" {
		t.Errorf("member metadata = %+v", md)
	}
	if member.BaseType() != "Number" || member.Dimension() != "Temperature" {
		t.Errorf("type split = %q / %q", member.BaseType(), member.Dimension())
	}
}

func TestPostItemCommand(t *testing.T) {
	var gotBody, gotType string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/items/light1" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusAccepted)
	})

	if err := c.PostItemCommand(context.Background(), "tok", "light1", "42"); err != nil {
		t.Fatalf("PostItemCommand() error = %v", err)
	}
	if gotBody != "42" || gotType != "text/plain" {
		t.Errorf("body = %q, content type = %q", gotBody, gotType)
	}
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"not found", http.StatusNotFound, "", IsNotFound},
		{"unauthorized", http.StatusUnauthorized, "", IsUnauthorized},
		{"forbidden", http.StatusForbidden, "", IsUnauthorized},
		{"bad json", http.StatusOK, "{", func(err error) bool { return errors.Is(err, ErrInvalidResponse) }},
		{"server error", http.StatusInternalServerError, "", func(err error) bool {
			var se *StatusError
			return errors.As(err, &se) && se.StatusCode == 500 && !IsNotFound(err)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.GetItem(context.Background(), "tok", "x")
			if err == nil || !tt.check(err) {
				t.Errorf("GetItem() error = %v", err)
			}
		})
	}
}

func TestMissingToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a token")
	})
	if err := c.PostItemCommand(context.Background(), "", "x", "ON"); !errors.Is(err, ErrMissingToken) {
		t.Errorf("PostItemCommand() error = %v, want ErrMissingToken", err)
	}
}

func TestTransportError(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if _, err := c.GetItem(context.Background(), "tok", "x"); !errors.Is(err, ErrRequestFailed) {
		t.Errorf("GetItem() error = %v, want ErrRequestFailed", err)
	}
}

func TestItemHelpers(t *testing.T) {
	g := Item{Name: "g", Type: "Group", GroupType: "Switch", Tags: []string{"Lighting"}}
	if g.EffectiveType() != "Switch" || !g.IsGroup() {
		t.Errorf("EffectiveType() = %q", g.EffectiveType())
	}
	if !g.HasTag("lighting") {
		t.Error("HasTag should be case-insensitive")
	}
	if g.DisplayName() != "g" {
		t.Errorf("DisplayName() = %q", g.DisplayName())
	}
	for _, s := range []string{"", "NULL", "UNDEF", "unavailable"} {
		if !(Item{State: s}).IsUnavailable() {
			t.Errorf("state %q should be unavailable", s)
		}
	}
	if (Item{State: "0"}).IsUnavailable() {
		t.Error("state 0 is a value")
	}
	if _, ok := (Item{Metadata: map[string]Metadata{"alexa": {Value: "  "}}}).AlexaMetadata(); ok {
		t.Error("blank metadata value should be ignored")
	}
}
