package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/config"
)

// testConfig returns a configuration for a local Mosquitto broker.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "alexabridge-test",
		},
		QoS:         1,
		TopicPrefix: "alexabridge-test",
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// connectOrSkip connects to the local broker, skipping when it is absent
// unless RUN_INTEGRATION is set.
func connectOrSkip(t *testing.T) *Client {
	t.Helper()
	client, err := Connect(testConfig())
	if err != nil {
		if os.Getenv("RUN_INTEGRATION") == "" {
			t.Skip("MQTT broker not available, skipping integration test")
		}
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // Test cleanup
	return client
}

// ─── Topics ─────────────────────────────────────────────────────────

func TestTopics(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"status", Topics{Prefix: "home/alexa"}.SystemStatus(), "home/alexa/system/status"},
		{"default prefix", Topics{}.SystemStatus(), "alexabridge/system/status"},
		{"trailing slash", Topics{Prefix: "ab/"}.SystemStatus(), "ab/system/status"},
		{"event", Topics{}.DirectiveEvent("Alexa.PowerController", "kitchen"), "alexabridge/events/Alexa.PowerController/kitchen"},
		{"event without endpoint", Topics{}.DirectiveEvent("Alexa.Discovery", ""), "alexabridge/events/Alexa.Discovery/_"},
		{"event sanitised", Topics{}.DirectiveEvent("Alexa", "a/b+c#"), "alexabridge/events/Alexa/a_b_c_"},
		{"wildcard", Topics{}.AllDirectiveEvents(), "alexabridge/events/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

// ─── Validation ─────────────────────────────────────────────────────

func TestValidatePublish(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"ok", "a/b", []byte("{}"), 1, nil},
		{"empty topic", "", nil, 0, ErrInvalidTopic},
		{"wildcard topic", "a/#", nil, 0, ErrInvalidTopic},
		{"qos 3", "a/b", nil, 3, ErrInvalidQoS},
		{"too large", "a/b", make([]byte, maxPayloadSize+1), 0, ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePublish(tt.topic, tt.payload, tt.qos)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("validatePublish() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validatePublish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublishDisconnected(t *testing.T) {
	var c Client
	if err := c.Publish("a/b", []byte("x"), 0, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v", err)
	}
}

func TestBuildStatusPayload(t *testing.T) {
	var p statusPayload
	if err := json.Unmarshal(buildStatusPayload("offline", "ab-1", "graceful_shutdown"), &p); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if p.Status != "offline" || p.ClientID != "ab-1" || p.Reason != "graceful_shutdown" {
		t.Errorf("payload = %+v", p)
	}
	if _, err := time.Parse(time.RFC3339, p.Timestamp); err != nil {
		t.Errorf("timestamp %q: %v", p.Timestamp, err)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Auth.Username = "bridge"
	cfg.Auth.Password = "pw"

	opts := buildClientOptions(cfg)
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.Username != "bridge" || opts.ClientID != "alexabridge-test" {
		t.Errorf("Username = %q ClientID = %q", opts.Username, opts.ClientID)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config not applied")
	}
}

// ─── Broker ─────────────────────────────────────────────────────────

func TestConnectAndPublish(t *testing.T) {
	client := connectOrSkip(t)

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	topic := client.Topics().DirectiveEvent("Alexa.PowerController", "test")
	if err := client.PublishJSON(topic, map[string]string{"outcome": "success"}); err != nil {
		t.Errorf("PublishJSON() error = %v", err)
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	client := connectOrSkip(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}
