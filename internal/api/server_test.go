package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/audit"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/observability"
	"github.com/nerrad567/gray-logic-alexa/migrations"
)

// ─── Fakes ─────────────────────────────────────────────────────────

// fakeDispatcher answers every directive with a Response unless ignore
// names the directive.
type fakeDispatcher struct {
	mu     sync.Mutex
	got    []alexa.Request
	ignore string
	panic  bool
}

func (d *fakeDispatcher) Handle(_ context.Context, req alexa.Request) *alexa.Response {
	d.mu.Lock()
	d.got = append(d.got, req)
	d.mu.Unlock()

	if d.panic {
		panic("boom")
	}
	if req.Directive.Header.Name == d.ignore {
		return nil
	}
	return alexa.NewResponse(req.Directive, nil)
}

type fakeCheck struct{ err error }

func (c fakeCheck) HealthCheck(context.Context) error { return c.err }

// ─── Helpers ───────────────────────────────────────────────────────

func testLogger() *logging.Logger {
	return logging.NewWithWriter(config.LoggingConfig{Level: "error", Format: "text"}, "test", io.Discard)
}

// testServer builds a Server with deps applied over sensible defaults and
// mounts it on an httptest.Server.
func testServer(t *testing.T, mutate func(*Deps)) (*httptest.Server, *fakeDispatcher) {
	t.Helper()

	disp := &fakeDispatcher{}
	deps := Deps{
		Config:     config.APIConfig{Host: "127.0.0.1", Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5}},
		Metrics:    config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Logger:     testLogger(),
		Dispatcher: disp,
		Version:    "test",
	}
	if mutate != nil {
		mutate(&deps)
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, disp
}

func postDirective(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/alexa/v3/directive", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST directive: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

const turnOnBody = `{"directive":{"header":{"namespace":"Alexa.PowerController","name":"TurnOn",` +
	`"payloadVersion":"3","messageId":"m-1","correlationToken":"c-1"},` +
	`"endpoint":{"scope":{"type":"BearerToken","token":"tok"},"endpointId":"light1"},"payload":{}}}`

// ─── Construction ──────────────────────────────────────────────────

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Deps{Dispatcher: &fakeDispatcher{}}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: testLogger()}); err == nil {
		t.Error("New() without dispatcher should fail")
	}
}

func TestStartAndClose(t *testing.T) {
	srv, err := New(Deps{
		Config:     config.APIConfig{Host: "127.0.0.1", Port: 0, Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5}},
		Logger:     testLogger(),
		Dispatcher: &fakeDispatcher{},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

// ─── Directive endpoint ────────────────────────────────────────────

func TestDirectiveResponse(t *testing.T) {
	ts, disp := testServer(t, nil)

	resp := postDirective(t, ts.URL, turnOnBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}

	var body alexa.Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Event.Header.Name != alexa.NameResponse || body.Event.Header.CorrelationToken != "c-1" {
		t.Errorf("event header = %+v", body.Event.Header)
	}

	if len(disp.got) != 1 || disp.got[0].Directive.Token() != "tok" {
		t.Errorf("dispatched = %+v", disp.got)
	}
}

func TestDirectiveIgnored(t *testing.T) {
	ts, disp := testServer(t, nil)
	disp.ignore = "TurnOn"

	resp := postDirective(t, ts.URL, turnOnBody)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}

func TestDirectiveBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"not json", `{"directive":`, http.StatusBadRequest},
		{"missing header", `{"directive":{"payload":{}}}`, http.StatusBadRequest},
		{"wrong payload version", `{"directive":{"header":{"namespace":"Alexa","name":"ReportState","payloadVersion":"2"}}}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, disp := testServer(t, nil)

			resp := postDirective(t, ts.URL, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			var e Error
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Code != ErrCodeBadRequest {
				t.Errorf("error body = %+v, %v", e, err)
			}
			if len(disp.got) != 0 {
				t.Errorf("dispatcher called %d times", len(disp.got))
			}
		})
	}
}

func TestDirectiveMethodNotAllowed(t *testing.T) {
	ts, _ := testServer(t, nil)

	resp, err := http.Get(ts.URL + "/alexa/v3/directive")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestPanicRecovered(t *testing.T) {
	ts, disp := testServer(t, nil)
	disp.panic = true

	resp := postDirective(t, ts.URL, turnOnBody)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	ts, _ := testServer(t, nil)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/alexa/v3/directive", strings.NewReader(turnOnBody))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("X-Request-ID", "lambda-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "lambda-42" {
		t.Errorf("X-Request-ID = %q, want lambda-42", got)
	}
}

func TestResponseStatusDefaultsToOK(t *testing.T) {
	ww := middleware.NewWrapResponseWriter(httptest.NewRecorder(), 1)
	if got := responseStatus(ww); got != http.StatusOK {
		t.Errorf("responseStatus() before write = %d, want 200", got)
	}
	ww.WriteHeader(http.StatusTeapot)
	if got := responseStatus(ww); got != http.StatusTeapot {
		t.Errorf("responseStatus() = %d, want 418", got)
	}
}

// ─── Health ────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]HealthChecker
		wantStatus int
		wantBody   string
	}{
		{"no checks", nil, http.StatusOK, "ok"},
		{"all healthy", map[string]HealthChecker{"database": fakeCheck{}}, http.StatusOK, "ok"},
		{"one failing", map[string]HealthChecker{"database": fakeCheck{}, "mqtt": fakeCheck{errors.New("not connected")}},
			http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := testServer(t, func(d *Deps) { d.Checks = tt.checks })

			resp, err := http.Get(ts.URL + "/health")
			if err != nil {
				t.Fatalf("GET /health: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var body HealthStatus
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tt.wantBody || body.Version != "test" {
				t.Errorf("body = %+v", body)
			}
			if len(body.Checks) != len(tt.checks) {
				t.Errorf("checks = %v", body.Checks)
			}
		})
	}
}

// ─── Metrics ───────────────────────────────────────────────────────

func TestMetricsEndpointAndCounters(t *testing.T) {
	m := observability.NewMetrics()
	ts, _ := testServer(t, func(d *Deps) { d.Observability = m })

	postDirective(t, ts.URL, turnOnBody)

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/alexa/v3/directive", "200")); got != 1 {
		t.Errorf("http_requests_total{route=/alexa/v3/directive} = %v, want 1", got)
	}

	postDirective(t, ts.URL, `{"directive":`)
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/alexa/v3/directive", "400")); got != 1 {
		t.Errorf("http_requests_total{status=400} = %v, want 1", got)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "alexabridge_http_requests_total") {
		t.Errorf("status = %d, body missing http counter", resp.StatusCode)
	}
}

func TestMetricsDisabled(t *testing.T) {
	ts, _ := testServer(t, func(d *Deps) {
		d.Observability = observability.NewMetrics()
		d.Metrics.Enabled = false
	})

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

// ─── Audit ─────────────────────────────────────────────────────────

func openAuditRepo(t *testing.T) *audit.SQLiteRepository {
	t.Helper()
	db, err := database.Open(database.Config{Path: ":memory:", BusyTimeout: 5})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return audit.NewSQLiteRepository(db.DB)
}

func TestListAuditLogs(t *testing.T) {
	repo := openAuditRepo(t)
	ctx := context.Background()
	at := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	for i, outcome := range []string{"success", "error", "success"} {
		entry := &audit.AuditLog{
			Namespace:  "Alexa.PowerController",
			Name:       "TurnOn",
			EndpointID: "light1",
			Outcome:    outcome,
			CreatedAt:  at.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, entry); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	ts, _ := testServer(t, func(d *Deps) { d.AuditRepo = repo })

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantTotal int
	}{
		{"all", "", http.StatusOK, 3},
		{"by outcome", "?outcome=success", http.StatusOK, 2},
		{"since", "?since=2026-10-15T12:01:00Z", http.StatusOK, 2},
		{"bad since", "?since=yesterday", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/api/v1/audit" + tt.query)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantCode {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var result audit.ListResult
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if result.Total != tt.wantTotal || len(result.Logs) != tt.wantTotal {
				t.Errorf("total = %d, logs = %d, want %d", result.Total, len(result.Logs), tt.wantTotal)
			}
		})
	}
}

func TestListAuditLogsNotConfigured(t *testing.T) {
	ts, _ := testServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/v1/audit")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
