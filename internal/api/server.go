package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/audit"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/observability"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Dispatcher handles one decoded directive. A nil response means the
// directive is ignored and nothing is sent back.
type Dispatcher interface {
	Handle(ctx context.Context, req alexa.Request) *alexa.Response
}

// HealthChecker is implemented by every component reported on /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Metrics    config.MetricsConfig
	Logger     *logging.Logger
	Dispatcher Dispatcher

	// AuditRepo backs GET /api/v1/audit. Optional.
	AuditRepo audit.Repository

	// Observability exposes the Prometheus registry and HTTP counters.
	// Optional; /metrics is not mounted without it.
	Observability *observability.Metrics

	// Checks are reported by name on /health. Optional.
	Checks map[string]HealthChecker

	Version string
}

// Server is the HTTP front end of the bridge.
//
// It is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	metricsCfg config.MetricsConfig
	logger     *logging.Logger
	dispatcher Dispatcher
	auditRepo  audit.Repository
	metrics    *observability.Metrics
	checks     map[string]HealthChecker
	version    string
	startTime  time.Time
	server     *http.Server
	listener   net.Listener
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, dispatcher)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("directive dispatcher is required")
	}

	return &Server{
		cfg:        deps.Config,
		metricsCfg: deps.Metrics,
		logger:     deps.Logger,
		dispatcher: deps.Dispatcher,
		auditRepo:  deps.AuditRepo,
		metrics:    deps.Observability,
		checks:     deps.Checks,
		version:    deps.Version,
		startTime:  time.Now(),
	}, nil
}

// Handler returns the fully wired router. Start uses it; tests can mount it
// on an httptest.Server directly.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections.
//
// The listener is bound synchronously so address errors surface here; the
// server then runs in a background goroutine until Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the listener cannot be bound (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}
	s.listener = ln

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
