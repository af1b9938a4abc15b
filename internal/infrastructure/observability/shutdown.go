package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ShutdownCoordinator runs registered close functions in reverse order of
// registration, so components stop before the things they depend on.
type ShutdownCoordinator struct {
	mu       sync.Mutex
	handlers []namedHandler
	logger   Logger
}

// Logger is the logging dependency of ShutdownCoordinator.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type namedHandler struct {
	name string
	fn   func(context.Context) error
}

// NewShutdownCoordinator returns a coordinator that logs to logger, which
// may be nil.
func NewShutdownCoordinator(logger Logger) *ShutdownCoordinator {
	return &ShutdownCoordinator{logger: logger}
}

// Register adds a shutdown handler.
func (s *ShutdownCoordinator) Register(name string, fn func(context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, namedHandler{name: name, fn: fn})
}

// Shutdown runs every handler, last registered first, and joins their
// errors. A failing handler does not stop the rest.
func (s *ShutdownCoordinator) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	handlers := make([]namedHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.handlers = nil
	s.mu.Unlock()

	var errs []error
	for i := len(handlers) - 1; i >= 0; i-- {
		h := handlers[i]
		if s.logger != nil {
			s.logger.Info("shutting down", "component", h.name)
		}
		if err := h.fn(ctx); err != nil {
			if s.logger != nil {
				s.logger.Error("shutdown error", "component", h.name, "error", err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
		}
	}
	return errors.Join(errs...)
}
