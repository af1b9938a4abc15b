package audit

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa/directive"
)

const (
	// DefaultBufferSize is the queue length used when none is configured.
	DefaultBufferSize = 256

	// sinkTimeout bounds a single sink write.
	sinkTimeout = 5 * time.Second
)

// Sink receives directive records from the Recorder.
type Sink interface {
	Write(ctx context.Context, rec directive.Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rec directive.Record) error

// Write implements Sink.
func (f SinkFunc) Write(ctx context.Context, rec directive.Record) error {
	return f(ctx, rec)
}

// Logger defines the logging interface used by the Recorder.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type namedSink struct {
	name string
	sink Sink
}

// Recorder implements directive.Observer. Records are queued and written
// to every sink by a single background goroutine, so the directive path
// never waits on storage or the network. When the queue is full the record
// is dropped.
type Recorder struct {
	queue  chan directive.Record
	sinks  []namedSink
	logger Logger
	onDrop func()

	mu      sync.RWMutex
	started bool
	closed  bool
	done    chan struct{}
}

// NewRecorder creates a recorder with a queue of bufferSize records.
func NewRecorder(bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Recorder{
		queue:  make(chan directive.Record, bufferSize),
		logger: noopLogger{},
		done:   make(chan struct{}),
	}
}

// SetLogger sets the logger used for sink failures.
func (r *Recorder) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// OnDrop registers a callback invoked for every dropped record.
func (r *Recorder) OnDrop(fn func()) {
	r.onDrop = fn
}

// AddSink registers a sink. Sinks must be added before Start.
func (r *Recorder) AddSink(name string, s Sink) {
	r.sinks = append(r.sinks, namedSink{name: name, sink: s})
}

// Start launches the background writer. Calling it twice is a no-op.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.closed {
		return
	}
	r.started = true
	go r.run()
}

// Observe queues rec without blocking.
func (r *Recorder) Observe(rec directive.Record) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- rec:
	default:
		r.logger.Warn("audit queue full, dropping record",
			"namespace", rec.Namespace, "name", rec.Name)
		if r.onDrop != nil {
			r.onDrop()
		}
	}
}

// Close stops accepting records and waits until the queue is drained or
// ctx expires.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	started := r.started
	close(r.queue)
	r.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.queue {
		r.write(rec)
	}
}

func (r *Recorder) write(rec directive.Record) {
	for _, s := range r.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		err := s.sink.Write(ctx, rec)
		cancel()
		if err != nil {
			r.logger.Error("audit sink write failed", "sink", s.name, "error", err)
		}
	}
}
