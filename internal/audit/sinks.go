package audit

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa/directive"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/mqtt"
)

// FromRecord converts a directive record to an audit log entry.
func FromRecord(rec directive.Record) AuditLog {
	return AuditLog{
		Namespace:  rec.Namespace,
		Name:       rec.Name,
		EndpointID: rec.EndpointID,
		Outcome:    rec.Outcome,
		ErrorType:  rec.ErrorType,
		DurationMs: rec.Duration.Milliseconds(),
		CreatedAt:  rec.At.UTC(),
	}
}

// RepositorySink persists records in repo.
func RepositorySink(repo Repository) Sink {
	return SinkFunc(func(ctx context.Context, rec directive.Record) error {
		log := FromRecord(rec)
		return repo.Create(ctx, &log)
	})
}

// DirectiveMetrics is implemented by observability.Metrics.
type DirectiveMetrics interface {
	ObserveDirective(namespace, name, outcome, errorType string, d time.Duration)
}

// MetricsSink updates Prometheus meters.
func MetricsSink(m DirectiveMetrics) Sink {
	return SinkFunc(func(_ context.Context, rec directive.Record) error {
		m.ObserveDirective(rec.Namespace, rec.Name, rec.Outcome, rec.ErrorType, rec.Duration)
		return nil
	})
}

// DirectiveWriter is implemented by influxdb.Client.
type DirectiveWriter interface {
	WriteDirective(s influxdb.DirectiveSample)
}

// InfluxSink queues a point per record on the InfluxDB batch writer.
func InfluxSink(w DirectiveWriter) Sink {
	return SinkFunc(func(_ context.Context, rec directive.Record) error {
		w.WriteDirective(influxdb.DirectiveSample{
			Namespace:  rec.Namespace,
			Name:       rec.Name,
			EndpointID: rec.EndpointID,
			Outcome:    rec.Outcome,
			ErrorType:  rec.ErrorType,
			Duration:   rec.Duration,
			At:         rec.At,
		})
		return nil
	})
}

// Event is the JSON payload published on MQTT for each directive.
type Event struct {
	Namespace  string `json:"namespace"`
	Name       string `json:"name"`
	EndpointID string `json:"endpoint_id,omitempty"`
	Outcome    string `json:"outcome"`
	ErrorType  string `json:"error_type,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Timestamp  string `json:"timestamp"`
}

// EventPublisher is implemented by mqtt.Client.
type EventPublisher interface {
	PublishJSON(topic string, v any) error
}

// MQTTSink publishes an Event per record on the directive event topic.
func MQTTSink(p EventPublisher, topics mqtt.Topics) Sink {
	return SinkFunc(func(_ context.Context, rec directive.Record) error {
		log := FromRecord(rec)
		return p.PublishJSON(topics.DirectiveEvent(rec.Namespace, rec.EndpointID), Event{
			Namespace:  log.Namespace,
			Name:       log.Name,
			EndpointID: log.EndpointID,
			Outcome:    log.Outcome,
			ErrorType:  log.ErrorType,
			DurationMs: log.DurationMs,
			Timestamp:  log.CreatedAt.Format(time.RFC3339),
		})
	})
}
