package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// DirectiveMeasurement is the measurement directive samples are written to.
const DirectiveMeasurement = "alexa_directives"

// DirectiveSample is one handled directive.
type DirectiveSample struct {
	Namespace  string
	Name       string
	EndpointID string
	Outcome    string
	ErrorType  string
	Duration   time.Duration
	At         time.Time
}

// NewDirectivePoint converts a sample to a point.
//
// Interface, name, outcome and error type are tags. The endpoint ID is a
// field because its cardinality is unbounded.
func NewDirectivePoint(s DirectiveSample) *write.Point {
	tags := map[string]string{
		"namespace": s.Namespace,
		"name":      s.Name,
		"outcome":   s.Outcome,
	}
	if s.ErrorType != "" {
		tags["error_type"] = s.ErrorType
	}

	fields := map[string]any{
		"duration_ms": float64(s.Duration) / float64(time.Millisecond),
	}
	if s.EndpointID != "" {
		fields["endpoint_id"] = s.EndpointID
	}

	at := s.At
	if at.IsZero() {
		at = time.Now()
	}
	return write.NewPoint(DirectiveMeasurement, tags, fields, at)
}

// WriteDirective queues a directive sample. It is a no-op when the client
// is not connected.
func (c *Client) WriteDirective(s DirectiveSample) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(NewDirectivePoint(s))
}
