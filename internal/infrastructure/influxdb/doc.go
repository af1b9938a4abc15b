// Package influxdb writes directive metrics to InfluxDB v2.
//
// Each handled directive becomes one point in the alexa_directives
// measurement, tagged by interface, directive name and outcome, with the
// handling latency as a field. Writes are batched and never block the
// caller.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // metrics export switched off
//	}
//	client.WriteDirective(influxdb.DirectiveSample{...})
package influxdb
