// Package telemetry ingests the field-sensor stream: a single background
// subscription to an MQTT topic, decoded into observations and buffered
// for the drift estimator. The ingester runs on its own lifecycle and is
// never awaited by request handling.
package telemetry

import "time"

// Observation is one decoded sensor payload.
type Observation struct {
	ReceivedAt time.Time
	Payload    map[string]any
}
