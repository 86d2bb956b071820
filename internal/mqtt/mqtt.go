// Package mqtt publishes blinky fire events and lifecycle events, with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/tio-blinky/internal/tick"
)

// Topic is the MQTT topic for fire events.
const Topic = "tio/blinky/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "tio/blinky/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishFire sends a fire event to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishFire(event FireEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// FireEvent is a tick fire stamped with the time it was observed.
type FireEvent struct {
	Timestamp time.Time
	tick.Fire
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Payload is the fire event message.
type Payload struct {
	Fire FirePayload `json:"fire"`
}

// FirePayload contains the fire details.
type FirePayload struct {
	Timestamp string `json:"timestamp"`
	Counter   int32  `json:"counter"`
	Line      string `json:"line"`
}

// FormatPayload creates the JSON payload for a fire event.
func FormatPayload(event FireEvent) ([]byte, error) {
	return json.Marshal(Payload{
		Fire: FirePayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Counter:   event.Counter,
			Line:      event.Line,
		},
	})
}

// SystemPayload is the message for system events without a status snapshot (LWT, RECONNECTED).
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly. A zero Timestamp is omitted.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	inner := SystemPayloadInner{Event: event.Event, Reason: event.Reason}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// willPayload is registered once as the last will and published by the broker
// whenever we drop off, so it carries no timestamp.
func willPayload() []byte {
	data, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "connection lost"})
	return data
}
