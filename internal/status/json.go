package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string            `json:"event,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	Ticks         uint32            `json:"ticks"`
	Fires         int32             `json:"fires"`
	Cycles        uint64            `json:"cycles"`
	Pins          map[string]string `json:"pins"`
	Console       ConsoleJSON       `json:"console"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	StartTime     string            `json:"start_time"`
	Timestamp     string            `json:"timestamp"`
	MQTT          MQTTStatus        `json:"mqtt"`
	Config        ConfigJSON        `json:"config"`
}

// ConsoleJSON reports diagnostic output.
type ConsoleJSON struct {
	Device   string `json:"device,omitempty"`
	Lines    int    `json:"lines"`
	LastLine string `json:"last_line,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Threshold         uint32 `json:"threshold"`
	TicksPerSecond    int    `json:"ticks_per_second"`
	FirePeriodMs      int64  `json:"fire_period_ms"`
	Units             uint32 `json:"units"`
	IterationsPerUnit uint32 `json:"iterations_per_unit"`
	HeartbeatMs       int64  `json:"heartbeat_ms"`
	HTTPAddr          string `json:"http_addr,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	pins := make(map[string]string, len(snap.Pins))
	for _, p := range snap.Pins {
		pins[string(p.Pin)] = p.Level.String()
	}
	cfg := snap.Config

	return StatusInner{
		Ticks:         snap.Ticks,
		Fires:         snap.Fires,
		Cycles:        snap.Cycles,
		Pins:          pins,
		Console:       ConsoleJSON{Device: cfg.Console, Lines: snap.ConsoleLines, LastLine: snap.LastLine},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: cfg.Broker},
		Config: ConfigJSON{
			Threshold:         cfg.Threshold,
			TicksPerSecond:    cfg.TicksPerSecond,
			FirePeriodMs:      cfg.FirePeriod().Milliseconds(),
			Units:             cfg.Units,
			IterationsPerUnit: cfg.IterationsPerUnit,
			HeartbeatMs:       cfg.HeartbeatMs,
			HTTPAddr:          cfg.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
