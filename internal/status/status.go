// Package status provides a thread-safe status tracker for the blinky daemon.
// It is written by the supervisor loop and read by HTTP handlers and MQTT heartbeats.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/tio-blinky/internal/gpio"
)

// Config contains daemon configuration for display.
type Config struct {
	Threshold         uint32
	TicksPerSecond    int
	Units             uint32
	IterationsPerUnit uint32
	HeartbeatMs       int64
	Broker            string
	HTTPAddr          string
	Console           string // serial device, empty = stdout
}

// FirePeriod is the time between fires implied by the tick configuration.
func (c Config) FirePeriod() time.Duration {
	if c.TicksPerSecond <= 0 {
		return 0
	}
	return time.Duration(c.Threshold) * time.Second / time.Duration(c.TicksPerSecond)
}

// PinState is the last commanded level of an output.
type PinState struct {
	Pin   gpio.Pin
	Level gpio.Level
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Ticks         uint32 // ticks since the last fire
	Fires         int32  // event counter
	Cycles        uint64 // completed main-loop cycles
	Pins          []PinState
	ConsoleLines  int
	LastLine      string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// UpdateCounters sets the tick handler counters and the loop cycle count.
func (t *Tracker) UpdateCounters(ticks uint32, fires int32, cycles uint64) {
	t.mu.Lock()
	t.snap.Ticks = ticks
	t.snap.Fires = fires
	t.snap.Cycles = cycles
	t.mu.Unlock()
}

// SetPins replaces the pin levels.
func (t *Tracker) SetPins(pins []PinState) {
	cp := append([]PinState(nil), pins...)
	t.mu.Lock()
	t.snap.Pins = cp
	t.mu.Unlock()
}

// SetConsole sets the diagnostic line count and the most recent line.
func (t *Tracker) SetConsole(lines int, last string) {
	t.mu.Lock()
	t.snap.ConsoleLines = lines
	t.snap.LastLine = last
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Pins = append([]PinState(nil), t.snap.Pins...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
