package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/tio-blinky/internal/gpio"
)

var testCfg = Config{
	Threshold:         500,
	TicksPerSecond:    1000,
	Units:             5000000,
	IterationsPerUnit: 1,
	HeartbeatMs:       900000,
	Broker:            "tcp://localhost:1883",
	HTTPAddr:          ":8080",
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, testCfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.Threshold != 500 {
		t.Errorf("Config.Threshold: got %d, want 500", snap.Config.Threshold)
	}
	if snap.Fires != 0 || snap.Ticks != 0 || snap.Cycles != 0 {
		t.Errorf("expected zero counters, got %+v", snap)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), testCfg)

	tr.UpdateCounters(42, 3, 7)
	tr.SetPins([]PinState{{gpio.LED1, gpio.High}, {gpio.LED2, gpio.Low}})
	tr.SetConsole(3, "Testing... 2")
	tr.SetMQTTConnected(true)

	snap := tr.Snapshot()
	if snap.Ticks != 42 || snap.Fires != 3 || snap.Cycles != 7 {
		t.Errorf("counters: got %d/%d/%d", snap.Ticks, snap.Fires, snap.Cycles)
	}
	if len(snap.Pins) != 2 || snap.Pins[0].Level != gpio.High {
		t.Errorf("pins: got %+v", snap.Pins)
	}
	if snap.ConsoleLines != 3 || snap.LastLine != "Testing... 2" {
		t.Errorf("console: got %d %q", snap.ConsoleLines, snap.LastLine)
	}
	if !snap.MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}
}

func TestSnapshotPinsAreCopied(t *testing.T) {
	tr := NewTracker(time.Now(), testCfg)
	pins := []PinState{{gpio.LED1, gpio.High}}
	tr.SetPins(pins)
	pins[0].Level = gpio.Low

	snap := tr.Snapshot()
	snap.Pins[0].Pin = gpio.LED3

	again := tr.Snapshot()
	if again.Pins[0].Pin != gpio.LED1 || again.Pins[0].Level != gpio.High {
		t.Errorf("tracker state was aliased: %+v", again.Pins)
	}
}

func TestFirePeriod(t *testing.T) {
	if got := testCfg.FirePeriod(); got != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", got)
	}
	if got := (Config{Threshold: 500}).FirePeriod(); got != 0 {
		t.Errorf("expected 0 with no tick rate, got %v", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), testCfg)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			tr.UpdateCounters(uint32(n), int32(n), uint64(n))
			tr.SetPins([]PinState{{gpio.LED1, gpio.Level(n%2 == 0)}})
		}(i)
		go func() {
			defer wg.Done()
			_ = tr.Snapshot()
		}()
	}
	wg.Wait()
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Ticks:         120,
		Fires:         4,
		Cycles:        2,
		Pins:          []PinState{{gpio.LED1, gpio.High}, {gpio.LED3, gpio.Low}},
		ConsoleLines:  4,
		LastLine:      "Testing... 3",
		StartTime:     start,
		Now:           start.Add(90 * time.Second),
		MQTTConnected: true,
		Config:        testCfg,
	}

	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &sj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s := sj.Status
	if s.Event != "" || s.Reason != "" {
		t.Errorf("web JSON should not carry event/reason, got %q/%q", s.Event, s.Reason)
	}
	if s.Ticks != 120 || s.Fires != 4 || s.Cycles != 2 {
		t.Errorf("counters: got %d/%d/%d", s.Ticks, s.Fires, s.Cycles)
	}
	if s.Pins["LED1"] != "HIGH" || s.Pins["LED3"] != "LOW" {
		t.Errorf("pins: got %v", s.Pins)
	}
	if s.Console.LastLine != "Testing... 3" || s.Console.Lines != 4 {
		t.Errorf("console: got %+v", s.Console)
	}
	if s.UptimeSeconds != 90 {
		t.Errorf("uptime: got %d, want 90", s.UptimeSeconds)
	}
	if s.Config.FirePeriodMs != 500 {
		t.Errorf("fire period: got %d, want 500", s.Config.FirePeriodMs)
	}
	if !s.MQTT.Connected || s.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("mqtt: got %+v", s.MQTT)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{StartTime: start, Now: start, Config: testCfg}

	var sj StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"), &sj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" || sj.Status.Reason != "SIGTERM" {
		t.Errorf("event/reason: got %q/%q", sj.Status.Event, sj.Status.Reason)
	}
}
