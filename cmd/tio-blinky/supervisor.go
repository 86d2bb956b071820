package main

import (
	"context"
	"errors"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/tio-blinky/internal/gpio"
	"github.com/sweeney/tio-blinky/internal/mqtt"
	"github.com/sweeney/tio-blinky/internal/status"
)

type counterSource interface {
	Counters() (ticks uint32, events int32)
}

type cycleSource interface {
	Cycles() uint64
}

type lineSource interface {
	Lines() (int, string)
}

// supervisor watches the tick handler and the main loop from a third goroutine:
// it refreshes the status tracker, publishes fires and heartbeats, and handles shutdown.
type supervisor struct {
	handler    counterSource
	loop       cycleSource
	out        gpio.Output
	pins       []gpio.Pin
	console    lineSource            // may be nil
	publisher  mqtt.Publisher        // nil when MQTT is disabled
	mqttStatus mqtt.ConnectionStatus // may be nil
	tracker    *status.Tracker
	heartbeat  time.Duration
	now        func() time.Time
}

func (s *supervisor) runLoop(refresh <-chan time.Time, fires <-chan mqtt.FireEvent, loopErr <-chan error, sig <-chan os.Signal) error {
	lastHeartbeat := s.now()

	for {
		select {
		case sg := <-sig:
			log.Printf("received %v, shutting down", sg)
			s.shutdown(signalName(sg))
			return nil

		case err := <-loopErr:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			s.shutdown("LOOP_ERROR")
			return err

		case f := <-fires:
			if s.publisher == nil {
				continue
			}
			if err := s.publisher.PublishFire(f); err != nil {
				log.Printf("publish error: %v", err)
			}

		case <-refresh:
			s.refresh()

			t := s.now()
			if s.heartbeat <= 0 || t.Sub(lastHeartbeat) < s.heartbeat {
				continue
			}
			lastHeartbeat = t
			snap := s.tracker.Snapshot()
			log.Printf("heartbeat: fires=%d cycles=%d ticks=%d", snap.Fires, snap.Cycles, snap.Ticks)
			if s.publisher == nil {
				continue
			}
			hb := mqtt.SystemEvent{
				Timestamp:  t,
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			}
			if err := s.publisher.PublishSystem(hb); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}

// refresh copies counters, pin levels and console state into the tracker.
func (s *supervisor) refresh() {
	ticks, fires := s.handler.Counters()
	s.tracker.UpdateCounters(ticks, fires, s.loop.Cycles())

	pins := make([]status.PinState, 0, len(s.pins))
	for _, p := range s.pins {
		lvl, err := s.out.Level(p)
		if err != nil {
			log.Printf("read %s level: %v", p, err)
			continue
		}
		pins = append(pins, status.PinState{Pin: p, Level: lvl})
	}
	s.tracker.SetPins(pins)

	if s.console != nil {
		s.tracker.SetConsole(s.console.Lines())
	}
	if s.mqttStatus != nil {
		s.tracker.SetMQTTConnected(s.mqttStatus.IsConnected())
	}
}

func (s *supervisor) shutdown(reason string) {
	if s.publisher == nil {
		return
	}
	s.refresh()
	snap := s.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  s.now(),
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
	}
	if err := s.publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
