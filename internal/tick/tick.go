// Package tick implements the periodic tick handler and the timer that drives it.
//
// The handler is the only writer of its counters. Other goroutines (or, under
// TinyGo, the foreground loop) read them through Counters, which uses atomic loads.
package tick

import (
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/sweeney/tio-blinky/internal/gpio"
)

// Reference timing: 1000 ticks per second, fire every 500 ticks.
const (
	DefaultTicksPerSecond = 1000
	DefaultThreshold      = 500
)

// Config configures a Handler.
type Config struct {
	// Threshold is the tick count that triggers a fire. Zero means DefaultThreshold.
	Threshold uint32

	// Pins are the two indicator outputs toggled on each fire.
	Pins [2]gpio.Pin

	// OnFire, if set, is called at the end of each fire. It runs in tick
	// context and must not block.
	OnFire func(Fire)
}

// Fire describes one threshold crossing.
type Fire struct {
	Counter int32 // event counter value printed in the line
	Line    string
}

// Handler counts ticks and fires every Threshold ticks.
type Handler struct {
	threshold uint32
	pins      [2]gpio.Pin
	onFire    func(Fire)
	out       gpio.Output
	sink      io.Writer

	ticks  atomic.Uint32
	events atomic.Int32
}

// NewHandler creates a handler with both counters at zero.
func NewHandler(cfg Config, out gpio.Output, sink io.Writer) *Handler {
	th := cfg.Threshold
	if th == 0 {
		th = DefaultThreshold
	}
	return &Handler{
		threshold: th,
		pins:      cfg.Pins,
		onFire:    cfg.OnFire,
		out:       out,
		sink:      sink,
	}
}

// Threshold returns the configured fire threshold.
func (h *Handler) Threshold() uint32 {
	return h.threshold
}

// Tick records one timer tick and fires when the threshold is reached.
func (h *Handler) Tick() {
	n := h.ticks.Load() + 1
	if n != h.threshold {
		h.ticks.Store(n)
		return
	}
	h.fire()
	h.ticks.Store(0)
}

func (h *Handler) fire() {
	for _, pin := range h.pins {
		if err := h.out.Toggle(pin); err != nil {
			log.Printf("tick: toggle %s: %v", pin, err)
		}
	}

	cnt := h.events.Load()
	line := fmt.Sprintf("Testing... %d\n", cnt)
	if _, err := io.WriteString(h.sink, line); err != nil {
		log.Printf("tick: write diagnostic: %v", err)
	}
	// int32 addition wraps on overflow.
	h.events.Store(cnt + 1)

	if h.onFire != nil {
		h.onFire(Fire{Counter: cnt, Line: line[:len(line)-1]})
	}
}

// Counters returns the ticks since the last fire and the number of fires so far.
func (h *Handler) Counters() (ticks uint32, events int32) {
	return h.ticks.Load(), h.events.Load()
}

// MaxTicksPerSecond is the highest rate with a non-zero period.
const MaxTicksPerSecond = int(time.Second)

// Period converts a tick rate in ticks per second to the interval between ticks.
// Non-positive rates use DefaultTicksPerSecond; the result is never below 1ns.
func Period(ticksPerSecond int) time.Duration {
	if ticksPerSecond <= 0 {
		ticksPerSecond = DefaultTicksPerSecond
	}
	if ticksPerSecond > MaxTicksPerSecond {
		return time.Nanosecond
	}
	return time.Second / time.Duration(ticksPerSecond)
}
