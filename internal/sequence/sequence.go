// Package sequence runs the foreground LED choreography: pin writes separated by busy waits.
package sequence

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/sweeney/tio-blinky/internal/delay"
	"github.com/sweeney/tio-blinky/internal/gpio"
)

// Kind is the operation a Step performs.
type Kind int

const (
	High Kind = iota
	Low
	Toggle
	Wait
	// WaitThen busy-waits Units and then calls Callback.
	WaitThen
)

func (k Kind) String() string {
	switch k {
	case High:
		return "high"
	case Low:
		return "low"
	case Toggle:
		return "toggle"
	case Wait:
		return "wait"
	case WaitThen:
		return "wait-then"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Step is one element of a sequence. Pin steps apply to every pin in Pins, in order.
type Step struct {
	Kind     Kind
	Pins     []gpio.Pin
	Units    uint32
	Callback func()
}

// Loop repeats Steps on Output until its context is cancelled.
type Loop struct {
	Output  gpio.Output
	Spinner *delay.Spinner
	Steps   []Step

	cycles atomic.Uint64
}

// Run executes cycles until ctx is done, returning ctx.Err(), or until a pin write fails.
// Cancellation is observed between steps; a wait in progress always completes.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := l.RunOnce(ctx); err != nil {
			return err
		}
	}
}

// RunOnce executes one cycle.
func (l *Loop) RunOnce(ctx context.Context) error {
	for i, s := range l.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.step(s); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, s.Kind, err)
		}
	}
	l.cycles.Add(1)
	return nil
}

// Cycles returns the number of completed cycles.
func (l *Loop) Cycles() uint64 {
	return l.cycles.Load()
}

func (l *Loop) step(s Step) error {
	switch s.Kind {
	case High:
		return eachPin(s.Pins, l.Output.High)
	case Low:
		return eachPin(s.Pins, l.Output.Low)
	case Toggle:
		return eachPin(s.Pins, l.Output.Toggle)
	case Wait:
		l.spinner().BusyWait(s.Units)
	case WaitThen:
		l.spinner().BusyWaitWithCallback(s.Units, s.Callback)
	default:
		return fmt.Errorf("unknown step kind %d", int(s.Kind))
	}
	return nil
}

func (l *Loop) spinner() *delay.Spinner {
	if l.Spinner == nil {
		return delay.Default
	}
	return l.Spinner
}

func eachPin(pins []gpio.Pin, f func(gpio.Pin) error) error {
	for _, p := range pins {
		if err := f(p); err != nil {
			return err
		}
	}
	return nil
}

// Pins names the outputs used by Default.
type Pins struct {
	LED1, LED2, LED3, Out gpio.Pin
}

// DefaultPins returns the reference board wiring.
func DefaultPins() Pins {
	return Pins{LED1: gpio.LED1, LED2: gpio.LED2, LED3: gpio.LED3, Out: gpio.OUT}
}

// Activate-all holds the LEDs on ten times longer than a clear.
const activateFactor = 10

// holdUnits is the activate-all wait. It is computed in 64 bits so large
// step waits keep the ten-to-one ratio.
func holdUnits(units uint32) uint64 {
	return uint64(units) * activateFactor
}

// Default returns the reference choreography with units per wait: walk a light
// across LED1, LED2 and OUT, blink LED3 twice, clear, then light everything
// from a wait callback and clear again.
func Default(out gpio.Output, sp *delay.Spinner, p Pins, units uint32) []Step {
	leds := []gpio.Pin{p.LED1, p.LED2, p.LED3}
	clearAll := []Step{
		{Kind: Low, Pins: leds},
		{Kind: Wait, Units: units},
	}
	activateAll := func() {
		for _, pin := range leds {
			if err := out.High(pin); err != nil {
				log.Printf("sequence: activate %s: %v", pin, err)
			}
		}
		sp.BusyWaitLong(holdUnits(units))
	}

	steps := []Step{
		{Kind: High, Pins: []gpio.Pin{p.LED1}},
		{Kind: Wait, Units: units},
		{Kind: Low, Pins: []gpio.Pin{p.LED1}},
		{Kind: High, Pins: []gpio.Pin{p.LED2}},
		{Kind: Wait, Units: units},
		{Kind: Low, Pins: []gpio.Pin{p.LED2}},
		{Kind: High, Pins: []gpio.Pin{p.Out}},
		{Kind: Wait, Units: units},
		{Kind: Low, Pins: []gpio.Pin{p.Out}},
	}
	for i := 0; i < 4; i++ {
		steps = append(steps,
			Step{Kind: Toggle, Pins: []gpio.Pin{p.LED3}},
			Step{Kind: Wait, Units: units},
		)
	}
	steps = append(steps, clearAll...)
	steps = append(steps, Step{Kind: WaitThen, Units: units, Callback: activateAll})
	steps = append(steps, clearAll...)
	return steps
}
