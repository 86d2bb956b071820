// Package gpio provides the digital outputs the blinky drives, with hardware abstraction.
// The real implementation uses the Linux GPIO character device, the machine
// implementation uses TinyGo's machine package and the fake records operations for tests.
package gpio

import (
	"errors"
	"fmt"
)

// Pin is the logical name of an output. It is bound to a physical line at
// configuration time.
type Pin string

// Logical outputs wired on the reference board.
const (
	LED1 Pin = "LED1"
	LED2 Pin = "LED2"
	LED3 Pin = "LED3"
	OUT  Pin = "OUT"
)

// Level is the state of an output.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "HIGH"
	}
	return "LOW"
}

// ErrUnknownPin is returned for pins that were not configured.
var ErrUnknownPin = errors.New("gpio: unknown pin")

// Output drives digital outputs by logical name.
// Implementations are safe for use from the tick handler and the main loop at once.
type Output interface {
	High(pin Pin) error
	Low(pin Pin) error
	Toggle(pin Pin) error

	// Level returns the last level commanded for the pin.
	Level(pin Pin) (Level, error)

	// Close releases GPIO resources.
	Close() error
}

// Line binds a logical pin to a line offset with its level after configuration.
type Line struct {
	Pin     Pin
	Offset  int
	Initial Level
}

// Default line offsets (BCM numbering on the host board).
const (
	DefaultOffsetLED1 = 17
	DefaultOffsetLED2 = 27
	DefaultOffsetLED3 = 22
	DefaultOffsetOUT  = 23
)

// DefaultLines returns the reference wiring: LED1 starts high, the rest low.
func DefaultLines() []Line {
	return []Line{
		{Pin: LED1, Offset: DefaultOffsetLED1, Initial: High},
		{Pin: LED2, Offset: DefaultOffsetLED2, Initial: Low},
		{Pin: LED3, Offset: DefaultOffsetLED3, Initial: Low},
		{Pin: OUT, Offset: DefaultOffsetOUT, Initial: Low},
	}
}

// Pins returns the logical names of lines, in order.
func Pins(lines []Line) []Pin {
	pins := make([]Pin, len(lines))
	for i, l := range lines {
		pins[i] = l.Pin
	}
	return pins
}

func unknown(pin Pin) error {
	return fmt.Errorf("%w %q", ErrUnknownPin, pin)
}
