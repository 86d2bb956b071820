//go:build tinygo

package gpio

import (
	"machine"
	"runtime/interrupt"
)

// MachineOutput drives outputs through TinyGo's machine package.
// Line.Offset is the machine.Pin number.
type MachineOutput struct {
	pins map[Pin]machine.Pin
}

// NewMachineOutput configures each line as a push-pull output at its initial level.
func NewMachineOutput(lines []Line) *MachineOutput {
	m := &MachineOutput{pins: make(map[Pin]machine.Pin, len(lines))}
	for _, l := range lines {
		p := machine.Pin(l.Offset)
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Set(bool(l.Initial))
		m.pins[l.Pin] = p
	}
	return m
}

func (m *MachineOutput) High(pin Pin) error {
	p, ok := m.pins[pin]
	if !ok {
		return unknown(pin)
	}
	p.High()
	return nil
}

func (m *MachineOutput) Low(pin Pin) error {
	p, ok := m.pins[pin]
	if !ok {
		return unknown(pin)
	}
	p.Low()
	return nil
}

// Toggle reads back and inverts the pin with interrupts disabled, so the tick
// handler cannot interleave with the foreground loop on the same pin.
func (m *MachineOutput) Toggle(pin Pin) error {
	p, ok := m.pins[pin]
	if !ok {
		return unknown(pin)
	}
	state := interrupt.Disable()
	p.Set(!p.Get())
	interrupt.Restore(state)
	return nil
}

func (m *MachineOutput) Level(pin Pin) (Level, error) {
	p, ok := m.pins[pin]
	if !ok {
		return Low, unknown(pin)
	}
	return Level(p.Get()), nil
}

// Close is a no-op; pins stay configured until reset.
func (m *MachineOutput) Close() error {
	return nil
}
