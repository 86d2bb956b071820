//go:build linux && !tinygo

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// RealOutput drives outputs on actual hardware using the Linux GPIO character device.
type RealOutput struct {
	mu     sync.Mutex
	chip   *gpiocdev.Chip
	lines  map[Pin]*gpiocdev.Line
	levels map[Pin]Level
}

// NewRealOutput requests each line as an output at its initial level.
func NewRealOutput(chipName string, lines []Line) (*RealOutput, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealOutput{
		chip:   chip,
		lines:  make(map[Pin]*gpiocdev.Line, len(lines)),
		levels: make(map[Pin]Level, len(lines)),
	}
	for _, l := range lines {
		line, err := chip.RequestLine(l.Offset, gpiocdev.AsOutput(levelValue(l.Initial)))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", l.Pin, l.Offset, err)
		}
		r.lines[l.Pin] = line
		r.levels[l.Pin] = l.Initial
	}
	return r, nil
}

func (r *RealOutput) High(pin Pin) error { return r.set(pin, func(Level) Level { return High }) }
func (r *RealOutput) Low(pin Pin) error  { return r.set(pin, func(Level) Level { return Low }) }

// Toggle inverts the last commanded level.
func (r *RealOutput) Toggle(pin Pin) error {
	return r.set(pin, func(l Level) Level { return !l })
}

func (r *RealOutput) set(pin Pin, next func(Level) Level) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	line, ok := r.lines[pin]
	if !ok {
		return unknown(pin)
	}
	lvl := next(r.levels[pin])
	if err := line.SetValue(levelValue(lvl)); err != nil {
		return fmt.Errorf("set %s pin: %w", pin, err)
	}
	r.levels[pin] = lvl
	return nil
}

// Level returns the last level commanded for pin.
func (r *RealOutput) Level(pin Pin) (Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lvl, ok := r.levels[pin]
	if !ok {
		return Low, unknown(pin)
	}
	return lvl, nil
}

// Close releases GPIO resources.
// Lines are reconfigured as inputs with pull-down first so LEDs are not left
// driven after the process exits.
func (r *RealOutput) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for pin, line := range r.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", pin, err))
		}
	}
	r.lines = nil
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		r.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func levelValue(l Level) int {
	if l {
		return 1
	}
	return 0
}
