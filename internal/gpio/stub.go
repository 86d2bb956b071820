//go:build !linux && !tinygo

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealOutput is not available on non-Linux platforms.
type RealOutput struct{}

// NewRealOutput returns an error on non-Linux platforms.
func NewRealOutput(chipName string, lines []Line) (*RealOutput, error) {
	return nil, errUnsupported
}

func (r *RealOutput) High(pin Pin) error           { return errUnsupported }
func (r *RealOutput) Low(pin Pin) error            { return errUnsupported }
func (r *RealOutput) Toggle(pin Pin) error         { return errUnsupported }
func (r *RealOutput) Level(pin Pin) (Level, error) { return Low, errUnsupported }
func (r *RealOutput) Close() error                 { return nil }
