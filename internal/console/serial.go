//go:build !tinygo

package console

import (
	"fmt"
	"io"

	"github.com/tarm/serial"
)

// Open returns the sink described by cfg.
func Open(cfg Config) (io.WriteCloser, error) {
	if cfg.Device == "" {
		return Stdout(), nil
	}
	baud := cfg.Baud
	if baud <= 0 {
		baud = DefaultBaud
	}

	port, err := serial.OpenPort(&serial.Config{Name: cfg.Device, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}
	return port, nil
}
