//go:build tinygo && rp2040

// Command tio-blinky-mcu is the firmware image for a Raspberry Pi Pico: it
// configures the LED outputs, starts the 1 kHz tick and runs the LED pattern forever.
// Diagnostic lines go to the USB console.
package main

import (
	"context"
	"machine"
	"os"
	"time"

	"github.com/sweeney/tio-blinky/internal/delay"
	"github.com/sweeney/tio-blinky/internal/gpio"
	"github.com/sweeney/tio-blinky/internal/sequence"
	"github.com/sweeney/tio-blinky/internal/tick"
)

// stepUnits is the wait between pattern steps. At 125 MHz one unit is a few cycles.
const stepUnits = 5000000

func boardLines() []gpio.Line {
	return []gpio.Line{
		{Pin: gpio.LED1, Offset: int(machine.LED), Initial: gpio.High},
		{Pin: gpio.LED2, Offset: int(machine.GP14), Initial: gpio.Low},
		{Pin: gpio.LED3, Offset: int(machine.GP15), Initial: gpio.Low},
		{Pin: gpio.OUT, Offset: int(machine.GP16), Initial: gpio.Low},
	}
}

func main() {
	out := gpio.NewMachineOutput(boardLines())

	// Give the USB console time to enumerate before the first line.
	time.Sleep(time.Second)

	handler := tick.NewHandler(tick.Config{
		Threshold: tick.DefaultThreshold,
		Pins:      [2]gpio.Pin{gpio.LED1, gpio.LED2},
	}, out, os.Stdout)

	ctx := context.Background()
	go tick.Run(ctx, tick.DefaultTicksPerSecond, handler)

	sp := delay.Default
	loop := &sequence.Loop{
		Output:  out,
		Spinner: sp,
		Steps:   sequence.Default(out, sp, sequence.DefaultPins(), stepUnits),
	}
	for {
		if err := loop.Run(ctx); err != nil {
			println("loop:", err.Error())
		}
	}
}
