// Command tio-blinky drives the bring-up LED pattern on Linux GPIO lines: a
// foreground loop of busy waits plus a periodic tick that blinks two LEDs and
// prints a counter.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/tio-blinky/internal/console"
	"github.com/sweeney/tio-blinky/internal/delay"
	"github.com/sweeney/tio-blinky/internal/gpio"
	"github.com/sweeney/tio-blinky/internal/mqtt"
	"github.com/sweeney/tio-blinky/internal/sequence"
	"github.com/sweeney/tio-blinky/internal/status"
	"github.com/sweeney/tio-blinky/internal/tick"
	"github.com/sweeney/tio-blinky/internal/web"
)

// config is the parsed command line.
type config struct {
	chip              string
	lines             []gpio.Line
	threshold         uint32
	ticksPerSecond    int
	units             uint32
	iterationsPerUnit uint32
	consoleDevice     string
	baud              int
	broker            string
	heartbeat         time.Duration
	httpAddr          string
	calibrate         bool
}

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (config, error) {
	chip := fs.String("chip", "gpiochip0", "GPIO chip name")
	led1 := fs.Int("pin-led1", gpio.DefaultOffsetLED1, "line offset for LED1")
	led2 := fs.Int("pin-led2", gpio.DefaultOffsetLED2, "line offset for LED2")
	led3 := fs.Int("pin-led3", gpio.DefaultOffsetLED3, "line offset for LED3")
	out := fs.Int("pin-out", gpio.DefaultOffsetOUT, "line offset for the OUT pin")
	threshold := fs.Uint("threshold", tick.DefaultThreshold, "ticks between fires")
	rate := fs.Int("tick-rate", tick.DefaultTicksPerSecond, "ticks per second")
	units := fs.Uint("units", 5000000, "busy-wait units between pattern steps")
	perUnit := fs.Uint("iterations-per-unit", 1, "spin iterations per busy-wait unit")
	consoleDev := fs.String("console", "", "serial device for diagnostic lines (empty for stdout)")
	baud := fs.Int("baud", console.DefaultBaud, "console baud rate")
	broker := fs.String("broker", "", "MQTT broker address (empty to disable)")
	heartbeat := fs.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := fs.String("http", ":8080", "HTTP status address (empty to disable)")
	calibrate := fs.Bool("calibrate", false, "Time one wait of -units and exit")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if *threshold == 0 || *threshold > 1<<32-1 {
		return config{}, fmt.Errorf("threshold %d out of range", *threshold)
	}
	if *rate <= 0 || *rate > tick.MaxTicksPerSecond {
		return config{}, fmt.Errorf("tick rate must be in 1..%d, got %d", tick.MaxTicksPerSecond, *rate)
	}
	if *units > 1<<32-1 || *perUnit > 1<<32-1 {
		return config{}, errors.New("units and iterations-per-unit must fit in 32 bits")
	}

	lines := gpio.DefaultLines()
	for i, off := range []int{*led1, *led2, *led3, *out} {
		lines[i].Offset = off
	}

	return config{
		chip:              *chip,
		lines:             lines,
		threshold:         uint32(*threshold),
		ticksPerSecond:    *rate,
		units:             uint32(*units),
		iterationsPerUnit: uint32(*perUnit),
		consoleDevice:     *consoleDev,
		baud:              *baud,
		broker:            *broker,
		heartbeat:         *heartbeat,
		httpAddr:          *httpAddr,
		calibrate:         *calibrate,
	}, nil
}

func run(cfg config) error {
	spinner := &delay.Spinner{IterationsPerUnit: cfg.iterationsPerUnit}
	if cfg.calibrate {
		d := spinner.Measure(cfg.units)
		fmt.Printf("%d units x %d iterations: %v\n", cfg.units, spinner.IterationsPerUnit, d)
		return nil
	}

	out, err := gpio.NewRealOutput(cfg.chip, cfg.lines)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer out.Close()

	sink, err := console.Open(console.Config{Device: cfg.consoleDevice, Baud: cfg.baud})
	if err != nil {
		return fmt.Errorf("open console: %w", err)
	}
	defer sink.Close()
	lines := console.NewLineWriter(sink)

	tracker := status.NewTracker(time.Now(), status.Config{
		Threshold:         cfg.threshold,
		TicksPerSecond:    cfg.ticksPerSecond,
		Units:             cfg.units,
		IterationsPerUnit: cfg.iterationsPerUnit,
		HeartbeatMs:       cfg.heartbeat.Milliseconds(),
		Broker:            cfg.broker,
		HTTPAddr:          cfg.httpAddr,
		Console:           cfg.consoleDevice,
	})

	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
		fires      chan mqtt.FireEvent
	)
	if cfg.broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.broker, "tio-blinky")
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, mqttStatus = p, p
		fires = make(chan mqtt.FireEvent, 64)
	}

	handler := tick.NewHandler(tick.Config{
		Threshold: cfg.threshold,
		Pins:      [2]gpio.Pin{gpio.LED1, gpio.LED2},
		OnFire:    queueFire(fires, time.Now),
	}, out, lines)

	loop := &sequence.Loop{
		Output:  out,
		Spinner: spinner,
		Steps:   sequence.Default(out, spinner, sequence.DefaultPins(), cfg.units),
	}

	sup := &supervisor{
		handler:    handler,
		loop:       loop,
		out:        out,
		pins:       gpio.Pins(cfg.lines),
		console:    lines,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		heartbeat:  cfg.heartbeat,
		now:        time.Now,
	}
	sup.refresh()

	if publisher != nil {
		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startup); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		}
	}

	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.httpAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := tick.Run(ctx, cfg.ticksPerSecond, handler); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("tick driver stopped: %v", err)
		}
	}()
	loopErr := make(chan error, 1)
	go func() { loopErr <- loop.Run(ctx) }()

	log.Printf("started: threshold=%d tick-rate=%d units=%d iterations-per-unit=%d broker=%q",
		cfg.threshold, cfg.ticksPerSecond, cfg.units, spinner.IterationsPerUnit, cfg.broker)

	refresh := time.NewTicker(time.Second)
	defer refresh.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return sup.runLoop(refresh.C, fires, loopErr, sigCh)
}

// queueFire returns an OnFire hook that hands fires to the supervisor without
// blocking the tick. Fires are dropped when the queue is full.
func queueFire(fires chan<- mqtt.FireEvent, now func() time.Time) func(tick.Fire) {
	if fires == nil {
		return nil
	}
	return func(f tick.Fire) {
		select {
		case fires <- mqtt.FireEvent{Timestamp: now(), Fire: f}:
		default:
		}
	}
}
