package tick

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/tio-blinky/internal/gpio"
)

func newTestHandler(t *testing.T, threshold uint32) (*Handler, *gpio.FakeOutput, *bytes.Buffer, *[]Fire) {
	t.Helper()
	out := gpio.NewFakeOutput(gpio.DefaultLines())
	var sink bytes.Buffer
	var fires []Fire
	h := NewHandler(Config{
		Threshold: threshold,
		Pins:      [2]gpio.Pin{gpio.LED1, gpio.LED2},
		OnFire:    func(f Fire) { fires = append(fires, f) },
	}, out, &sink)
	return h, out, &sink, &fires
}

func tickN(h *Handler, n int) {
	for i := 0; i < n; i++ {
		h.Tick()
	}
}

func TestNewHandlerDefaults(t *testing.T) {
	h := NewHandler(Config{}, gpio.NewFakeOutput(nil), &bytes.Buffer{})
	if h.Threshold() != DefaultThreshold {
		t.Errorf("expected threshold %d, got %d", DefaultThreshold, h.Threshold())
	}
	ticks, events := h.Counters()
	if ticks != 0 || events != 0 {
		t.Errorf("expected zero counters, got %d/%d", ticks, events)
	}
}

func TestTickBelowThreshold(t *testing.T) {
	h, out, sink, fires := newTestHandler(t, 500)

	tickN(h, 499)

	ticks, events := h.Counters()
	if ticks != 499 {
		t.Errorf("expected 499 ticks, got %d", ticks)
	}
	if events != 0 {
		t.Errorf("expected 0 events, got %d", events)
	}
	if sink.Len() != 0 {
		t.Errorf("expected no diagnostic output, got %q", sink.String())
	}
	if len(out.Ops()) != 0 {
		t.Errorf("expected no pin operations, got %v", out.Ops())
	}
	if len(*fires) != 0 {
		t.Errorf("expected no fires, got %d", len(*fires))
	}
}

func TestTickFiresAtThreshold(t *testing.T) {
	h, out, sink, fires := newTestHandler(t, 500)

	tickN(h, 499)
	h.Tick()

	if sink.String() != "Testing... 0\n" {
		t.Errorf("expected %q, got %q", "Testing... 0\n", sink.String())
	}
	ticks, events := h.Counters()
	if ticks != 0 {
		t.Errorf("expected ticks reset to 0, got %d", ticks)
	}
	if events != 1 {
		t.Errorf("expected 1 event, got %d", events)
	}

	ops := out.Ops()
	want := []gpio.Op{
		{Pin: gpio.LED1, Action: gpio.ActionToggle},
		{Pin: gpio.LED2, Action: gpio.ActionToggle},
	}
	if len(ops) != len(want) {
		t.Fatalf("expected %d ops, got %v", len(want), ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("op %d: expected %+v, got %+v", i, want[i], ops[i])
		}
	}

	if len(*fires) != 1 {
		t.Fatalf("expected 1 fire, got %d", len(*fires))
	}
	if (*fires)[0].Counter != 0 || (*fires)[0].Line != "Testing... 0" {
		t.Errorf("unexpected fire %+v", (*fires)[0])
	}
}

func TestTickTwoThresholds(t *testing.T) {
	h, out, sink, _ := newTestHandler(t, 500)

	tickN(h, 1000)

	_, events := h.Counters()
	if events != 2 {
		t.Errorf("expected 2 events, got %d", events)
	}
	if sink.String() != "Testing... 0\nTesting... 1\n" {
		t.Errorf("unexpected output %q", sink.String())
	}
	if len(out.Ops()) != 4 {
		t.Errorf("expected 4 toggles, got %d", len(out.Ops()))
	}
	// Two toggles each: LED1 back to its initial HIGH, LED2 back to LOW.
	if lvl, _ := out.Level(gpio.LED1); lvl != gpio.High {
		t.Errorf("LED1: expected HIGH, got %v", lvl)
	}
	if lvl, _ := out.Level(gpio.LED2); lvl != gpio.Low {
		t.Errorf("LED2: expected LOW, got %v", lvl)
	}
}

func TestTickSmallThreshold(t *testing.T) {
	h, _, sink, _ := newTestHandler(t, 1)

	tickN(h, 3)

	if got := strings.Count(sink.String(), "\n"); got != 3 {
		t.Errorf("expected 3 lines, got %d", got)
	}
	if ticks, _ := h.Counters(); ticks != 0 {
		t.Errorf("expected ticks 0, got %d", ticks)
	}
}

func TestTickEventCounterWraps(t *testing.T) {
	h, _, sink, _ := newTestHandler(t, 1)
	h.events.Store(math.MaxInt32)

	h.Tick()

	if !strings.HasPrefix(sink.String(), "Testing... 2147483647\n") {
		t.Errorf("unexpected output %q", sink.String())
	}
	if _, events := h.Counters(); events != math.MinInt32 {
		t.Errorf("expected wrap to %d, got %d", int32(math.MinInt32), events)
	}
}

func TestTickContinuesOnToggleError(t *testing.T) {
	h, out, sink, _ := newTestHandler(t, 2)
	out.WriteError = errors.New("line busy")

	tickN(h, 2)

	if sink.String() != "Testing... 0\n" {
		t.Errorf("fire should still emit diagnostic, got %q", sink.String())
	}
	if _, events := h.Counters(); events != 1 {
		t.Errorf("expected 1 event, got %d", events)
	}
}

type errWriter struct{}

func (errWriter) Write(p []byte) (int, error) { return 0, errors.New("sink closed") }

func TestTickContinuesOnSinkError(t *testing.T) {
	out := gpio.NewFakeOutput(gpio.DefaultLines())
	h := NewHandler(Config{Threshold: 1, Pins: [2]gpio.Pin{gpio.LED1, gpio.LED2}}, out, errWriter{})

	h.Tick()

	if _, events := h.Counters(); events != 1 {
		t.Errorf("expected 1 event, got %d", events)
	}
}

func TestPeriod(t *testing.T) {
	tests := []struct {
		rate int
		want time.Duration
	}{
		{1000, time.Millisecond},
		{100, 10 * time.Millisecond},
		{0, time.Millisecond},
		{-5, time.Millisecond},
		{MaxTicksPerSecond, time.Nanosecond},
		{2000000000, time.Nanosecond},
	}
	for _, tt := range tests {
		if got := Period(tt.rate); got != tt.want {
			t.Errorf("Period(%d): expected %v, got %v", tt.rate, tt.want, got)
		}
	}
}

type countTicker struct{ n int }

func (c *countTicker) Tick() { c.n++ }

func TestDriveCallsTickPerValue(t *testing.T) {
	ch := make(chan time.Time, 5)
	for i := 0; i < 5; i++ {
		ch <- time.Time{}
	}
	close(ch)

	c := &countTicker{}
	if err := Drive(context.Background(), ch, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.n != 5 {
		t.Errorf("expected 5 ticks, got %d", c.n)
	}
}

func TestDriveStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &countTicker{}
	err := Drive(ctx, make(chan time.Time), c)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if c.n != 0 {
		t.Errorf("expected no ticks, got %d", c.n)
	}
}

func TestDriveFiresHandler(t *testing.T) {
	h, _, sink, _ := newTestHandler(t, 500)
	ch := make(chan time.Time, 500)
	for i := 0; i < 500; i++ {
		ch <- time.Time{}
	}
	close(ch)

	Drive(context.Background(), ch, h)

	if sink.String() != "Testing... 0\n" {
		t.Errorf("expected one fire, got %q", sink.String())
	}
}

func TestRunAboveMaxRate(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := &countTicker{}
	if err := Run(ctx, 2000000000, c); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}
