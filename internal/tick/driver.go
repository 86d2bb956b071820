package tick

import (
	"context"
	"time"
)

// Ticker is anything invoked once per timer tick.
type Ticker interface {
	Tick()
}

// Drive calls t.Tick once for every value received on tick until ctx is done
// or tick is closed. It returns ctx.Err() on cancellation and nil on close.
func Drive(ctx context.Context, tick <-chan time.Time, t Ticker) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-tick:
			if !ok {
				return nil
			}
			t.Tick()
		}
	}
}

// Run drives t from a time.Ticker at the given rate in ticks per second.
func Run(ctx context.Context, ticksPerSecond int, t Ticker) error {
	ticker := time.NewTicker(Period(ticksPerSecond))
	defer ticker.Stop()
	return Drive(ctx, ticker.C, t)
}
