// Package delay provides busy-wait delays for code running without a scheduler
// to yield to, such as the foreground loop of a bare-metal board.
//
// A delay is measured in abstract units. One unit spins IterationsPerUnit loop
// iterations, so elapsed wall-clock time depends on clock speed and must be
// calibrated per board (see Spinner.Measure).
package delay

import (
	"errors"
	"math"
	"time"
)

// ErrNilCallback is the panic value of BusyWaitWithCallback when called without a callback.
var ErrNilCallback = errors.New("delay: nil callback")

// Spinner spins the calling goroutine for a number of abstract units.
// The zero value spins one iteration per unit.
type Spinner struct {
	// IterationsPerUnit is the number of barrier iterations per unit. Zero means one.
	IterationsPerUnit uint32
}

// Default is the spinner used by the package-level functions.
var Default = &Spinner{IterationsPerUnit: 1}

// BusyWait blocks for approximately units abstract units. BusyWait(0) returns immediately.
func (s *Spinner) BusyWait(units uint32) {
	n := uint64(units) * uint64(s.perUnit())
	for ; n > 0; n-- {
		barrier()
	}
}

// BusyWaitLong blocks for units abstract units, which may exceed the 32-bit range
// of BusyWait. The wait is split into consecutive BusyWait calls.
func (s *Spinner) BusyWaitLong(units uint64) {
	splitWait(units, s.BusyWait)
}

// splitWait calls wait with chunks of at most math.MaxUint32 that sum to total.
func splitWait(total uint64, wait func(uint32)) {
	for total > math.MaxUint32 {
		wait(math.MaxUint32)
		total -= math.MaxUint32
	}
	wait(uint32(total))
}

// BusyWaitWithCallback blocks like BusyWait and then calls fn exactly once on the
// calling goroutine. It panics with ErrNilCallback before waiting if fn is nil.
func (s *Spinner) BusyWaitWithCallback(units uint32, fn func()) {
	if fn == nil {
		panic(ErrNilCallback)
	}
	s.BusyWait(units)
	fn()
}

// Measure runs one BusyWait of the given length and reports how long it took.
func (s *Spinner) Measure(units uint32) time.Duration {
	start := time.Now()
	s.BusyWait(units)
	return time.Since(start)
}

func (s *Spinner) perUnit() uint32 {
	if s == nil || s.IterationsPerUnit == 0 {
		return 1
	}
	return s.IterationsPerUnit
}

// BusyWait blocks for approximately units abstract units using Default.
func BusyWait(units uint32) {
	Default.BusyWait(units)
}

// BusyWaitWithCallback waits using Default and then calls fn.
func BusyWaitWithCallback(units uint32, fn func()) {
	Default.BusyWaitWithCallback(units, fn)
}
