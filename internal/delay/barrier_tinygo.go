//go:build tinygo

package delay

import (
	"runtime"
	"runtime/volatile"
)

// yieldEvery bounds how long the foreground holds TinyGo's cooperative
// scheduler, so the tick goroutine keeps its rate during long waits.
const yieldEvery = 1024

var (
	spinWord volatile.Register32
	spins    uint32
)

// barrier is the loop body of BusyWait. A volatile read cannot be optimized away.
var barrier = func() {
	spinWord.Get()
	spins++
	if spins%yieldEvery == 0 {
		runtime.Gosched()
	}
}
