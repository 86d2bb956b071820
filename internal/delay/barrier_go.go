//go:build !tinygo

package delay

import "sync/atomic"

var spinWord uint32

// barrier is the loop body of BusyWait. The atomic load keeps the compiler
// from removing the loop.
var barrier = func() {
	atomic.LoadUint32(&spinWord)
}
