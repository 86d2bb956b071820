package gpio

import "sync"

// Action is an operation recorded by FakeOutput.
type Action string

const (
	ActionHigh   Action = "high"
	ActionLow    Action = "low"
	ActionToggle Action = "toggle"
)

// Op is a single recorded output operation.
type Op struct {
	Pin    Pin
	Action Action
}

// FakeOutput is a test double that records output operations and tracks levels.
type FakeOutput struct {
	mu     sync.Mutex
	levels map[Pin]Level
	ops    []Op
	closed bool

	// WriteError, if set, is returned by High, Low and Toggle.
	WriteError error
}

// NewFakeOutput creates a FakeOutput with the given lines at their initial levels.
func NewFakeOutput(lines []Line) *FakeOutput {
	f := &FakeOutput{levels: make(map[Pin]Level, len(lines))}
	for _, l := range lines {
		f.levels[l.Pin] = l.Initial
	}
	return f
}

func (f *FakeOutput) High(pin Pin) error   { return f.apply(pin, ActionHigh) }
func (f *FakeOutput) Low(pin Pin) error    { return f.apply(pin, ActionLow) }
func (f *FakeOutput) Toggle(pin Pin) error { return f.apply(pin, ActionToggle) }

func (f *FakeOutput) apply(pin Pin, a Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WriteError != nil {
		return f.WriteError
	}
	lvl, ok := f.levels[pin]
	if !ok {
		return unknown(pin)
	}
	switch a {
	case ActionHigh:
		lvl = High
	case ActionLow:
		lvl = Low
	case ActionToggle:
		lvl = !lvl
	}
	f.levels[pin] = lvl
	f.ops = append(f.ops, Op{Pin: pin, Action: a})
	return nil
}

// Level returns the current level of pin.
func (f *FakeOutput) Level(pin Pin) (Level, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lvl, ok := f.levels[pin]
	if !ok {
		return Low, unknown(pin)
	}
	return lvl, nil
}

// Ops returns a copy of the recorded operations.
func (f *FakeOutput) Ops() []Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Op(nil), f.ops...)
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeOutput) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset clears recorded operations without touching levels.
func (f *FakeOutput) Reset() {
	f.mu.Lock()
	f.ops = nil
	f.closed = false
	f.mu.Unlock()
}
