// Package console provides the line-oriented diagnostic sink: stdout or a serial port.
package console

import (
	"bytes"
	"io"
	"os"
	"sync"
)

// DefaultBaud matches the usual debug UART configuration.
const DefaultBaud = 115200

// Config selects the sink. An empty Device means stdout.
type Config struct {
	Device string
	Baud   int
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Stdout returns stdout as a sink whose Close does nothing.
func Stdout() io.WriteCloser {
	return nopCloser{os.Stdout}
}

// maxPartial bounds the unterminated tail kept for line tracking. Bytes past it
// are still written to the sink but not kept for LastLine.
const maxPartial = 4096

// LineWriter serialises writes to an underlying sink and tracks complete lines.
type LineWriter struct {
	mu      sync.Mutex
	w       io.Writer
	partial []byte
	lines   int
	last    string
}

// NewLineWriter wraps w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w}
}

// Write passes p to the sink and counts the newlines in it.
func (l *LineWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, err := l.w.Write(p)
	data := append(l.partial, p[:n]...)
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		l.last = string(data[:i])
		l.lines++
		data = data[i+1:]
	}
	if len(data) > maxPartial {
		data = data[:maxPartial]
	}
	l.partial = append(l.partial[:0:0], data...)
	return n, err
}

// Lines returns the number of complete lines written and the last one, without its newline.
func (l *LineWriter) Lines() (int, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lines, l.last
}
