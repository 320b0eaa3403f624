// Package logging implements the event log of the resource server.
package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const timeFormat = "2006-01-02 15:04:05"

// RingBuffer is a fixed-size, timestamping event log. The most recent
// lines are retained for the dashboard, every line is also mirrored to
// the configured writer.
type RingBuffer struct {
	mu    sync.Mutex
	out   io.Writer
	buf   []string
	index int
	full  bool
	size  int
}

// NewRingBuffer returns a pointer to a new [RingBuffer] of the given
// size, mirroring all lines to out.
func NewRingBuffer(size int, out io.Writer) *RingBuffer {
	return &RingBuffer{
		out:  out,
		buf:  make([]string, size),
		size: size,
	}
}

// Size returns the capacity of the ring-buffer.
func (b *RingBuffer) Size() int {
	return b.size
}

// Lines returns a copy of the retained lines, oldest first.
func (b *RingBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.full {
		out := make([]string, b.index)
		copy(out, b.buf[:b.index])

		return out
	}

	out := make([]string, b.size)
	copy(out, b.buf[b.index:])
	copy(out[b.size-b.index:], b.buf[:b.index])

	return out
}

// Reset returns the ring-buffer to zero state.
func (b *RingBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = make([]string, b.size)
	b.index = 0
	b.full = false
}

// Printf formats, timestamps and records a message.
func (b *RingBuffer) Printf(format string, args ...any) {
	b.record(fmt.Sprintf(format, args...))
}

// Println timestamps and records a message.
func (b *RingBuffer) Println(args ...any) {
	b.record(fmt.Sprintln(args...))
}

func (b *RingBuffer) record(msg string) {
	line := time.Now().Format(timeFormat) + " " + strings.TrimRight(msg, "\n")

	b.mu.Lock()
	b.buf[b.index] = line
	b.index = (b.index + 1) % b.size
	if b.index == 0 {
		b.full = true
	}
	b.mu.Unlock()

	if b.out != nil {
		fmt.Fprintln(b.out, line)
	}
}
